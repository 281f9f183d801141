package scan

import "strings"

// Result says why Lexer.Scan stopped.
type Result int

const (
	// ResultIncomplete means the input ran out before the statement ended.
	ResultIncomplete Result = iota
	// ResultStatement means a semicolon completed a statement; call Take.
	ResultStatement
	// ResultCommand means a meta-command starts; the returned rest begins with its backslash.
	ResultCommand
)

// Lexer splits SQL input into statements and finds meta-commands between
// them. It keeps quote, comment and parenthesis state across lines, and
// expands :variable references outside quotes as it goes.
type Lexer struct {
	buf   strings.Builder
	quote byte
	// escapes is set inside an E'...' string, where backslash escapes the next byte.
	escapes bool
	// dollar is the closing tag of the open dollar quote, such as "$$" or "$fn$".
	dollar  string
	parens  int
	comment bool
	lookup  Lookup
	// raw treats backslashes as ordinary SQL text.
	raw bool
}

// NewLexer creates a lexer that resolves :name references through lookup.
func NewLexer(lookup Lookup) *Lexer {
	return &Lexer{lookup: lookup}
}

// Scan consumes text, normally one input line without its newline, and
// appends it to the pending statement until something needs the caller's
// attention. The returned rest is the text not consumed yet.
func (l *Lexer) Scan(text string) (Result, string) {
	for i := 0; i < len(text); {
		c := text[i]
		var next byte
		if i+1 < len(text) {
			next = text[i+1]
		}

		switch {
		case l.comment:
			if c == '*' && next == '/' {
				l.buf.WriteString("*/")
				l.comment = false
				i += 2
				continue
			}
			l.buf.WriteByte(c)
			i++
		case l.dollar != "":
			if strings.HasPrefix(text[i:], l.dollar) {
				l.buf.WriteString(l.dollar)
				i += len(l.dollar)
				l.dollar = ""
				continue
			}
			l.buf.WriteByte(c)
			i++
		case l.quote != 0:
			l.buf.WriteByte(c)
			i++
			switch {
			case l.escapes && c == '\\' && i < len(text):
				l.buf.WriteByte(text[i])
				i++
			case c == l.quote:
				l.quote = 0
				l.escapes = false
			}
		case c == '-' && next == '-':
			return ResultIncomplete, ""
		case c == '/' && next == '*':
			l.buf.WriteString("/*")
			l.comment = true
			i += 2
		case c == '\'' || c == '"':
			l.escapes = c == '\'' && l.escapePrefix()
			l.buf.WriteByte(c)
			l.quote = c
			i++
		case c == '$' && !isIdentByte(l.lastByte(0)):
			tag := dollarTag(text[i:])
			if tag == "" {
				l.buf.WriteByte(c)
				i++
				continue
			}
			l.buf.WriteString(tag)
			l.dollar = tag
			i += len(tag)
		case c == '(':
			l.buf.WriteByte(c)
			l.parens++
			i++
		case c == ')':
			l.buf.WriteByte(c)
			if l.parens > 0 {
				l.parens--
			}
			i++
		case c == ':' && next == ':':
			l.buf.WriteString("::")
			i += 2
		case c == ':':
			value, n := interpolate(text[i:], l.lookup)
			l.buf.WriteString(value)
			i += n
		case c == ';' && l.parens == 0:
			l.buf.WriteByte(c)
			return ResultStatement, text[i+1:]
		case c == '\\' && !l.raw:
			return ResultCommand, text[i:]
		default:
			l.buf.WriteByte(c)
			i++
		}
	}
	return ResultIncomplete, ""
}

// Split cuts sql into statements at top-level semicolons. Text after the
// last semicolon is returned as a final statement when it is not blank.
// No variables are expanded and backslashes have no special meaning.
func Split(sql string) []string {
	l := &Lexer{raw: true}
	var stmts []string
	for i, line := range strings.Split(sql, "\n") {
		if i > 0 {
			l.Newline()
		}
		rest := line
		for {
			res, after := l.Scan(rest)
			if res != ResultStatement {
				break
			}
			stmts = append(stmts, l.Take())
			rest = after
		}
	}
	if l.Pending() {
		stmts = append(stmts, l.Take())
	}
	return stmts
}

// lastByte returns the byte n places before the end of the buffer, or 0.
func (l *Lexer) lastByte(n int) byte {
	s := l.buf.String()
	if len(s) <= n {
		return 0
	}
	return s[len(s)-1-n]
}

// escapePrefix reports whether the buffer ends in a standalone E or e, so
// that a quote opening now starts an escape string.
func (l *Lexer) escapePrefix() bool {
	last := l.lastByte(0)
	return (last == 'E' || last == 'e') && !isIdentByte(l.lastByte(1))
}

// dollarTag returns the dollar-quote delimiter at the start of s, such as
// "$$" or "$body$", or "" when s does not start with one. "$1" is a
// parameter, not a tag.
func dollarTag(s string) string {
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '$':
			return s[:i+1]
		case c == '_' || c >= 0x80 || isLetter(c):
		case c >= '0' && c <= '9' && i > 1:
		default:
			return ""
		}
	}
	return ""
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_' || c == '$' || c >= 0x80
}

// Newline records a line break in the pending statement.
func (l *Lexer) Newline() {
	if l.Pending() || l.quote != 0 || l.dollar != "" || l.comment {
		l.buf.WriteByte('\n')
	}
}

// Pending reports whether a partial statement is buffered.
func (l *Lexer) Pending() bool {
	return strings.TrimSpace(l.buf.String()) != ""
}

// Take returns the buffered statement and clears the buffer.
func (l *Lexer) Take() string {
	stmt := strings.TrimSpace(l.buf.String())
	l.Reset()
	return stmt
}

// Reset discards the buffered statement and all lexing state.
func (l *Lexer) Reset() {
	l.buf.Reset()
	l.quote = 0
	l.escapes = false
	l.dollar = ""
	l.parens = 0
	l.comment = false
}

// Status returns the prompt status character: '=' when idle, '-' inside a
// statement, the quote character inside quotes, '$' inside a dollar quote,
// '*' inside a comment and '(' inside parentheses.
func (l *Lexer) Status() byte {
	switch {
	case l.quote != 0:
		return l.quote
	case l.dollar != "":
		return '$'
	case l.comment:
		return '*'
	case l.parens > 0:
		return '('
	case l.Pending():
		return '-'
	default:
		return '='
	}
}
