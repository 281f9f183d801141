// Package scan lexes shell input: meta-command names and arguments, SQL
// statement boundaries and :variable references. It also holds the stack
// that tracks \if blocks.
package scan

import (
	"errors"
	"strings"

	"pgshell/internal/variables"
)

// ErrUnterminatedQuote is reported when an argument ends inside quotes.
var ErrUnterminatedQuote = errors.New("unterminated quoted string")

// Lookup resolves a variable name for interpolation.
type Lookup func(name string) (string, bool)

// ArgMode selects how NextArg reads an argument.
type ArgMode int

const (
	// ArgNormal reads one whitespace-delimited argument with quoting and interpolation.
	ArgNormal ArgMode = iota
	// ArgWholeLine returns everything up to the end of the line, verbatim.
	ArgWholeLine
)

// State scans a single meta-command: a backslash, a command name and its
// arguments. A State is used once; create a fresh one for every command.
type State struct {
	text   string
	pos    int
	lookup Lookup
	err    error
}

// New creates a scanner over text, which should begin with a backslash.
// lookup may be nil, in which case no interpolation happens.
func New(text string, lookup Lookup) *State {
	return &State{text: text, lookup: lookup}
}

// Text returns the complete input the scanner was created with.
func (s *State) Text() string {
	return s.text
}

// Err returns the first lexing problem met, if any.
func (s *State) Err() error {
	return s.err
}

// CommandName reads the backslash and the command name that follows it.
// The name ends at whitespace or at the next backslash.
func (s *State) CommandName() string {
	s.skipSpace()
	if s.pos < len(s.text) && s.text[s.pos] == '\\' {
		s.pos++
	}
	start := s.pos
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		if isSpace(c) || (c == '\\' && s.pos > start) {
			break
		}
		s.pos++
	}
	return s.text[start:s.pos]
}

// NextArg reads the next argument. ok is false when the command has no more
// arguments: the line ended or the next meta-command begins.
func (s *State) NextArg(mode ArgMode) (arg string, ok bool) {
	s.skipSpace()
	if s.pos >= len(s.text) || s.text[s.pos] == '\n' {
		return "", false
	}

	if mode == ArgWholeLine {
		end := strings.IndexByte(s.text[s.pos:], '\n')
		if end < 0 {
			end = len(s.text) - s.pos
		}
		arg = strings.TrimRight(s.text[s.pos:s.pos+end], " \t\r")
		s.pos += end
		return arg, true
	}

	if s.text[s.pos] == '\\' {
		return "", false
	}

	var b strings.Builder
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		switch {
		case isSpace(c) || c == '\\':
			return b.String(), true
		case c == '\'':
			s.readSingleQuoted(&b)
		case c == '"':
			s.readDoubleQuoted(&b)
		case c == ':':
			s.readVariable(&b)
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	return b.String(), true
}

// Args reads every remaining argument in ArgNormal mode.
func (s *State) Args() []string {
	var args []string
	for {
		arg, ok := s.NextArg(ArgNormal)
		if !ok {
			return args
		}
		args = append(args, arg)
	}
}

// SkipArgs consumes the remaining arguments without expanding variables,
// as an inactive \if branch does.
func (s *State) SkipArgs() {
	lookup := s.lookup
	s.lookup = nil
	s.Args()
	s.lookup = lookup
}

// Rest returns the unscanned remainder of the input, starting with the
// next meta-command or the text after the current line.
func (s *State) Rest() string {
	s.skipSpace()
	return s.text[s.pos:]
}

func (s *State) skipSpace() {
	for s.pos < len(s.text) && isSpace(s.text[s.pos]) && s.text[s.pos] != '\n' {
		s.pos++
	}
}

// readSingleQuoted reads a single-quoted string, handling doubled quotes and
// backslash escapes, and drops the enclosing quotes.
func (s *State) readSingleQuoted(b *strings.Builder) {
	s.pos++
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		switch {
		case c == '\'' && s.pos+1 < len(s.text) && s.text[s.pos+1] == '\'':
			b.WriteByte('\'')
			s.pos += 2
		case c == '\'':
			s.pos++
			return
		case c == '\\' && s.pos+1 < len(s.text):
			b.WriteByte(unescape(s.text[s.pos+1]))
			s.pos += 2
		default:
			b.WriteByte(c)
			s.pos++
		}
	}
	s.fail(ErrUnterminatedQuote)
}

// readDoubleQuoted copies "text" verbatim, quotes included.
func (s *State) readDoubleQuoted(b *strings.Builder) {
	start := s.pos
	s.pos++
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		s.pos++
		if c == '"' {
			b.WriteString(s.text[start:s.pos])
			return
		}
	}
	b.WriteString(s.text[start:])
	s.fail(ErrUnterminatedQuote)
}

func (s *State) readVariable(b *strings.Builder) {
	text, n := interpolate(s.text[s.pos:], s.lookup)
	b.WriteString(text)
	s.pos += n
}

func (s *State) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'b':
		return '\b'
	case 'f':
		return '\f'
	default:
		return c
	}
}

// interpolate expands a variable reference at the start of text, which
// begins with ':'. It returns the replacement and how many bytes it consumed.
// References to unset variables, and a ':' not followed by a name, are kept literally.
func interpolate(text string, lookup Lookup) (string, int) {
	if len(text) < 2 || lookup == nil {
		return text[:1], 1
	}

	quote := byte(0)
	start := 1
	if text[1] == '\'' || text[1] == '"' {
		quote = text[1]
		start = 2
	}

	end := start
	for end < len(text) && variables.IsNameByte(text[end]) {
		end++
	}
	if end == start {
		return text[:1], 1
	}

	if quote != 0 {
		if end >= len(text) || text[end] != quote {
			return text[:1], 1
		}
		name := text[start:end]
		value, ok := lookup(name)
		if !ok {
			return text[:end+1], end + 1
		}
		if quote == '\'' {
			return QuoteLiteral(value), end + 1
		}
		return QuoteIdent(value), end + 1
	}

	name := text[start:end]
	value, ok := lookup(name)
	if !ok {
		return text[:end], end
	}
	return value, end
}

// QuoteLiteral quotes value as an SQL string literal.
func QuoteLiteral(value string) string {
	escaped := strings.ReplaceAll(value, "'", "''")
	if strings.Contains(value, `\`) {
		return "E'" + strings.ReplaceAll(escaped, `\`, `\\`) + "'"
	}
	return "'" + escaped + "'"
}

// QuoteIdent quotes value as an SQL identifier.
func QuoteIdent(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
