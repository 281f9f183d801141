package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"pgshell/internal/backend"
	"pgshell/internal/rcfile"
	"pgshell/internal/scan"
	"pgshell/internal/settings"
	"pgshell/internal/version"
	"pgshell/pkg/shelltypes"
)

// errInterrupt reports Ctrl-C at the prompt; the main loop discards the
// pending statement and carries on.
var errInterrupt = errors.New("interrupted")

// Interactive reads from the terminal until \q or end of input.
func (s *Session) Interactive(ctx context.Context) shelltypes.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:            s.historyFile(),
		HistoryLimit:           historyLimit(s.settings.HistSize),
		DisableAutoSaveHistory: true,
		InterruptPrompt:        "^C",
		EOFPrompt:              `\q`,
		Stdout:                 s.out,
		Stderr:                 s.errOut,
	})
	if err != nil {
		s.diag.Errorf("could not initialize terminal: %v", err)
		return shelltypes.ExitFailure
	}
	defer func() { _ = rl.Close() }()

	if !s.settings.Quiet {
		fmt.Fprintf(s.out, "pgshell (%s)\nType \"\\?\" for help.\n\n", version.Name())
	}
	src := &terminalSource{session: s, rl: rl}
	return s.run(ctx, &frame{name: "<terminal>", interactive: true}, src)
}

// terminalSource reads lines through readline and applies IGNOREEOF and
// HISTCONTROL.
type terminalSource struct {
	session *Session
	rl      *readline.Instance
	eofs    int
	last    string
}

func (t *terminalSource) ReadLine(prompt string) (string, error) {
	t.rl.SetPrompt(prompt)
	line, err := t.rl.Readline()
	switch {
	case errors.Is(err, readline.ErrInterrupt):
		return "", errInterrupt
	case errors.Is(err, io.EOF):
		if t.eofs < t.session.settings.IgnoreEOF {
			t.eofs++
			fmt.Fprintln(t.session.out, `Use "\q" to leave pgshell.`)
			return "", nil
		}
		return "", io.EOF
	case err != nil:
		return "", err
	}

	t.eofs = 0
	if keepInHistory(t.session.settings.HistControl, line, t.last) {
		if err := t.rl.SaveHistory(line); err != nil {
			t.session.logger.Debug("Failed to save history", "error", err)
		}
	}
	t.last = line
	return line, nil
}

func keepInHistory(control settings.HistControl, line, previous string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	ignoreSpace := control == settings.HistControlIgnoreSpace || control == settings.HistControlIgnoreBoth
	ignoreDups := control == settings.HistControlIgnoreDups || control == settings.HistControlIgnoreBoth
	if ignoreSpace && strings.HasPrefix(line, " ") {
		return false
	}
	if ignoreDups && line == previous {
		return false
	}
	return true
}

func (s *Session) historyFile() string {
	if s.settings.HistFile != "" {
		return rcfile.ExpandTilde(s.settings.HistFile)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pgshell_history")
}

// historyLimit converts HISTSIZE: negative keeps everything, zero keeps nothing.
func historyLimit(size int) int {
	switch {
	case size < 0:
		return math.MaxInt32
	case size == 0:
		return -1
	default:
		return size
	}
}

// prompt returns the prompt for the next line of input, or "" when not
// reading a terminal.
func (s *Session) prompt(lexer *scan.Lexer, cond *scan.ConditionalStack) string {
	f := s.current()
	if f == nil || !f.interactive {
		return ""
	}
	if lexer.Pending() || lexer.Status() != '=' {
		return s.ExpandPrompt(s.settings.Prompt2, lexer.Status(), cond)
	}
	return s.ExpandPrompt(s.settings.Prompt1, '=', cond)
}

// ExpandPrompt substitutes the escapes of a PROMPT variable:
//
//	%/  %~  database name
//	%R  '=' at the start of a statement, the lexer state inside one,
//	    '@' inside an inactive \if branch, '!' without a connection
//	    and '^' in single-line mode
//	%x  '*' in a transaction, '!' in a failed one, '?' when unknown
//	%#  '#' for superusers, '>' otherwise
//	%%  a literal percent sign
//
// Unknown escapes expand to nothing.
func (s *Session) ExpandPrompt(template string, status byte, cond *scan.ConditionalStack) string {
	var b strings.Builder
	for i := 0; i < len(template); i++ {
		c := template[i]
		if c != '%' || i+1 >= len(template) {
			b.WriteByte(c)
			continue
		}
		i++
		switch template[i] {
		case '/', '~':
			b.WriteString(s.dbname)
		case 'R':
			switch {
			case cond != nil && !cond.Active():
				b.WriteByte('@')
			case s.backend == nil:
				b.WriteByte('!')
			case status == '=' && s.settings.SingleLine:
				b.WriteByte('^')
			default:
				b.WriteByte(status)
			}
		case 'x':
			if s.backend != nil {
				switch s.backend.TxStatus() {
				case backend.TxActive:
					b.WriteByte('*')
				case backend.TxFailed:
					b.WriteByte('!')
				case backend.TxUnknown:
					b.WriteByte('?')
				}
			}
		case '#':
			if s.superuser {
				b.WriteByte('#')
			} else {
				b.WriteByte('>')
			}
		case '%':
			b.WriteByte('%')
		}
	}
	return b.String()
}
