package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"pgshell/internal/scan"
	"pgshell/internal/settings"
	"pgshell/pkg/shelltypes"
)

// MaxIncludeDepth bounds \i recursion.
const MaxIncludeDepth = 16

// lineSource supplies input lines without their newline. io.EOF ends input.
type lineSource interface {
	ReadLine(prompt string) (string, error)
}

// readerSource reads lines from a file or pipe.
type readerSource struct {
	r *bufio.Reader
}

func (s *readerSource) ReadLine(string) (string, error) {
	line, err := s.r.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimRight(line, "\r"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ProcessFile runs every statement and meta-command in path. An empty path
// or "-" reads standard input.
func (s *Session) ProcessFile(ctx context.Context, path string, interactive bool) shelltypes.ExitStatus {
	if len(s.frames) >= MaxIncludeDepth {
		s.diag.Errorf("%s: too many nested includes (limit %d)", path, MaxIncludeDepth)
		return shelltypes.ExitFailure
	}

	f := &frame{interactive: interactive}
	var r io.Reader
	if path == "" || path == "-" {
		f.name = "<stdin>"
		r = s.in
	} else {
		file, err := os.Open(path)
		if err != nil {
			s.diag.Errorf("%s: %v", path, unwrapPathError(err))
			return shelltypes.ExitFailure
		}
		defer func() { _ = file.Close() }()
		f.name = path
		f.dir = filepath.Dir(path)
		r = file
	}

	s.logger.Debug("Processing file", "file", f.name, "depth", len(s.frames)+1)
	return s.run(ctx, f, &readerSource{r: bufio.NewReader(r)})
}

// run is the main loop. It lexes each line, sends complete statements,
// dispatches meta-commands and keeps a conditional stack local to the input.
func (s *Session) run(ctx context.Context, f *frame, src lineSource) shelltypes.ExitStatus {
	s.frames = append(s.frames, f)
	defer func() { s.frames = s.frames[:len(s.frames)-1] }()

	lexer := scan.NewLexer(s.Lookup)
	cond := scan.NewConditionalStack()
	result := shelltypes.ExitSuccess

	// record notes the outcome of one statement or command and reports
	// whether the loop must stop.
	record := func(ok bool) bool {
		if ok {
			result = shelltypes.ExitSuccess
			return false
		}
		result = shelltypes.ExitFailure
		if s.settings.OnErrorStop && !f.interactive {
			result = shelltypes.ExitUser
			return true
		}
		return false
	}

	send := func() bool {
		stmt := lexer.Take()
		if !cond.Active() {
			return false
		}
		return record(s.SendQuery(ctx, stmt))
	}

lines:
	for {
		if err := ctx.Err(); err != nil {
			s.diag.Errorf("%v", err)
			return shelltypes.ExitFailure
		}

		line, err := src.ReadLine(s.prompt(lexer, cond))
		if err != nil {
			if errors.Is(err, errInterrupt) {
				lexer.Reset()
				continue
			}
			if !errors.Is(err, io.EOF) {
				s.diag.Errorf("could not read input: %v", err)
				result = shelltypes.ExitFailure
			}
			break
		}
		f.line++

		if s.settings.Echo == settings.EchoAll && !f.interactive {
			fmt.Fprintln(s.out, line)
		}

		lexer.Newline()
		rest := line
		for {
			res, after := lexer.Scan(rest)
			switch res {
			case scan.ResultStatement:
				if send() {
					return result
				}
				rest = after
				continue

			case scan.ResultCommand:
				if strings.HasPrefix(after, `\\`) {
					rest = after[2:]
					continue
				}
				state := scan.New(after, s.Lookup)
				status := s.Dispatch(ctx, state, cond)
				if status == shelltypes.CommandTerminate {
					return result
				}
				if record(status != shelltypes.CommandError) {
					return result
				}
				rest = state.Rest()
				continue
			}

			if s.settings.SingleLine && lexer.Status() == '-' {
				if send() {
					return result
				}
			}
			continue lines
		}
	}

	if lexer.Pending() && !f.interactive {
		if send() {
			return result
		}
	}

	if !cond.Empty() {
		s.diag.Errorf("reached EOF without finding closing \\endif(s)")
		if s.settings.OnErrorStop && !f.interactive {
			result = shelltypes.ExitUser
		}
	}
	return result
}

// unwrapPathError drops the path os.Open already repeats in its error.
func unwrapPathError(err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
