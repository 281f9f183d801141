// Package shell ties the pieces of pgshell together into a session: the
// variable store and settings, the database connection, meta-command
// dispatch and the line-by-line main loop used for files and terminals.
package shell

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"pgshell/internal/backend"
	"pgshell/internal/commands"
	"pgshell/internal/logger"
	"pgshell/internal/scan"
	"pgshell/internal/settings"
	"pgshell/internal/variables"
	"pgshell/pkg/shelltypes"
)

// Options configures a Session. Zero fields get defaults from the process.
type Options struct {
	Variables   *variables.Store
	Settings    *settings.Settings
	Diagnostics *logger.Diagnostics
	// Backend may be nil; queries then fail with "no connection to the server".
	Backend backend.Backend
	// Registry defaults to commands.GlobalRegistry.
	Registry *commands.Registry
	// DBName is shown by the %/ prompt escape.
	DBName string
	// Superuser selects '#' rather than '>' for the %# prompt escape.
	Superuser bool
	// Confirm is asked before each query while SINGLESTEP is on. A nil
	// Confirm runs every query.
	Confirm func(query string) bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// frame is one file being read.
type frame struct {
	name        string
	dir         string
	line        int
	interactive bool
}

// Session is a running shell. It implements commands.Env for meta-commands,
// shelltypes.QuerySender and shelltypes.FileProcessor for the action
// executor, and actions.Dispatcher.
type Session struct {
	vars      *variables.Store
	settings  *settings.Settings
	diag      *logger.Diagnostics
	backend   backend.Backend
	registry  *commands.Registry
	dbname    string
	superuser bool
	confirm   func(string) bool

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	frames []*frame
	logger *log.Logger
}

// New creates a session.
func New(opts Options) *Session {
	s := &Session{
		vars:      opts.Variables,
		settings:  opts.Settings,
		diag:      opts.Diagnostics,
		backend:   opts.Backend,
		registry:  opts.Registry,
		dbname:    opts.DBName,
		superuser: opts.Superuser,
		confirm:   opts.Confirm,
		in:        opts.Stdin,
		out:       opts.Stdout,
		errOut:    opts.Stderr,
		logger:    logger.NewStyledLogger("Session"),
	}
	if s.in == nil {
		s.in = os.Stdin
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.errOut == nil {
		s.errOut = os.Stderr
	}
	if s.diag == nil {
		s.diag = logger.NewDiagnostics("pgshell", s.errOut)
	}
	if s.settings == nil {
		s.settings = settings.New()
	}
	if s.vars == nil {
		s.vars = variables.NewStore(s.diag)
		settings.Establish(s.vars, s.settings, s.diag)
		settings.Defaults(s.vars)
	}
	if s.registry == nil {
		s.registry = commands.GlobalRegistry
	}
	if d, ok := s.backend.(backend.Describer); ok {
		s.syncVariables(d.ConnInfo())
	}
	s.diag.SetLocus(s.locus)
	return s
}

// Variables returns the session's variable store.
func (s *Session) Variables() *variables.Store { return s.vars }

// Settings returns the settings driven by special variables.
func (s *Session) Settings() *settings.Settings { return s.settings }

// Diagnostics returns the user-facing error channel.
func (s *Session) Diagnostics() shelltypes.DiagnosticSink { return s.diag }

// Out returns the query and command output stream.
func (s *Session) Out() io.Writer { return s.out }

// ErrOut returns the error output stream.
func (s *Session) ErrOut() io.Writer { return s.errOut }

// Lookup resolves a variable for interpolation.
func (s *Session) Lookup(name string) (string, bool) {
	return s.vars.Get(name)
}

// CurrentDir returns the directory of the file being read, or "" when
// reading standard input or a terminal.
func (s *Session) CurrentDir() string {
	if f := s.current(); f != nil {
		return f.dir
	}
	return ""
}

// Dispatch runs one meta-command against this session.
func (s *Session) Dispatch(ctx context.Context, state *scan.State, cond *scan.ConditionalStack) shelltypes.CommandStatus {
	return s.registry.Dispatch(ctx, s, state, cond)
}

// Close closes the database connection, if any.
func (s *Session) Close(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}
	return s.backend.Close(ctx)
}

// syncVariables publishes the connection parameters as DBNAME, USER, HOST,
// PORT and SERVER_VERSION_NAME.
func (s *Session) syncVariables(info backend.ConnInfo) {
	for _, kv := range [][2]string{
		{"DBNAME", info.Database},
		{"USER", info.User},
		{"HOST", info.Host},
		{"PORT", info.Port},
		{"SERVER_VERSION_NAME", info.ServerVersion},
	} {
		if kv[1] != "" {
			s.vars.Set(kv[0], kv[1])
		}
	}
	if s.dbname == "" {
		s.dbname = info.Database
	}
	if info.Superuser {
		s.superuser = true
	}
}

func (s *Session) current() *frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// locus reports the file and line being read for diagnostics. Terminals
// have no locus.
func (s *Session) locus() (string, int) {
	f := s.current()
	if f == nil || f.interactive {
		return "", 0
	}
	return f.name, f.line
}

// errorPrefix is prepended to server error messages while reading a file.
func (s *Session) errorPrefix() string {
	if name, line := s.locus(); name != "" {
		return fmt.Sprintf("pgshell:%s:%d: ", name, line)
	}
	return ""
}
