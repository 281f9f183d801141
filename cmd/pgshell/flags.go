package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"pgshell/internal/actions"
	"pgshell/internal/config"
	"pgshell/internal/variables"
)

// variableOp is one -v option or variable-setting switch, applied to the
// store in command-line order. A nil value deletes the variable.
type variableOp struct {
	name  string
	value *string
}

// apply writes op to store. The store has already reported the problem when
// an error is returned.
func (op variableOp) apply(store *variables.Store) error {
	if store.SetValue(op.name, op.value) {
		return nil
	}
	if !variables.ValidName(op.name) {
		return fmt.Errorf("%w: %q", variables.ErrInvalidName, op.name)
	}
	return fmt.Errorf("%w: %s", variables.ErrHookRejected, op.name)
}

// options collects everything parsed from the command line.
type options struct {
	actions   *actions.List
	variables []variableOp

	singleTxn bool
	noPsqlrc  bool
	version   bool

	dbname     string
	host       string
	port       string
	username   string
	driver     string
	logLevel   string
	logFile    string
	configFile string
}

func newOptions() *options {
	return &options{actions: &actions.List{}}
}

// presetFlag is a switch such as -a that sets a variable when given.
type presetFlag struct {
	opts  *options
	name  string
	value string
	bool  bool
}

func (f *presetFlag) String() string { return "false" }
func (f *presetFlag) Type() string   { return "bool" }

func (f *presetFlag) Set(string) error {
	value := f.value
	if f.bool {
		value = "on"
	}
	f.opts.variables = append(f.opts.variables, variableOp{name: f.name, value: &value})
	return nil
}

// variableFlag implements -v NAME=VALUE; -v NAME unsets NAME.
type variableFlag struct {
	opts *options
}

func (f *variableFlag) String() string { return "" }
func (f *variableFlag) Type() string   { return "NAME=VALUE" }

func (f *variableFlag) Set(s string) error {
	op := variableOp{name: s}
	if name, value, ok := strings.Cut(s, "="); ok {
		op = variableOp{name: name, value: &value}
	}
	f.opts.variables = append(f.opts.variables, op)
	return nil
}

// actionFlag implements -c and -f, which queue actions in order.
type actionFlag struct {
	opts *options
	file bool
}

func (f *actionFlag) String() string { return "" }

func (f *actionFlag) Type() string {
	if f.file {
		return "FILENAME"
	}
	return "COMMAND"
}

func (f *actionFlag) Set(s string) error {
	switch {
	case f.file:
		f.opts.actions.Append(actions.File, s)
	case strings.HasPrefix(s, `\`):
		f.opts.actions.Append(actions.SlashCommand, s[1:])
	default:
		f.opts.actions.Append(actions.Query, s)
	}
	return nil
}

// configVariables converts the variables: list of pgshell.yaml into
// operations applied before the command line's.
func configVariables(assignments []string) []variableOp {
	ops := make([]variableOp, 0, len(assignments))
	for _, a := range assignments {
		name, value := config.SplitAssignment(a)
		ops = append(ops, variableOp{name: name, value: &value})
	}
	return ops
}

func (o *options) register(flags *pflag.FlagSet) {
	presets := []struct {
		long, short, name, value, usage string
	}{
		{"echo-all", "a", "ECHO", "all", "echo all input from script"},
		{"echo-errors", "b", "ECHO", "errors", "echo failed commands"},
		{"echo-queries", "e", "ECHO", "queries", "echo commands sent to server"},
		{"echo-hidden", "E", "ECHO_HIDDEN", "", "display queries that internal commands generate"},
		{"quiet", "q", "QUIET", "", "run quietly (no messages, only query output)"},
		{"single-step", "s", "SINGLESTEP", "", "single-step mode (confirm each query)"},
		{"single-line", "S", "SINGLELINE", "", "single-line mode (end of line terminates SQL command)"},
	}
	for _, p := range presets {
		f := flags.VarPF(&presetFlag{opts: o, name: p.name, value: p.value, bool: p.value == ""}, p.long, p.short, p.usage)
		f.NoOptDefVal = "true"
	}

	flags.VarP(&actionFlag{opts: o}, "command", "c", "run only single command (SQL or internal) and exit")
	flags.VarP(&actionFlag{opts: o, file: true}, "file", "f", "execute commands from file, then exit")

	vf := &variableFlag{opts: o}
	flags.VarP(vf, "variable", "v", "set pgshell variable NAME to VALUE")
	flags.Var(vf, "set", "same as --variable")

	flags.BoolVarP(&o.singleTxn, "single-transaction", "1", false, "execute as a single transaction (if non-interactive)")
	flags.BoolVarP(&o.noPsqlrc, "no-psqlrc", "X", false, "do not read startup file (~/.psqlrc)")
	flags.BoolVarP(&o.version, "version", "V", false, "output version information, then exit")

	flags.StringVarP(&o.dbname, "dbname", "d", "", "database name, connection string or SQLite file to connect to")
	flags.StringVarP(&o.host, "host", "h", "", "database server host or socket directory")
	flags.StringVarP(&o.port, "port", "p", "", "database server port")
	flags.StringVarP(&o.username, "username", "U", "", "database user name")
	flags.StringVar(&o.driver, "driver", "", "database driver (postgres|sqlite) [default: guessed from dbname]")

	flags.StringVar(&o.logLevel, "log-level", "", "set log level (debug|info|warn|error) [default: warn]")
	flags.StringVar(&o.logFile, "log-file", "", "write logs to file instead of stderr")
	flags.StringVar(&o.configFile, "config", "", "read configuration from this YAML file")

	// -h is --host, so help is registered here before cobra can claim -h for it.
	flags.BoolP("help", "?", false, "show this help, then exit")
}
