// Package main provides the pgshell CLI entry point, a psql-compatible
// terminal for PostgreSQL and SQLite.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pgshell/internal/actions"
	"pgshell/internal/backend"
	_ "pgshell/internal/commands/builtin" // Import for side effects (init functions)
	"pgshell/internal/config"
	"pgshell/internal/help"
	"pgshell/internal/logger"
	"pgshell/internal/rcfile"
	"pgshell/internal/settings"
	"pgshell/internal/shell"
	"pgshell/internal/variables"
	"pgshell/internal/version"
	"pgshell/pkg/shelltypes"
)

const progname = "pgshell"

// streams are the standard streams of one invocation.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// exitError carries a process exit status out of a cobra command.
type exitError struct {
	status shelltypes.ExitStatus
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.status)
}

func main() {
	os.Exit(int(execute(os.Args[1:], streams{in: os.Stdin, out: os.Stdout, err: os.Stderr})))
}

// execute runs pgshell with args and returns the exit status.
func execute(args []string, st streams) shelltypes.ExitStatus {
	cmd := newRootCmd(st)
	cmd.SetArgs(args)
	cmd.SetIn(st.in)
	cmd.SetOut(st.out)
	cmd.SetErr(st.err)

	err := cmd.Execute()
	if err == nil {
		return shelltypes.ExitSuccess
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.status
	}
	fmt.Fprintf(st.err, "%s: error: %v\n", progname, err)
	fmt.Fprintf(st.err, "Try \"%s --help\" for more information.\n", progname)
	return shelltypes.ExitFailure
}

func newRootCmd(st streams) *cobra.Command {
	opts := newOptions()

	rootCmd := &cobra.Command{
		Use:   "pgshell [OPTION]... [DBNAME [USERNAME]]",
		Short: "pgshell is the PostgreSQL interactive terminal.",
		Long: `pgshell is a psql-compatible interactive terminal. It runs SQL and
meta-commands against PostgreSQL, or against a SQLite file for local work.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				fmt.Fprintln(st.out, version.GetFormattedVersion())
				return nil
			}
			status := opts.run(cmd, args, st)
			if status != shelltypes.ExitSuccess {
				return &exitError{status: status}
			}
			return nil
		},
	}
	rootCmd.Flags().SortFlags = false
	opts.register(rootCmd.Flags())

	rootCmd.AddCommand(&cobra.Command{
		Use:   "variables",
		Short: "List the specially treated variables",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog, err := help.Load()
			if err != nil {
				return err
			}
			return catalog.Write(st.out)
		},
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show detailed version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(st.out, version.GetDetailedVersion())
		},
	})

	return rootCmd
}

// run is the whole life of a session: configuration, variables, the
// connection, startup files, then either the queued actions or the
// interactive loop.
func (o *options) run(cmd *cobra.Command, args []string, st streams) shelltypes.ExitStatus {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loader := config.NewLoader()
	loader.ConfigFile = o.configFile
	if err := loader.BindFlags(cmd.Flags()); err != nil {
		fmt.Fprintf(st.err, "%s: error: %v\n", progname, err)
		return shelltypes.ExitFailure
	}
	if _, err := loader.LoadDotEnv(); err != nil {
		fmt.Fprintf(st.err, "%s: warning: %v\n", progname, err)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(st.err, "%s: error: %v\n", progname, err)
		return shelltypes.ExitFailure
	}
	if err := logger.Configure(cfg.LogLevel, cfg.LogFile); err != nil {
		fmt.Fprintf(st.err, "%s: error: could not open log file: %v\n", progname, err)
		return shelltypes.ExitFailure
	}
	logger.Debug("Starting pgshell", "version", version.Version, "config", loader.ConfigFileUsed())

	diag := logger.NewDiagnostics(progname, st.err)
	store := variables.NewStore(diag)
	s := settings.New()
	settings.Establish(store, s, diag)
	settings.Defaults(store)

	for _, op := range append(configVariables(cfg.Variables), o.variables...) {
		if err := op.apply(store); err != nil {
			logger.Debug("Rejected command-line variable", "error", err)
			return shelltypes.ExitFailure
		}
	}

	dbname := o.dbname
	for _, arg := range args {
		switch {
		case dbname == "":
			dbname = arg
		case o.username == "":
			o.username = arg
		case !s.Quiet:
			diag.Warnf("extra command-line argument \"%s\" ignored", arg)
		}
	}
	if dbname == "" {
		dbname = cfg.DBName
	}

	notty := !isTerminal(st.in) || !isTerminal(st.out)
	if err := prepareActions(o.actions, o.singleTxn, notty); err != nil {
		diag.Errorf("%v", err)
		return shelltypes.ExitFailure
	}

	driver := cfg.Driver
	if driver == "" {
		driver = backend.GuessDriver(dbname)
	}
	dsn := dbname
	if driver != backend.DriverSQLite && driver != "sqlite3" {
		dsn = connString(dbname, o.host, o.port, o.username)
	}

	conn, err := backend.Open(ctx, driver, dsn)
	if err != nil {
		diag.Errorf("%v", err)
		return shelltypes.ExitBadConn
	}

	session := shell.New(shell.Options{
		Variables:   store,
		Settings:    s,
		Diagnostics: diag,
		Backend:     conn,
		Confirm:     confirmFromTerminal(st.out),
		Stdin:       st.in,
		Stdout:      st.out,
		Stderr:      st.err,
	})
	defer func() {
		if err := session.Close(context.WithoutCancel(ctx)); err != nil {
			logger.Debug("Close failed", "error", err)
		}
	}()

	if !o.noPsqlrc {
		rcfile.Load(ctx, session, rcfile.Options{})
	}

	if o.actions.Empty() {
		return session.Interactive(ctx)
	}

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := actions.NewExecutor(session, session, session, s, st.out)
	executor.Lookup = session.Lookup
	outcome := executor.Run(runCtx, o.actions, o.singleTxn)
	logger.Debug("Run finished", "run", outcome.RunID, "status", outcome.Status,
		"transaction", outcome.Transaction, "executed", outcome.Executed, "error", outcome.Err)
	return outcome.ExitCode()
}

// prepareActions applies the non-interactive defaults: without actions and
// without a terminal the input is read as if "-f -" had been given, and -1
// requires something to run.
func prepareActions(list *actions.List, singleTxn, notty bool) error {
	if list.Empty() && notty {
		list.Append(actions.File, "")
	}
	if singleTxn && list.Empty() {
		return errors.New("-1 can only be used in non-interactive mode")
	}
	return nil
}

// connString merges the connection switches into a libpq connection string.
// URLs are passed through unchanged.
func connString(dbname, host, port, user string) string {
	if strings.Contains(dbname, "://") {
		return dbname
	}

	var parts []string
	switch {
	case strings.Contains(dbname, "="):
		parts = append(parts, dbname)
	case dbname != "":
		parts = append(parts, "dbname="+quoteConnValue(dbname))
	}
	for _, kv := range [][2]string{{"host", host}, {"port", port}, {"user", user}} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+quoteConnValue(kv[1]))
		}
	}
	return strings.Join(parts, " ")
}

func quoteConnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// confirmFromTerminal asks on the controlling terminal before each query in
// single-step mode. Without a terminal every query runs.
func confirmFromTerminal(out io.Writer) func(string) bool {
	return func(query string) bool {
		tty, err := os.Open("/dev/tty")
		if err != nil {
			return true
		}
		defer func() { _ = tty.Close() }()

		fmt.Fprintf(out, "***(Single step mode: verify command)*******************************************\n"+
			"%s\n"+
			"***(press return to proceed or enter x and return to cancel)********************\n", query)
		answer, _ := bufio.NewReader(tty).ReadString('\n')
		return !strings.HasPrefix(strings.TrimSpace(answer), "x")
	}
}
