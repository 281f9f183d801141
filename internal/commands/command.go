package commands

import (
	"context"
	"io"

	"pgshell/internal/scan"
	"pgshell/internal/settings"
	"pgshell/internal/variables"
	"pgshell/pkg/shelltypes"
)

// Env is the part of the shell session that meta-commands act on.
type Env interface {
	Variables() *variables.Store
	Settings() *settings.Settings
	Diagnostics() shelltypes.DiagnosticSink
	// Out receives command output; ErrOut receives \warn output.
	Out() io.Writer
	ErrOut() io.Writer
	// ProcessFile runs a script, as \i does.
	ProcessFile(ctx context.Context, path string, interactive bool) shelltypes.ExitStatus
	// CurrentDir is the directory of the script being read, or "" at top level.
	CurrentDir() string
}

// Command is a meta-command such as \set or \echo.
type Command interface {
	// Name is the command name without the backslash.
	Name() string
	// Aliases are alternative names, e.g. "include" for \i.
	Aliases() []string
	Description() string
	Usage() string
	// Conditional commands (\if, \elif, \else, \endif) also run inside inactive branches.
	Conditional() bool
	// Execute runs the command. name is the spelling used to invoke it and
	// state is positioned just after that name.
	Execute(ctx context.Context, env Env, name string, state *scan.State, cond *scan.ConditionalStack) shelltypes.CommandStatus
}
