package builtin

import (
	"context"
	"fmt"
	"os"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// GetEnvCommand implements \getenv, which copies an environment variable
// into a shell variable.
type GetEnvCommand struct{}

// Name returns the command name "getenv".
func (c *GetEnvCommand) Name() string {
	return "getenv"
}

// Aliases returns no alternative names.
func (c *GetEnvCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the getenv command.
func (c *GetEnvCommand) Description() string {
	return "fetch value of environment variable"
}

// Usage returns the syntax of the getenv command.
func (c *GetEnvCommand) Usage() string {
	return `\getenv PSQLVAR ENVVAR`
}

// Conditional reports false.
func (c *GetEnvCommand) Conditional() bool {
	return false
}

// Execute sets PSQLVAR to the value of ENVVAR. An unset environment variable
// leaves PSQLVAR untouched.
func (c *GetEnvCommand) Execute(_ context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	target, ok1 := state.NextArg(scan.ArgNormal)
	source, ok2 := state.NextArg(scan.ArgNormal)
	if !ok1 || !ok2 {
		env.Diagnostics().Errorf("\\%s: missing required argument", name)
		return shelltypes.CommandError
	}

	value, found := os.LookupEnv(source)
	if !found {
		return shelltypes.CommandOK
	}
	if !env.Variables().Set(target, value) {
		return shelltypes.CommandError
	}
	return shelltypes.CommandOK
}

func init() {
	if err := commands.GlobalRegistry.Register(&GetEnvCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register getenv command: %v", err))
	}
}
