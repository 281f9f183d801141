package builtin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// SetEnvCommand implements \setenv.
type SetEnvCommand struct{}

// Name returns the command name "setenv".
func (c *SetEnvCommand) Name() string {
	return "setenv"
}

// Aliases returns no alternative names.
func (c *SetEnvCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the setenv command.
func (c *SetEnvCommand) Description() string {
	return "set or unset environment variable"
}

// Usage returns the syntax of the setenv command.
func (c *SetEnvCommand) Usage() string {
	return `\setenv NAME [VALUE]`
}

// Conditional reports false.
func (c *SetEnvCommand) Conditional() bool {
	return false
}

// Execute sets the environment variable NAME, or removes it when no value is given.
func (c *SetEnvCommand) Execute(_ context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	envVar, ok := state.NextArg(scan.ArgNormal)
	if !ok {
		env.Diagnostics().Errorf("\\%s: missing required argument", name)
		return shelltypes.CommandError
	}
	if strings.Contains(envVar, "=") {
		env.Diagnostics().Errorf("\\%s: environment variable name must not contain \"=\"", name)
		return shelltypes.CommandError
	}

	var err error
	if value, ok := state.NextArg(scan.ArgNormal); ok {
		err = os.Setenv(envVar, value)
	} else {
		err = os.Unsetenv(envVar)
	}
	if err != nil {
		env.Diagnostics().Errorf("\\%s: %v", name, err)
		return shelltypes.CommandError
	}
	return shelltypes.CommandOK
}

func init() {
	if err := commands.GlobalRegistry.Register(&SetEnvCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register setenv command: %v", err))
	}
}
