package builtin

import (
	"context"
	"fmt"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// UnsetCommand implements \unset.
type UnsetCommand struct{}

// Name returns the command name "unset".
func (c *UnsetCommand) Name() string {
	return "unset"
}

// Aliases returns no alternative names.
func (c *UnsetCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the unset command.
func (c *UnsetCommand) Description() string {
	return "unset (delete) internal variable"
}

// Usage returns the syntax of the unset command.
func (c *UnsetCommand) Usage() string {
	return `\unset NAME`
}

// Conditional reports false.
func (c *UnsetCommand) Conditional() bool {
	return false
}

// Execute deletes the named variable. Variables with hooks fall back to
// their unset value rather than disappearing.
func (c *UnsetCommand) Execute(_ context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	varName, ok := state.NextArg(scan.ArgNormal)
	if !ok {
		env.Diagnostics().Errorf("\\%s: missing required argument", name)
		return shelltypes.CommandError
	}
	if !env.Variables().Delete(varName) {
		return shelltypes.CommandError
	}
	return shelltypes.CommandOK
}

func init() {
	if err := commands.GlobalRegistry.Register(&UnsetCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register unset command: %v", err))
	}
}
