// Package builtin provides the meta-commands that ship with pgshell.
// Each command registers itself with commands.GlobalRegistry during initialization.
package builtin

import (
	"context"
	"fmt"
	"strings"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// SetCommand implements \set, which sets a variable or lists all of them.
type SetCommand struct{}

// Name returns the command name "set" for registration and lookup.
func (c *SetCommand) Name() string {
	return "set"
}

// Aliases returns no alternative names.
func (c *SetCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of what the set command does.
func (c *SetCommand) Description() string {
	return "set internal variable, or list all if no parameters"
}

// Usage returns the syntax of the set command.
func (c *SetCommand) Usage() string {
	return `\set [NAME [VALUE]]`
}

// Conditional reports false: \set is skipped in inactive branches.
func (c *SetCommand) Conditional() bool {
	return false
}

// Execute sets NAME to the concatenation of all remaining arguments, or to
// the empty string when there are none. Without arguments it prints every
// variable.
func (c *SetCommand) Execute(ctx context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	varName, ok := state.NextArg(scan.ArgNormal)
	if !ok {
		if err := env.Variables().Print(ctx, env.Out()); err != nil {
			env.Diagnostics().Errorf("\\%s: %v", name, err)
			return shelltypes.CommandError
		}
		return shelltypes.CommandOK
	}

	var value strings.Builder
	for {
		arg, more := state.NextArg(scan.ArgNormal)
		if !more {
			break
		}
		value.WriteString(arg)
	}

	if !env.Variables().Set(varName, value.String()) {
		return shelltypes.CommandError
	}
	return shelltypes.CommandOK
}

func init() {
	if err := commands.GlobalRegistry.Register(&SetCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register set command: %v", err))
	}
}
