package builtin

import (
	"context"
	"fmt"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/internal/variables"
	"pgshell/pkg/shelltypes"
)

// TimingCommand implements \timing, which turns query timing on and off.
type TimingCommand struct{}

// Name returns the command name "timing".
func (c *TimingCommand) Name() string {
	return "timing"
}

// Aliases returns no alternative names.
func (c *TimingCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the timing command.
func (c *TimingCommand) Description() string {
	return "toggle timing of commands"
}

// Usage returns the syntax of the timing command.
func (c *TimingCommand) Usage() string {
	return `\timing [on|off]`
}

// Conditional reports false.
func (c *TimingCommand) Conditional() bool {
	return false
}

// Execute sets timing from its argument, or toggles it without one.
func (c *TimingCommand) Execute(_ context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	s := env.Settings()
	if arg, ok := state.NextArg(scan.ArgNormal); ok {
		on, valid := variables.ParseBoolVar(env.Diagnostics(), "\\"+name, &arg)
		if !valid {
			return shelltypes.CommandError
		}
		s.Timing = on
	} else {
		s.Timing = !s.Timing
	}

	if !s.Quiet {
		if s.Timing {
			fmt.Fprintln(env.Out(), "Timing is on.")
		} else {
			fmt.Fprintln(env.Out(), "Timing is off.")
		}
	}
	return shelltypes.CommandOK
}

func init() {
	if err := commands.GlobalRegistry.Register(&TimingCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register timing command: %v", err))
	}
}
