package builtin

import (
	"context"
	"fmt"

	"pgshell/internal/commands"
	"pgshell/internal/help"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// HelpCommand implements \?, which lists meta-commands or special variables.
type HelpCommand struct{}

// Name returns the command name "?".
func (c *HelpCommand) Name() string {
	return "?"
}

// Aliases returns no alternative names.
func (c *HelpCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the help command.
func (c *HelpCommand) Description() string {
	return "show help on backslash commands or special variables"
}

// Usage returns the syntax of the help command.
func (c *HelpCommand) Usage() string {
	return `\? [commands|variables]`
}

// Conditional reports false.
func (c *HelpCommand) Conditional() bool {
	return false
}

// Execute prints the requested help topic; commands is the default.
func (c *HelpCommand) Execute(_ context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	topic, _ := state.NextArg(scan.ArgNormal)

	if topic == "variables" {
		catalog, err := help.Load()
		if err == nil {
			err = catalog.Write(env.Out())
		}
		if err != nil {
			env.Diagnostics().Errorf("\\%s: %v", name, err)
			return shelltypes.CommandError
		}
		return shelltypes.CommandOK
	}

	out := env.Out()
	fmt.Fprintln(out, "General")
	for _, cmd := range commands.GlobalRegistry.GetAll() {
		fmt.Fprintf(out, "  %-24s %s\n", cmd.Usage(), cmd.Description())
	}
	return shelltypes.CommandOK
}

func init() {
	if err := commands.GlobalRegistry.Register(&HelpCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register help command: %v", err))
	}
}
