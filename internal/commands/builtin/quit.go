package builtin

import (
	"context"
	"fmt"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// QuitCommand implements \q, which ends the session.
type QuitCommand struct{}

// Name returns the command name "q".
func (c *QuitCommand) Name() string {
	return "q"
}

// Aliases returns "quit".
func (c *QuitCommand) Aliases() []string {
	return []string{"quit"}
}

// Description returns a brief description of the quit command.
func (c *QuitCommand) Description() string {
	return "quit pgshell"
}

// Usage returns the syntax of the quit command.
func (c *QuitCommand) Usage() string {
	return `\q`
}

// Conditional reports false.
func (c *QuitCommand) Conditional() bool {
	return false
}

// Execute asks the caller to stop.
func (c *QuitCommand) Execute(context.Context, commands.Env, string, *scan.State, *scan.ConditionalStack) shelltypes.CommandStatus {
	return shelltypes.CommandTerminate
}

func init() {
	if err := commands.GlobalRegistry.Register(&QuitCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register quit command: %v", err))
	}
}
