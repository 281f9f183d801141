package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// EchoCommand implements \echo and \warn. They differ only in where the
// text goes.
type EchoCommand struct {
	name   string
	stderr bool
}

// Name returns "echo" or "warn".
func (c *EchoCommand) Name() string {
	return c.name
}

// Aliases returns no alternative names.
func (c *EchoCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the command.
func (c *EchoCommand) Description() string {
	if c.stderr {
		return "write string to standard error (-n for no newline)"
	}
	return "write string to standard output (-n for no newline)"
}

// Usage returns the syntax of the command.
func (c *EchoCommand) Usage() string {
	return fmt.Sprintf(`\%s [-n] [STRING]`, c.name)
}

// Conditional reports false.
func (c *EchoCommand) Conditional() bool {
	return false
}

// Execute writes every argument separated by single spaces. A leading -n
// suppresses the trailing newline.
func (c *EchoCommand) Execute(_ context.Context, env commands.Env, _ string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	var w io.Writer = env.Out()
	if c.stderr {
		w = env.ErrOut()
	}

	args := state.Args()
	newline := true
	if len(args) > 0 && args[0] == "-n" {
		newline = false
		args = args[1:]
	}

	_, _ = io.WriteString(w, strings.Join(args, " "))
	if newline {
		_, _ = io.WriteString(w, "\n")
	}
	return shelltypes.CommandOK
}

func init() {
	for _, cmd := range []*EchoCommand{{name: "echo"}, {name: "warn", stderr: true}} {
		if err := commands.GlobalRegistry.Register(cmd); err != nil {
			panic(fmt.Sprintf("failed to register %s command: %v", cmd.name, err))
		}
	}
}
