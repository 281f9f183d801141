package builtin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// ShellEscapeCommand implements \!, which runs an operating system command.
type ShellEscapeCommand struct{}

// Name returns the command name "!".
func (c *ShellEscapeCommand) Name() string {
	return "!"
}

// Aliases returns no alternative names.
func (c *ShellEscapeCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the shell escape.
func (c *ShellEscapeCommand) Description() string {
	return "execute command in shell or start interactive shell"
}

// Usage returns the syntax of the shell escape.
func (c *ShellEscapeCommand) Usage() string {
	return `\! [COMMAND]`
}

// Conditional reports false.
func (c *ShellEscapeCommand) Conditional() bool {
	return false
}

// Execute runs the rest of the line with /bin/sh, or starts $SHELL when the
// line is empty. SHELL_ERROR and SHELL_EXIT_CODE report how it ended.
func (c *ShellEscapeCommand) Execute(ctx context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	line, _ := state.NextArg(scan.ArgWholeLine)

	var cmd *exec.Cmd
	if line == "" {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
		cmd = exec.CommandContext(ctx, shell)
	} else {
		cmd = exec.CommandContext(ctx, "/bin/sh", "-c", line)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = env.Out()
	cmd.Stderr = env.ErrOut()

	code := 0
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			env.Diagnostics().Errorf("\\%s: failed: %v", name, err)
			c.record(env, true, -1)
			return shelltypes.CommandError
		}
		code = exitErr.ExitCode()
	}

	c.record(env, code != 0, code)
	if code == 127 {
		env.Diagnostics().Errorf("\\%s: failed", name)
		return shelltypes.CommandError
	}
	return shelltypes.CommandOK
}

func (c *ShellEscapeCommand) record(env commands.Env, failed bool, code int) {
	env.Variables().Set("SHELL_ERROR", strconv.FormatBool(failed))
	env.Variables().Set("SHELL_EXIT_CODE", strconv.Itoa(code))
}

func init() {
	if err := commands.GlobalRegistry.Register(&ShellEscapeCommand{}); err != nil {
		panic(fmt.Sprintf("failed to register ! command: %v", err))
	}
}
