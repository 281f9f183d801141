package builtin

import (
	"context"
	"fmt"
	"path/filepath"

	"pgshell/internal/commands"
	"pgshell/internal/rcfile"
	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// IncludeCommand implements \i and \ir, which run a script file. The
// relative form resolves paths against the directory of the script that
// contains the command.
type IncludeCommand struct {
	relative bool
}

// Name returns "i" or "ir".
func (c *IncludeCommand) Name() string {
	if c.relative {
		return "ir"
	}
	return "i"
}

// Aliases returns the long spelling.
func (c *IncludeCommand) Aliases() []string {
	if c.relative {
		return []string{"include_relative"}
	}
	return []string{"include"}
}

// Description returns a brief description of the command.
func (c *IncludeCommand) Description() string {
	if c.relative {
		return "as \\i, but relative to location of current script"
	}
	return "execute commands from file"
}

// Usage returns the syntax of the command.
func (c *IncludeCommand) Usage() string {
	return fmt.Sprintf(`\%s FILE`, c.Name())
}

// Conditional reports false.
func (c *IncludeCommand) Conditional() bool {
	return false
}

// Execute runs the named file and fails if the file did.
func (c *IncludeCommand) Execute(ctx context.Context, env commands.Env, name string, state *scan.State, _ *scan.ConditionalStack) shelltypes.CommandStatus {
	path, ok := state.NextArg(scan.ArgNormal)
	if !ok {
		env.Diagnostics().Errorf("\\%s: missing required argument", name)
		return shelltypes.CommandError
	}

	path = rcfile.ExpandTilde(path)
	if c.relative && !filepath.IsAbs(path) && path != "-" {
		if dir := env.CurrentDir(); dir != "" {
			path = filepath.Join(dir, path)
		}
	}

	if env.ProcessFile(ctx, path, false) != shelltypes.ExitSuccess {
		return shelltypes.CommandError
	}
	return shelltypes.CommandOK
}

func init() {
	for _, cmd := range []*IncludeCommand{{}, {relative: true}} {
		if err := commands.GlobalRegistry.Register(cmd); err != nil {
			panic(fmt.Sprintf("failed to register %s command: %v", cmd.Name(), err))
		}
	}
}
