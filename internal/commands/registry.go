// Package commands provides meta-command registration and dispatch for pgshell.
// It manages a global registry of backslash commands and runs them against a
// shell session, honoring the \if conditional stack.
package commands

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"pgshell/internal/scan"
	"pgshell/pkg/shelltypes"
)

// Registry manages command registration and lookup.
// It provides thread-safe registration and retrieval of commands by name or alias.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a new command registry with an empty command map.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command under its name and every alias. Returns an error
// if the name is empty or any of the names is already taken.
func (r *Registry) Register(cmd Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd.Name() == "" {
		return fmt.Errorf("command name cannot be empty")
	}

	names := append([]string{cmd.Name()}, cmd.Aliases()...)
	for _, name := range names {
		if _, exists := r.commands[name]; exists {
			return fmt.Errorf("command %s already registered", name)
		}
	}
	for _, name := range names {
		r.commands[name] = cmd
	}
	return nil
}

// Unregister removes a command and its aliases.
// This operation will not error if the command doesn't exist.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cmd, ok := r.commands[name]
	if !ok {
		return
	}
	delete(r.commands, cmd.Name())
	for _, alias := range cmd.Aliases() {
		delete(r.commands, alias)
	}
}

// Get retrieves a command by name or alias.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, exists := r.commands[name]
	return cmd, exists
}

// GetAll returns every registered command once, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if name == cmd.Name() {
			cmds = append(cmds, cmd)
		}
	}
	slices.SortFunc(cmds, func(a, b Command) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return cmds
}

// IsValidCommand checks if a command exists in the registry.
func (r *Registry) IsValidCommand(name string) bool {
	_, exists := r.Get(name)
	return exists
}

// Dispatch reads one meta-command from state and runs it against env.
//
// Inside an inactive \if branch only conditional commands run; any other
// command is skipped together with its arguments and reports success.
// Arguments a successful command leaves unread are reported and dropped.
// After a failure the rest of the line is discarded silently.
func (r *Registry) Dispatch(ctx context.Context, env Env, state *scan.State, cond *scan.ConditionalStack) shelltypes.CommandStatus {
	name := state.CommandName()
	cmd, ok := r.Get(name)

	if !cond.Active() && (!ok || !cmd.Conditional()) {
		state.SkipArgs()
		return shelltypes.CommandOK
	}

	if !ok {
		env.Diagnostics().Errorf("invalid command \\%s", name)
		state.NextArg(scan.ArgWholeLine)
		return shelltypes.CommandError
	}

	status := cmd.Execute(ctx, env, name, state, cond)
	if status == shelltypes.CommandError {
		state.NextArg(scan.ArgWholeLine)
	} else {
		for {
			arg, more := state.NextArg(scan.ArgNormal)
			if !more {
				break
			}
			env.Diagnostics().Warnf("\\%s: extra argument \"%s\" ignored", name, arg)
		}
	}

	if err := state.Err(); err != nil {
		env.Diagnostics().Errorf("\\%s: %v", name, err)
	}
	return status
}

// GlobalRegistry is the global command registry instance used throughout pgshell.
// Commands register themselves with this instance during initialization.
var GlobalRegistry = NewRegistry()

// Dispatcher binds a registry to a session so it can be handed to code that
// only sees the scanner.
type Dispatcher struct {
	Registry *Registry
	Env      Env
}

// NewDispatcher creates a dispatcher over GlobalRegistry.
func NewDispatcher(env Env) *Dispatcher {
	return &Dispatcher{Registry: GlobalRegistry, Env: env}
}

// Dispatch runs one meta-command. See Registry.Dispatch.
func (d *Dispatcher) Dispatch(ctx context.Context, state *scan.State, cond *scan.ConditionalStack) shelltypes.CommandStatus {
	return d.Registry.Dispatch(ctx, d.Env, state, cond)
}
