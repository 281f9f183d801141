// Package variables implements the session variable store of pgshell.
// Each variable has a string name and an optional string value, plus optional
// substitute and assign hooks that normalize and validate new values and keep
// derived session state in sync.
package variables

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"maps"
	"slices"

	"pgshell/internal/logger"
	"pgshell/pkg/shelltypes"
)

var (
	// ErrInvalidName is returned by callers that turn a rejected name into an error.
	ErrInvalidName = errors.New("invalid variable name")
	// ErrHookRejected is returned by callers that turn a rejected assignment into an error.
	ErrHookRejected = errors.New("value rejected")
)

// SubstituteHook normalizes a proposed value before it is validated.
// A nil pointer means the variable is being unset. The hook may return its
// argument or a replacement, and should not complain about bad values; that
// is the assign hook's job.
type SubstituteHook func(value *string) *string

// AssignHook validates a proposed (already substituted) value and applies its
// side effects to session state. Returning false rejects the assignment; the
// hook is expected to have reported why through the diagnostic sink.
type AssignHook func(value *string) bool

// variable is one entry of the store. A nil value means the variable is
// logically unset; the entry is kept only to remember its hooks.
type variable struct {
	value      *string
	substitute SubstituteHook
	assign     AssignHook
}

func (v *variable) hasHooks() bool {
	return v.substitute != nil || v.assign != nil
}

// Store maps variable names to values and hooks.
//
// Store is not safe for concurrent use. Hooks run synchronously inside Set
// and SetHooks and may mutate shared session state, so all access must come
// from a single goroutine.
type Store struct {
	vars map[string]*variable
	sink shelltypes.DiagnosticSink
}

// NewStore creates an empty store reporting problems to sink.
func NewStore(sink shelltypes.DiagnosticSink) *Store {
	return &Store{
		vars: make(map[string]*variable),
		sink: sink,
	}
}

// Get returns the value of name and whether it is set.
func (s *Store) Get(name string) (string, bool) {
	v, ok := s.vars[name]
	if !ok || v.value == nil {
		return "", false
	}
	return *v.value, true
}

// Set assigns value to name. See SetValue.
func (s *Store) Set(name, value string) bool {
	return s.SetValue(name, &value)
}

// SetBool sets name to "on".
func (s *Store) SetBool(name string) bool {
	return s.Set(name, "on")
}

// Delete unsets name. Deleting a variable that does not exist is not an error.
func (s *Store) Delete(name string) bool {
	return s.SetValue(name, nil)
}

// SetValue sets name to value, or unsets it when value is nil.
//
// An existing variable runs its substitute hook and then its assign hook on a
// private copy of value; the stored value is replaced only if the assign hook
// accepts it. A variable left without a value and without hooks is removed.
// Returns false if the name is invalid or the assign hook rejected the value;
// in both cases a diagnostic has been reported.
func (s *Store) SetValue(name string, value *string) bool {
	if !ValidName(name) {
		// Deletion of a non-existent variable is not an error
		if value == nil {
			return true
		}
		s.sink.Errorf("invalid variable name: \"%s\"", name)
		return false
	}

	logger.VariableOperation("set", name, value)

	v, ok := s.vars[name]
	if !ok {
		if value != nil {
			s.vars[name] = &variable{value: clone(value)}
		}
		return true
	}

	newValue := clone(value)
	if v.substitute != nil {
		newValue = v.substitute(newValue)
	}

	confirmed := true
	if v.assign != nil {
		confirmed = v.assign(newValue)
	}
	if !confirmed {
		logger.Debug("Assignment rejected", "name", name)
		return false
	}

	v.value = newValue
	if v.value == nil && !v.hasHooks() {
		delete(s.vars, name)
	}
	return true
}

// SetHooks attaches substitute and assign hooks to name; either may be nil.
// A variable that does not exist yet is created unset to hold the hooks.
//
// The substitute hook is applied to the current value immediately, then the
// assign hook is called on the result so derived state is initialized. The
// assign hook's verdict is ignored here: hooks are installed before any
// user-supplied value can be invalid.
func (s *Store) SetHooks(name string, substitute SubstituteHook, assign AssignHook) {
	if !ValidName(name) {
		return
	}

	v, ok := s.vars[name]
	if !ok {
		v = &variable{}
		s.vars[name] = v
	}
	v.substitute = substitute
	v.assign = assign

	if substitute != nil {
		v.value = substitute(v.value)
	}
	if assign != nil {
		assign(v.value)
	}
}

// HasHooks reports whether name has a substitute or assign hook.
func (s *Store) HasHooks(name string) bool {
	v, ok := s.vars[name]
	return ok && v.hasHooks()
}

// All yields every variable that has a value. The order is unspecified and
// may differ between calls.
func (s *Store) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for name, v := range s.vars {
			if v.value == nil {
				continue
			}
			if !yield(name, *v.value) {
				return
			}
		}
	}
}

// Names yields every known variable name, including unset variables that
// only carry hooks.
func (s *Store) Names() iter.Seq[string] {
	return maps.Keys(s.vars)
}

// Print writes "name = 'value'" for every set variable, sorted by name.
// It stops early once ctx is cancelled.
func (s *Store) Print(ctx context.Context, w io.Writer) error {
	for _, name := range slices.Sorted(maps.Keys(s.vars)) {
		if err := ctx.Err(); err != nil {
			return err
		}
		v := s.vars[name]
		if v.value == nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s = '%s'\n", name, *v.value); err != nil {
			return err
		}
	}
	return nil
}

func clone(value *string) *string {
	if value == nil {
		return nil
	}
	c := *value
	return &c
}
