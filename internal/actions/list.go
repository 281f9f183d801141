// Package actions queues the work given on the command line and runs it
// under the stop-on-error and single-transaction policies.
package actions

import "iter"

// Kind is the type of a pending action.
type Kind int

const (
	// Query is literal SQL sent as is (-c without a leading backslash).
	Query Kind = iota
	// SlashCommand is a single meta-command (-c starting with a backslash).
	SlashCommand
	// File is a script to run (-f); an empty value or "-" means standard input.
	File
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case Query:
		return "query"
	case SlashCommand:
		return "slash"
	case File:
		return "file"
	default:
		return "unknown"
	}
}

// Action is one unit of pending work.
type Action struct {
	Kind  Kind
	Value string
}

// List holds actions in arrival order. Appended actions are never modified.
type List struct {
	actions []Action
}

// Append adds an action at the end of the list.
func (l *List) Append(kind Kind, value string) {
	l.actions = append(l.actions, Action{Kind: kind, Value: value})
}

// Len returns the number of actions.
func (l *List) Len() int {
	return len(l.actions)
}

// Empty reports whether no action was queued.
func (l *List) Empty() bool {
	return len(l.actions) == 0
}

// All yields the actions with their position, in order.
func (l *List) All() iter.Seq2[int, Action] {
	return func(yield func(int, Action) bool) {
		for i, a := range l.actions {
			if !yield(i, a) {
				return
			}
		}
	}
}
