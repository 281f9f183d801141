package builtin

import (
	"context"
	"fmt"
	"strings"

	"pgshell/internal/commands"
	"pgshell/internal/scan"
	"pgshell/internal/variables"
	"pgshell/pkg/shelltypes"
)

// conditionalKind selects which of \if, \elif, \else and \endif a
// ConditionalCommand implements.
type conditionalKind int

const (
	kindIf conditionalKind = iota
	kindElif
	kindElse
	kindEndif
)

// ConditionalCommand implements the \if block commands. They run even in
// inactive branches so nesting stays balanced.
type ConditionalCommand struct {
	kind conditionalKind
}

// Name returns the command name.
func (c *ConditionalCommand) Name() string {
	switch c.kind {
	case kindElif:
		return "elif"
	case kindElse:
		return "else"
	case kindEndif:
		return "endif"
	default:
		return "if"
	}
}

// Aliases returns no alternative names.
func (c *ConditionalCommand) Aliases() []string {
	return nil
}

// Description returns a brief description of the command.
func (c *ConditionalCommand) Description() string {
	switch c.kind {
	case kindElif:
		return "alternative within current conditional block"
	case kindElse:
		return "final alternative within current conditional block"
	case kindEndif:
		return "end conditional block"
	default:
		return "begin conditional block"
	}
}

// Usage returns the syntax of the command.
func (c *ConditionalCommand) Usage() string {
	switch c.kind {
	case kindIf, kindElif:
		return fmt.Sprintf(`\%s EXPR`, c.Name())
	default:
		return `\` + c.Name()
	}
}

// Conditional reports true.
func (c *ConditionalCommand) Conditional() bool {
	return true
}

// Execute updates the conditional stack.
func (c *ConditionalCommand) Execute(_ context.Context, env commands.Env, name string, state *scan.State, cond *scan.ConditionalStack) shelltypes.CommandStatus {
	sink := env.Diagnostics()

	switch c.kind {
	case kindIf:
		if !cond.Active() {
			cond.Push(scan.BranchIgnored)
			ignoreExpression(state)
			break
		}
		if evaluate(sink, state) {
			cond.Push(scan.BranchTrue)
		} else {
			cond.Push(scan.BranchFalse)
		}

	case kindElif:
		switch cond.Peek() {
		case scan.BranchTrue:
			// a previous branch was taken; skip the rest
			cond.Poke(scan.BranchIgnored)
			ignoreExpression(state)
		case scan.BranchFalse:
			if evaluate(sink, state) {
				cond.Poke(scan.BranchTrue)
			}
		case scan.BranchIgnored:
			ignoreExpression(state)
		case scan.BranchElseTrue, scan.BranchElseFalse:
			sink.Errorf("\\%s: cannot occur after \\else", name)
			return shelltypes.CommandError
		default:
			sink.Errorf("\\%s: no matching \\if", name)
			return shelltypes.CommandError
		}

	case kindElse:
		switch cond.Peek() {
		case scan.BranchTrue, scan.BranchIgnored:
			cond.Poke(scan.BranchElseFalse)
		case scan.BranchFalse:
			cond.Poke(scan.BranchElseTrue)
		case scan.BranchElseTrue, scan.BranchElseFalse:
			sink.Errorf("\\%s: cannot occur after \\else", name)
			return shelltypes.CommandError
		default:
			sink.Errorf("\\%s: no matching \\if", name)
			return shelltypes.CommandError
		}

	case kindEndif:
		if !cond.Pop() {
			sink.Errorf("\\%s: no matching \\if", name)
			return shelltypes.CommandError
		}
	}
	return shelltypes.CommandOK
}

// evaluate reads the rest of the command as a boolean expression. An
// unparsable expression is reported and counts as false.
func evaluate(sink shelltypes.DiagnosticSink, state *scan.State) bool {
	expr := strings.Join(state.Args(), " ")
	result, ok := variables.ParseBoolVar(sink, `\if expression`, &expr)
	return ok && result
}

// ignoreExpression consumes an expression that must not be evaluated.
func ignoreExpression(state *scan.State) {
	state.SkipArgs()
}

func init() {
	for _, kind := range []conditionalKind{kindIf, kindElif, kindElse, kindEndif} {
		cmd := &ConditionalCommand{kind: kind}
		if err := commands.GlobalRegistry.Register(cmd); err != nil {
			panic(fmt.Sprintf("failed to register %s command: %v", cmd.Name(), err))
		}
	}
}
