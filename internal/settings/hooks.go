package settings

import (
	"strings"

	"pgshell/internal/variables"
	"pgshell/internal/version"
	"pgshell/pkg/shelltypes"
)

// Establish registers the hooks of every special variable on store, binding
// them to s. Each special variable gets at least one hook so it stays known
// to the store, and listings, even while unset.
func Establish(store *variables.Store, s *Settings, sink shelltypes.DiagnosticSink) {
	boolVar := func(name string, target *bool) {
		store.SetHooks(name, boolSubstitute, func(v *string) bool {
			b, ok := variables.ParseBoolVar(sink, name, v)
			if ok {
				*target = b
			}
			return ok
		})
	}
	numVar := func(name string, target *int) variables.AssignHook {
		return func(v *string) bool {
			n, ok := variables.ParseNumVar(sink, name, v)
			if ok {
				*target = n
			}
			return ok
		}
	}

	boolVar("AUTOCOMMIT", &s.Autocommit)
	boolVar("ON_ERROR_STOP", &s.OnErrorStop)
	boolVar("QUIET", &s.Quiet)
	boolVar("SINGLELINE", &s.SingleLine)
	boolVar("SINGLESTEP", &s.SingleStep)

	store.SetHooks("FETCH_COUNT", defaultTo("0"), numVar("FETCH_COUNT", &s.FetchCount))
	store.SetHooks("HISTFILE", nil, func(v *string) bool {
		s.HistFile = deref(v)
		return true
	})
	store.SetHooks("HISTSIZE", defaultTo("500"), numVar("HISTSIZE", &s.HistSize))
	store.SetHooks("IGNOREEOF", ignoreEOFSubstitute, numVar("IGNOREEOF", &s.IgnoreEOF))

	store.SetHooks("ECHO", defaultTo("none"), enumHook(sink, "ECHO", &s.Echo, []enumValue[EchoMode]{
		{"queries", EchoQueries},
		{"errors", EchoErrors},
		{"all", EchoAll},
		{"none", EchoNone},
	}, "none, errors, queries, all"))

	store.SetHooks("ECHO_HIDDEN", boolSubstitute, func(v *string) bool {
		val := deref(v)
		if strings.EqualFold(val, "noexec") {
			s.EchoHidden = EchoHiddenNoExec
			return true
		}
		on, ok := variables.ParseBool(val)
		if !ok {
			variables.EnumError(sink, "ECHO_HIDDEN", val, "on, off, noexec")
			return false
		}
		s.EchoHidden = EchoHiddenOff
		if on {
			s.EchoHidden = EchoHiddenOn
		}
		return true
	})

	store.SetHooks("ON_ERROR_ROLLBACK", boolSubstitute, func(v *string) bool {
		val := deref(v)
		if strings.EqualFold(val, "interactive") {
			s.OnErrorRollback = ErrorRollbackInteractive
			return true
		}
		on, ok := variables.ParseBool(val)
		if !ok {
			variables.EnumError(sink, "ON_ERROR_ROLLBACK", val, "on, off, interactive")
			return false
		}
		s.OnErrorRollback = ErrorRollbackOff
		if on {
			s.OnErrorRollback = ErrorRollbackOn
		}
		return true
	})

	store.SetHooks("COMP_KEYWORD_CASE", defaultTo("preserve-upper"), enumHook(sink, "COMP_KEYWORD_CASE", &s.CompCase, []enumValue[CompCase]{
		{"preserve-upper", CompCasePreserveUpper},
		{"preserve-lower", CompCasePreserveLower},
		{"upper", CompCaseUpper},
		{"lower", CompCaseLower},
	}, "lower, upper, preserve-lower, preserve-upper"))

	store.SetHooks("HISTCONTROL", defaultTo("none"), enumHook(sink, "HISTCONTROL", &s.HistControl, []enumValue[HistControl]{
		{"ignorespace", HistControlIgnoreSpace},
		{"ignoredups", HistControlIgnoreDups},
		{"ignoreboth", HistControlIgnoreBoth},
		{"none", HistControlNone},
	}, "none, ignorespace, ignoredups, ignoreboth"))

	store.SetHooks("PROMPT1", nil, promptHook(&s.Prompt1))
	store.SetHooks("PROMPT2", nil, promptHook(&s.Prompt2))
	store.SetHooks("PROMPT3", nil, promptHook(&s.Prompt3))

	verbosity := enumHook(sink, "VERBOSITY", &s.Verbosity, []enumValue[Verbosity]{
		{"default", VerbosityDefault},
		{"verbose", VerbosityVerbose},
		{"terse", VerbosityTerse},
		{"sqlstate", VerbositySQLState},
	}, "default, verbose, terse, sqlstate")
	store.SetHooks("VERBOSITY", defaultTo("default"), func(v *string) bool {
		if !verbosity(v) {
			return false
		}
		if s.OnVerbosityChange != nil {
			s.OnVerbosityChange(s.Verbosity)
		}
		return true
	})

	boolVar("SHOW_ALL_RESULTS", &s.ShowAllResults)

	showContext := enumHook(sink, "SHOW_CONTEXT", &s.ShowContext, []enumValue[ShowContext]{
		{"never", ShowContextNever},
		{"errors", ShowContextErrors},
		{"always", ShowContextAlways},
	}, "never, errors, always")
	store.SetHooks("SHOW_CONTEXT", defaultTo("errors"), func(v *string) bool {
		if !showContext(v) {
			return false
		}
		if s.OnShowContextChange != nil {
			s.OnShowContextChange(s.ShowContext)
		}
		return true
	})

	boolVar("HIDE_TOAST_COMPRESSION", &s.HideCompression)
	boolVar("HIDE_TABLEAM", &s.HideTableAM)
}

// Defaults seeds the variables whose startup value differs from what
// unsetting them would give. Establish must have run first.
func Defaults(store *variables.Store) {
	for _, kv := range version.Variables() {
		store.Set(kv[0], kv[1])
	}

	store.Set("LAST_ERROR_MESSAGE", "")
	store.Set("LAST_ERROR_SQLSTATE", "00000")

	store.SetBool("AUTOCOMMIT")
	store.Set("PROMPT1", DefaultPrompt1)
	store.Set("PROMPT2", DefaultPrompt2)
	store.Set("PROMPT3", DefaultPrompt3)
	store.SetBool("SHOW_ALL_RESULTS")
}

// boolSubstitute turns "\unset FOO" into "\set FOO off" and "\set FOO" into "\set FOO on".
func boolSubstitute(v *string) *string {
	if v == nil {
		return ptr("off")
	}
	if *v == "" {
		return ptr("on")
	}
	return v
}

// defaultTo substitutes def for an absent value.
func defaultTo(def string) variables.SubstituteHook {
	return func(v *string) *string {
		if v == nil {
			return ptr(def)
		}
		return v
	}
}

// ignoreEOFSubstitute follows bash: unset means 0, set but not a number means 10.
func ignoreEOFSubstitute(v *string) *string {
	if v == nil {
		return ptr("0")
	}
	if _, ok := variables.ParseNum(*v); !ok {
		return ptr("10")
	}
	return v
}

func promptHook(target *string) variables.AssignHook {
	return func(v *string) bool {
		*target = deref(v)
		return true
	}
}

type enumValue[T any] struct {
	name  string
	value T
}

// enumHook accepts one of values, compared case-insensitively.
func enumHook[T any](sink shelltypes.DiagnosticSink, name string, target *T, values []enumValue[T], suggestions string) variables.AssignHook {
	return func(v *string) bool {
		val := deref(v)
		for _, ev := range values {
			if strings.EqualFold(val, ev.name) {
				*target = ev.value
				return true
			}
		}
		variables.EnumError(sink, name, val, suggestions)
		return false
	}
}

func ptr(s string) *string { return &s }

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
