// Package settings holds the session state that special variables control.
// Settings is updated only through variable hooks: assigning AUTOCOMMIT,
// ECHO, VERBOSITY and friends in the store is what changes these fields.
package settings

// EchoMode selects which input is echoed to standard output.
type EchoMode int

// ECHO values.
const (
	EchoNone EchoMode = iota
	EchoErrors
	EchoQueries
	EchoAll
)

// EchoHiddenMode controls echoing of queries generated by meta-commands.
type EchoHiddenMode int

// ECHO_HIDDEN values.
const (
	EchoHiddenOff EchoHiddenMode = iota
	EchoHiddenOn
	EchoHiddenNoExec
)

// ErrorRollback controls the implicit savepoint taken around each statement.
type ErrorRollback int

// ON_ERROR_ROLLBACK values.
const (
	ErrorRollbackOff ErrorRollback = iota
	ErrorRollbackOn
	ErrorRollbackInteractive
)

// CompCase is the keyword case used by completion.
type CompCase int

// COMP_KEYWORD_CASE values.
const (
	CompCasePreserveUpper CompCase = iota
	CompCasePreserveLower
	CompCaseUpper
	CompCaseLower
)

// HistControl selects which lines are kept in history.
type HistControl int

// HISTCONTROL values.
const (
	HistControlNone HistControl = iota
	HistControlIgnoreSpace
	HistControlIgnoreDups
	HistControlIgnoreBoth
)

// Verbosity is the amount of detail printed for server errors.
type Verbosity int

// VERBOSITY values.
const (
	VerbosityDefault Verbosity = iota
	VerbosityVerbose
	VerbosityTerse
	VerbositySQLState
)

// String returns the variable spelling of v.
func (v Verbosity) String() string {
	switch v {
	case VerbosityVerbose:
		return "verbose"
	case VerbosityTerse:
		return "terse"
	case VerbositySQLState:
		return "sqlstate"
	default:
		return "default"
	}
}

// ShowContext selects when error context lines are printed.
type ShowContext int

// SHOW_CONTEXT values.
const (
	ShowContextNever ShowContext = iota
	ShowContextErrors
	ShowContextAlways
)

// Default prompts.
const (
	DefaultPrompt1 = "%/%R%x%# "
	DefaultPrompt2 = "%/%R%x%# "
	DefaultPrompt3 = ">> "
)

// Settings is the session state derived from special variables.
type Settings struct {
	Autocommit      bool
	OnErrorStop     bool
	Quiet           bool
	SingleLine      bool
	SingleStep      bool
	FetchCount      int
	HistFile        string
	HistSize        int
	IgnoreEOF       int
	Echo            EchoMode
	EchoHidden      EchoHiddenMode
	OnErrorRollback ErrorRollback
	CompCase        CompCase
	HistControl     HistControl
	Prompt1         string
	Prompt2         string
	Prompt3         string
	Verbosity       Verbosity
	ShowAllResults  bool
	ShowContext     ShowContext
	HideCompression bool
	HideTableAM     bool

	// Timing is toggled by \timing rather than by a variable.
	Timing bool

	// OnVerbosityChange, when set, is called after VERBOSITY is accepted.
	OnVerbosityChange func(Verbosity)
	// OnShowContextChange, when set, is called after SHOW_CONTEXT is accepted.
	OnShowContextChange func(ShowContext)
}

// New returns zero-valued settings. Establish fills them in.
func New() *Settings {
	return &Settings{}
}
