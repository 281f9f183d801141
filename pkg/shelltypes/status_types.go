// Package shelltypes defines the types shared between pgshell packages.
// This file contains process exit statuses and the status values returned by
// meta-command dispatch.
package shelltypes

// ExitStatus is the process exit code reported by a file run or an action run.
type ExitStatus int

const (
	// ExitSuccess means every statement ran successfully
	ExitSuccess ExitStatus = 0
	// ExitFailure means at least one statement or command failed
	ExitFailure ExitStatus = 1
	// ExitBadConn means the connection to the database could not be established
	ExitBadConn ExitStatus = 2
	// ExitUser means execution was stopped early, e.g. by ON_ERROR_STOP
	ExitUser ExitStatus = 3
)

// String returns a short name for the exit status.
func (s ExitStatus) String() string {
	switch s {
	case ExitSuccess:
		return "success"
	case ExitFailure:
		return "failure"
	case ExitBadConn:
		return "bad-connection"
	case ExitUser:
		return "user-stop"
	default:
		return "unknown"
	}
}

// CommandStatus is the result of dispatching one meta-command.
type CommandStatus int

const (
	// CommandOK means the command ran (or was skipped inside an inactive \if branch)
	CommandOK CommandStatus = iota
	// CommandError means the command failed and printed a diagnostic
	CommandError
	// CommandTerminate means the command asked the shell to stop (\q)
	CommandTerminate
)

// String returns a human-readable representation of the command status.
func (s CommandStatus) String() string {
	switch s {
	case CommandOK:
		return "ok"
	case CommandError:
		return "error"
	case CommandTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}
