package launcher

import (
	"fmt"
	"syscall"
)

// Status is how a process finished: a normal exit with a code, or
// termination by a signal.
type Status struct {
	Signaled bool
	// Code is the exit code, or the signal number when Signaled is set.
	Code     int
}

// StatusOf converts a wait status. Only exited or signaled statuses are
// meaningful.
func StatusOf(ws syscall.WaitStatus) Status {
	if ws.Signaled() {
		return Status{Signaled: true, Code: int(ws.Signal())}
	}
	return Status{Code: ws.ExitStatus()}
}

// Success reports a zero exit code.
func (s Status) Success() bool {
	return !s.Signaled && s.Code == 0
}

func (s Status) String() string {
	if s.Signaled {
		return fmt.Sprintf("terminated by signal (%d)", s.Code)
	}
	return fmt.Sprintf("exited with status (%d)", s.Code)
}

// Report formats a completion with a leading label, e.g.
// "Process 123 exited with status (0)".
func Report(label string, s Status) string {
	return label + " " + s.String()
}
