package shell

import (
	"os/signal"
	"sync/atomic"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	enterForegroundOnly = []byte("\nEntering foreground-only mode (& is now ignored)\n")
	exitForegroundOnly  = []byte("\nExiting foreground-only mode\n")
)

// Mode is the foreground-only switch. It is flipped from the signal
// goroutine and read by the parser without further locking.
type Mode struct {
	fgOnly atomic.Bool
	fd     int
}

// NewMode returns a Mode, initially off, that writes its notices to fd.
func NewMode(fd int) *Mode {
	return &Mode{fd: fd}
}

func (m *Mode) ForegroundOnly() bool {
	return m.fgOnly.Load()
}

// Toggle flips the mode, writes the matching notice and returns the new
// state.
func (m *Mode) Toggle() bool {
	for {
		old := m.fgOnly.Load()
		if !m.fgOnly.CompareAndSwap(old, !old) {
			continue
		}
		msg := enterForegroundOnly
		if old {
			msg = exitForegroundOnly
		}
		// Fixed bytes straight to the descriptor, no buffering.
		unix.Write(m.fd, msg)
		return !old
	}
}

func (s *Shell) setupSignalHandling() {
	signal.Ignore(syscall.SIGINT)
	signal.Notify(s.signalChan, syscall.SIGTSTP)
	go s.handleSignals()
}

func (s *Shell) stopSignalHandling() {
	signal.Stop(s.signalChan)
	signal.Reset(syscall.SIGINT)
	close(s.signalChan)
}

func (s *Shell) handleSignals() {
	for range s.signalChan {
		s.mode.Toggle()
	}
}
