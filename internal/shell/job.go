package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"syscall"

	"golang.org/x/sys/unix"

	"smallsh/internal/launcher"
)

var ErrJobsFull = errors.New("too many background processes")

// Completion is a background process that was observed to finish.
type Completion struct {
	Pid    int
	Status launcher.Status
}

func (c Completion) String() string {
	return launcher.Report(fmt.Sprintf("Process %d", c.Pid), c.Status)
}

// Tracker holds the pids of running background processes, in the order
// they were started. It never holds more than its capacity.
type Tracker struct {
	pids     []int
	capacity int
	wait4    func(pid int, ws *unix.WaitStatus, options int, rusage *unix.Rusage) (int, error)
	kill     func(pid int, sig syscall.Signal) error
	log      *log.Logger
}

func NewTracker(capacity int, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Tracker{
		pids:     make([]int, 0, capacity),
		capacity: capacity,
		wait4:    unix.Wait4,
		kill:     unix.Kill,
		log:      logger,
	}
}

// Add records a started background process.
func (t *Tracker) Add(pid int) error {
	if t.Full() {
		return fmt.Errorf("%w: pid %d not tracked", ErrJobsFull, pid)
	}
	t.pids = append(t.pids, pid)
	return nil
}

func (t *Tracker) Len() int {
	return len(t.pids)
}

func (t *Tracker) Full() bool {
	return len(t.pids) >= t.capacity
}

// Pids returns the tracked pids in start order.
func (t *Tracker) Pids() []int {
	return append([]int{}, t.pids...)
}

// Poll checks every tracked process without blocking. Finished processes
// are reaped, removed and returned; running ones keep their place.
func (t *Tracker) Poll() []Completion {
	var done []Completion
	kept := t.pids[:0]
	for _, pid := range t.pids {
		var ws unix.WaitStatus
		wpid, err := t.wait4(pid, &ws, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			kept = append(kept, pid)
		case err != nil:
			// Nothing left to reap, so nothing left to report.
			t.log.Printf("poll %d: %v", pid, err)
		case wpid == 0:
			kept = append(kept, pid)
		case ws.Exited() || ws.Signaled():
			c := Completion{Pid: pid, Status: launcher.StatusOf(syscall.WaitStatus(ws))}
			t.log.Printf("reaped %s", c)
			done = append(done, c)
		default:
			kept = append(kept, pid)
		}
	}
	t.pids = kept
	return done
}

// Shutdown kills every tracked process without waiting for it and empties
// the tracker. It returns the pids that were signalled.
func (t *Tracker) Shutdown() []int {
	killed := make([]int, 0, len(t.pids))
	for _, pid := range t.pids {
		if err := t.kill(pid, unix.SIGKILL); err != nil {
			t.log.Printf("kill %d: %v", pid, err)
			continue
		}
		killed = append(killed, pid)
	}
	t.pids = t.pids[:0]
	return killed
}
