package shell

import (
	"os/exec"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"smallsh/internal/launcher"
)

// fakeProcs stands in for wait4 and kill. Pids without a status are still
// running.
type fakeProcs struct {
	statuses map[int]unix.WaitStatus
	errs     map[int]error
	killed   []int
}

func (f *fakeProcs) wait4(pid int, ws *unix.WaitStatus, options int, _ *unix.Rusage) (int, error) {
	if err, ok := f.errs[pid]; ok {
		return 0, err
	}
	status, ok := f.statuses[pid]
	if !ok {
		return 0, nil
	}
	*ws = status
	return pid, nil
}

func (f *fakeProcs) kill(pid int, sig syscall.Signal) error {
	if sig != unix.SIGKILL {
		return unix.EINVAL
	}
	f.killed = append(f.killed, pid)
	return nil
}

func newFakeTracker(capacity int, procs *fakeProcs) *Tracker {
	t := NewTracker(capacity, nil)
	t.wait4 = procs.wait4
	t.kill = procs.kill
	return t
}

func TestTrackerCapacity(t *testing.T) {
	tracker := NewTracker(512, nil)
	for pid := 1; pid <= 512; pid++ {
		require.NoError(t, tracker.Add(pid))
	}
	assert.True(t, tracker.Full())
	assert.ErrorIs(t, tracker.Add(513), ErrJobsFull)
	assert.Equal(t, 512, tracker.Len())
}

func TestTrackerPoll(t *testing.T) {
	procs := &fakeProcs{
		statuses: map[int]unix.WaitStatus{
			20: unix.WaitStatus(3 << 8),
			30: unix.WaitStatus(syscall.SIGTERM),
		},
	}
	tracker := newFakeTracker(8, procs)
	for _, pid := range []int{10, 20, 30, 40} {
		require.NoError(t, tracker.Add(pid))
	}

	done := tracker.Poll()

	assert.Equal(t, []Completion{
		{Pid: 20, Status: launcher.Status{Code: 3}},
		{Pid: 30, Status: launcher.Status{Signaled: true, Code: int(syscall.SIGTERM)}},
	}, done)
	assert.Equal(t, []int{10, 40}, tracker.Pids())
	assert.Equal(t, "Process 30 terminated by signal (15)", done[1].String())

	assert.Empty(t, tracker.Poll())
	assert.Equal(t, []int{10, 40}, tracker.Pids())
}

func TestTrackerPollErrors(t *testing.T) {
	procs := &fakeProcs{
		errs: map[int]error{
			1: unix.ECHILD,
			2: unix.EINTR,
		},
	}
	tracker := newFakeTracker(4, procs)
	require.NoError(t, tracker.Add(1))
	require.NoError(t, tracker.Add(2))

	assert.Empty(t, tracker.Poll())
	assert.Equal(t, []int{2}, tracker.Pids())
}

func TestTrackerSlotReuse(t *testing.T) {
	procs := &fakeProcs{statuses: map[int]unix.WaitStatus{}}
	tracker := newFakeTracker(2, procs)
	require.NoError(t, tracker.Add(1))
	require.NoError(t, tracker.Add(2))
	assert.ErrorIs(t, tracker.Add(3), ErrJobsFull)

	procs.statuses[1] = 0
	require.Len(t, tracker.Poll(), 1)
	require.NoError(t, tracker.Add(3))
	assert.Equal(t, []int{2, 3}, tracker.Pids())
}

func TestTrackerShutdown(t *testing.T) {
	procs := &fakeProcs{}
	tracker := newFakeTracker(4, procs)
	require.NoError(t, tracker.Add(7))
	require.NoError(t, tracker.Add(8))

	assert.Equal(t, []int{7, 8}, tracker.Shutdown())
	assert.Equal(t, []int{7, 8}, procs.killed)
	assert.Zero(t, tracker.Len())
}

func TestTrackerRealProcess(t *testing.T) {
	cmd := exec.Command("sleep", "10")
	require.NoError(t, cmd.Start())
	pid := cmd.Process.Pid
	require.NoError(t, cmd.Process.Release())

	tracker := NewTracker(4, nil)
	require.NoError(t, tracker.Add(pid))
	assert.Empty(t, tracker.Poll())
	assert.Equal(t, []int{pid}, tracker.Pids())

	assert.Equal(t, []int{pid}, tracker.Shutdown())

	var ws unix.WaitStatus
	_, err := unix.Wait4(pid, &ws, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, launcher.Status{Signaled: true, Code: int(unix.SIGKILL)}, launcher.StatusOf(syscall.WaitStatus(ws)))
}
