// Package launcher spawns external commands.
//
// A command is started by re-executing the shell binary as a child stage.
// The child stage sets the signal dispositions, wires the redirections and
// then replaces itself with the requested program, so every failure before
// the program loads is confined to the child.
package launcher

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"syscall"

	"github.com/moby/sys/reexec"

	"smallsh/internal/parser"
)

// Launcher starts commands with the shell's standard streams.
type Launcher struct {
	// Stdin is handed to foreground commands only when it is an *os.File;
	// any other reader belongs to the shell's line input.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Log    *log.Logger
}

// Result is the outcome of Launch. Pid is set for background commands,
// Status for foreground ones.
type Result struct {
	Pid    int
	Status Status
}

// New returns a Launcher using the process's own streams.
func New(logger *log.Logger) *Launcher {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Launcher{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Log:    logger,
	}
}

// Launch runs cmd in the background or the foreground according to
// cmd.Background.
func (l *Launcher) Launch(cmd *parser.Command) (Result, error) {
	if cmd.Background {
		pid, err := l.Background(cmd)
		return Result{Pid: pid}, err
	}
	status, err := l.Foreground(cmd)
	return Result{Status: status}, err
}

// Foreground runs cmd and blocks until it exits.
func (l *Launcher) Foreground(cmd *parser.Command) (Status, error) {
	c := l.command(cmd, false)
	if f, ok := l.Stdin.(*os.File); ok {
		c.Stdin = f
	}
	c.Stdout = l.Stdout
	c.Stderr = l.Stderr

	if err := c.Start(); err != nil {
		return Status{}, fmt.Errorf("spawn %s: %w", cmd.Program, err)
	}
	l.Log.Printf("foreground %d: %s", c.Process.Pid, cmd)

	err := c.Wait()
	if c.ProcessState == nil {
		return Status{}, fmt.Errorf("wait %s: %w", cmd.Program, err)
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		l.Log.Printf("foreground %d: %v", c.Process.Pid, err)
	}

	ws, ok := c.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return Status{Code: c.ProcessState.ExitCode()}, nil
	}
	return StatusOf(ws), nil
}

// Background starts cmd and returns its pid without waiting. The caller
// owns reaping the process.
func (l *Launcher) Background(cmd *parser.Command) (int, error) {
	c := l.command(cmd, true)
	if f, ok := l.Stderr.(*os.File); ok {
		c.Stderr = f
	}

	if err := c.Start(); err != nil {
		return 0, fmt.Errorf("spawn %s: %w", cmd.Program, err)
	}
	pid := c.Process.Pid
	if err := c.Process.Release(); err != nil {
		l.Log.Printf("release %d: %v", pid, err)
	}
	l.Log.Printf("background %d: %s", pid, cmd)
	return pid, nil
}

func (l *Launcher) command(cmd *parser.Command, background bool) *exec.Cmd {
	c := reexec.Command(childArgs(background, cmd.InputRedirect, cmd.OutputRedirect, cmd.Argv())...)
	// Children outlive the thread that spawned them.
	c.SysProcAttr = nil
	return c
}
