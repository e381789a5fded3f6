package launcher

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/moby/sys/reexec"
	getopt "github.com/pborman/getopt/v2"
	"golang.org/x/sys/unix"
)

// childStage is the argv[0] under which the binary re-executes itself to
// prepare a child before loading the requested program.
const childStage = "smallsh-child"

// ExitFailure is the status a child exits with when it could not load the
// requested program.
const ExitFailure = 1

func init() {
	reexec.Register(childStage, runChild)
}

// childArgs builds the argv of the child stage for cmd.
func childArgs(background bool, stdin, stdout string, argv []string) []string {
	args := []string{childStage}
	if background {
		args = append(args, "--background")
	}
	if stdin != "" {
		args = append(args, "--stdin", stdin)
	}
	if stdout != "" {
		args = append(args, "--stdout", stdout)
	}
	args = append(args, "--")
	return append(args, argv...)
}

// runChild runs in the freshly spawned process. Any failure ends this
// process only.
func runChild() {
	opts := getopt.New()
	background := opts.BoolLong("background", 'b', "run as a background command")
	stdin := opts.StringLong("stdin", 'i', "", "file to read standard input from", "FILE")
	stdout := opts.StringLong("stdout", 'o', "", "file to write standard output to", "FILE")
	if err := opts.Getopt(os.Args, nil); err != nil {
		childFail(err)
	}
	argv := opts.Args()
	if len(argv) == 0 {
		childFail(errors.New("no program given"))
	}

	// Children never stop on the terminal stop signal.
	signal.Ignore(syscall.SIGTSTP)
	if *background {
		signal.Ignore(syscall.SIGINT)
	} else {
		// A caught signal is reset to its default action by execve.
		signal.Notify(make(chan os.Signal, 1), syscall.SIGINT)
	}

	switch {
	case *stdin != "":
		redirect(*stdin, unix.O_RDONLY, 0, unix.Stdin, "input")
	case *background:
		redirect(os.DevNull, unix.O_RDONLY, 0, unix.Stdin, "input")
	}
	switch {
	case *stdout != "":
		redirect(*stdout, unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, 0o644, unix.Stdout, "output")
	case *background:
		redirect(os.DevNull, unix.O_WRONLY, 0, unix.Stdout, "output")
	}

	loadImage(argv)
}

// redirect opens path and makes it descriptor fd.
func redirect(path string, flags int, perm uint32, fd int, what string) {
	src, err := unix.Open(path, flags|unix.O_CLOEXEC, perm)
	if err != nil {
		childFail(fmt.Errorf("cannot open %s for %s: %w", path, what, err))
	}
	if err := unix.Dup3(src, fd, 0); err != nil {
		childFail(fmt.Errorf("%s redirection failed: %w", what, err))
	}
	unix.Close(src)
}

// loadImage replaces the process image with argv[0]. The search path is
// tried first, then argv[0] as a literal path. It returns only by exiting.
func loadImage(argv []string) {
	env := os.Environ()
	if path, err := exec.LookPath(argv[0]); err == nil || errors.Is(err, exec.ErrDot) {
		unix.Exec(path, argv, env)
	}
	unix.Exec(argv[0], argv, env)
	childFail(fmt.Errorf("%s: command not found", argv[0]))
}

func childFail(err error) {
	fmt.Fprintf(os.Stderr, "smallsh: %v\n", err)
	os.Exit(ExitFailure)
}
