package shell

import (
	"errors"
	"fmt"
	"os"

	getopt "github.com/pborman/getopt/v2"

	"smallsh/internal/launcher"
	"smallsh/internal/parser"
)

// executeBuiltin runs cmd if it names a built-in. Built-ins run in the
// shell process; redirections and "&" do not apply to them.
func (s *Shell) executeBuiltin(cmd *parser.Command) (bool, error) {
	switch cmd.Program {
	case "cd":
		return true, s.changeDirectory(cmd.Arguments)
	case "exit":
		s.exit()
		return true, nil
	case "status":
		return true, s.showStatus()
	case "history":
		return true, s.showHistory(cmd.Arguments)
	default:
		return false, nil
	}
}

func (s *Shell) changeDirectory(args []string) error {
	var dir string
	switch len(args) {
	case 0:
		dir = os.Getenv("HOME")
		if dir == "" {
			dir = s.config.HomeDir
		}
	case 1:
		dir = args[0]
	default:
		return errors.New("cd: too many arguments")
	}

	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("cd: %w", err)
	}
	return nil
}

// exit asks the read loop to stop. Background processes are killed by
// Shutdown once the loop returns.
func (s *Shell) exit() {
	s.exiting = true
}

func (s *Shell) showStatus() error {
	_, err := fmt.Fprintln(s.stdout, launcher.Report("Most recent foreground process", s.status))
	return err
}

func (s *Shell) showHistory(args []string) error {
	opts := getopt.New()
	clearOpt := opts.Bool('c', "clear the history by deleting all entries")
	if err := opts.Getopt(append([]string{"history"}, args...), nil); err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if *clearOpt {
		return s.history.Clear()
	}
	for i, line := range s.history.GetAll() {
		fmt.Fprintf(s.stdout, "%5d  %s\n", i+1, line)
	}
	return nil
}
