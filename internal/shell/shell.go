package shell

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"golang.org/x/sys/unix"

	"smallsh/internal/config"
	"smallsh/internal/history"
	"smallsh/internal/launcher"
	"smallsh/internal/parser"
)

var ErrLineTooLong = errors.New("line too long")

type Shell struct {
	config     *config.Config
	history    *history.History
	reader     lineReader
	rl         *readline.Instance
	parser     *parser.Parser
	launcher   *launcher.Launcher
	jobs       *Tracker
	mode       *Mode
	status     launcher.Status
	exiting    bool
	pid        int
	stdout     io.Writer
	stderr     io.Writer
	errColor   *color.Color
	log        *log.Logger
	logFile    io.Closer
	signalChan chan os.Signal
}

// New returns a shell on the process's own standard streams.
func New(cfg *config.Config, fsys afero.Fs) (*Shell, error) {
	return NewWithIO(cfg, fsys, os.Stdin, os.Stdout, os.Stderr)
}

// NewWithIO returns a shell reading lines from stdin. Line editing is used
// only when stdin is a terminal.
func NewWithIO(cfg *config.Config, fsys afero.Fs, stdin io.Reader, stdout, stderr io.Writer) (*Shell, error) {
	logger, logFile, err := openLog(fsys, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("error opening log: %w", err)
	}

	hist, err := history.New(fsys, cfg.HistoryFile, cfg.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("error initializing history: %w", err)
	}

	errColor := color.New(color.FgRed)
	if !cfg.Color {
		errColor.DisableColor()
	}

	s := &Shell{
		config:     cfg,
		history:    hist,
		jobs:       NewTracker(cfg.MaxJobs, logger),
		mode:       NewMode(descriptor(stdout)),
		pid:        os.Getpid(),
		stdout:     stdout,
		stderr:     stderr,
		errColor:   errColor,
		log:        logger,
		logFile:    logFile,
		signalChan: make(chan os.Signal, 1),
	}
	s.parser = &parser.Parser{
		MaxArgs: cfg.MaxArgs,
		Mode:    s.mode,
		Unknown: func(word string) {
			logger.Printf("ignoring %q after redirection", word)
		},
	}
	s.launcher = launcher.New(logger)
	s.launcher.Stdin = stdin
	s.launcher.Stdout = stdout
	s.launcher.Stderr = stderr

	if f, ok := stdin.(*os.File); ok && cfg.LineEditing && isTerminal(f) {
		rl, err := s.newEditor()
		if err != nil {
			return nil, fmt.Errorf("error initializing readline: %w", err)
		}
		s.rl = rl
		s.reader = rl
	} else {
		s.reader = newStreamReader(stdin, stdout, cfg.Prompt, cfg.MaxLine)
	}

	return s, nil
}

func (s *Shell) newEditor() (*readline.Instance, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 s.config.Prompt,
		DisableAutoSaveHistory: true,
		// The terminal is in raw mode while editing, so Ctrl-Z arrives as
		// a rune rather than as a signal.
		FuncFilterInputRune: func(r rune) (rune, bool) {
			if r == readline.CharCtrlZ {
				s.mode.Toggle()
				return r, false
			}
			return r, true
		},
	})
	if err != nil {
		return nil, err
	}
	for _, line := range s.history.GetAll() {
		rl.SaveHistory(line)
	}
	return rl, nil
}

// Run reads and executes lines until exit or end of input, then shuts
// down.
func (s *Shell) Run() {
	s.setupSignalHandling()
	defer s.stopSignalHandling()

	for !s.exiting {
		s.reportJobs()

		line, err := s.reader.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			break
		} else if errors.Is(err, ErrLineTooLong) {
			s.printError(err)
			continue
		} else if err != nil {
			s.printError(err)
			break
		}

		line = strings.TrimSpace(line)
		if parser.Skip(line) {
			continue
		}

		s.remember(line)

		if err := s.Execute(line); err != nil {
			s.printError(err)
		}
	}

	s.Shutdown()
}

// Execute expands, parses and runs a single line.
func (s *Shell) Execute(line string) error {
	if parser.Skip(line) {
		return nil
	}
	if s.config.MaxLine > 0 && len(line) > s.config.MaxLine {
		return fmt.Errorf("%w (limit %d)", ErrLineTooLong, s.config.MaxLine)
	}

	cmd, err := s.parser.Parse(parser.Expand(line, s.pid))
	if err != nil {
		return fmt.Errorf("error parsing command: %w", err)
	}
	return s.Launch(cmd)
}

// Launch runs cmd as a built-in or an external program. A background pid is
// announced and tracked; a foreground status is recorded.
func (s *Shell) Launch(cmd *parser.Command) error {
	if ok, err := s.executeBuiltin(cmd); ok {
		return err
	}

	if cmd.Background && s.jobs.Full() {
		return ErrJobsFull
	}

	res, err := s.launcher.Launch(cmd)
	if err != nil {
		return err
	}

	if cmd.Background {
		fmt.Fprintf(s.stdout, "background pid is %d\n", res.Pid)
		return s.jobs.Add(res.Pid)
	}

	s.status = res.Status
	if res.Status.Signaled {
		fmt.Fprintln(s.stdout, launcher.Report("Foreground process", res.Status))
	}
	return nil
}

// Shutdown kills all background processes and releases the shell's
// resources.
func (s *Shell) Shutdown() {
	for _, pid := range s.jobs.Shutdown() {
		s.log.Printf("killed %d", pid)
	}
	if err := s.reader.Close(); err != nil {
		s.log.Printf("closing input: %v", err)
	}
	if s.logFile != nil {
		s.logFile.Close()
	}
}

// Exiting reports whether the exit built-in has run.
func (s *Shell) Exiting() bool {
	return s.exiting
}

// Status returns the status of the last foreground command.
func (s *Shell) Status() launcher.Status {
	return s.status
}

// Jobs returns the background process tracker.
func (s *Shell) Jobs() *Tracker {
	return s.jobs
}

// Mode returns the foreground-only switch.
func (s *Shell) Mode() *Mode {
	return s.mode
}

func (s *Shell) reportJobs() {
	for _, c := range s.jobs.Poll() {
		fmt.Fprintln(s.stdout, c)
	}
}

func (s *Shell) remember(line string) {
	if err := s.history.Add(line); err != nil {
		s.log.Printf("saving history: %v", err)
	}
	if s.rl != nil {
		s.rl.SaveHistory(line)
	}
}

func (s *Shell) printError(err error) {
	s.errColor.Fprintf(s.stderr, "Error: %v\n", err)
}

func openLog(fsys afero.Fs, file string) (*log.Logger, io.Closer, error) {
	if file == "" {
		return log.New(io.Discard, "", 0), nil, nil
	}
	f, err := fsys.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "smallsh: ", log.LstdFlags), f, nil
}

// descriptor returns the file descriptor behind w, or standard output.
func descriptor(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		return int(f.Fd())
	}
	return unix.Stdout
}
