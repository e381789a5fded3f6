// Package parser turns an input line into a Command.
//
// A line is split on whitespace. The first word is always the program. Words
// up to the first redirection operator are arguments; after that only "<",
// ">" and "&" carry meaning. A "&" runs the command in the background only
// when it is the last word of the line.
package parser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
)

const (
	// CommentMarker starts a line that is ignored.
	CommentMarker = "#"

	inputOp      = "<"
	outputOp     = ">"
	backgroundOp = "&"
)

var (
	ErrNoCommand         = errors.New("no command")
	ErrMissingTarget     = errors.New("missing redirection target")
	ErrDuplicateRedirect = errors.New("duplicate redirection")
	ErrTooManyArguments  = errors.New("too many arguments")
)

// Mode reports whether background execution is currently disabled.
type Mode interface {
	ForegroundOnly() bool
}

// Command is a single parsed input line.
type Command struct {
	Program        string
	Arguments      []string
	InputRedirect  string
	OutputRedirect string
	Background     bool
}

// Argv returns the argument vector for the program image, program first.
func (c *Command) Argv() []string {
	return append([]string{c.Program}, c.Arguments...)
}

// String renders the command the way it could be typed back in.
func (c *Command) String() string {
	s := shellquote.Join(c.Argv()...)
	if c.InputRedirect != "" {
		s += " < " + shellquote.Join(c.InputRedirect)
	}
	if c.OutputRedirect != "" {
		s += " > " + shellquote.Join(c.OutputRedirect)
	}
	if c.Background {
		s += " &"
	}
	return s
}

// Skip reports whether line is blank or a comment and must not be parsed.
func Skip(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, CommentMarker)
}

// Parser holds the limits applied while parsing.
type Parser struct {
	// MaxArgs bounds the number of arguments, program excluded. Zero means
	// no limit.
	MaxArgs int
	// Mode is consulted when a trailing "&" is consumed. A nil Mode never
	// disables background execution.
	Mode    Mode
	// Unknown, if set, is called for every word after the redirections
	// that is not an operator.
	Unknown func(word string)
}

// Parse parses an already expanded line.
func (p *Parser) Parse(line string) (*Command, error) {
	if Skip(line) {
		return nil, ErrNoCommand
	}
	words := strings.Fields(line)

	cmd := &Command{Program: words[0]}
	last := len(words) - 1

	i := 1
	for ; i <= last; i++ {
		word := words[i]
		if word == inputOp || word == outputOp {
			break
		}
		if word == backgroundOp && i == last {
			cmd.Background = p.backgroundAllowed()
			continue
		}
		if p.MaxArgs > 0 && len(cmd.Arguments) >= p.MaxArgs {
			return nil, fmt.Errorf("%w (limit %d)", ErrTooManyArguments, p.MaxArgs)
		}
		cmd.Arguments = append(cmd.Arguments, word)
	}

	for ; i <= last; i++ {
		switch word := words[i]; word {
		case inputOp, outputOp:
			if i == last {
				return nil, fmt.Errorf("%w after %q", ErrMissingTarget, word)
			}
			i++
			target := &cmd.OutputRedirect
			if word == inputOp {
				target = &cmd.InputRedirect
			}
			if *target != "" {
				return nil, fmt.Errorf("%w %q", ErrDuplicateRedirect, word)
			}
			*target = words[i]
		case backgroundOp:
			if i == last {
				cmd.Background = p.backgroundAllowed()
			}
		default:
			if p.Unknown != nil {
				p.Unknown(word)
			}
		}
	}

	return cmd, nil
}

// backgroundAllowed reads the mode once, at the point the marker is consumed.
func (p *Parser) backgroundAllowed() bool {
	if p.Mode == nil {
		return true
	}
	return !p.Mode.ForegroundOnly()
}

// Parse parses line with no argument limit and background always allowed.
func Parse(line string) (*Command, error) {
	return (&Parser{}).Parse(line)
}
