package shell

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// lineReader is the shell's source of input lines.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// streamReader reads lines from a plain stream, printing the prompt before
// each one. A line longer than limit is consumed up to its newline and
// reported as ErrLineTooLong.
type streamReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
	limit  int
}

func newStreamReader(in io.Reader, out io.Writer, prompt string, maxLine int) *streamReader {
	return &streamReader{
		in:     bufio.NewReader(in),
		out:    out,
		prompt: prompt,
		// Leave room for surrounding blanks; Execute applies the exact limit.
		limit: 16*(maxLine+1) + bufio.MaxScanTokenSize,
	}
}

func (r *streamReader) Readline() (string, error) {
	fmt.Fprint(r.out, r.prompt)

	var line []byte
	tooLong := false
	for {
		chunk, err := r.in.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > r.limit {
				tooLong, line = true, nil
			} else {
				line = append(line, chunk...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			if len(line) == 0 && !tooLong {
				return "", io.EOF
			}
			break
		}
		if err != nil {
			return "", err
		}
		break
	}

	if tooLong {
		return "", fmt.Errorf("%w (limit %d)", ErrLineTooLong, r.limit)
	}
	line = bytes.TrimSuffix(line, []byte("\n"))
	return string(bytes.TrimSuffix(line, []byte("\r"))), nil
}

func (r *streamReader) Close() error {
	return nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
