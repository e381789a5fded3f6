package parser

import (
	"strconv"
	"strings"
)

// PIDMarker is replaced by the interpreter's process ID.
const PIDMarker = "$$"

// Expand replaces every PIDMarker in line with pid, scanning left to right.
// A lone trailing '$' is left as is. Lines without a marker are returned
// unchanged.
func Expand(line string, pid int) string {
	count := strings.Count(line, PIDMarker)
	if count == 0 {
		return line
	}

	id := strconv.Itoa(pid)
	var b strings.Builder
	b.Grow(len(line) + count*(len(id)-len(PIDMarker)))
	for {
		i := strings.Index(line, PIDMarker)
		if i < 0 {
			break
		}
		b.WriteString(line[:i])
		b.WriteString(id)
		line = line[i+len(PIDMarker):]
	}
	b.WriteString(line)
	return b.String()
}
