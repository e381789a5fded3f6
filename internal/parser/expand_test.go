package parser

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		line string
		pid  int
		want string
	}{
		{"echo hello", 42, "echo hello"},
		{"echo $$", 42, "echo 42"},
		{"touch f$$.txt", 1234, "touch f1234.txt"},
		{"$$$$", 7, "77"},
		{"$$$", 7, "7$"},
		{"echo $", 7, "echo $"},
		{"echo $ $", 7, "echo $ $"},
		{"$$x$$", 100000, "100000x100000"},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.want, Expand(tc.line, tc.pid))
		})
	}
}

func TestExpandLength(t *testing.T) {
	pid := 98765
	digits := len(strconv.Itoa(pid))
	for _, line := range []string{"a$$b", "$$ $$ $$ x", "kill -9 $$", "$$$$$$"} {
		markers := strings.Count(line, PIDMarker)
		got := Expand(line, pid)
		assert.Len(t, got, len(line)+markers*(digits-2), line)
		assert.NotContains(t, got, PIDMarker, line)
	}
}

func BenchmarkExpandNoMarker(b *testing.B) {
	line := "ls -l /usr/share/doc > listing.txt"
	for i := 0; i < b.N; i++ {
		Expand(line, 4242)
	}
}
