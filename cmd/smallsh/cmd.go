package main

import (
	"github.com/moby/sys/reexec"
)

func main() {
	// A child stage started by the launcher never reaches the CLI.
	if reexec.Init() {
		return
	}

	Execute()
}
