//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// colorOutput reports whether stream is a terminal able to show colored
// levels.
func colorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
