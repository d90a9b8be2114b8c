//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

// reservedNameChars may not appear in an output file name.
const reservedNameChars = "\x00"

// colorTerminal reports whether stream is a terminal able to show colors.
func colorTerminal(stream *os.File) bool {
	return os.Getenv("NO_COLOR") == "" && term.IsTerminal(int(stream.Fd()))
}
