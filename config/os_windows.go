//go:build windows

package config

import (
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

const reservedNameChars = "\x00<>\":/\\|?*"

// colorTerminal reports whether stream is a console and switches it to VT
// sequence processing. Consoles refusing the mode get plain output.
func colorTerminal(stream *os.File) bool {
	if os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(stream.Fd())) {
		return false
	}
	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
