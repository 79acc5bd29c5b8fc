//go:build !windows

package console

import (
	"fmt"
	"os"
)

// SetTitle sets the terminal title with the xterm OSC 0 sequence. Nothing is
// written when stdout is not a terminal.
func SetTitle(title string) error {
	if !IsInteractive(os.Stdout) {
		return nil
	}
	_, err := fmt.Fprintf(os.Stdout, "\x1b]0;%s\x07", title)
	return err
}
