package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Prompter asks line-based questions. Prompts are plain text so screen readers
// announce them in full.
type Prompter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// New returns a Prompter. When interactive is false every question is answered
// "no" without reading and WaitForEnter returns immediately.
func New(in io.Reader, out io.Writer, interactive bool) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out, interactive: interactive}
}

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Prompter) Interactive() bool { return p.interactive }

// Ask prints question and returns the next line without its line ending.
// End of input counts as an empty answer.
func (p *Prompter) Ask(question string) (string, error) {
	if _, err := fmt.Fprintln(p.out, question); err != nil {
		return "", err
	}
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question; only "y" means yes.
func (p *Prompter) Confirm(question string) (bool, error) {
	if !p.interactive {
		return false, nil
	}
	if _, err := fmt.Fprintln(p.out, question); err != nil {
		return false, err
	}
	ans, err := p.Ask("Type y for yes, or any other character and press enter.")
	if err != nil {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(ans), "y"), nil
}

// WaitForEnter holds the console window open until the user presses enter.
func (p *Prompter) WaitForEnter() {
	if !p.interactive {
		return
	}
	_, _ = p.Ask("Press enter to exit...")
}

// Say prints one line for the user.
func (p *Prompter) Say(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}
