package terminal

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// PasswordReader reads a secret from a terminal file descriptor without
// echoing it.
type PasswordReader struct {
	Out io.Writer
	Fd  int
}

// NewPasswordReader reads from stdin and prompts on stdout.
func NewPasswordReader() PasswordReader {
	return PasswordReader{Out: os.Stdout, Fd: int(os.Stdin.Fd())}
}

// Password prints prompt, reads a line with echo disabled and returns it.
func (p PasswordReader) Password(prompt string) (string, error) {
	fmt.Fprint(p.Out, prompt)
	password, err := term.ReadPassword(p.Fd)
	fmt.Fprintln(p.Out) // Add a newline after the password input
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}
	return string(password), nil
}
