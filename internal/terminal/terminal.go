// Package terminal provides TTY detection and terminal capability helpers.
// Commands use it to decide between styled and plain output and between an
// interactive form and a bare no-echo read when asking for a password.
package terminal

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// Info holds the resolved terminal state for the current process.
// Create one at startup via Detect() and pass it down.
type Info struct {
	// IsTerminal is true when stdout is connected to a TTY.
	IsTerminal bool
	// StdinIsTerminal is true when stdin is connected to a TTY.
	StdinIsTerminal bool
	// ColorEnabled is true when ANSI colours should be emitted.
	ColorEnabled bool
	// InteractiveEnabled is true when interactive forms may be shown.
	InteractiveEnabled bool
}

// Detect inspects the environment and returns a populated Info.
// noColor is the value of the --no-color flag.
func Detect(noColor bool) Info {
	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	stdinTTY := term.IsTerminal(int(os.Stdin.Fd()))

	// Honour the NO_COLOR convention (https://no-color.org/).
	envNoColor := os.Getenv("NO_COLOR") != ""

	colorOn := isTTY && !noColor && !envNoColor

	return Info{
		IsTerminal:         isTTY,
		StdinIsTerminal:    stdinTTY,
		ColorEnabled:       colorOn,
		InteractiveEnabled: colorOn && stdinTTY && !IsDumb() && !IsCI(),
	}
}

// IsDumb returns true when the terminal is known to have no capabilities
// (e.g. TERM=dumb or running inside Emacs).
func IsDumb() bool {
	t := strings.ToLower(os.Getenv("TERM"))
	return t == "dumb" || t == ""
}

// IsCI returns true when a well-known CI environment variable is set.
func IsCI() bool {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "JENKINS_URL", "GITLAB_CI", "CIRCLECI", "TRAVIS"}
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return true
		}
	}
	return false
}
