package progress

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/cookware/cargo-cook/internal/style"
	"github.com/cookware/cargo-cook/internal/tui"
)

// StyledReporter implements Reporter with themed output.
// It uses lipgloss styles for colored output, a spinner animation
// while waiting and a progress bar for transfers.
type StyledReporter struct{}

// NewStyledReporter creates a reporter with lipgloss-styled output.
func NewStyledReporter() *StyledReporter {
	return &StyledReporter{}
}

// NewAutoReporter returns a StyledReporter when stdout is a TTY and colours
// are enabled, otherwise falls back to the plain ConsoleReporter.
func NewAutoReporter() Reporter {
	if term.IsTerminal(int(os.Stdout.Fd())) && style.Enabled {
		return NewStyledReporter()
	}
	return NewConsoleReporter()
}

var (
	startStyle   = lipgloss.NewStyle().Bold(true).Foreground(style.Green)
	stepStyle    = lipgloss.NewStyle().Foreground(style.White).PaddingLeft(2)
	infoStyle    = lipgloss.NewStyle().Foreground(style.Dim).PaddingLeft(4)
	warnStyle    = lipgloss.NewStyle().Foreground(style.Yellow).PaddingLeft(2)
	errorStyle   = lipgloss.NewStyle().Foreground(style.Red).Bold(true).PaddingLeft(2)
	successStyle = lipgloss.NewStyle().Foreground(style.Green).Bold(true).PaddingLeft(2)
)

func (r *StyledReporter) Start(message string) {
	fmt.Println(startStyle.Render(message))
}

func (r *StyledReporter) Step(message string) {
	fmt.Println(stepStyle.Render("→ " + message))
}

func (r *StyledReporter) Info(message string) {
	fmt.Println(infoStyle.Render(message))
}

func (r *StyledReporter) Warn(message string) {
	fmt.Println(warnStyle.Render("! " + message))
}

func (r *StyledReporter) Error(message string) {
	fmt.Println(errorStyle.Render("✗ " + message))
}

func (r *StyledReporter) Success(message string) {
	fmt.Println(successStyle.Render("✓ " + message))
}

func (r *StyledReporter) Wait(message string, fn func() error) error {
	return tui.RunWithSpinner(message, fn)
}

func (r *StyledReporter) Transfer(name string, total int64) Transfer {
	return newBarTransfer(name, total)
}

func (r *StyledReporter) End() {}
