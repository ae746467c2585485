package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cookware/cargo-cook/internal/style"
)

// SpinnerDoneMsg signals that the long-running operation finished.
type SpinnerDoneMsg struct {
	Err error
}

// SpinnerModel shows a spinner while a blocking operation runs.
type SpinnerModel struct {
	spinner  spinner.Model
	title    string
	done     bool
	err      error
	runFunc  func() error
	quitting bool
}

// NewSpinnerModel creates a spinner that runs fn in the background.
func NewSpinnerModel(title string, fn func() error) SpinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(style.SpinnerColor)

	return SpinnerModel{
		spinner: s,
		title:   title,
		runFunc: fn,
	}
}

func (m SpinnerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			return SpinnerDoneMsg{Err: m.runFunc()}
		},
	)
}

func (m SpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}

	case SpinnerDoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m SpinnerModel) View() string {
	if m.quitting {
		return ""
	}
	if m.done {
		if m.err != nil {
			return style.Error.Render(fmt.Sprintf("  ✗ %s", m.title)) + "\n"
		}
		return style.Success.Render(fmt.Sprintf("  ✓ %s", m.title)) + "\n"
	}
	return "  " + m.spinner.View() + " " + m.title + "...\n"
}

// ErrInterrupted is returned when the user aborts a spinner with ctrl+c.
var ErrInterrupted = fmt.Errorf("interrupted")

// RunWithSpinner runs fn while showing a spinner and returns fn's error.
func RunWithSpinner(title string, fn func() error) error {
	m := NewSpinnerModel(title, fn)
	p := tea.NewProgram(m)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result := finalModel.(SpinnerModel)
	if result.quitting {
		return ErrInterrupted
	}
	return result.err
}
