package tui

import (
	"github.com/charmbracelet/huh"
)

// FormPrompter asks for secrets through a huh form with masked input.
type FormPrompter struct{}

// Password shows title above a masked input and returns what was typed.
// An empty answer is returned as is; callers decide what it means.
func (FormPrompter) Password(title string) (string, error) {
	var value string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&value),
		),
	)

	if err := form.Run(); err != nil {
		return "", err
	}
	return value, nil
}
