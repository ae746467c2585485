package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cookware/cargo-cook/internal/style"
)

// StyledHelpTemplate returns a Cobra usage template with coloured headings.
// Dynamic content (command and flag names) stays unstyled because Cobra's
// template engine cannot call lipgloss.
func StyledHelpTemplate() string {
	if !style.Enabled {
		return "" // fall back to Cobra default
	}

	heading := lipgloss.NewStyle().Bold(true).Foreground(style.Green).Render
	dim := lipgloss.NewStyle().Foreground(style.Dim).Render

	return heading("Usage") + `:
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}
` + `{{if gt (len .Aliases) 0}}
` + heading("Aliases") + `:
  {{.NameAndAliases}}
{{end}}` + `{{if .HasExample}}
` + heading("Examples") + `:
{{.Example}}
{{end}}` + `{{if .HasAvailableSubCommands}}
` + heading("Commands") + `:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }}  {{.Short}}{{end}}{{end}}
{{end}}` + `{{if .HasAvailableLocalFlags}}
` + heading("Flags") + `:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}` + `{{if .HasAvailableInheritedFlags}}
` + heading("Global Flags") + `:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}` + `{{if .HasAvailableSubCommands}}
` + dim(`Use "{{.CommandPath}} [command] --help" for more information about a command.`) + `
{{end}}`
}
