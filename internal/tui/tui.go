package tui

import (
	"tempo-cli/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the interactive calendar focused on date (zero means today) and blocks
// until the user quits. env must carry the gateway and API clients; the navigator
// fills in the per-screen parts.
func Run(env Env, date model.Date) error {
	applyThemePreference()
	applyGlyphPreference()
	applyColorProfilePreference()

	nav := NewNavigator(env, NewMyWork(date))
	p := tea.NewProgram(nav, tea.WithAltScreen())
	if env.Gateway != nil {
		env.Gateway.Tracker().Register(ProgramObserver(p.Send))
	}
	_, err := p.Run()
	return err
}
