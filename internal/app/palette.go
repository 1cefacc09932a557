package app

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/chmouel/lazydiff/internal/app/screen"
	"github.com/chmouel/lazydiff/internal/tab"
)

const sessionItemPrefix = "session:"

// paletteItems lists the tab actions under their section headers, followed
// by the open sessions.
func (m *Model) paletteItems(ctl *tab.Controller) []screen.PaletteItem {
	var items []screen.PaletteItem
	section := ""
	for _, a := range ctl.Commands().Actions() {
		if a.Section != section {
			section = a.Section
			items = append(items, screen.PaletteItem{Label: section, IsSection: true})
		}
		items = append(items, screen.PaletteItem{
			ID:          a.ID,
			Label:       a.Label,
			Description: a.Description,
			Shortcut:    a.Shortcut,
			Icon:        a.Icon,
			Disabled:    !a.IsAvailable(),
			Checked:     a.IsChecked(),
		})
	}

	if m.sessions.Len() > 1 {
		items = append(items, screen.PaletteItem{Label: "Open Diffs", IsSection: true})
		for _, s := range m.sessions.List() {
			items = append(items, screen.PaletteItem{
				ID:          sessionItemPrefix + s.ID,
				Label:       s.Value.Title(),
				Description: "Switch to this diff",
				Checked:     s.ID == m.active,
			})
		}
	}
	return items
}

func (m *Model) showPalette(ctl *tab.Controller) {
	p := screen.NewCommandPaletteScreen(m.paletteItems(ctl), m.windowWidth, m.windowHeight, m.theme)
	p.ShowIcons = m.config.ShowIcons
	p.OnSelect = func(id string) tea.Cmd {
		if sessionID, ok := strings.CutPrefix(id, sessionItemPrefix); ok {
			m.showSession(sessionID)
			return nil
		}
		return m.executeCommand(id)
	}
	m.screens.Push(p)
}
