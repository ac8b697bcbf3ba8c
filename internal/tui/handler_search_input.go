package tui

import tea "github.com/charmbracelet/bubbletea"

type searchInputHandler struct{}

func (h searchInputHandler) HandleKey(m *BrowserModel, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return true, tea.Quit
	case "escape", "esc":
		m.searchActive = false
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.browser.ClearSearch()
		m.activeSection = SectionTable
		m.table.Focus()
		return true, nil
	case "enter":
		m.searchActive = false
		m.searchInput.Blur()
		m.activeSection = SectionTable
		m.table.Focus()
		return true, nil
	case "tab":
		m.cycleSearchScope()
		return true, nil
	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		if m.searchInput.Value() != m.snap.State.Search.Value {
			m.browser.SetSearch(m.searchInput.Value())
		}
		return true, cmd
	}
}

func (h searchInputHandler) HandleMouse(_ *BrowserModel, _ tea.MouseMsg) (bool, tea.Cmd) {
	return true, nil // swallow mouse events during search input
}
