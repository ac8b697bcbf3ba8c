package tui

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/issuedeck/internal/view"
)

// filterInputHandler edits the staged primary filter. Nothing reaches the
// derived view until enter applies it.
type filterInputHandler struct{}

func (h filterInputHandler) HandleKey(m *BrowserModel, msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return true, tea.Quit
	case "escape", "esc":
		m.filterActive = false
		m.activeSection = SectionTable
		m.table.Focus()
		return true, nil
	case "enter":
		m.browser.ApplyFilter()
		m.filterActive = false
		m.activeSection = SectionTable
		m.table.Focus()
		return true, nil
	case "x":
		m.browser.ClearFilter()
		return true, nil
	case "up", "k", "shift+tab":
		m.moveFilterField(-1)
		return true, nil
	case "down", "j", "tab":
		m.moveFilterField(1)
		return true, nil
	case "left", "h":
		m.cycleStagedValue(-1)
		return true, nil
	case "right", "l", " ":
		m.cycleStagedValue(1)
		return true, nil
	}
	return true, nil
}

func (h filterInputHandler) HandleMouse(_ *BrowserModel, _ tea.MouseMsg) (bool, tea.Cmd) {
	return true, nil // swallow mouse events during filter input
}

func (m *BrowserModel) moveFilterField(delta int) {
	n := len(view.Facets())
	m.filterField = (m.filterField + delta + n) % n
}

// filterOptions lists All followed by every value seen for facet.
func (m *BrowserModel) filterOptions(facet view.Facet) []string {
	values := m.snap.Employees
	if facet == view.FacetCustomer {
		values = m.snap.Customers
	}
	return append([]string{view.All}, values...)
}

func (m *BrowserModel) cycleStagedValue(delta int) {
	facet := view.Facets()[m.filterField]
	opts := m.filterOptions(facet)
	i := slices.Index(opts, m.snap.State.Primary.Staged.Value(facet))
	if i < 0 {
		i = 0
	}
	next := opts[(i+delta+len(opts))%len(opts)]
	if err := m.browser.StageFilter(facet, next); err != nil {
		m.setError(err)
	}
}
