package tui

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
)

const helpModalID = "help"

// helpModal lists every key binding plus a short guide.
type helpModal struct {
	scrollModal
	keys KeyMap
	help help.Model
}

func newHelpModal(keys KeyMap) *helpModal {
	h := help.New()
	h.ShowAll = true
	return &helpModal{
		scrollModal: newScrollModal("Help", "up/down/Wheel: Scroll", "PgUp/PgDn: Page", "?/h: Toggle Help", "ESC: Close"),
		keys:        keys,
		help:        h,
	}
}

func (h *helpModal) ID() string { return helpModalID }

func (h *helpModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && (km.String() == "?" || km.String() == "h") {
		return true, nil
	}
	return h.updateViewport(msg)
}

func (h *helpModal) View(width, height int) string {
	h.help.Width = max(20, width-16)
	return h.render(h.help.View(h.keys)+"\n\n"+helpGuide, width, height)
}

const helpGuide = `SECTIONS:
  Table   - Issues matching the current filters, one page at a time
  Chart   - Issue counts per person. Enter or click a bar to select it
  Filter  - Employee and customer filter, staged then applied

FILTER & SEARCH:
  Filter (f): left/right picks a value, up/down switches facet,
              enter applies, esc leaves the staged values as they are
  Search (/): live match on the description, employee or customer
              name (s switches scope). Search and filter exclude each
              other: the search bar is hidden while a filter is applied
              and the filter is locked while a search is active
  S / A / o : cycle status, active state and sort order

PAGING:
  The table grows by one page at a time. m loads the next page while
  issues remain. Changing the applied filter starts again at page one.`
