package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// scrollModal is the shared frame for scrollable text modals.
type scrollModal struct {
	vp     viewport.Model
	title  string
	status []string
}

func newScrollModal(title string, status ...string) scrollModal {
	if len(status) == 0 {
		status = []string{"up/down/Wheel: Scroll", "PgUp/PgDn: Page", "ESC: Close"}
	}
	return scrollModal{vp: viewport.New(0, 0), title: title, status: status}
}

// updateViewport forwards scrolling input and reports whether the modal
// should close.
func (s *scrollModal) updateViewport(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "esc", "escape", "q":
			return true, nil
		case "ctrl+c":
			return true, tea.Quit
		}
	}
	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return false, cmd
}

// render lays content out inside a centered bordered box.
func (s *scrollModal) render(content string, width, height int) string {
	modalWidth := width - 8   // 4 chars margin on each side
	modalHeight := height - 6 // 3 lines margin top and bottom

	// Borders, header and status bar.
	contentWidth := max(10, modalWidth-4)
	contentHeight := max(3, modalHeight-4)

	s.vp.Width = contentWidth
	s.vp.Height = contentHeight
	s.vp.SetContent(lipgloss.NewStyle().Width(contentWidth).Render(content))

	contentPane := lipgloss.NewStyle().
		Width(contentWidth).
		Height(contentHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(ColorGray).
		Render(s.vp.View())

	header := lipgloss.NewStyle().
		Width(contentWidth).
		Foreground(ColorBlue).
		Bold(true).
		Render(s.title)

	statusBar := lipgloss.NewStyle().
		Foreground(ColorGray).
		Render(strings.Join(s.status, " | "))

	modal := lipgloss.JoinVertical(lipgloss.Left, header, contentPane, statusBar)

	finalModal := lipgloss.NewStyle().
		Width(modalWidth).
		Height(modalHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlue).
		Render(modal)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, finalModal)
}
