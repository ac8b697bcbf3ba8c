package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/issuedeck/internal/view"
)

const (
	minWidth  = 40
	minHeight = 16
)

// browserLayout holds the outer heights of the stacked sections.
type browserLayout struct {
	width           int
	innerWidth      int
	chartHeight     int
	chartBarsHeight int
	filterHeight    int
	tableHeight     int
}

func (m *BrowserModel) layout() browserLayout {
	chart := 10
	if m.snap.Compact {
		chart = 7
	}
	const filter = 3
	const status = 1
	return browserLayout{
		width:           m.width,
		innerWidth:      max(0, m.width-4),
		chartHeight:     chart,
		chartBarsHeight: max(1, chart-4),
		filterHeight:    filter,
		tableHeight:     max(4, m.height-status-chart-filter),
	}
}

// View renders the browser, or the topmost modal full-screen.
func (m *BrowserModel) View(width, height int) string {
	if width != m.width || height != m.height {
		m.width, m.height = width, height
		m.rebuildTable()
	}
	if m.width <= 0 || m.height <= 0 {
		return "Initializing..."
	}
	if modal := m.TopModal(); modal != nil {
		return modal.View(m.width, m.height)
	}
	if m.height < minHeight || m.width < minWidth {
		return fmt.Sprintf("Terminal too small. Resize to at least %dx%d.", minWidth, minHeight)
	}

	l := m.layout()
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.renderChartSection(l),
		m.renderFilterSection(l),
		m.renderTableSection(l),
		m.renderStatusLine(),
	)
	return lipgloss.NewStyle().MaxWidth(m.width).MaxHeight(m.height).Render(body)
}

// renderFilterSection shows the search input, the filter picker, or a
// summary of what currently constrains the view.
func (m *BrowserModel) renderFilterSection(l browserLayout) string {
	style := sectionStyle
	if m.activeSection == SectionFilter {
		style = activeSectionStyle
	}

	var line string
	switch {
	case m.searchActive:
		line = labelStyle.Render(fmt.Sprintf("Search [%s]: ", m.snap.State.Search.Scope)) + m.searchInput.View()
	case m.filterActive:
		line = m.renderFilterPicker()
	default:
		line = m.renderFilterSummary()
	}
	return style.Width(l.width - 2).MaxWidth(l.width).Render(
		lipgloss.NewStyle().MaxWidth(l.innerWidth).Render(line))
}

func (m *BrowserModel) renderFilterPicker() string {
	staged := m.snap.State.Primary.Staged
	var parts []string
	for i, facet := range view.Facets() {
		text := fmt.Sprintf("%s: ‹%s›", facetTitle(facet), staged.Value(facet))
		if i == m.filterField {
			parts = append(parts, valueStyle.Foreground(ColorOrange).Render(text))
		} else {
			parts = append(parts, labelStyle.Render(text))
		}
	}
	return strings.Join(parts, "  ") + helpStyle.Render("  ←/→ value · ↑/↓ field · enter apply · x clear · esc close")
}

func (m *BrowserModel) renderFilterSummary() string {
	st := m.snap.State
	var parts []string

	if st.Search.Active {
		parts = append(parts, valueStyle.Render(fmt.Sprintf("Search %q in %s", st.Search.Value, st.Search.Scope)))
	} else if st.Primary.IsFiltering() {
		applied := st.Primary.Applied
		var chips []string
		for _, facet := range view.Facets() {
			if v := applied.Value(facet); v != view.All {
				chips = append(chips, fmt.Sprintf("%s=%s", facetTitle(facet), v))
			}
		}
		parts = append(parts, valueStyle.Render("Filter "+strings.Join(chips, " ")))
	} else {
		parts = append(parts, labelStyle.Render("No filter"))
	}

	sec := st.Secondary
	if sec.Selection.Active() {
		parts = append(parts, valueStyle.Foreground(ColorOrange).Render(fmt.Sprintf("%s=%s", facetTitle(sec.Selection.Kind), sec.Selection.Value)))
	}
	parts = append(parts, labelStyle.Render(fmt.Sprintf("Status %s · %s · %s", sec.Status, sec.State, sec.Order)))
	parts = append(parts, labelStyle.Render(fmt.Sprintf("%d/%d issues", len(m.snap.Visible), m.snap.Derived)))
	return strings.Join(parts, "  ")
}

func facetTitle(f view.Facet) string {
	switch f {
	case view.FacetEmployee:
		return "Employee"
	case view.FacetCustomer:
		return "Customer"
	}
	return string(f)
}

// renderBranding renders "IssueDeck" with a blue to green gradient.
func renderBranding() string {
	colors := []string{
		"#4EA1FF", "#45ABEB", "#3CB5D7", "#33BFC3", "#2AC9AF",
		"#21D39B", "#18DD87", "#35DD2F", "#49E209",
	}
	var b strings.Builder
	for i, r := range "IssueDeck" {
		style := lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(lipgloss.Color(colors[i%len(colors)])).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

// renderStatusLine renders the status/help line at the bottom of the screen.
func (m *BrowserModel) renderStatusLine() string {
	baseStyle := lipgloss.NewStyle().
		Background(ColorNavy).
		Foreground(ColorWhite)

	w := m.width
	veryNarrow := w < 60
	narrow := w < 80
	medium := w < 120

	leftText := sectionNames[m.activeSection]
	if !veryNarrow {
		leftText = "[" + leftText + "]"
	}

	var statusText string
	switch {
	case m.notice != "" && m.now().Sub(m.noticeAt) < noticeTTL:
		statusText = m.notice
	case m.searchActive:
		statusText = "Type to search • Tab: Scope • Enter: Keep • ESC: Clear"
	case m.filterActive:
		statusText = "←/→: Value • Enter: Apply • ESC: Close"
	case veryNarrow:
		statusText = "? • / • f • m • q"
	case narrow:
		statusText = "?: Help • /: Search • f: Filter • m: More • q: Quit"
	case medium:
		statusText = "?: Help • Tab: Section • /: Search • f: Filter • S/A/o: Facets • m: More • e: Export"
	default:
		statusText = m.help.ShortHelpView(m.keys.ShortHelp()) + "  •  Tab: Section • S/A/o: Facets • e: Export • i: Summary"
	}

	var rightParts []string
	if m.lastError != "" && m.now().Sub(m.lastErrorAt) < errorTTL {
		rightParts = append(rightParts, lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(lipgloss.Color("#FF6666")).
			Faint(true).
			Render("error"))
	}
	if m.dataSource != "" && !veryNarrow {
		dotColor := lipgloss.Color("#44FF44")
		switch {
		case !m.lastTickOK:
			dotColor = lipgloss.Color("#FF4444")
		case m.now().Sub(m.lastTickAt) > 3*m.refreshInterval:
			dotColor = lipgloss.Color("#FFAA00")
		}
		dot := lipgloss.NewStyle().Background(ColorNavy).Foreground(dotColor).Render("●")
		rightParts = append(rightParts, dot+" "+m.dataSource)
	}
	if !narrow {
		rightParts = append(rightParts, "Refresh: "+formatInterval(m.refreshInterval))
	}
	if w >= 30 {
		rightParts = append(rightParts, renderBranding())
	}
	rightText := strings.Join(rightParts, "  ")

	leftWidth := lipgloss.Width(leftText) + 2
	rightWidth := lipgloss.Width(rightText) + 2
	if leftWidth+rightWidth >= w {
		if w < 20 {
			return baseStyle.Width(w).Render(leftText)
		}
		rightText = renderBranding()
		rightWidth = lipgloss.Width(rightText) + 2
	}
	centerWidth := max(0, w-leftWidth-rightWidth)

	leftPart := baseStyle.Align(lipgloss.Left).Width(leftWidth).Render(leftText)
	centerPart := baseStyle.Align(lipgloss.Center).Width(centerWidth).MaxWidth(centerWidth).MaxHeight(1).Render(statusText)
	rightPart := baseStyle.Align(lipgloss.Right).Width(rightWidth).Render(rightText)

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPart, centerPart, rightPart)
}

func formatInterval(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}
	return fmt.Sprintf("%ds", int(d.Round(time.Second)/time.Second))
}
