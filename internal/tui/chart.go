package tui

import (
	"fmt"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/issuedeck/internal/view"
)

const (
	chartGap         = 1
	maxChartBarWidth = 6
	// chartBarsTop is the first screen row of the bars: border then title.
	chartBarsTop = 2
	// chartBarsLeft is the first screen column of the bars: border then padding.
	chartBarsLeft = 2
)

// chartWindow decides how many bars fit in width and which slice of n
// groups is shown so that cursor stays visible.
func chartWindow(n, cursor, width int) (offset, count, barWidth int) {
	if n == 0 || width <= 0 {
		return 0, 0, 1
	}
	barWidth = min(max((width+chartGap)/n-chartGap, 1), maxChartBarWidth)
	count = min(n, max(1, (width+chartGap)/(barWidth+chartGap)))
	offset = min(max(cursor-count+1, 0), n-count)
	return offset, count, barWidth
}

// chartBarAt maps a screen position to a group index.
func (m *BrowserModel) chartBarAt(x, y int) (int, bool) {
	l := m.layout()
	if y < chartBarsTop || y >= chartBarsTop+l.chartBarsHeight {
		return 0, false
	}
	offset, count, barWidth := chartWindow(len(m.snap.Chart.Groups), m.chartCursor, l.innerWidth)
	rel := x - chartBarsLeft
	if rel < 0 || count == 0 {
		return 0, false
	}
	slot := rel / (barWidth + chartGap)
	if rel%(barWidth+chartGap) >= barWidth || slot >= count {
		return 0, false
	}
	return offset + slot, true
}

// renderBars draws the visible slice of groups. The selected bar and the
// cursor are highlighted.
func renderBars(chart view.ChartSnapshot, cursor int, focused bool, width, height int) string {
	offset, count, barWidth := chartWindow(len(chart.Groups), cursor, width)
	bc := barchart.New(width, height,
		barchart.WithBarGap(chartGap),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)
	cursorStyle := lipgloss.NewStyle().Foreground(ColorWhite).Background(ColorWhite)
	for i := offset; i < offset+count; i++ {
		g := chart.Groups[i]
		style := barStyle
		switch {
		case i == chart.Selected:
			style = activeBarStyle
		case focused && i == cursor:
			style = cursorStyle
		}
		bc.Push(barchart.BarData{
			Label: g.Label,
			Values: []barchart.BarValue{
				{Name: g.Label, Value: float64(g.Count), Style: style},
			},
		})
	}
	bc.Draw()
	return bc.View()
}

// chartLabel names the selected value, or the bar under the cursor.
func (m *BrowserModel) chartLabel() string {
	chart := m.snap.Chart
	switch {
	case chart.Selected >= 0:
		return valueStyle.Render(fmt.Sprintf("%s: %d", chart.Groups[chart.Selected].Label, chart.Value)) +
			helpStyle.Render("  esc clears")
	case m.activeSection == SectionChart && m.chartCursor < len(chart.Groups):
		g := chart.Groups[m.chartCursor]
		return labelStyle.Render(fmt.Sprintf("%s: %d", g.Label, g.Count)) + helpStyle.Render("  enter selects")
	default:
		return helpStyle.Render(fmt.Sprintf("%d values · tab to focus", len(chart.Groups)))
	}
}

func (m *BrowserModel) renderChartSection(l browserLayout) string {
	style := sectionStyle
	if m.activeSection == SectionChart {
		style = activeSectionStyle
	}
	chart := m.snap.Chart
	title := chartTitleStyle.Render(fmt.Sprintf("Issues by %s", chart.Kind))

	var bars string
	switch {
	case m.snap.Loading:
		bars = renderLoadingPlaceholder(l.innerWidth, l.chartBarsHeight)
	case len(chart.Groups) == 0:
		bars = lipgloss.Place(l.innerWidth, l.chartBarsHeight, lipgloss.Center, lipgloss.Center,
			helpStyle.Render("No data"))
	default:
		bars = renderBars(chart, m.chartCursor, m.activeSection == SectionChart, l.innerWidth, l.chartBarsHeight)
	}

	body := lipgloss.JoinVertical(lipgloss.Left, title, bars, m.chartLabel())
	return style.Width(l.width - 2).Height(l.chartHeight - 2).MaxHeight(l.chartHeight).Render(body)
}
