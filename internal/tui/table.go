package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

const (
	wideTimeLayout    = "2006-01-02 15:04"
	compactTimeLayout = "01-02 15:04"
	minDescWidth      = 10
)

// tableColumns returns the columns for the given inner width. Compact mode
// drops Closed and Customer and shortens timestamps.
func tableColumns(width int, compact bool) []table.Column {
	var cols []table.Column
	if compact {
		cols = []table.Column{
			{Title: "Submitted", Width: len(compactTimeLayout)},
			{Title: "Status", Width: 8},
			{Title: "Employee", Width: 12},
		}
	} else {
		cols = []table.Column{
			{Title: "Submitted", Width: len(wideTimeLayout)},
			{Title: "Closed", Width: len(wideTimeLayout)},
			{Title: "Status", Width: 8},
			{Title: "Employee", Width: 16},
			{Title: "Customer", Width: 16},
		}
	}
	// Each cell carries one column of padding on both sides.
	used := 0
	for _, c := range cols {
		used += c.Width + 2
	}
	desc := max(minDescWidth, width-used-2)
	return append(cols, table.Column{Title: "Description", Width: desc})
}

// tableRow formats one issue for the given layout.
func tableRow(issue model.Issue, compact bool) table.Row {
	employee := nameOrDash(issue.EmployeeName())
	status := displayStatus(issue.Status)
	if compact {
		return table.Row{
			issue.Submitted.Local().Format(compactTimeLayout),
			status,
			employee,
			issue.Description,
		}
	}
	closed := "-"
	if issue.Closed != nil {
		closed = issue.Closed.Local().Format(wideTimeLayout)
	}
	return table.Row{
		issue.Submitted.Local().Format(wideTimeLayout),
		closed,
		status,
		employee,
		nameOrDash(issue.CustomerName()),
		issue.Description,
	}
}

func nameOrDash(name string, ok bool) string {
	if !ok || name == "" {
		return "-"
	}
	return name
}

// rebuildTable pushes the visible window into the table widget.
func (m *BrowserModel) rebuildTable() {
	l := m.layout()
	rows := make([]table.Row, 0, len(m.snap.Visible))
	for _, issue := range m.snap.Visible {
		rows = append(rows, tableRow(issue, m.snap.Compact))
	}
	cursor := m.table.Cursor()

	// Clear rows first: the widget renders existing rows against new columns.
	m.table.SetRows(nil)
	m.table.SetColumns(tableColumns(l.innerWidth, m.snap.Compact))
	m.table.SetWidth(l.innerWidth)
	m.table.SetHeight(max(3, l.tableHeight-3))
	m.table.SetRows(rows)
	if len(rows) > 0 {
		m.table.SetCursor(min(max(cursor, 0), len(rows)-1))
	}
}

// loadMoreLine describes the pagination state under the table.
func (m *BrowserModel) loadMoreLine() string {
	if m.snap.HasMore {
		return lipgloss.NewStyle().Foreground(ColorBlue).
			Render(fmt.Sprintf("▼ Load more (%d remaining) · m", m.snap.Remaining))
	}
	return helpStyle.Render(fmt.Sprintf("Showing all %d issues", m.snap.Derived))
}

func (m *BrowserModel) emptyTableText() string {
	switch {
	case !m.loaded && m.lastError != "":
		return "Could not load issues: " + m.lastError
	case len(m.browser.Records()) == 0:
		return "No issues yet. Waiting for data..."
	default:
		return "No issues match the current filters"
	}
}

func (m *BrowserModel) renderTableSection(l browserLayout) string {
	style := sectionStyle
	if m.activeSection == SectionTable {
		style = activeSectionStyle
	}
	innerHeight := max(1, l.tableHeight-2)

	var body string
	switch {
	case m.snap.Loading:
		body = renderLoadingPlaceholder(l.innerWidth, innerHeight)
	case len(m.snap.Visible) == 0:
		body = lipgloss.Place(l.innerWidth, innerHeight, lipgloss.Center, lipgloss.Center,
			helpStyle.Render(m.emptyTableText()))
	default:
		body = lipgloss.JoinVertical(lipgloss.Left, m.table.View(), m.loadMoreLine())
	}
	return style.Width(l.width - 2).Height(innerHeight).MaxHeight(l.tableHeight).Render(body)
}
