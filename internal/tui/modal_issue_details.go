package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/view"
)

// issueDetailsModal shows every field of one issue. It looks the issue up
// again on refresh so it follows upstream edits.
type issueDetailsModal struct {
	scrollModal
	issue  model.Issue
	lookup func(id string) (model.Issue, bool)
	gone   bool
}

func newIssueDetailsModal(issue model.Issue, lookup func(string) (model.Issue, bool)) *issueDetailsModal {
	return &issueDetailsModal{
		scrollModal: newScrollModal("Issue Details", "up/down: Scroll", "1: Select employee", "2: Select customer", "ESC: Close"),
		issue:       issue,
		lookup:      lookup,
	}
}

func (d *issueDetailsModal) ID() string { return "issue:" + d.issue.ID }

func (d *issueDetailsModal) Refresh() {
	if d.lookup == nil {
		return
	}
	issue, ok := d.lookup(d.issue.ID)
	d.gone = !ok
	if ok {
		d.issue = issue
	}
}

func (d *issueDetailsModal) Update(msg tea.Msg) (bool, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "1":
			if name, ok := d.issue.EmployeeName(); ok {
				return true, actionMsg(ActionMsg{Action: ActionSelectFacet, Payload: facetSelection{Facet: view.FacetEmployee, Value: name}})
			}
			return false, nil
		case "2":
			if name, ok := d.issue.CustomerName(); ok {
				return true, actionMsg(ActionMsg{Action: ActionSelectFacet, Payload: facetSelection{Facet: view.FacetCustomer, Value: name}})
			}
			return false, nil
		}
	}
	return d.updateViewport(msg)
}

func (d *issueDetailsModal) View(width, height int) string {
	return d.render(renderIssueDetails(d.issue, d.gone), width, height)
}

func renderIssueDetails(issue model.Issue, gone bool) string {
	var b strings.Builder
	if gone {
		b.WriteString(lipgloss.NewStyle().Foreground(ColorOrange).Render("This issue is no longer in the data set."))
		b.WriteString("\n\n")
	}
	row := func(label, value string) {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(fmt.Sprintf("%-12s", label)), value)
	}
	row("ID", issue.ID)
	row("Submitted", formatTime(issue.Submitted))
	row("Closed", formatClosed(issue.Closed))
	row("Status", lipgloss.NewStyle().Foreground(statusColor(issue.Status)).Bold(true).Render(displayStatus(issue.Status)))
	row("State", activeLabel(issue.Active))
	row("Employee", personLabel(issue.Employee))
	row("Customer", personLabel(issue.Customer))
	if issue.Source != "" {
		row("Source", issue.Source)
	}
	b.WriteString("\n")
	b.WriteString(valueStyle.Render("Description"))
	b.WriteString("\n")
	b.WriteString(issue.Description)
	return b.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func formatClosed(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

func activeLabel(active bool) string {
	if active {
		return string(view.StateActive)
	}
	return string(view.StateInactive)
}

func displayStatus(s model.Status) string {
	if s == "" {
		return string(model.StatusUnknown)
	}
	return string(s)
}

func personLabel(p *model.Person) string {
	if p == nil || p.Name == "" {
		return "-"
	}
	if p.Avatar != "" {
		return p.Name + " (" + p.Avatar + ")"
	}
	return p.Name
}
