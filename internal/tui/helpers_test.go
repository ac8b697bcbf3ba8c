package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

type countingStore struct {
	issues []model.Issue
	err    error

	listCalls int
}

func (s *countingStore) ListIssues(_ context.Context) ([]model.Issue, error) {
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.issues, nil
}

func (s *countingStore) IssueCount(_ context.Context) (int64, error) {
	return int64(len(s.issues)), s.err
}

func (s *countingStore) StatusCounts(_ context.Context) (map[model.Status]int64, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[model.Status]int64)
	for _, issue := range s.issues {
		out[issue.Status]++
	}
	return out, nil
}

func (s *countingStore) FacetCounts(_ context.Context, facet string) ([]model.DimensionCount, error) {
	if s.err != nil {
		return nil, s.err
	}
	if facet == "bogus" {
		return nil, errors.New("unknown facet")
	}
	counts := map[string]int64{}
	var order []string
	for _, issue := range s.issues {
		var v string
		switch facet {
		case "employee":
			v, _ = issue.EmployeeName()
		case "customer":
			v, _ = issue.CustomerName()
		case "status":
			v = string(issue.Status)
		case "source":
			v = issue.Source
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	out := make([]model.DimensionCount, 0, len(order))
	for _, v := range order {
		out = append(out, model.DimensionCount{Value: v, Count: counts[v]})
	}
	return out, nil
}

var (
	testEmployees = []string{"Alice", "Bob", "Carol"}
	testCustomers = []string{"Acme", "Globex"}
	testBase      = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
)

// sampleIssues builds n issues with rotating people and statuses. Every
// fifth description mentions a critical outage.
func sampleIssues(n int) []model.Issue {
	statuses := model.Statuses()
	out := make([]model.Issue, 0, n)
	for i := 1; i <= n; i++ {
		desc := fmt.Sprintf("ticket %02d", i)
		if i%5 == 0 {
			desc = fmt.Sprintf("critical outage %02d", i)
		}
		out = append(out, model.Issue{
			ID:          fmt.Sprintf("issue-%02d", i),
			Submitted:   testBase.Add(time.Duration(i) * time.Hour),
			Status:      statuses[(i-1)%len(statuses)],
			Active:      i%2 == 1,
			Employee:    &model.Person{Name: testEmployees[(i-1)%len(testEmployees)]},
			Customer:    &model.Person{Name: testCustomers[(i-1)%len(testCustomers)]},
			Description: desc,
			Source:      "fixture",
		})
	}
	return out
}

// newLoadedModel returns a 120x40 browser that finished its first load.
func newLoadedModel(store *countingStore, opts Options) *BrowserModel {
	m := NewBrowserModel(store, opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	runCmd(m, m.fetchIssuesCmd())
	return m
}

// runCmd executes cmd synchronously and feeds its message back.
func runCmd(m *BrowserModel, cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	if msg := cmd(); msg != nil {
		m.Update(msg)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *BrowserModel, keys ...tea.KeyMsg) {
	for _, k := range keys {
		m.Update(k)
	}
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func visibleIDs(m *BrowserModel) []string {
	ids := make([]string, 0, len(m.snap.Visible))
	for _, issue := range m.snap.Visible {
		ids = append(ids, issue.ID)
	}
	return ids
}
