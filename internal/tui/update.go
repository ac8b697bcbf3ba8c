package tui

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/issuedeck/internal/export"
	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/view"
)

const (
	fetchTimeout  = 10 * time.Second
	spinnerPeriod = 120 * time.Millisecond
	errorTTL      = 30 * time.Second
	noticeTTL     = 10 * time.Second
)

// TickMsg triggers a periodic reload. Ticks from an earlier Init are dropped.
type TickMsg struct {
	gen int
}

// SpinnerTickMsg triggers a re-render for the loading spinner.
type SpinnerTickMsg struct{}

type issuesLoadedMsg struct {
	issues []model.Issue
	err    error
}

type exportDoneMsg struct {
	path  string
	count int
	err   error
}

func (m *BrowserModel) Init() tea.Cmd {
	m.tickGen++
	return tea.Batch(m.fetchIssuesCmd(), m.tickCmd(), m.spinnerCmd())
}

func (m *BrowserModel) tickCmd() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.refreshInterval, func(time.Time) tea.Msg {
		return TickMsg{gen: gen}
	})
}

func (m *BrowserModel) spinnerCmd() tea.Cmd {
	if !m.snap.Loading {
		return nil
	}
	return tea.Tick(spinnerPeriod, func(time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}

// fetchIssuesCmd loads the full record list unless a load is already running.
func (m *BrowserModel) fetchIssuesCmd() tea.Cmd {
	if m.fetchInFlight || m.store == nil {
		return nil
	}
	m.fetchInFlight = true
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		issues, err := store.ListIssues(ctx)
		return issuesLoadedMsg{issues: issues, err: err}
	}
}

// exportCmd writes every issue matching the current view, not only the
// loaded pages.
func (m *BrowserModel) exportCmd() tea.Cmd {
	issues := view.Derive(m.browser.Records(), m.browser.Store().State())
	path := filepath.Join(m.exportDir, export.DefaultFileName(m.now(), m.exportFormat))
	return func() tea.Msg {
		err := export.WriteFile(path, issues)
		return exportDoneMsg{path: path, count: len(issues), err: err}
	}
}

func (m *BrowserModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rebuildTable()
		return nil, nil

	case TickMsg:
		if msg.gen != m.tickGen {
			return nil, nil
		}
		return tea.Batch(m.fetchIssuesCmd(), m.tickCmd()), nil

	case SpinnerTickMsg:
		return m.spinnerCmd(), nil

	case issuesLoadedMsg:
		m.handleIssuesLoaded(msg)
		return nil, nil

	case exportDoneMsg:
		if msg.err != nil {
			log.Printf("tui: export failed: %v", msg.err)
			m.setError(fmt.Errorf("export: %w", msg.err))
			return nil, nil
		}
		m.lastExport = msg.path
		m.setNotice(fmt.Sprintf("Exported %d issues to %s", msg.count, msg.path))
		return nil, nil

	case ActionMsg:
		m.handleAction(msg)
		return nil, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	}

	if top := m.TopModal(); top != nil {
		pop, cmd := top.Update(msg)
		if pop {
			m.PopModal()
		}
		return cmd, nil
	}
	return nil, nil
}

func (m *BrowserModel) handleIssuesLoaded(msg issuesLoadedMsg) {
	m.fetchInFlight = false
	m.lastTickAt = m.now()
	if msg.err != nil {
		m.lastTickOK = false
		m.setError(msg.err)
		log.Printf("tui: load issues: %v", msg.err)
		if !m.loaded {
			m.browser.SetRecords(nil, false)
		}
		return
	}
	m.lastTickOK = true
	m.loaded = true
	m.browser.SetRecords(msg.issues, false)
	m.refreshTopModal()
}

func (m *BrowserModel) handleAction(msg ActionMsg) {
	switch msg.Action {
	case ActionPushModal:
		if modal, ok := msg.Payload.(Modal); ok {
			m.PushModal(modal)
		}
	case ActionSelectFacet:
		sel, ok := msg.Payload.(facetSelection)
		if !ok {
			return
		}
		if !m.snap.FilterEditable() {
			m.setNotice("Filters are locked while searching")
			return
		}
		if err := m.browser.SelectFacet(sel.Facet, sel.Value); err != nil {
			m.setError(err)
		}
	}
}

func (m *BrowserModel) inlineHandlers() []inlineHandlerEntry {
	return []inlineHandlerEntry{
		{isActive: func(m *BrowserModel) bool { return m.searchActive }, handler: searchInputHandler{}},
		{isActive: func(m *BrowserModel) bool { return m.filterActive }, handler: filterInputHandler{}},
	}
}

func (m *BrowserModel) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if top := m.TopModal(); top != nil {
		pop, cmd := top.Update(msg)
		if pop {
			m.PopModal()
		}
		return cmd, nil
	}

	for _, entry := range m.inlineHandlers() {
		if entry.isActive(m) {
			if handled, cmd := entry.handler.HandleKey(m, msg); handled {
				return cmd, nil
			}
		}
	}

	switch {
	case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, m.keys.Help):
		m.PushModal(newHelpModal(m.keys))
	case key.Matches(msg, m.keys.Summary):
		return nil, &PageNav{PageID: SummaryPageID}
	case key.Matches(msg, m.keys.NextSection):
		m.cycleSection(1)
	case key.Matches(msg, m.keys.PrevSection):
		m.cycleSection(-1)
	case key.Matches(msg, m.keys.Search):
		return m.startSearch(), nil
	case key.Matches(msg, m.keys.SearchScope):
		m.cycleSearchScope()
	case key.Matches(msg, m.keys.Filter):
		m.startFilter()
	case key.Matches(msg, m.keys.ClearFilter):
		m.browser.ClearFilter()
	case key.Matches(msg, m.keys.CycleStatus):
		m.cycleStatus()
	case key.Matches(msg, m.keys.CycleState):
		m.cycleState()
	case key.Matches(msg, m.keys.ToggleOrder):
		m.toggleOrder()
	case key.Matches(msg, m.keys.LoadMore):
		m.loadMore()
	case key.Matches(msg, m.keys.Export):
		return m.exportCmd(), nil
	case key.Matches(msg, m.keys.Refresh):
		return m.fetchIssuesCmd(), nil
	case key.Matches(msg, m.keys.Escape):
		m.handleEscape()
	default:
		return m.handleSectionKey(msg), nil
	}
	return nil, nil
}

func (m *BrowserModel) handleSectionKey(msg tea.KeyMsg) tea.Cmd {
	switch m.activeSection {
	case SectionChart:
		switch {
		case key.Matches(msg, m.keys.Left), key.Matches(msg, m.keys.Up):
			m.moveChartCursor(-1)
		case key.Matches(msg, m.keys.Right), key.Matches(msg, m.keys.Down):
			m.moveChartCursor(1)
		case key.Matches(msg, m.keys.Enter):
			m.selectChartBar(m.chartCursor)
		}
		return nil
	case SectionFilter:
		if key.Matches(msg, m.keys.Enter) {
			m.startFilter()
		}
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Enter):
		if issue, ok := m.selectedIssue(); ok {
			m.PushModal(newIssueDetailsModal(issue, m.lookupIssue))
		}
		return nil
	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.End):
		// Moving past the last loaded row pulls in the next page.
		if m.table.Cursor() >= len(m.snap.Visible)-1 && m.snap.HasMore {
			m.loadMore()
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

func (m *BrowserModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if top := m.TopModal(); top != nil {
		pop, cmd := top.Update(msg)
		if pop {
			m.PopModal()
		}
		return cmd
	}
	for _, entry := range m.inlineHandlers() {
		if entry.isActive(m) {
			if handled, cmd := entry.handler.HandleMouse(m, msg); handled {
				return cmd
			}
		}
	}

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if m.activeSection == SectionChart {
			m.moveChartCursor(-1)
		} else {
			m.table.MoveUp(1)
		}
		return nil
	case tea.MouseButtonWheelDown:
		if m.activeSection == SectionChart {
			m.moveChartCursor(1)
		} else {
			if m.table.Cursor() >= len(m.snap.Visible)-1 && m.snap.HasMore {
				m.loadMore()
			}
			m.table.MoveDown(1)
		}
		return nil
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return nil
		}
	default:
		return nil
	}

	l := m.layout()
	switch {
	case msg.Y < l.chartHeight:
		m.activeSection = SectionChart
		if i, ok := m.chartBarAt(msg.X, msg.Y); ok {
			m.selectChartBar(i)
		}
	case msg.Y < l.chartHeight+l.filterHeight:
		m.activeSection = SectionFilter
		m.startFilter()
	default:
		m.activeSection = SectionTable
		m.table.Focus()
	}
	return nil
}

func (m *BrowserModel) cycleSection(delta int) {
	order := []Section{SectionTable, SectionChart, SectionFilter}
	i := slices.Index(order, m.activeSection)
	m.activeSection = order[(i+delta+len(order))%len(order)]
	if m.activeSection == SectionTable {
		m.table.Focus()
	} else {
		m.table.Blur()
	}
}

func (m *BrowserModel) startSearch() tea.Cmd {
	if !m.snap.SearchEditable() {
		m.setNotice("Search is hidden while a filter is applied (x clears it)")
		return nil
	}
	m.searchActive = true
	m.filterActive = false
	m.activeSection = SectionFilter
	m.searchInput.SetValue(m.snap.State.Search.Value)
	m.searchInput.CursorEnd()
	return m.searchInput.Focus()
}

func (m *BrowserModel) startFilter() {
	if !m.snap.FilterEditable() {
		m.setNotice("Filters are locked while searching (esc clears the search)")
		return
	}
	m.filterActive = true
	m.searchActive = false
	m.activeSection = SectionFilter
}

func (m *BrowserModel) cycleSearchScope() {
	scopes := view.SearchScopes()
	i := slices.Index(scopes, m.snap.State.Search.Scope)
	if err := m.browser.SetSearchScope(scopes[(i+1)%len(scopes)]); err != nil {
		m.setError(err)
	}
}

func (m *BrowserModel) cycleStatus() {
	if !m.snap.FilterEditable() {
		m.setNotice("Filters are locked while searching")
		return
	}
	opts := view.StatusOptions()
	i := slices.Index(opts, m.snap.State.Secondary.Status)
	if err := m.browser.SetStatus(opts[(i+1)%len(opts)]); err != nil {
		m.setError(err)
	}
}

func (m *BrowserModel) cycleState() {
	if !m.snap.FilterEditable() {
		m.setNotice("Filters are locked while searching")
		return
	}
	opts := view.StateOptions()
	i := slices.Index(opts, m.snap.State.Secondary.State)
	if err := m.browser.SetState(opts[(i+1)%len(opts)]); err != nil {
		m.setError(err)
	}
}

func (m *BrowserModel) toggleOrder() {
	order := view.OrderDescending
	if m.snap.State.Secondary.Order == view.OrderDescending {
		order = view.OrderAscending
	}
	if err := m.browser.SetOrder(order); err != nil {
		m.setError(err)
	}
}

func (m *BrowserModel) loadMore() {
	if !m.snap.HasMore {
		return
	}
	m.browser.LoadMore()
}

func (m *BrowserModel) moveChartCursor(delta int) {
	n := len(m.snap.Chart.Groups)
	if n == 0 {
		return
	}
	m.chartCursor = min(max(m.chartCursor+delta, 0), n-1)
}

func (m *BrowserModel) selectChartBar(i int) {
	if !m.snap.FilterEditable() {
		m.setNotice("Filters are locked while searching")
		return
	}
	if err := m.browser.ChartClick(i); err != nil {
		m.setError(err)
		return
	}
	m.chartCursor = i
}

// handleEscape clears the most specific active constraint.
func (m *BrowserModel) handleEscape() {
	switch {
	case m.snap.State.Secondary.Selection.Active():
		m.browser.ClearSelection()
	case m.snap.State.Search.Active:
		m.browser.ClearSearch()
		m.searchInput.SetValue("")
	case m.activeSection != SectionTable:
		m.activeSection = SectionTable
		m.table.Focus()
	}
}
