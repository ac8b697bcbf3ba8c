package tui

import (
	"log"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/issuedeck/internal/export"
	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/view"
)

// BrowserPageID identifies the issue browser page.
const BrowserPageID = "browser"

// Section is a focusable area of the browser.
type Section int

const (
	SectionTable Section = iota
	SectionChart
	SectionFilter
)

var sectionNames = map[Section]string{
	SectionTable:  "Issues",
	SectionChart:  "Chart",
	SectionFilter: "Filter",
}

// Options configures a BrowserModel.
type Options struct {
	RefreshInterval time.Duration
	PageIncrement   int
	// ResetPageOnSelect returns to the first page when a chart bar or
	// status, state or order changes.
	ResetPageOnSelect bool
	ChartFacet        view.Facet
	ExportDir         string
	ExportFormat      string
	// DataSource labels the connection in the status line.
	DataSource string
	// Feed, when set, drives the compact layout from terminal resizes.
	Feed *view.ResizeFeed
}

// BrowserModel is the issue browser page. All view state lives in the
// embedded view.Browser; this type only maps input to engine calls and
// renders snapshots.
type BrowserModel struct {
	browser *view.Browser
	store   model.IssueQuerier
	snap    view.Snapshot

	keys        KeyMap
	help        help.Model
	table       table.Model
	searchInput textinput.Model

	activeSection Section
	searchActive  bool
	filterActive  bool
	filterField   int
	chartCursor   int

	refreshInterval time.Duration
	tickGen         int
	fetchInFlight   bool
	loaded          bool
	lastTickOK      bool
	lastTickAt      time.Time
	lastError       string
	lastErrorAt     time.Time
	notice          string
	noticeAt        time.Time
	dataSource      string

	modals []Modal

	exportDir    string
	exportFormat string
	lastExport   string

	width  int
	height int
	now    func() time.Time
}

// NewBrowserModel creates the browser page over store.
func NewBrowserModel(store model.IssueQuerier, opts Options) *BrowserModel {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = model.DefaultRefreshInterval
	}
	if opts.ChartFacet == "" {
		opts.ChartFacet = view.Facet(model.DefaultChartFacet)
	}
	if opts.ExportFormat == "" {
		opts.ExportFormat = export.FormatJSON
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	ti := textinput.New()
	ti.Placeholder = "search issues..."
	ti.CharLimit = 200
	ti.Prompt = ""

	t := table.New(table.WithFocused(true), table.WithHeight(10))
	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorGray).
		BorderBottom(true).
		Foreground(ColorBlue).
		Bold(true)
	ts.Selected = selectedRowStyle
	t.SetStyles(ts)

	m := &BrowserModel{
		browser: view.NewBrowser(view.BrowserOptions{
			Store: view.Options{
				PageIncrement:        opts.PageIncrement,
				ResetPageOnSelection: opts.ResetPageOnSelect,
			},
			ChartFacet: opts.ChartFacet,
		}),
		store:           store,
		keys:            DefaultKeyMap(),
		help:            help.New(),
		table:           t,
		searchInput:     ti,
		refreshInterval: opts.RefreshInterval,
		dataSource:      opts.DataSource,
		exportDir:       opts.ExportDir,
		exportFormat:    opts.ExportFormat,
		now:             time.Now,
	}
	m.browser.OnChange(m.syncView)
	m.browser.SetRecords(nil, true)

	if opts.Feed != nil {
		if err := m.browser.Layout().Activate(opts.Feed); err != nil {
			log.Printf("tui: layout tracking disabled: %v", err)
		}
	}
	return m
}

// Browser exposes the view engine driving this page.
func (m *BrowserModel) Browser() *view.Browser {
	return m.browser
}

// Close releases the engine's subscriptions.
func (m *BrowserModel) Close() {
	m.browser.Close()
}

func (m *BrowserModel) ID() string { return BrowserPageID }

// syncView re-derives the snapshot after any engine change.
func (m *BrowserModel) syncView() {
	m.snap = m.browser.Snapshot()
	if n := len(m.snap.Chart.Groups); m.chartCursor >= n {
		m.chartCursor = max(0, n-1)
	}
	if m.snap.Chart.Selected >= 0 {
		m.chartCursor = m.snap.Chart.Selected
	}
	m.rebuildTable()
}

// lookupIssue finds an issue by ID in the raw records.
func (m *BrowserModel) lookupIssue(id string) (model.Issue, bool) {
	for _, issue := range m.browser.Records() {
		if issue.ID == id {
			return issue, true
		}
	}
	return model.Issue{}, false
}

// selectedIssue returns the issue under the table cursor.
func (m *BrowserModel) selectedIssue() (model.Issue, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.snap.Visible) {
		return model.Issue{}, false
	}
	return m.snap.Visible[i], true
}

func (m *BrowserModel) setError(err error) {
	m.lastError = err.Error()
	m.lastErrorAt = m.now()
}

func (m *BrowserModel) setNotice(text string) {
	m.notice = text
	m.noticeAt = m.now()
}
