package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// SummaryPageID identifies the aggregate summary page.
const SummaryPageID = "summary"

// summaryTopN is how many values each facet list shows.
const summaryTopN = 8

// summaryFacets are the facets listed below the status chart.
var summaryFacets = []string{"employee", "customer", "source"}

// summaryData is one consistent read of the aggregate queries.
type summaryData struct {
	total    int64
	statuses map[model.Status]int64
	facets   map[string][]model.DimensionCount
}

type summaryLoadedMsg struct {
	data summaryData
	err  error
}

// SummaryPage shows store-side aggregates: totals, status counts and the
// most frequent facet values.
type SummaryPage struct {
	store    model.IssueQuerier
	data     summaryData
	loading  bool
	err      error
	loadedAt time.Time
}

// NewSummaryPage creates the summary page over store.
func NewSummaryPage(store model.IssueQuerier) *SummaryPage {
	return &SummaryPage{store: store}
}

func (p *SummaryPage) ID() string { return SummaryPageID }

func (p *SummaryPage) Init() tea.Cmd {
	return p.fetchCmd()
}

func (p *SummaryPage) fetchCmd() tea.Cmd {
	if p.loading || p.store == nil {
		return nil
	}
	p.loading = true
	store := p.store
	return func() tea.Msg {
		data, err := loadSummary(store)
		return summaryLoadedMsg{data: data, err: err}
	}
}

// loadSummary runs the aggregate queries concurrently.
func loadSummary(store model.IssueQuerier) (summaryData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	data := summaryData{facets: make(map[string][]model.DimensionCount, len(summaryFacets))}
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := store.IssueCount(ctx)
		data.total = n
		return err
	})
	g.Go(func() error {
		counts, err := store.StatusCounts(ctx)
		data.statuses = counts
		return err
	})
	for _, facet := range summaryFacets {
		g.Go(func() error {
			counts, err := store.FacetCounts(ctx, facet)
			if err != nil {
				return fmt.Errorf("%s counts: %w", facet, err)
			}
			mu.Lock()
			data.facets[facet] = counts
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summaryData{}, err
	}
	return data, nil
}

func (p *SummaryPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case summaryLoadedMsg:
		p.loading = false
		p.err = msg.err
		if msg.err == nil {
			p.data = msg.data
			p.loadedAt = time.Now()
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return tea.Quit, nil
		case "esc", "escape", "i", "tab":
			return nil, &PageNav{PageID: BrowserPageID}
		case "r":
			return p.fetchCmd(), nil
		}
	}
	return nil, nil
}

func (p *SummaryPage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return "Initializing..."
	}
	var body string
	switch {
	case p.err != nil:
		body = lipgloss.Place(width, height-2, lipgloss.Center, lipgloss.Center,
			lipgloss.NewStyle().Foreground(ColorRed).Render("Could not load summary: "+p.err.Error()))
	case p.loadedAt.IsZero():
		body = renderLoadingPlaceholder(width, height-2)
	default:
		body = p.renderSummary(width, height-2)
	}
	footer := helpStyle.Render("esc/i: back to issues • r: refresh • q: quit")
	header := chartTitleStyle.Render("Summary") + "  " + renderBranding()
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (p *SummaryPage) renderSummary(width, height int) string {
	innerWidth := max(10, width-4)
	chartHeight := max(4, min(12, height/2-4))

	bc := barchart.New(innerWidth, chartHeight,
		barchart.WithBarGap(2),
		barchart.WithBarWidth(max(1, min(8, innerWidth/len(model.Statuses())-2))),
		barchart.WithNoAxis(),
	)
	var legend []string
	for _, s := range model.Statuses() {
		n := p.data.statuses[s]
		color := statusColor(s)
		bc.Push(barchart.BarData{
			Label: string(s),
			Values: []barchart.BarValue{
				{Name: string(s), Value: float64(n), Style: lipgloss.NewStyle().Foreground(color).Background(color)},
			},
		})
		legend = append(legend, lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%s %d", s, n)))
	}
	bc.Draw()

	statusSection := sectionStyle.Width(width - 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		chartTitleStyle.Render(fmt.Sprintf("Issues by status (%d total)", p.data.total)),
		bc.View(),
		strings.Join(legend, "  "),
	))

	colWidth := max(12, (width-2)/len(summaryFacets)-2)
	var cols []string
	for _, facet := range summaryFacets {
		cols = append(cols, sectionStyle.Width(colWidth).Render(renderTopValues(facet, p.data.facets[facet], colWidth-2)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, statusSection, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
}

func renderTopValues(facet string, counts []model.DimensionCount, width int) string {
	lines := []string{chartTitleStyle.Render("Top " + facet)}
	if len(counts) == 0 {
		lines = append(lines, helpStyle.Render("No data"))
	}
	for i, c := range counts {
		if i == summaryTopN {
			lines = append(lines, helpStyle.Render(fmt.Sprintf("+%d more", len(counts)-summaryTopN)))
			break
		}
		value := c.Value
		if value == "" {
			value = "-"
		}
		count := fmt.Sprintf("%d", c.Count)
		nameWidth := max(1, width-len(count)-1)
		if lipgloss.Width(value) > nameWidth {
			runes := []rune(value)
			value = string(runes[:min(len(runes), max(0, nameWidth-1))]) + "…"
		}
		pad := max(1, width-lipgloss.Width(value)-len(count))
		lines = append(lines, labelStyle.Render(value)+strings.Repeat(" ", pad)+valueStyle.Render(count))
	}
	return strings.Join(lines, "\n")
}
