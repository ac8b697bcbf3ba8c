package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/issuedeck/internal/view"
)

// CellPixels converts terminal columns into the pixel widths the layout
// tracker works in.
const CellPixels = 8

// App is the top-level Bubble Tea model that routes between pages.
type App struct {
	pages      map[string]Page
	activePage string
	width      int
	height     int
	feed       *view.ResizeFeed
}

// NewApp creates a new App with the given pages. The first page is the default.
func NewApp(pages ...Page) *App {
	pageMap := make(map[string]Page, len(pages))
	var firstID string
	for i, p := range pages {
		pageMap[p.ID()] = p
		if i == 0 {
			firstID = p.ID()
		}
	}
	return &App{
		pages:      pageMap,
		activePage: firstID,
	}
}

// WithResizeFeed makes the app publish terminal widths to feed.
func (a *App) WithResizeFeed(feed *view.ResizeFeed) *App {
	a.feed = feed
	return a
}

// ActivePage returns the ID of the page currently shown.
func (a *App) ActivePage() string {
	return a.activePage
}

func (a *App) Init() tea.Cmd {
	if p, ok := a.pages[a.activePage]; ok {
		return p.Init()
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
		if a.feed != nil {
			a.feed.Publish(wsm.Width * CellPixels)
		}
		// Every page tracks dimensions, not only the visible one.
		var cmds []tea.Cmd
		for id, p := range a.pages {
			if id == a.activePage {
				continue
			}
			cmd, _ := p.Update(msg)
			cmds = append(cmds, cmd)
		}
		if p, ok := a.pages[a.activePage]; ok {
			cmd, _ := p.Update(msg)
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)
	}

	p, ok := a.pages[a.activePage]
	if !ok {
		return a, nil
	}

	cmd, nav := p.Update(msg)

	if nav != nil {
		if next, exists := a.pages[nav.PageID]; exists {
			a.activePage = nav.PageID
			return a, tea.Batch(cmd, next.Init())
		}
	}

	return a, cmd
}

func (a *App) View() string {
	if p, ok := a.pages[a.activePage]; ok {
		return p.View(a.width, a.height)
	}
	return "No active page"
}
