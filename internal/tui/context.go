package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/issuedeck/internal/view"
)

// Action identifies what a modal wants the browser to do.
type Action int

const (
	ActionPushModal Action = iota
	ActionSelectFacet
)

// ActionMsg is returned by modals to communicate with the browser without
// mutating it directly.
type ActionMsg struct {
	Action  Action
	Payload any
}

// facetSelection is the payload of ActionSelectFacet.
type facetSelection struct {
	Facet view.Facet
	Value string
}

// actionMsg wraps ActionMsg as a tea.Msg.
func actionMsg(a ActionMsg) tea.Cmd {
	return func() tea.Msg { return a }
}
