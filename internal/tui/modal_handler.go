package tui

import tea "github.com/charmbracelet/bubbletea"

// Modal is a self-contained modal that owns its own Update/View lifecycle.
// Modals are managed via a stack on BrowserModel. The topmost modal receives
// all input and renders full-screen.
type Modal interface {
	// ID returns a unique identifier used to deduplicate pushes.
	ID() string
	// Update processes a message. Return pop=true to close the modal.
	Update(msg tea.Msg) (pop bool, cmd tea.Cmd)
	// View renders the modal content for the given terminal dimensions.
	View(width, height int) string
}

// Refreshable is optionally implemented by modals that re-read their data
// after every record reload while they are on top of the stack.
type Refreshable interface {
	Refresh()
}

// ModalHandler handles key and mouse events for an inline input mode.
// Search and filter editing are part of the browser layout, not modals.
type ModalHandler interface {
	// HandleKey processes a key press. Return handled=true if consumed.
	HandleKey(m *BrowserModel, msg tea.KeyMsg) (handled bool, cmd tea.Cmd)
	// HandleMouse processes mouse events. Return handled=true if consumed.
	HandleMouse(m *BrowserModel, msg tea.MouseMsg) (handled bool, cmd tea.Cmd)
}

// inlineHandlerEntry pairs an activation predicate with an inline handler.
type inlineHandlerEntry struct {
	isActive func(m *BrowserModel) bool
	handler  ModalHandler
}

// PushModal puts modal on top of the stack unless a modal with the same ID
// is already there.
func (m *BrowserModel) PushModal(modal Modal) {
	if top := m.TopModal(); top != nil && top.ID() == modal.ID() {
		return
	}
	m.modals = append(m.modals, modal)
}

// PopModal removes the topmost modal.
func (m *BrowserModel) PopModal() {
	if len(m.modals) > 0 {
		m.modals = m.modals[:len(m.modals)-1]
	}
}

// TopModal returns the topmost modal, or nil.
func (m *BrowserModel) TopModal() Modal {
	if len(m.modals) == 0 {
		return nil
	}
	return m.modals[len(m.modals)-1]
}

// HasModal reports whether any modal is open.
func (m *BrowserModel) HasModal() bool {
	return len(m.modals) > 0
}

func (m *BrowserModel) refreshTopModal() {
	if r, ok := m.TopModal().(Refreshable); ok {
		r.Refresh()
	}
}
