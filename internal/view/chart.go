package view

import (
	"github.com/tinytelemetry/issuedeck/internal/model"
)

// Group is one bar of the chart: a facet value and how many records carry it.
type Group struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// GroupFunc extracts the grouping key of an issue. Returning false skips it.
type GroupFunc func(model.Issue) (string, bool)

// ChartSnapshot is the chart state handed to presentation.
type ChartSnapshot struct {
	Kind     Facet   `json:"kind"`
	Groups   []Group `json:"groups"`
	Selected int     `json:"selected"` // -1 when nothing is highlighted
	Value    int     `json:"value"`
}

// ChartBridge keeps chart highlighting and the store's secondary selection in
// step. Clicks are published into the store; the highlighted index only moves
// in response to the store's notification.
type ChartBridge struct {
	kind     Facet
	groupFn  GroupFunc
	store    *Store
	groups   []Group
	selected int
	pending  int
	unsub    func()
}

// NewChartBridge attaches a bridge controlling kind to store. A nil group
// function groups by the facet's person name.
func NewChartBridge(store *Store, kind Facet, group GroupFunc) *ChartBridge {
	if group == nil {
		group = kind.valueOf
	}
	b := &ChartBridge{
		kind:     kind,
		groupFn:  group,
		store:    store,
		selected: -1,
		pending:  -1,
	}
	b.unsub = store.Subscribe(func(c Change) {
		if c.Kind == ChangeSecondary {
			b.sync(c.State.Secondary.Selection)
		}
	})
	b.sync(store.State().Secondary.Selection)
	return b
}

// Kind returns the facet this bridge selects on.
func (b *ChartBridge) Kind() Facet {
	return b.kind
}

// SetRecords aggregates raw records into groups in first-appearance order.
func (b *ChartBridge) SetRecords(records []model.Issue) {
	index := make(map[string]int)
	var groups []Group
	for _, issue := range records {
		label, ok := b.groupFn(issue)
		if !ok {
			continue
		}
		if i, seen := index[label]; seen {
			groups[i].Count++
			continue
		}
		index[label] = len(groups)
		groups = append(groups, Group{Label: label, Count: 1})
	}
	b.SetGroups(groups)
}

// SetGroups replaces the aggregate with pre-computed pairs.
func (b *ChartBridge) SetGroups(groups []Group) {
	b.groups = append([]Group(nil), groups...)
	b.sync(b.store.State().Secondary.Selection)
}

// Groups returns a copy of the current aggregate.
func (b *ChartBridge) Groups() []Group {
	return append([]Group(nil), b.groups...)
}

// SelectedIndex returns the highlighted group index, if any.
func (b *ChartBridge) SelectedIndex() (int, bool) {
	return b.selected, b.selected >= 0
}

// CurrentValue returns the count of the highlighted group, or 0.
func (b *ChartBridge) CurrentValue() int {
	if b.selected < 0 {
		return 0
	}
	return b.groups[b.selected].Count
}

// Select handles a click on group i.
func (b *ChartBridge) Select(i int) error {
	if i < 0 || i >= len(b.groups) {
		return ErrIndexOutOfRange
	}
	b.pending = i
	defer func() { b.pending = -1 }()
	if err := b.store.SetSecondarySelection(b.kind, b.groups[i].Label); err != nil {
		return err
	}
	// Re-selecting the current value publishes nothing.
	b.sync(b.store.State().Secondary.Selection)
	return nil
}

// Snapshot returns the chart state for rendering.
func (b *ChartBridge) Snapshot() ChartSnapshot {
	return ChartSnapshot{
		Kind:     b.kind,
		Groups:   b.Groups(),
		Selected: b.selected,
		Value:    b.CurrentValue(),
	}
}

// Close detaches the bridge from the store.
func (b *ChartBridge) Close() {
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}

func (b *ChartBridge) sync(sel Selection) {
	if !sel.Active() || sel.Kind != b.kind {
		b.selected = -1
		return
	}
	if b.pending >= 0 && b.pending < len(b.groups) && b.groups[b.pending].Label == sel.Value {
		b.selected = b.pending
		return
	}
	b.selected = -1
	for i, g := range b.groups {
		if g.Label == sel.Value {
			b.selected = i
			return
		}
	}
}
