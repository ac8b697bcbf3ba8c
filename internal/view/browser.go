package view

import (
	"github.com/tinytelemetry/issuedeck/internal/model"
)

// BrowserOptions configures a Browser.
type BrowserOptions struct {
	Store      Options
	ChartFacet Facet
	GroupFunc  GroupFunc
}

// Snapshot is everything presentation needs to render one frame.
type Snapshot struct {
	Visible   []model.Issue `json:"visible"`
	Derived   int           `json:"derived"`
	HasMore   bool          `json:"has_more"`
	Remaining int           `json:"remaining"`
	Employees []string      `json:"employees"`
	Customers []string      `json:"customers"`
	State     State         `json:"-"`
	Chart     ChartSnapshot `json:"chart"`
	Compact   bool          `json:"compact"`
	Loading   bool          `json:"loading"`
}

// SearchEditable reports whether the search bar is offered. It is hidden
// while a primary filter is applied.
func (s Snapshot) SearchEditable() bool {
	return !s.State.Primary.IsFiltering()
}

// FilterEditable reports whether the primary and facet filters are offered.
// They are hidden while a search is active.
func (s Snapshot) FilterEditable() bool {
	return !s.State.Search.Active
}

// Browser wires the store, chart bridge and layout tracker around the raw
// record list and turns presentation events into state changes.
type Browser struct {
	store     *Store
	chart     *ChartBridge
	layout    *LayoutTracker
	records   []model.Issue
	loading   bool
	listeners []subscriber
	nextID    int
	unsub     func()
}

// NewBrowser creates a browser with no records.
func NewBrowser(opts BrowserOptions) *Browser {
	if opts.ChartFacet == "" {
		opts.ChartFacet = FacetEmployee
	}
	b := &Browser{store: NewStore(opts.Store)}
	b.chart = NewChartBridge(b.store, opts.ChartFacet, opts.GroupFunc)
	b.layout = NewLayoutTracker(func(bool) { b.notify() })
	b.unsub = b.store.Subscribe(func(Change) { b.notify() })
	return b
}

// Store exposes the underlying filter store.
func (b *Browser) Store() *Store { return b.store }

// Chart exposes the chart bridge.
func (b *Browser) Chart() *ChartBridge { return b.chart }

// Layout exposes the layout tracker for activation against a resize source.
func (b *Browser) Layout() *LayoutTracker { return b.layout }

// Records returns the raw record list.
func (b *Browser) Records() []model.Issue { return b.records }

// OnChange registers fn to run after any change that affects the snapshot.
func (b *Browser) OnChange(fn func()) (unsubscribe func()) {
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, subscriber{id: id, fn: func(Change) { fn() }})
	return func() {
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *Browser) notify() {
	listeners := append([]subscriber(nil), b.listeners...)
	for _, l := range listeners {
		l.fn(Change{})
	}
}

// Close detaches internal subscriptions and releases the resize source.
func (b *Browser) Close() {
	b.layout.Deactivate()
	b.chart.Close()
	if b.unsub != nil {
		b.unsub()
		b.unsub = nil
	}
}

// SetRecords replaces the raw list. A nil list is treated as empty.
func (b *Browser) SetRecords(records []model.Issue, loading bool) {
	b.records = records
	b.loading = loading
	b.chart.SetRecords(records)
	b.notify()
}

func (b *Browser) StageFilter(facet Facet, value string) error {
	return b.store.SetStagedFilter(facet, value)
}

func (b *Browser) ApplyFilter() { b.store.ApplyFilter() }

func (b *Browser) ClearFilter() { b.store.ClearFilter() }

func (b *Browser) SelectFacet(kind Facet, value string) error {
	return b.store.SetSecondarySelection(kind, value)
}

func (b *Browser) ClearSelection() { b.store.ClearSecondarySelection() }

func (b *Browser) SetStatus(status string) error { return b.store.SetSecondaryStatus(status) }

func (b *Browser) SetState(state ActiveState) error { return b.store.SetSecondaryState(state) }

func (b *Browser) SetOrder(order SortOrder) error { return b.store.SetSortOrder(order) }

func (b *Browser) SetSearch(text string) { b.store.SetSearchValue(text) }

func (b *Browser) ClearSearch() { b.store.ClearSearch() }

func (b *Browser) SetSearchScope(scope SearchScope) error {
	return b.store.ToggleSearchScope(scope)
}

func (b *Browser) LoadMore() { b.store.RequestMore() }

// ShowPage jumps to page n of the derived list, saturating at the last page.
func (b *Browser) ShowPage(n int) {
	b.store.SetPage(n, len(Derive(b.records, b.store.State())))
}

func (b *Browser) ChartClick(index int) error { return b.chart.Select(index) }

func (b *Browser) Resize(width int) { b.layout.Resize(width) }

// Snapshot derives the current frame.
func (b *Browser) Snapshot() Snapshot {
	st := b.store.State()
	derived := Derive(b.records, st)
	visible := st.Page.Window(derived)
	return Snapshot{
		Visible:   visible,
		Derived:   len(derived),
		HasMore:   st.Page.HasMore(len(derived)),
		Remaining: len(derived) - len(visible),
		Employees: FacetValues(b.records, FacetEmployee),
		Customers: FacetValues(b.records, FacetCustomer),
		State:     st,
		Chart:     b.chart.Snapshot(),
		Compact:   b.layout.Compact(),
		Loading:   b.loading,
	}
}
