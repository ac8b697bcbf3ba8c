package view

import (
	"github.com/tinytelemetry/issuedeck/internal/model"
)

// ChangeKind identifies which part of the state a mutation touched.
type ChangeKind int

const (
	ChangePrimary ChangeKind = iota
	ChangeSecondary
	ChangeSearch
	ChangePage
)

func (k ChangeKind) String() string {
	switch k {
	case ChangePrimary:
		return "primary"
	case ChangeSecondary:
		return "secondary"
	case ChangeSearch:
		return "search"
	case ChangePage:
		return "page"
	}
	return "unknown"
}

// Change is published to subscribers after every mutation.
type Change struct {
	Kind  ChangeKind
	State State
}

// Options configures a Store.
type Options struct {
	// PageIncrement is the fixed "load more" window size.
	PageIncrement int
	// ResetPageOnSelection returns to the first window whenever the secondary
	// filter changes. Off by default so highlighting a bar does not jump the table.
	ResetPageOnSelection bool
}

type subscriber struct {
	id int
	fn func(Change)
}

// Store owns filter, search and pagination state. It is not safe for
// concurrent use; all calls are expected from one event loop.
type Store struct {
	state       State
	opts        Options
	subscribers []subscriber
	nextSubID   int
}

// NewStore creates a store in its default state.
func NewStore(opts Options) *Store {
	if opts.PageIncrement <= 0 {
		opts.PageIncrement = model.DefaultPageIncrement
	}
	return &Store{
		state: NewState(opts.PageIncrement),
		opts:  opts,
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	return s.state
}

// Subscribe registers fn for change notifications. The returned function
// detaches it and is safe to call more than once.
func (s *Store) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.nextSubID++
	id := s.nextSubID
	s.subscribers = append(s.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subscribers {
			if sub.id == id {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) publish(kind ChangeKind) {
	change := Change{Kind: kind, State: s.state}
	// Snapshot so subscribers may unsubscribe while being notified.
	subs := append([]subscriber(nil), s.subscribers...)
	for _, sub := range subs {
		sub.fn(change)
	}
}

// SetStagedFilter edits the staged primary filter. The derived view does not
// change until ApplyFilter.
func (s *Store) SetStagedFilter(facet Facet, value string) error {
	if _, err := ParseFacet(string(facet)); err != nil {
		return err
	}
	next := s.state.Primary
	next.Staged = next.Staged.with(facet, value)
	if next == s.state.Primary {
		return nil
	}
	s.state.Primary = next
	s.publish(ChangePrimary)
	return nil
}

// ApplyFilter commits the staged filter. Applying an all-All staged filter
// is a no-op while editing and clears an applied filter.
func (s *Store) ApplyFilter() {
	staged := s.state.Primary.Staged
	if staged.IsAll() {
		if s.state.Primary.Phase == PhaseApplied {
			s.ClearFilter()
		}
		return
	}
	s.state.Primary = PrimaryState{Phase: PhaseApplied, Staged: staged, Applied: staged}
	s.state.Page.Reset()
	s.publish(ChangePrimary)
}

// ClearFilter resets staged and applied filters to All and stops filtering.
func (s *Store) ClearFilter() {
	s.state.Primary = newPrimaryState()
	s.state.Page.Reset()
	s.publish(ChangePrimary)
}

// SetSecondarySelection selects a single facet value.
func (s *Store) SetSecondarySelection(kind Facet, value string) error {
	if _, err := ParseFacet(string(kind)); err != nil {
		return err
	}
	s.updateSecondary(func(f *SecondaryFilter) {
		f.Selection = Selection{Kind: kind, Value: value}
	})
	return nil
}

// ClearSecondarySelection removes the facet selection.
func (s *Store) ClearSecondarySelection() {
	s.updateSecondary(func(f *SecondaryFilter) {
		f.Selection = Selection{}
	})
}

// SetSecondaryStatus constrains by status; All removes the constraint.
func (s *Store) SetSecondaryStatus(status string) error {
	if !isAll(status) && !model.Status(status).Valid() {
		return ErrInvalidValue
	}
	if status == "" {
		status = All
	}
	s.updateSecondary(func(f *SecondaryFilter) {
		f.Status = status
	})
	return nil
}

// SetSecondaryState constrains by the active flag.
func (s *Store) SetSecondaryState(state ActiveState) error {
	switch state {
	case StateAll, StateActive, StateInactive:
	default:
		return ErrInvalidValue
	}
	s.updateSecondary(func(f *SecondaryFilter) {
		f.State = state
	})
	return nil
}

// SetSortOrder sets the submission-time sort direction.
func (s *Store) SetSortOrder(order SortOrder) error {
	switch order {
	case OrderAscending, OrderDescending:
	default:
		return ErrInvalidValue
	}
	s.updateSecondary(func(f *SecondaryFilter) {
		f.Order = order
	})
	return nil
}

func (s *Store) updateSecondary(mutate func(*SecondaryFilter)) {
	next := s.state.Secondary
	mutate(&next)
	if next == s.state.Secondary {
		return
	}
	s.state.Secondary = next
	if s.opts.ResetPageOnSelection {
		s.state.Page.Reset()
	}
	s.publish(ChangeSecondary)
}

// SetSearchValue enters search mode with text. Empty text clears the search.
func (s *Store) SetSearchValue(text string) {
	if text == "" {
		s.ClearSearch()
		return
	}
	s.state.Search.Value = text
	s.state.Search.Active = true
	s.state.Page.Reset()
	s.publish(ChangeSearch)
}

// ClearSearch leaves search mode, restoring the filtered or unfiltered view.
func (s *Store) ClearSearch() {
	s.state.Search.Value = ""
	s.state.Search.Active = false
	s.state.Page.Reset()
	s.publish(ChangeSearch)
}

// ToggleSearchScope switches the searched field. The text is kept and
// subscribers re-derive immediately.
func (s *Store) ToggleSearchScope(scope SearchScope) error {
	switch scope {
	case ScopeDescription, ScopeEmployee, ScopeCustomer:
	default:
		return ErrInvalidValue
	}
	if s.state.Search.Scope == scope {
		return nil
	}
	s.state.Search.Scope = scope
	s.publish(ChangeSearch)
	return nil
}

// RequestMore reveals the next pagination window.
func (s *Store) RequestMore() {
	s.state.Page.Next()
	s.publish(ChangePage)
}

// SetPage jumps to page n, clamped to [1, last] where last is the first
// page whose window already holds total records.
func (s *Store) SetPage(n, total int) {
	last := 1
	if inc := s.state.Page.Increment; total > inc {
		last = (total + inc - 1) / inc
	}
	n = min(max(n, 1), last)
	if n == s.state.Page.Page {
		return
	}
	s.state.Page.Page = n
	s.publish(ChangePage)
}

// ResetPage returns to the first pagination window.
func (s *Store) ResetPage() {
	if s.state.Page.Page == 1 {
		return
	}
	s.state.Page.Reset()
	s.publish(ChangePage)
}
