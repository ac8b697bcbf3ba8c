package view

import (
	"errors"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// All is the sentinel value meaning "no constraint" for any facet.
const All = "All"

var (
	// ErrUnknownFacet is returned when an operation names a facet that does not exist.
	ErrUnknownFacet = errors.New("view: unknown facet")
	// ErrInvalidValue is returned for enum inputs outside their option list.
	ErrInvalidValue = errors.New("view: invalid value")
	// ErrIndexOutOfRange is returned when a chart index does not name a group.
	ErrIndexOutOfRange = errors.New("view: chart index out of range")
)

// Facet is a categorical dimension that maps to a person reference on an issue.
type Facet string

const (
	FacetEmployee Facet = "employee"
	FacetCustomer Facet = "customer"
)

// Facets returns the primary filter facets in display order.
func Facets() []Facet {
	return []Facet{FacetEmployee, FacetCustomer}
}

// ParseFacet validates a facet name.
func ParseFacet(s string) (Facet, error) {
	switch Facet(s) {
	case FacetEmployee, FacetCustomer:
		return Facet(s), nil
	}
	return "", ErrUnknownFacet
}

// valueOf returns the facet's value on an issue, or false for malformed records.
func (f Facet) valueOf(issue model.Issue) (string, bool) {
	switch f {
	case FacetEmployee:
		return issue.EmployeeName()
	case FacetCustomer:
		return issue.CustomerName()
	}
	return "", false
}

// PrimaryFilter maps each facet to a selected value or All.
type PrimaryFilter struct {
	Employee string
	Customer string
}

// AllFilter returns a filter with every facet set to All.
func AllFilter() PrimaryFilter {
	return PrimaryFilter{Employee: All, Customer: All}
}

// Value returns the selected value for facet.
func (f PrimaryFilter) Value(facet Facet) string {
	switch facet {
	case FacetEmployee:
		return f.Employee
	case FacetCustomer:
		return f.Customer
	}
	return All
}

// IsAll reports whether no facet is constrained.
func (f PrimaryFilter) IsAll() bool {
	return isAll(f.Employee) && isAll(f.Customer)
}

func (f PrimaryFilter) with(facet Facet, value string) PrimaryFilter {
	if value == "" {
		value = All
	}
	switch facet {
	case FacetEmployee:
		f.Employee = value
	case FacetCustomer:
		f.Customer = value
	}
	return f
}

// matches reports whether issue satisfies every constrained facet.
// Malformed records never match a constrained facet.
func (f PrimaryFilter) matches(issue model.Issue) bool {
	for _, facet := range Facets() {
		want := f.Value(facet)
		if isAll(want) {
			continue
		}
		got, ok := facet.valueOf(issue)
		if !ok || got != want {
			return false
		}
	}
	return true
}

func isAll(v string) bool {
	return v == "" || v == All
}

// PrimaryPhase tags the two-phase primary filter.
type PrimaryPhase int

const (
	// PhaseEditing means no filter is in effect; Staged may hold pending edits.
	PhaseEditing PrimaryPhase = iota
	// PhaseApplied means Applied is in effect.
	PhaseApplied
)

func (p PrimaryPhase) String() string {
	if p == PhaseApplied {
		return "applied"
	}
	return "editing"
}

// PrimaryState is the staged/applied primary filter. Apply and clear swap the
// whole value, never individual fields.
type PrimaryState struct {
	Phase   PrimaryPhase
	Staged  PrimaryFilter
	Applied PrimaryFilter
}

func newPrimaryState() PrimaryState {
	return PrimaryState{Phase: PhaseEditing, Staged: AllFilter(), Applied: AllFilter()}
}

// IsFiltering reports whether an applied primary filter is in effect.
func (p PrimaryState) IsFiltering() bool {
	return p.Phase == PhaseApplied
}

// ActiveState constrains issues by their active flag.
type ActiveState string

const (
	StateAll      ActiveState = All
	StateActive   ActiveState = "Active"
	StateInactive ActiveState = "Inactive"
)

// SortOrder orders the derived view by submission time.
type SortOrder string

const (
	OrderAscending  SortOrder = "Ascending"
	OrderDescending SortOrder = "Descending"
)

// StatusOptions lists the status choices offered by the facet filter.
func StatusOptions() []string {
	opts := []string{All}
	for _, s := range model.Statuses() {
		opts = append(opts, string(s))
	}
	return opts
}

// StateOptions lists the active-state choices offered by the facet filter.
func StateOptions() []ActiveState {
	return []ActiveState{StateAll, StateActive, StateInactive}
}

// OrderOptions lists the sort order choices offered by the facet filter.
func OrderOptions() []SortOrder {
	return []SortOrder{OrderAscending, OrderDescending}
}

// Selection is the single-value facet selection, usually driven by the chart.
// A zero Kind means no selection.
type Selection struct {
	Kind  Facet
	Value string
}

// Active reports whether a selection is set.
func (s Selection) Active() bool {
	return s.Kind != ""
}

// SecondaryFilter is the facet filter: status, state, order and selection.
type SecondaryFilter struct {
	Status    string // All or a model.Status value
	State     ActiveState
	Order     SortOrder
	Selection Selection
}

func newSecondaryFilter() SecondaryFilter {
	return SecondaryFilter{Status: All, State: StateAll, Order: OrderAscending}
}

func (f SecondaryFilter) matches(issue model.Issue) bool {
	if f.Selection.Active() {
		got, ok := f.Selection.Kind.valueOf(issue)
		if !ok || got != f.Selection.Value {
			return false
		}
	}
	if !isAll(f.Status) && string(issue.Status) != f.Status {
		return false
	}
	switch f.State {
	case StateActive:
		return issue.Active
	case StateInactive:
		return !issue.Active
	}
	return true
}

// SearchScope selects the issue field the search text matches against.
type SearchScope string

const (
	ScopeDescription SearchScope = "description"
	ScopeEmployee    SearchScope = "employee"
	ScopeCustomer    SearchScope = "customer"
)

// SearchScopes lists scopes in toggle order.
func SearchScopes() []SearchScope {
	return []SearchScope{ScopeDescription, ScopeEmployee, ScopeCustomer}
}

// SearchState is the free-text search. A non-empty Value implies Active.
type SearchState struct {
	Value  string
	Active bool
	Scope  SearchScope
}

// State is the complete filter, search and pagination state of a browser.
type State struct {
	Primary   PrimaryState
	Secondary SecondaryFilter
	Search    SearchState
	Page      Pagination
}

// NewState returns the initial state with the given page increment.
func NewState(pageIncrement int) State {
	return State{
		Primary:   newPrimaryState(),
		Secondary: newSecondaryFilter(),
		Search:    SearchState{Scope: ScopeDescription},
		Page:      NewPagination(pageIncrement),
	}
}
