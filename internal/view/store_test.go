package view

import (
	"errors"
	"testing"
)

func TestStoreDefaults(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	st := s.State()
	if st.Primary.Phase != PhaseEditing || st.Primary.IsFiltering() {
		t.Fatalf("primary = %+v, want editing", st.Primary)
	}
	if !st.Primary.Staged.IsAll() || !st.Primary.Applied.IsAll() {
		t.Fatalf("primary filters not All: %+v", st.Primary)
	}
	if st.Secondary.Status != All || st.Secondary.State != StateAll || st.Secondary.Order != OrderAscending {
		t.Fatalf("secondary = %+v", st.Secondary)
	}
	if st.Search.Active || st.Search.Scope != ScopeDescription {
		t.Fatalf("search = %+v", st.Search)
	}
	if st.Page.Page != 1 || st.Page.Increment != 20 {
		t.Fatalf("page = %+v", st.Page)
	}
}

func TestStagedFilterDoesNotApply(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	if err := s.SetStagedFilter(FacetEmployee, "Alice"); err != nil {
		t.Fatalf("SetStagedFilter: %v", err)
	}
	st := s.State()
	if st.Primary.IsFiltering() {
		t.Fatal("staging must not apply")
	}
	if st.Primary.Staged.Employee != "Alice" || st.Primary.Applied.Employee != All {
		t.Fatalf("primary = %+v", st.Primary)
	}
}

func TestApplyAndClearFilter(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{PageIncrement: 5})
	_ = s.SetStagedFilter(FacetCustomer, "Acme")
	s.RequestMore()
	s.RequestMore()
	s.ApplyFilter()

	st := s.State()
	if !st.Primary.IsFiltering() || st.Primary.Applied.Customer != "Acme" {
		t.Fatalf("primary = %+v", st.Primary)
	}
	if st.Page.Page != 1 {
		t.Fatalf("page = %d, want 1 after apply", st.Page.Page)
	}

	s.RequestMore()
	s.ClearFilter()
	st = s.State()
	if st.Primary.IsFiltering() || !st.Primary.Staged.IsAll() || !st.Primary.Applied.IsAll() {
		t.Fatalf("primary after clear = %+v", st.Primary)
	}
	if st.Page.Page != 1 {
		t.Fatalf("page = %d, want 1 after clear", st.Page.Page)
	}
}

func TestApplyAllFilterIsNoop(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	calls := 0
	s.Subscribe(func(Change) { calls++ })
	s.RequestMore()
	s.ApplyFilter()

	st := s.State()
	if st.Primary.IsFiltering() {
		t.Fatal("applying All must not start filtering")
	}
	if st.Page.Page != 2 {
		t.Fatalf("page = %d, want 2", st.Page.Page)
	}
	if calls != 1 {
		t.Fatalf("notifications = %d, want 1", calls)
	}
}

func TestApplyAllFilterClearsAppliedFilter(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	if err := s.SetStagedFilter(FacetEmployee, "Alice"); err != nil {
		t.Fatalf("SetStagedFilter: %v", err)
	}
	s.ApplyFilter()
	s.RequestMore()
	if err := s.SetStagedFilter(FacetEmployee, All); err != nil {
		t.Fatalf("SetStagedFilter: %v", err)
	}
	s.ApplyFilter()

	st := s.State()
	if st.Primary.IsFiltering() {
		t.Fatal("applying All over an applied filter must stop filtering")
	}
	if !st.Primary.Applied.IsAll() || !st.Primary.Staged.IsAll() {
		t.Fatalf("primary = %+v, want all-All", st.Primary)
	}
	if st.Page.Page != 1 {
		t.Fatalf("page = %d, want 1", st.Page.Page)
	}
}

func TestSetPageSaturates(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{PageIncrement: 20})
	calls := 0
	s.Subscribe(func(c Change) {
		if c.Kind == ChangePage {
			calls++
		}
	})

	s.SetPage(2_000_000_000, 45)
	if got := s.State().Page.Page; got != 3 {
		t.Fatalf("page = %d, want 3", got)
	}
	s.SetPage(7, 45)
	s.SetPage(0, 45)
	if got := s.State().Page.Page; got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}
	s.SetPage(5, 0)
	if calls != 2 {
		t.Fatalf("page notifications = %d, want 2", calls)
	}
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	before := s.State()

	if err := s.SetStagedFilter("location", "x"); !errors.Is(err, ErrUnknownFacet) {
		t.Fatalf("SetStagedFilter err = %v", err)
	}
	if err := s.SetSecondarySelection("location", "x"); !errors.Is(err, ErrUnknownFacet) {
		t.Fatalf("SetSecondarySelection err = %v", err)
	}
	if err := s.SetSecondaryStatus("Broken"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("SetSecondaryStatus err = %v", err)
	}
	if err := s.SetSecondaryState("Sleeping"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("SetSecondaryState err = %v", err)
	}
	if err := s.SetSortOrder("Random"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("SetSortOrder err = %v", err)
	}
	if err := s.ToggleSearchScope("title"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("ToggleSearchScope err = %v", err)
	}
	if s.State() != before {
		t.Fatalf("state changed on invalid input: %+v", s.State())
	}
}

func TestSecondaryChangesKeepPageByDefault(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	s.RequestMore()
	_ = s.SetSecondarySelection(FacetEmployee, "Alice")
	_ = s.SetSecondaryStatus("Critical")
	if got := s.State().Page.Page; got != 2 {
		t.Fatalf("page = %d, want 2", got)
	}

	r := NewStore(Options{ResetPageOnSelection: true})
	r.RequestMore()
	_ = r.SetSecondarySelection(FacetEmployee, "Alice")
	if got := r.State().Page.Page; got != 1 {
		t.Fatalf("page = %d, want 1 with ResetPageOnSelection", got)
	}
}

func TestSearchValueLifecycle(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	s.RequestMore()
	s.SetSearchValue("crit")
	st := s.State()
	if !st.Search.Active || st.Search.Value != "crit" || st.Page.Page != 1 {
		t.Fatalf("state after search = %+v", st)
	}

	s.SetSearchValue("")
	st = s.State()
	if st.Search.Active || st.Search.Value != "" {
		t.Fatalf("empty search should clear: %+v", st.Search)
	}
}

func TestToggleSearchScopeNotifies(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	s.SetSearchValue("ali")

	var kinds []ChangeKind
	s.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })

	if err := s.ToggleSearchScope(ScopeEmployee); err != nil {
		t.Fatalf("ToggleSearchScope: %v", err)
	}
	if err := s.ToggleSearchScope(ScopeEmployee); err != nil {
		t.Fatalf("ToggleSearchScope: %v", err)
	}
	if len(kinds) != 1 || kinds[0] != ChangeSearch {
		t.Fatalf("changes = %v, want one search change", kinds)
	}
	if st := s.State(); st.Search.Value != "ali" || st.Search.Scope != ScopeEmployee {
		t.Fatalf("search = %+v", st.Search)
	}
}

func TestUnsubscribe(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	calls := 0
	unsub := s.Subscribe(func(Change) { calls++ })
	s.RequestMore()
	unsub()
	unsub()
	s.RequestMore()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestUnsubscribeDuringNotify(t *testing.T) {
	t.Parallel()

	s := NewStore(Options{})
	var unsub func()
	first, second := 0, 0
	unsub = s.Subscribe(func(Change) {
		first++
		unsub()
	})
	s.Subscribe(func(Change) { second++ })

	s.RequestMore()
	s.RequestMore()
	if first != 1 || second != 2 {
		t.Fatalf("first=%d second=%d, want 1 and 2", first, second)
	}
}
