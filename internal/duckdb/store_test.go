package duckdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/tinytelemetry/issuedeck/internal/model"
)

var t0 = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore(\"\") failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func testIssue(id, employee, customer string, status model.Status, offset time.Duration) model.Issue {
	issue := model.Issue{
		ID:          id,
		Submitted:   t0.Add(offset),
		Status:      status,
		Active:      true,
		Description: "issue " + id,
		Source:      "test",
	}
	if employee != "" {
		issue.Employee = &model.Person{Name: employee, Avatar: "https://example.test/" + employee + ".png"}
	}
	if customer != "" {
		issue.Customer = &model.Person{Name: customer}
	}
	return issue
}

func replaceTestIssues(t *testing.T, store *Store, issues []model.Issue) {
	t.Helper()
	if err := store.ReplaceIssues(context.Background(), issues); err != nil {
		t.Fatalf("ReplaceIssues failed: %v", err)
	}
}

func TestReplaceAndListIssues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	closed := t0.Add(48 * time.Hour)
	issues := []model.Issue{
		testIssue("b", "Bob", "Acme", model.StatusWarning, 2*time.Hour),
		testIssue("a", "Alice", "Globex", model.StatusCritical, time.Hour),
		testIssue("c", "", "Acme", model.StatusOk, 3*time.Hour),
	}
	issues[1].Closed = &closed
	issues[1].Active = false
	replaceTestIssues(t, store, issues)

	got, err := store.ListIssues(ctx)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if diff := cmp.Diff(issues, got); diff != "" {
		t.Fatalf("ListIssues mismatch (-want +got):\n%s", diff)
	}

	replaceTestIssues(t, store, issues[:1])
	count, err := store.IssueCount(ctx)
	if err != nil {
		t.Fatalf("IssueCount: %v", err)
	}
	if count != 1 {
		t.Errorf("IssueCount after replace = %d, want 1", count)
	}
}

func TestReplaceIssuesDuplicateIDsKeepLast(t *testing.T) {
	store := newTestStore(t)

	first := testIssue("x", "Alice", "Acme", model.StatusOk, 0)
	second := testIssue("x", "Bob", "Acme", model.StatusCritical, 0)
	replaceTestIssues(t, store, []model.Issue{first, testIssue("y", "Carol", "Acme", model.StatusOk, time.Hour), second})

	got, err := store.ListIssues(context.Background())
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(got) != 2 || got[0].ID != "x" || got[0].Employee.Name != "Bob" {
		t.Fatalf("ListIssues = %+v", got)
	}
}

func TestUpsertKeepsPosition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	replaceTestIssues(t, store, []model.Issue{
		testIssue("1", "Alice", "Acme", model.StatusOk, 0),
		testIssue("2", "Bob", "Acme", model.StatusOk, time.Hour),
	})

	updated := testIssue("1", "Alice", "Acme", model.StatusCritical, 0)
	if err := store.UpsertIssues(ctx, []model.Issue{updated, testIssue("3", "Carol", "Initech", model.StatusWarning, 2*time.Hour)}); err != nil {
		t.Fatalf("UpsertIssues: %v", err)
	}

	got, err := store.ListIssues(ctx)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	var gotIDs []string
	for _, issue := range got {
		gotIDs = append(gotIDs, issue.ID)
	}
	if diff := cmp.Diff([]string{"1", "2", "3"}, gotIDs); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got[0].Status != model.StatusCritical {
		t.Errorf("updated status = %q, want Critical", got[0].Status)
	}
}

func TestStatusAndFacetCounts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	replaceTestIssues(t, store, []model.Issue{
		testIssue("1", "Carol", "Acme", model.StatusOk, 0),
		testIssue("2", "Alice", "Globex", model.StatusCritical, time.Hour),
		testIssue("3", "Carol", "Acme", model.StatusCritical, 2*time.Hour),
		testIssue("4", "", "Acme", model.StatusWarning, 3*time.Hour),
	})

	statuses, err := store.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("StatusCounts: %v", err)
	}
	want := map[model.Status]int64{model.StatusOk: 1, model.StatusCritical: 2, model.StatusWarning: 1}
	if diff := cmp.Diff(want, statuses); diff != "" {
		t.Fatalf("StatusCounts (-want +got):\n%s", diff)
	}

	employees, err := store.FacetCounts(ctx, "employee")
	if err != nil {
		t.Fatalf("FacetCounts(employee): %v", err)
	}
	wantEmp := []model.DimensionCount{{Value: "Carol", Count: 2}, {Value: "Alice", Count: 1}}
	if diff := cmp.Diff(wantEmp, employees); diff != "" {
		t.Fatalf("employee counts (-want +got):\n%s", diff)
	}

	customers, err := store.FacetCounts(ctx, "customer")
	if err != nil {
		t.Fatalf("FacetCounts(customer): %v", err)
	}
	wantCust := []model.DimensionCount{{Value: "Acme", Count: 3}, {Value: "Globex", Count: 1}}
	if diff := cmp.Diff(wantCust, customers); diff != "" {
		t.Fatalf("customer counts (-want +got):\n%s", diff)
	}

	if _, err := store.FacetCounts(ctx, "location"); !errors.Is(err, ErrUnknownFacet) {
		t.Fatalf("FacetCounts(location) err = %v, want ErrUnknownFacet", err)
	}
}

func TestEmptyStoreQueries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	issues, err := store.ListIssues(ctx)
	if err != nil || len(issues) != 0 {
		t.Fatalf("ListIssues = %v, %v", issues, err)
	}
	facets, err := store.FacetCounts(ctx, "employee")
	if err != nil || len(facets) != 0 {
		t.Fatalf("FacetCounts = %v, %v", facets, err)
	}
}

func TestNewStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "issues.duckdb")
	store, err := NewStore(path, 5*time.Second)
	if err != nil {
		t.Fatalf("NewStore(%q): %v", path, err)
	}
	if store.DBPath() != path || store.QueryTimeout != 5*time.Second {
		t.Fatalf("store = path %q timeout %v", store.DBPath(), store.QueryTimeout)
	}
	replaceTestIssues(t, store, []model.Issue{testIssue("1", "Alice", "Acme", model.StatusOk, 0)})
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	count, err := reopened.IssueCount(context.Background())
	if err != nil || count != 1 {
		t.Fatalf("IssueCount after reopen = %d, %v", count, err)
	}
}
