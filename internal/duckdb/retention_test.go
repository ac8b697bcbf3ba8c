package duckdb

import (
	"context"
	"testing"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

func TestRetentionCleaner_StopIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	cleaner := NewRetentionCleaner(store, RetentionConfig{RetentionDays: 1})
	if cleaner == nil {
		t.Fatal("expected non-nil retention cleaner")
	}

	cleaner.Stop()
	cleaner.Stop()
}

func TestRetentionCleaner_Disabled(t *testing.T) {
	store := newTestStore(t)
	if c := NewRetentionCleaner(store, RetentionConfig{RetentionDays: 0}); c != nil {
		t.Fatal("expected nil cleaner when retention is disabled")
	}
}

func TestRetentionCleaner_DeletesOnlyOldClosedIssues(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	oldClose := now.Add(-40 * 24 * time.Hour)
	recentClose := now.Add(-2 * 24 * time.Hour)

	old := testIssue("old", "Alice", "Acme", model.StatusOk, 0)
	old.Closed = &oldClose
	recent := testIssue("recent", "Bob", "Acme", model.StatusOk, 0)
	recent.Closed = &recentClose
	open := testIssue("open", "Carol", "Acme", model.StatusCritical, 0)
	open.Submitted = now.Add(-400 * 24 * time.Hour)

	replaceTestIssues(t, store, []model.Issue{old, recent, open})

	cleaner := NewRetentionCleaner(store, RetentionConfig{RetentionDays: 30, Interval: time.Hour})
	defer cleaner.Stop()

	issues, err := store.ListIssues(ctx)
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 || issues[0].ID != "recent" || issues[1].ID != "open" {
		t.Fatalf("remaining issues = %+v, want recent and open", issues)
	}
}
