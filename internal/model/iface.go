package model

import "context"

// CountFacets lists the facet names accepted by IssueQuerier.FacetCounts.
var CountFacets = []string{"employee", "customer", "status", "source"}

// IssueQuerier provides read-only queries on issue data.
type IssueQuerier interface {
	ListIssues(ctx context.Context) ([]Issue, error)
	IssueCount(ctx context.Context) (int64, error)
	StatusCounts(ctx context.Context) (map[Status]int64, error)
	FacetCounts(ctx context.Context, facet string) ([]DimensionCount, error)
}

// IssueWriter provides write operations for ingested issues.
type IssueWriter interface {
	// ReplaceIssues atomically swaps the whole record set.
	ReplaceIssues(ctx context.Context, issues []Issue) error
	// UpsertIssues inserts or updates issues by ID.
	UpsertIssues(ctx context.Context, issues []Issue) error
}

// ReadAPI is the unified read contract for read surfaces (HTTP and socket RPC).
type ReadAPI interface {
	IssueQuerier
}
