package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// ErrUnknownFacet is returned by FacetCounts for an unsupported dimension.
var ErrUnknownFacet = errors.New("duckdb: unknown facet")

// facetColumns maps facet names accepted by FacetCounts to columns.
var facetColumns = map[string]string{
	"employee": "employee_name",
	"customer": "customer_name",
	"status":   "status",
	"source":   "source",
}

const issueColumns = `id, submitted, closed, status, is_active,
	employee_name, employee_avatar, customer_name, customer_avatar,
	description, source`

// ListIssues returns every issue in ingestion order.
func (s *Store) ListIssues(ctx context.Context) ([]model.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT `+issueColumns+` FROM issues ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer rows.Close()

	var issues []model.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			log.Printf("duckdb scan error (ListIssues): %v", err)
			continue
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// IssueCount returns the number of stored issues.
func (s *Store) IssueCount(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM issues`).Scan(&count); err != nil {
		return 0, fmt.Errorf("issue count: %w", err)
	}
	return count, nil
}

// StatusCounts returns issue counts per status.
func (s *Store) StatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM issues GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.Status]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			log.Printf("duckdb scan error (StatusCounts): %v", err)
			continue
		}
		counts[model.Status(status)] = n
	}
	return counts, rows.Err()
}

// FacetCounts groups issues by facet, ordered by first appearance.
// Issues without a value for the facet are not counted.
func (s *Store) FacetCounts(ctx context.Context, facet string) ([]model.DimensionCount, error) {
	column, ok := facetColumns[facet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFacet, facet)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*) AS count
		FROM issues
		WHERE %[1]s IS NOT NULL
		GROUP BY %[1]s
		ORDER BY MIN(seq)`, column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("facet counts %s: %w", facet, err)
	}
	defer rows.Close()

	var results []model.DimensionCount
	for rows.Next() {
		var dc model.DimensionCount
		if err := rows.Scan(&dc.Value, &dc.Count); err != nil {
			log.Printf("duckdb scan error (FacetCounts): %v", err)
			continue
		}
		results = append(results, dc)
	}
	return results, rows.Err()
}

// DeleteClosedBefore removes issues closed before cutoff and returns how many went.
func (s *Store) DeleteClosedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `DELETE FROM issues WHERE closed IS NOT NULL AND closed < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete closed issues: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (model.Issue, error) {
	var (
		issue                model.Issue
		status               string
		closed               sql.NullTime
		empName, empAvatar   sql.NullString
		custName, custAvatar sql.NullString
	)
	if err := row.Scan(
		&issue.ID, &issue.Submitted, &closed, &status, &issue.Active,
		&empName, &empAvatar, &custName, &custAvatar,
		&issue.Description, &issue.Source,
	); err != nil {
		return model.Issue{}, err
	}
	issue.Status = model.Status(status)
	issue.Submitted = issue.Submitted.UTC()
	if closed.Valid {
		t := closed.Time.UTC()
		issue.Closed = &t
	}
	issue.Employee = personFrom(empName, empAvatar)
	issue.Customer = personFrom(custName, custAvatar)
	return issue, nil
}

func personFrom(name, avatar sql.NullString) *model.Person {
	if !name.Valid {
		return nil
	}
	return &model.Person{Name: name.String, Avatar: avatar.String}
}

func personColumns(p *model.Person) (name, avatar any) {
	if p == nil {
		return nil, nil
	}
	return p.Name, p.Avatar
}

func closedColumn(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
