package view

import (
	"github.com/tinytelemetry/issuedeck/internal/model"
)

// Pagination is the "load more" window: Page windows of Increment records.
type Pagination struct {
	Page      int
	Increment int
}

// NewPagination starts at page 1. Non-positive increments fall back to
// model.DefaultPageIncrement.
func NewPagination(increment int) Pagination {
	if increment <= 0 {
		increment = model.DefaultPageIncrement
	}
	return Pagination{Page: 1, Increment: increment}
}

// Next reveals one more window. The page is not capped; Window saturates.
func (p *Pagination) Next() {
	p.Page++
}

// Reset returns to the first window.
func (p *Pagination) Reset() {
	p.Page = 1
}

// VisibleCount returns Page*Increment clamped to total.
func (p Pagination) VisibleCount(total int) int {
	page := max(p.Page, 1)
	n := page * p.Increment
	if n > total || n < 0 {
		return total
	}
	return n
}

// HasMore reports whether records remain beyond the current window.
func (p Pagination) HasMore(total int) bool {
	return p.VisibleCount(total) < total
}

// Window returns the visible prefix of records.
func (p Pagination) Window(records []model.Issue) []model.Issue {
	return records[:p.VisibleCount(len(records))]
}
