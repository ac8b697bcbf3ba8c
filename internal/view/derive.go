package view

import (
	"sort"
	"strings"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// Derive computes the ordered record set for st, before pagination.
//
// Exactly one base branch applies: an active search masks the primary filter,
// otherwise an applied primary filter narrows, otherwise all records pass.
// The secondary filter then narrows the result and the sort order is applied.
// records is never modified; the result is a new slice.
func Derive(records []model.Issue, st State) []model.Issue {
	out := make([]model.Issue, 0, len(records))

	for _, issue := range records {
		switch {
		case st.Search.Active:
			if !searchMatches(issue, st.Search) {
				continue
			}
		case st.Primary.IsFiltering():
			if !st.Primary.Applied.matches(issue) {
				continue
			}
		}
		if !st.Secondary.matches(issue) {
			continue
		}
		out = append(out, issue)
	}

	sortIssues(out, st.Secondary.Order)
	return out
}

// Visible returns the paginated slice of the derived set.
func Visible(records []model.Issue, st State) []model.Issue {
	return st.Page.Window(Derive(records, st))
}

func searchMatches(issue model.Issue, search SearchState) bool {
	needle := strings.ToLower(search.Value)
	var haystack string
	switch search.Scope {
	case ScopeEmployee:
		name, ok := issue.EmployeeName()
		if !ok {
			return false
		}
		haystack = name
	case ScopeCustomer:
		name, ok := issue.CustomerName()
		if !ok {
			return false
		}
		haystack = name
	default:
		haystack = issue.Description
	}
	return strings.Contains(strings.ToLower(haystack), needle)
}

// sortIssues orders by submission time; ties fall back to ID ascending in
// both directions so the order is total.
func sortIssues(issues []model.Issue, order SortOrder) {
	desc := order == OrderDescending
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if !a.Submitted.Equal(b.Submitted) {
			if desc {
				return a.Submitted.After(b.Submitted)
			}
			return a.Submitted.Before(b.Submitted)
		}
		return a.ID < b.ID
	})
}

// FacetValues returns the de-duplicated values of facet across all records in
// first-appearance order. Malformed records are skipped.
func FacetValues(records []model.Issue, facet Facet) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, issue := range records {
		v, ok := facet.valueOf(issue)
		if !ok {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values
}
