// Package export writes the issues currently visible in a browser view to
// disk. Files are replaced atomically so a reader never sees a partial export.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Header is the CSV column order.
var Header = []string{"ID", "Submitted", "Closed", "Status", "Active", "Employee", "Customer", "Description"}

// FormatForPath picks the export format from the file extension, defaulting to JSON.
func FormatForPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatJSON
}

// WriteFile exports issues to path in the format implied by its extension.
func WriteFile(path string, issues []model.Issue) error {
	switch FormatForPath(path) {
	case FormatCSV:
		return WriteCSV(path, issues)
	default:
		return WriteJSON(path, issues)
	}
}

// WriteJSON writes issues as an indented JSON array.
func WriteJSON(path string, issues []model.Issue) error {
	if issues == nil {
		issues = []model.Issue{}
	}
	data, err := json.MarshalIndent(issues, "", "  ")
	if err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// WriteCSV writes issues as CSV with a header row. Missing people and open
// issues leave their cells empty.
func WriteCSV(path string, issues []model.Issue) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Header); err != nil {
		return fmt.Errorf("export: encode csv: %w", err)
	}
	for _, issue := range issues {
		if err := w.Write(csvRow(issue)); err != nil {
			return fmt.Errorf("export: encode csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: encode csv: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

func csvRow(issue model.Issue) []string {
	closed := ""
	if issue.Closed != nil {
		closed = issue.Closed.UTC().Format(time.RFC3339)
	}
	employee, _ := issue.EmployeeName()
	customer, _ := issue.CustomerName()
	active := "false"
	if issue.Active {
		active = "true"
	}
	return []string{
		issue.ID,
		issue.Submitted.UTC().Format(time.RFC3339),
		closed,
		string(issue.Status),
		active,
		employee,
		customer,
		issue.Description,
	}
}

// DefaultFileName names an export taken at now.
func DefaultFileName(now time.Time, format string) string {
	return fmt.Sprintf("issuedeck-%s.%s", now.UTC().Format("20060102-150405"), format)
}
