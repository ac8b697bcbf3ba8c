package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestParseIssueJSON_Canonical(t *testing.T) {
	t.Parallel()
	line := `{"id":"I-1","submitted":"2024-01-15T10:30:45Z","closed":"2024-01-16T09:00:00Z","status":"Critical","active":false,` +
		`"employee":{"name":"Alice","avatar":"a.png"},"customer":{"name":"Acme"},"description":"Checkout down"}`

	issue, err := ParseIssueJSON(line, now)
	if err != nil {
		t.Fatalf("ParseIssueJSON: %v", err)
	}
	if issue.ID != "I-1" || issue.Status != model.StatusCritical || issue.Active {
		t.Errorf("issue = %+v", issue)
	}
	if issue.Employee == nil || issue.Employee.Name != "Alice" || issue.Employee.Avatar != "a.png" {
		t.Errorf("employee = %+v", issue.Employee)
	}
	if issue.Customer == nil || issue.Customer.Name != "Acme" {
		t.Errorf("customer = %+v", issue.Customer)
	}
	if issue.Closed == nil || issue.Closed.Day() != 16 {
		t.Errorf("closed = %v", issue.Closed)
	}
	if !issue.Submitted.Equal(time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)) {
		t.Errorf("submitted = %v", issue.Submitted)
	}
}

func TestParseIssueJSON_Aliases(t *testing.T) {
	t.Parallel()
	line := `{"_id":"x9","createdAt":1705314645000,"severity":"warn","assignee":"Bob","client":"Globex","summary":"slow\tdashboard"}`

	issue, err := ParseIssueJSON(line, now)
	if err != nil {
		t.Fatalf("ParseIssueJSON: %v", err)
	}
	if issue.ID != "x9" {
		t.Errorf("ID = %q, want x9", issue.ID)
	}
	if issue.Status != model.StatusWarning {
		t.Errorf("Status = %q, want Warning", issue.Status)
	}
	if name, _ := issue.EmployeeName(); name != "Bob" {
		t.Errorf("employee = %q, want Bob", name)
	}
	if name, _ := issue.CustomerName(); name != "Globex" {
		t.Errorf("customer = %q, want Globex", name)
	}
	if issue.Description != "slow dashboard" {
		t.Errorf("Description = %q", issue.Description)
	}
	if issue.Submitted.Year() != 2024 {
		t.Errorf("Submitted = %v", issue.Submitted)
	}
	if !issue.Active {
		t.Error("open issue should default to active")
	}
}

func TestParseIssueJSON_Defaults(t *testing.T) {
	t.Parallel()
	issue, err := ParseIssueJSON(`{"description":"CRITICAL: payments failing"}`, now)
	if err != nil {
		t.Fatalf("ParseIssueJSON: %v", err)
	}
	if issue.ID == "" {
		t.Error("expected generated ID")
	}
	if !issue.Submitted.Equal(now) {
		t.Errorf("Submitted = %v, want now", issue.Submitted)
	}
	if issue.Status != model.StatusCritical {
		t.Errorf("Status = %q, want inferred Critical", issue.Status)
	}
	if issue.Employee != nil || issue.Customer != nil {
		t.Error("missing people must stay nil")
	}
}

func TestParseIssueJSON_NumericStatusAndActive(t *testing.T) {
	t.Parallel()
	issue, err := ParseIssueJSON(`{"id":"n","status":3,"active":"inactive","description":"printer"}`, now)
	if err != nil {
		t.Fatalf("ParseIssueJSON: %v", err)
	}
	if issue.Status != model.StatusDisabled || issue.Active {
		t.Errorf("issue = %+v", issue)
	}
}

func TestParseIssueJSON_Rejects(t *testing.T) {
	t.Parallel()
	if _, err := ParseIssueJSON("this is not json", now); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseIssueJSON(`{"foo":"bar"}`, now); !errors.Is(err, ErrNotIssue) {
		t.Errorf("err = %v, want ErrNotIssue", err)
	}
}

func TestCountJSONDepth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want int
	}{
		{`{`, 1},
		{`}`, -1},
		{`{"a": [1, 2]}`, 0},
		{`{"text": "brace { inside"`, 1},
		{`"escaped \" quote {"`, 0},
	}
	for _, tt := range tests {
		if got := CountJSONDepth(tt.line); got != tt.want {
			t.Errorf("CountJSONDepth(%q) = %d, want %d", tt.line, got, tt.want)
		}
	}
}
