package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tinytelemetry/issuedeck/internal/issueparse"
	"github.com/tinytelemetry/issuedeck/internal/model"
)

// ErrNotIssue is returned for input that does not describe an issue.
var ErrNotIssue = errors.New("ingest: not an issue object")

var (
	idKeys          = []string{"id", "_id", "issueId", "issue_id", "key"}
	submittedKeys   = []string{"submitted", "submittedAt", "submitted_at", "createdAt", "created_at", "created", "opened"}
	closedKeys      = []string{"closed", "closedAt", "closed_at", "resolvedAt", "resolved_at"}
	statusKeys      = []string{"status", "severity", "health"}
	activeKeys      = []string{"active", "isActive", "is_active"}
	employeeKeys    = []string{"employee", "assignee", "owner"}
	customerKeys    = []string{"customer", "client", "reporter"}
	descriptionKeys = []string{"description", "summary", "title", "message"}
)

// ParseIssueJSON parses one JSON object into an issue.
func ParseIssueJSON(line string, now time.Time) (model.Issue, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return model.Issue{}, fmt.Errorf("ingest: decode issue: %w", err)
	}
	return IssueFromMap(raw, now)
}

// IssueFromMap builds an issue from a decoded JSON or YAML object, accepting
// the common aliases for each field. Missing IDs are generated, a missing
// submission time defaults to now and a missing status is inferred from the
// description.
func IssueFromMap(raw map[string]interface{}, now time.Time) (model.Issue, error) {
	description := sanitizeDescription(ExtractStringField(raw, descriptionKeys...))
	employee := extractPerson(raw, employeeKeys...)
	customer := extractPerson(raw, customerKeys...)
	if description == "" && employee == nil && customer == nil {
		return model.Issue{}, ErrNotIssue
	}

	issue := model.Issue{
		ID:          ExtractStringField(raw, idKeys...),
		Description: description,
		Employee:    employee,
		Customer:    customer,
		Source:      ExtractStringField(raw, "source"),
	}
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}

	issue.Submitted = now.UTC()
	if ts, ok := firstTime(raw, submittedKeys...); ok {
		issue.Submitted = ts
	}
	if ts, ok := firstTime(raw, closedKeys...); ok {
		issue.Closed = &ts
	}

	issue.Status = extractStatus(raw, description)

	issue.Active = issue.Closed == nil
	if active, ok := firstBool(raw, activeKeys...); ok {
		issue.Active = active
	}
	return issue, nil
}

func extractStatus(raw map[string]interface{}, description string) model.Status {
	for _, k := range statusKeys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch val := v.(type) {
		case float64:
			return issueparse.StatusFromLevel(int(val))
		case int:
			return issueparse.StatusFromLevel(val)
		case string:
			if status := issueparse.NormalizeStatus(val); status != model.StatusUnknown {
				return status
			}
		}
	}
	return issueparse.ExtractStatusFromText(description)
}

func extractPerson(raw map[string]interface{}, keys ...string) *model.Person {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			if name := strings.TrimSpace(val); name != "" {
				return &model.Person{Name: name}
			}
		case map[string]interface{}:
			name := ExtractStringField(val, "name", "fullName", "full_name", "login")
			if name == "" {
				continue
			}
			return &model.Person{
				Name:   name,
				Avatar: ExtractStringField(val, "avatar", "avatarUrl", "avatar_url", "image"),
			}
		}
	}
	return nil
}

func firstTime(raw map[string]interface{}, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			if ts, ok := issueparse.ParseTime(v); ok {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

func firstBool(raw map[string]interface{}, keys ...string) (bool, bool) {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "active", "open", "yes":
				return true, true
			case "inactive", "closed", "no":
				return false, true
			}
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		case float64:
			return v != 0, true
		case int:
			return v != 0, true
		}
	}
	return false, false
}

func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	}
	return ""
}

func sanitizeDescription(description string) string {
	clean := strings.ReplaceAll(description, "\t", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	clean = strings.ReplaceAll(clean, "\r", " ")
	return strings.TrimSpace(clean)
}

// ExtractStringField returns the first non-empty scalar value found among keys.
func ExtractStringField(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if str := stringifyValue(v); str != "" {
				return str
			}
		}
	}
	return ""
}
