package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// Fixture formats accepted by DecodeFixture.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatForPath guesses a fixture format from a file name.
func FormatForPath(path string) string {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".json") || strings.HasSuffix(lower, ".jsonl") {
		return FormatJSON
	}
	return FormatYAML
}

// DecodeFixture decodes a fixture document: either a list of issues or an
// object with an "issues" list. Entries that are not issues are skipped and
// reported in the returned count.
func DecodeFixture(data []byte, format string, now time.Time) ([]model.Issue, int, error) {
	doc, err := decodeDocument(data, format)
	if err != nil {
		return nil, 0, err
	}

	var items []interface{}
	switch v := doc.(type) {
	case nil:
		return nil, 0, nil
	case []interface{}:
		items = v
	case map[string]interface{}:
		list, ok := v["issues"].([]interface{})
		if !ok {
			return nil, 0, fmt.Errorf("ingest: fixture object has no issues list")
		}
		items = list
	default:
		return nil, 0, fmt.Errorf("ingest: unsupported fixture root %T", doc)
	}

	issues := make([]model.Issue, 0, len(items))
	skipped := 0
	for _, item := range items {
		raw, ok := item.(map[string]interface{})
		if !ok {
			skipped++
			continue
		}
		issue, err := IssueFromMap(raw, now)
		if err != nil {
			skipped++
			continue
		}
		issues = append(issues, issue)
	}
	return issues, skipped, nil
}

func decodeDocument(data []byte, format string) (interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var doc interface{}
	if format == FormatJSON {
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, fmt.Errorf("ingest: decode json fixture: %w", err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("ingest: decode yaml fixture: %w", err)
	}
	return doc, nil
}
