package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

func sample() []model.Issue {
	submitted := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	closed := submitted.Add(2 * time.Hour)
	return []model.Issue{
		{
			ID:          "a",
			Submitted:   submitted,
			Closed:      &closed,
			Status:      model.StatusCritical,
			Employee:    &model.Person{Name: "Alice"},
			Customer:    &model.Person{Name: "Acme, Inc."},
			Description: "checkout \"fails\"",
		},
		{ID: "b", Submitted: submitted, Status: model.StatusOk, Active: true, Description: "orphan"},
	}
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.json")

	if err := WriteFile(path, sample()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []model.Issue
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if diff := cmp.Diff(sample(), got); diff != "" {
		t.Errorf("issues (-want +got):\n%s", diff)
	}
}

func TestWriteJSONEmpty(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "empty.json")

	if err := WriteJSON(path, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]\n" {
		t.Errorf("content = %q, want empty array", data)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.CSV")

	if err := WriteFile(path, sample()); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}

	want := [][]string{
		Header,
		{"a", "2025-06-01T09:00:00Z", "2025-06-01T11:00:00Z", "Critical", "false", "Alice", "Acme, Inc.", "checkout \"fails\""},
		{"b", "2025-06-01T09:00:00Z", "", "Ok", "true", "", "", "orphan"},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows (-want +got):\n%s", diff)
	}
}

func TestWriteReplacesExisting(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "out.json")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(path, sample()[:1]); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var got []model.Issue
	data, _ := os.ReadFile(path)
	if err := json.Unmarshal(data, &got); err != nil || len(got) != 1 {
		t.Fatalf("got %d issues, err %v", len(got), err)
	}
}

func TestWriteMissingDirectory(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nope", "out.json")
	if err := WriteJSON(path, sample()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestDefaultFileName(t *testing.T) {
	t.Parallel()
	got := DefaultFileName(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), FormatCSV)
	if got != "issuedeck-20250102-030405.csv" {
		t.Errorf("DefaultFileName = %q", got)
	}
}
