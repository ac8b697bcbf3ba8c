package issuesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

func nextEnvelope(t *testing.T, ch <-chan model.IngestEnvelope) model.IngestEnvelope {
	t.Helper()
	select {
	case env, ok := <-ch:
		if !ok {
			t.Fatal("envelope channel closed")
		}
		return env
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}
	return model.IngestEnvelope{}
}

func TestFileSourceEmitsInitialSnapshot(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "issues.yaml")
	if err := os.WriteFile(path, []byte("- id: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := NewFileSource(context.Background(), path, FileConfig{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()

	env := nextEnvelope(t, src.Envelopes())
	if !env.IsSnapshot() {
		t.Fatal("expected a snapshot envelope")
	}
	if env.Format != "yaml" || env.Source != "file:issues.yaml" {
		t.Fatalf("envelope = %+v", env)
	}
	if string(env.Snapshot) != "- id: a\n" {
		t.Fatalf("snapshot = %q", env.Snapshot)
	}
}

func TestFileSourceReloadsOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "issues.json")
	if err := os.WriteFile(path, []byte(`[{"id":"a"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewFileSource(context.Background(), path, FileConfig{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()
	nextEnvelope(t, src.Envelopes())

	if err := os.WriteFile(path, []byte(`[{"id":"a"},{"id":"b"}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	env := nextEnvelope(t, src.Envelopes())
	if string(env.Snapshot) != `[{"id":"a"},{"id":"b"}]` {
		t.Fatalf("snapshot = %q", env.Snapshot)
	}
	if src.Reloads() != 1 {
		t.Fatalf("reloads = %d, want 1", src.Reloads())
	}
}

func TestFileSourceIgnoresUnchangedContent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "issues.json")
	content := []byte(`[{"id":"a"}]`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewFileSource(context.Background(), path, FileConfig{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	defer src.Stop()
	nextEnvelope(t, src.Envelopes())

	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case env := <-src.Envelopes():
		t.Fatalf("unexpected envelope: %+v", env)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFileSourceMissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewFileSource(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestFileSourceStopClosesChannel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "issues.json")
	if err := os.WriteFile(path, []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	src, err := NewFileSource(context.Background(), path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	nextEnvelope(t, src.Envelopes())
	src.Stop()
	src.Stop()

	if _, ok := <-src.Envelopes(); ok {
		t.Fatal("expected closed channel after Stop")
	}
}
