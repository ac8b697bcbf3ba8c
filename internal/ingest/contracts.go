package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

const (
	// ProcessorModeParse accepts loosely shaped issue JSON and normalizes it.
	ProcessorModeParse = "parse"
	// ProcessorModeStrict accepts only the canonical issue shape.
	ProcessorModeStrict = "strict"
)

// IssueSink receives streamed issues, typically a duckdb.InsertBuffer.
type IssueSink interface {
	Add(issue model.Issue)
}

// SnapshotSink receives whole record sets decoded from fixture documents.
type SnapshotSink interface {
	ReplaceIssues(ctx context.Context, issues []model.Issue) error
}

// ProcessResult holds the outcome of processing one envelope.
type ProcessResult struct {
	Issues   []model.Issue
	Snapshot bool
	Err      error
}

// EnvelopeProcessor consumes source-tagged envelopes and emits canonical issues.
type EnvelopeProcessor interface {
	Name() string
	ProcessEnvelope(ctx context.Context, env model.IngestEnvelope) *ProcessResult
}

// NewEnvelopeProcessor creates the processor for mode. An empty mode selects
// ProcessorModeParse.
func NewEnvelopeProcessor(mode string, sink IssueSink, snapshots SnapshotSink, sourceName string) (EnvelopeProcessor, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ProcessorModeParse:
		return NewProcessor(sink, snapshots, sourceName), nil
	case ProcessorModeStrict:
		return NewStrictProcessor(sink, snapshots, sourceName), nil
	default:
		return nil, fmt.Errorf("ingest: unknown processor mode %q", mode)
	}
}
