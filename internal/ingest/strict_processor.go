package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// StrictProcessor accepts only single-line JSON in the canonical model.Issue
// shape. It skips alias resolution and status inference.
type StrictProcessor struct {
	mu         sync.RWMutex
	sink       IssueSink
	snapshots  SnapshotSink
	sourceName string
}

// NewStrictProcessor creates a strict processor. Either sink may be nil.
func NewStrictProcessor(sink IssueSink, snapshots SnapshotSink, sourceName string) *StrictProcessor {
	return &StrictProcessor{
		sink:       sink,
		snapshots:  snapshots,
		sourceName: sourceName,
	}
}

func (p *StrictProcessor) Name() string { return ProcessorModeStrict }

// ProcessEnvelope processes one source-tagged envelope.
func (p *StrictProcessor) ProcessEnvelope(ctx context.Context, env model.IngestEnvelope) *ProcessResult {
	source := env.Source
	if source == "" {
		source = p.getSourceName()
	}

	if env.IsSnapshot() {
		return p.processSnapshot(ctx, env, source)
	}

	if strings.TrimSpace(env.Line) == "" {
		return nil
	}

	issue, err := decodeStrict([]byte(env.Line))
	if err != nil {
		return &ProcessResult{Err: err}
	}
	if issue.Source == "" {
		issue.Source = source
	}
	if p.sink != nil {
		p.sink.Add(issue)
	}
	return &ProcessResult{Issues: []model.Issue{issue}}
}

func (p *StrictProcessor) processSnapshot(ctx context.Context, env model.IngestEnvelope, source string) *ProcessResult {
	var issues []model.Issue
	if err := json.Unmarshal(env.Snapshot, &issues); err != nil {
		return &ProcessResult{Snapshot: true, Err: fmt.Errorf("ingest: strict snapshot: %w", err)}
	}
	for i := range issues {
		if err := validateStrict(issues[i]); err != nil {
			return &ProcessResult{Snapshot: true, Err: fmt.Errorf("ingest: strict snapshot entry %d: %w", i, err)}
		}
		if issues[i].Source == "" {
			issues[i].Source = source
		}
	}
	if p.snapshots != nil {
		if err := p.snapshots.ReplaceIssues(ctx, issues); err != nil {
			return &ProcessResult{Snapshot: true, Err: fmt.Errorf("ingest: replace issues: %w", err)}
		}
	}
	return &ProcessResult{Issues: issues, Snapshot: true}
}

func decodeStrict(data []byte) (model.Issue, error) {
	var issue model.Issue
	if err := json.Unmarshal(data, &issue); err != nil {
		return model.Issue{}, fmt.Errorf("ingest: strict decode: %w", err)
	}
	if err := validateStrict(issue); err != nil {
		return model.Issue{}, err
	}
	return issue, nil
}

func validateStrict(issue model.Issue) error {
	if issue.ID == "" {
		return fmt.Errorf("ingest: strict issue missing id")
	}
	if issue.Submitted.Equal(time.Time{}) {
		return fmt.Errorf("ingest: strict issue %s missing submitted time", issue.ID)
	}
	if !issue.Status.Valid() {
		return fmt.Errorf("ingest: strict issue %s has invalid status %q", issue.ID, issue.Status)
	}
	return nil
}

// SetSourceName updates the default source name for untagged envelopes.
func (p *StrictProcessor) SetSourceName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceName = name
}

func (p *StrictProcessor) getSourceName() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sourceName
}
