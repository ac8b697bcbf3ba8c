package ingest

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// Processor decodes issue envelopes and routes them to storage. Line
// envelopes carry one JSON issue, possibly spread over several lines;
// snapshot envelopes carry a fixture document that replaces all issues.
type Processor struct {
	mu         sync.Mutex
	sink       IssueSink
	snapshots  SnapshotSink
	sourceName string
	now        func() time.Time

	// multi-line JSON accumulation
	jsonBuffer   strings.Builder
	jsonDepth    int
	inJSONObject bool
}

// NewProcessor creates a lenient issue processor. Either sink may be nil.
func NewProcessor(sink IssueSink, snapshots SnapshotSink, sourceName string) *Processor {
	return &Processor{
		sink:       sink,
		snapshots:  snapshots,
		sourceName: sourceName,
		now:        time.Now,
	}
}

func (p *Processor) Name() string { return ProcessorModeParse }

// ProcessEnvelope handles one envelope. It returns nil while a multi-line
// JSON object is still being accumulated or when the line is blank.
func (p *Processor) ProcessEnvelope(ctx context.Context, env model.IngestEnvelope) *ProcessResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	source := env.Source
	if source == "" {
		source = p.sourceName
	}

	if env.IsSnapshot() {
		return p.processSnapshot(ctx, env, source)
	}

	complete, ok := p.accumulate(env.Line)
	if !ok {
		return nil
	}
	return p.processEntry(complete, source)
}

// ProcessLine processes an untagged line using the processor source name.
func (p *Processor) ProcessLine(line string) *ProcessResult {
	return p.ProcessEnvelope(context.Background(), model.IngestEnvelope{Line: line})
}

func (p *Processor) processEntry(entry, source string) *ProcessResult {
	issue, err := ParseIssueJSON(entry, p.now())
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

func (p *Processor) processSnapshot(ctx context.Context, env model.IngestEnvelope, source string) *ProcessResult {
	format := env.Format
	if format == "" {
		format = FormatYAML
	}
	issues, skipped, err := DecodeFixture(env.Snapshot, format, p.now())
	if err != nil {
		return &ProcessResult{Snapshot: true, Err: err}
	}
	if skipped > 0 {
		log.Printf("ingest: fixture from %s skipped %d malformed entries", source, skipped)
	}
	for i := range issues {
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

// accumulate buffers lines until a complete JSON value is available.
// Lines that do not open a JSON object are returned as-is.
func (p *Processor) accumulate(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)

	if !p.inJSONObject {
		if trimmed == "" {
			return "", false
		}
		if !strings.HasPrefix(trimmed, "{") {
			return line, true
		}
		p.inJSONObject = true
		p.jsonBuffer.Reset()
		p.jsonDepth = 0
	}

	p.jsonBuffer.WriteString(line)
	p.jsonBuffer.WriteString("\n")
	p.jsonDepth += CountJSONDepth(line)

	if p.jsonDepth > 0 {
		return "", false
	}
	complete := strings.TrimSpace(p.jsonBuffer.String())
	p.resetJSONAccumulation()
	return complete, true
}

// CountJSONDepth counts the net change in JSON nesting depth for a line.
func CountJSONDepth(line string) int {
	depth := 0
	inString := false
	escaped := false

	for _, char := range line {
		if escaped {
			escaped = false
			continue
		}

		switch char {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				depth++
			}
		case '}', ']':
			if !inString {
				depth--
			}
		}
	}

	return depth
}

func (p *Processor) resetJSONAccumulation() {
	p.inJSONObject = false
	p.jsonDepth = 0
	p.jsonBuffer.Reset()
}

// SetSourceName updates the default source name for untagged envelopes.
func (p *Processor) SetSourceName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sourceName = name
}
