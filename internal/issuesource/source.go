// Package issuesource provides the inputs that feed issues into the service:
// stdin, a TCP feed, a watched fixture file and a demo generator.
package issuesource

import "github.com/tinytelemetry/issuedeck/internal/model"

// Source is a unified interface for all issue inputs.
type Source interface {
	Envelopes() <-chan model.IngestEnvelope // closed when the source ends
	Stop()                                  // graceful shutdown, idempotent
	Name() string                           // "stdin", "tcp", "file", "demo"
}
