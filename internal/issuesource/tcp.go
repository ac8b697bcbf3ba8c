package issuesource

import (
	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/tcpserver"
)

// TCPSource wraps a started tcpserver.Server as a Source.
type TCPSource struct {
	server *tcpserver.Server
}

// NewTCPSource creates a TCPSource from an already-started TCP server.
func NewTCPSource(server *tcpserver.Server) *TCPSource {
	return &TCPSource{server: server}
}

func (t *TCPSource) Envelopes() <-chan model.IngestEnvelope { return t.server.Lines() }
func (t *TCPSource) Stop()                                  { _ = t.server.Stop() }
func (t *TCPSource) Name() string                           { return "tcp" }
