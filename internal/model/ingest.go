package model

// IngestEnvelope carries one raw issue payload with source metadata.
// It is the transport contract between issue sources and processing.
//
// Snapshot envelopes hold a whole document (fixture file contents) that
// replaces the record set; line envelopes hold a single JSON issue.
type IngestEnvelope struct {
	Source   string
	Line     string
	Snapshot []byte
	Format   string // "yaml" or "json" for snapshots
}

// IsSnapshot reports whether the envelope replaces the full record set.
func (e IngestEnvelope) IsSnapshot() bool {
	return e.Snapshot != nil
}
