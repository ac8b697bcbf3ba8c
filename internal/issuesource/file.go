package issuesource

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tinytelemetry/issuedeck/internal/ingest"
	"github.com/tinytelemetry/issuedeck/internal/model"
)

// DefaultFileDebounce is how long the file source waits for writes to settle.
const DefaultFileDebounce = 250 * time.Millisecond

// FileConfig holds tunable parameters for the fixture file source.
type FileConfig struct {
	Debounce time.Duration
}

// FileSource emits the contents of a fixture file as a snapshot envelope at
// start and again whenever the file's content changes on disk.
type FileSource struct {
	path     string
	format   string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	ch       chan model.IngestEnvelope
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	lastHash [sha256.Size]byte
	reloads  atomic.Int64
}

// NewFileSource reads path once and then watches it for changes. The parent
// directory is watched so editors that replace the file by rename are seen.
func NewFileSource(ctx context.Context, path string, conf ...FileConfig) (*FileSource, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("issuesource: resolve %s: %w", path, err)
	}
	debounce := DefaultFileDebounce
	if len(conf) > 0 && conf[0].Debounce > 0 {
		debounce = conf[0].Debounce
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("issuesource: read fixture: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("issuesource: create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("issuesource: watch %s: %w", filepath.Dir(abs), err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &FileSource{
		path:     abs,
		format:   ingest.FormatForPath(abs),
		debounce: debounce,
		watcher:  watcher,
		ch:       make(chan model.IngestEnvelope, 16),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	s.lastHash = sha256.Sum256(data)
	s.ch <- s.envelope(data)

	go s.loop(ctx)
	return s, nil
}

func (s *FileSource) envelope(data []byte) model.IngestEnvelope {
	return model.IngestEnvelope{
		Source:   "file:" + filepath.Base(s.path),
		Snapshot: bytes.Clone(data),
		Format:   s.format,
	}
}

func (s *FileSource) loop(ctx context.Context) {
	defer close(s.done)
	defer close(s.ch)
	defer s.watcher.Close()

	ticker := time.NewTicker(s.debounce)
	defer ticker.Stop()

	pending := false
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = true
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("issuesource: watcher error: %v", err)

		case <-ticker.C:
			if !pending {
				continue
			}
			pending = false
			s.reload(ctx)
		}
	}
}

// reload re-reads the fixture and emits it when the content changed.
func (s *FileSource) reload(ctx context.Context) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		log.Printf("issuesource: reload %s: %v", s.path, err)
		return
	}
	hash := sha256.Sum256(data)
	if hash == s.lastHash {
		return
	}
	s.lastHash = hash
	s.reloads.Add(1)

	select {
	case s.ch <- s.envelope(data):
	case <-ctx.Done():
	}
}

// Reloads returns how many changed snapshots were emitted after the first.
func (s *FileSource) Reloads() int64 { return s.reloads.Load() }

// Path returns the watched fixture path.
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Envelopes() <-chan model.IngestEnvelope { return s.ch }
func (s *FileSource) Name() string                           { return "file" }

// Stop ends watching and waits for the loop to exit.
func (s *FileSource) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		<-s.done
	})
}
