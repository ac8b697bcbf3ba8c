package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// DefaultFlushQueueSize is the number of batches that can be queued for async flushing.
const DefaultFlushQueueSize = 64

// InsertBuffer batches streamed issues and upserts them asynchronously.
// Add never blocks on DuckDB writes; batches are handed to a flush goroutine.
type InsertBuffer struct {
	writer        model.IssueWriter
	mu            sync.Mutex
	pending       []model.Issue
	flushChan     chan []model.Issue
	maxBatch      int
	flushInterval time.Duration
	done          chan struct{}
	wg            sync.WaitGroup
	tickWg        sync.WaitGroup
	stopOnce      sync.Once

	backpressureCount atomic.Int64
	lastBPLog         atomic.Int64 // unix seconds of the last backpressure log
	flushed           atomic.Int64
}

// InsertBufferConfig holds tunable parameters for the insert buffer.
type InsertBufferConfig struct {
	BatchSize      int
	FlushInterval  time.Duration
	FlushQueueSize int
}

// NewInsertBuffer creates a buffer that flushes to writer.
func NewInsertBuffer(writer model.IssueWriter, conf ...InsertBufferConfig) *InsertBuffer {
	batchSize := 500
	flushInterval := 100 * time.Millisecond
	flushQueueSize := DefaultFlushQueueSize
	if len(conf) > 0 {
		if conf[0].BatchSize > 0 {
			batchSize = conf[0].BatchSize
		}
		if conf[0].FlushInterval > 0 {
			flushInterval = conf[0].FlushInterval
		}
		if conf[0].FlushQueueSize > 0 {
			flushQueueSize = conf[0].FlushQueueSize
		}
	}

	b := &InsertBuffer{
		writer:        writer,
		pending:       make([]model.Issue, 0, batchSize),
		flushChan:     make(chan []model.Issue, flushQueueSize),
		maxBatch:      batchSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
	}

	b.wg.Add(1)
	go b.flushWorker()

	b.wg.Add(1)
	b.tickWg.Add(1)
	go b.tickLoop()

	return b
}

func (b *InsertBuffer) tickLoop() {
	defer b.wg.Done()
	defer b.tickWg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.drainPending()
		case <-b.done:
			b.drainPending()
			return
		}
	}
}

// logBackpressure logs at most once every 10 seconds.
func (b *InsertBuffer) logBackpressure() {
	count := b.backpressureCount.Add(1)
	now := time.Now().Unix()
	last := b.lastBPLog.Load()
	if now-last >= 10 && b.lastBPLog.CompareAndSwap(last, now) {
		log.Printf("duckdb: backpressure, %d inline flushes (flush queue full)", count)
	}
}

func (b *InsertBuffer) drainPending() {
	b.mu.Lock()
	if len(b.pending) == 0 {
		b.mu.Unlock()
		return
	}
	batch := b.pending
	b.pending = make([]model.Issue, 0, b.maxBatch)
	b.mu.Unlock()

	b.enqueue(batch, "inline")
}

func (b *InsertBuffer) enqueue(batch []model.Issue, label string) {
	select {
	case b.flushChan <- batch:
	default:
		b.logBackpressure()
		if err := b.flushBatch(batch); err != nil {
			log.Printf("duckdb flush error (%s): %v", label, err)
		}
	}
}

func (b *InsertBuffer) flushWorker() {
	defer b.wg.Done()
	for batch := range b.flushChan {
		if err := b.flushBatch(batch); err != nil {
			log.Printf("duckdb flush error: %v", err)
		}
	}
}

// Add queues an issue for upsert.
func (b *InsertBuffer) Add(issue model.Issue) {
	b.mu.Lock()
	b.pending = append(b.pending, issue)
	var batch []model.Issue
	if len(b.pending) >= b.maxBatch {
		batch = b.pending
		b.pending = make([]model.Issue, 0, b.maxBatch)
	}
	b.mu.Unlock()

	if batch != nil {
		b.enqueue(batch, "overflow-inline")
	}
}

// Flushed returns how many issues have been written so far.
func (b *InsertBuffer) Flushed() int64 {
	return b.flushed.Load()
}

// Stop flushes remaining issues and waits for all writes to complete.
// It is safe to call more than once.
func (b *InsertBuffer) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		// tickLoop's final drain must land before flushChan closes.
		b.tickWg.Wait()
		close(b.flushChan)
		b.wg.Wait()
	})
}

func (b *InsertBuffer) flushBatch(batch []model.Issue) error {
	if len(batch) == 0 {
		return nil
	}
	if err := b.writer.UpsertIssues(context.Background(), batch); err != nil {
		return err
	}
	b.flushed.Add(int64(len(batch)))
	return nil
}

// ReplaceIssues swaps the whole record set in one transaction.
// Ingestion order follows the order of issues.
func (s *Store) ReplaceIssues(ctx context.Context, issues []model.Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM issues`); err != nil {
			return fmt.Errorf("clear issues: %w", err)
		}
		return insertIssues(ctx, tx, dedupeLast(issues))
	})
}

// UpsertIssues inserts new issues and updates existing ones in place, keeping
// their original ingestion position. When a batch fails as a whole it is
// retried issue-by-issue so one bad record does not drop the rest.
func (s *Store) UpsertIssues(ctx context.Context, issues []model.Issue) error {
	if len(issues) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.queryCtx(ctx)
	defer cancel()

	err := s.inTx(ctx, func(tx *sql.Tx) error { return upsertIssues(ctx, tx, issues) })
	if err == nil {
		return nil
	}

	var failed int
	for _, issue := range issues {
		one := []model.Issue{issue}
		if rerr := s.inTx(ctx, func(tx *sql.Tx) error { return upsertIssues(ctx, tx, one) }); rerr != nil {
			failed++
			log.Printf("duckdb: dropping issue (id=%s desc=%.80s): %v", issue.ID, issue.Description, rerr)
		}
	}
	if failed > 0 {
		log.Printf("duckdb: batch partially failed, %d/%d issues dropped", failed, len(issues))
	}
	return nil
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

const insertIssueSQL = `INSERT INTO issues (` + issueColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateIssueSQL = `UPDATE issues SET
	submitted = ?, closed = ?, status = ?, is_active = ?,
	employee_name = ?, employee_avatar = ?, customer_name = ?, customer_avatar = ?,
	description = ?, source = ?, ingested_at = current_timestamp
	WHERE id = ?`

func insertIssues(ctx context.Context, tx *sql.Tx, issues []model.Issue) error {
	if len(issues) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, insertIssueSQL)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, issue := range issues {
		empName, empAvatar := personColumns(issue.Employee)
		custName, custAvatar := personColumns(issue.Customer)
		if _, err := stmt.ExecContext(ctx,
			issue.ID, issue.Submitted.UTC(), closedColumn(issue.Closed), string(issue.Status), issue.Active,
			empName, empAvatar, custName, custAvatar,
			issue.Description, issue.Source,
		); err != nil {
			return fmt.Errorf("issue insert %s: %w", issue.ID, err)
		}
	}
	return nil
}

func upsertIssues(ctx context.Context, tx *sql.Tx, issues []model.Issue) error {
	update, err := tx.PrepareContext(ctx, updateIssueSQL)
	if err != nil {
		return err
	}
	defer update.Close()

	var fresh []model.Issue
	for _, issue := range issues {
		empName, empAvatar := personColumns(issue.Employee)
		custName, custAvatar := personColumns(issue.Customer)
		res, err := update.ExecContext(ctx,
			issue.Submitted.UTC(), closedColumn(issue.Closed), string(issue.Status), issue.Active,
			empName, empAvatar, custName, custAvatar,
			issue.Description, issue.Source,
			issue.ID,
		)
		if err != nil {
			return fmt.Errorf("issue update %s: %w", issue.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			fresh = append(fresh, issue)
		}
	}
	return insertIssues(ctx, tx, dedupeLast(fresh))
}

// dedupeLast keeps the last occurrence of each ID at its first position.
func dedupeLast(issues []model.Issue) []model.Issue {
	index := make(map[string]int, len(issues))
	out := make([]model.Issue, 0, len(issues))
	for _, issue := range issues {
		if i, ok := index[issue.ID]; ok {
			out[i] = issue
			continue
		}
		index[issue.ID] = len(out)
		out = append(out, issue)
	}
	return out
}
