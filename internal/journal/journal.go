package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"osk/internal/metrics"
)

// DefaultQueueSize is used when New is given a non-positive size.
const DefaultQueueSize = 256

// maxBatch bounds how many queued entries share one transaction.
const maxBatch = 64

type request struct {
	entry Entry
	flush chan struct{}
}

// Journal queues entries for a background writer so callers never wait on
// disk I/O. A nil *Journal is valid and records nothing.
type Journal struct {
	store   *Store
	queue   chan request
	metrics *metrics.Keyboard
	log     *slog.Logger

	dropped atomic.Uint64
	closed  atomic.Bool
	closeMu sync.RWMutex
	done    chan struct{}
}

// New starts the writer for store.
func New(store *Store, queueSize int, m *metrics.Keyboard, log *slog.Logger) *Journal {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}
	j := &Journal{
		store:   store,
		queue:   make(chan request, queueSize),
		metrics: m,
		log:     log.With("component", "journal"),
		done:    make(chan struct{}),
	}
	go j.run()
	return j
}

// OpenJournal opens the store at path, prunes entries older than retain
// (when positive) and starts the writer.
func OpenJournal(path string, queueSize int, retain time.Duration, m *metrics.Keyboard, log *slog.Logger) (*Journal, error) {
	store, err := Open(path)
	if err != nil {
		return nil, err
	}
	j := New(store, queueSize, m, log)
	if retain > 0 {
		if n, err := store.Prune(time.Now().Add(-retain)); err != nil {
			j.log.Warn("prune failed", "error", err)
		} else if n > 0 {
			j.log.Debug("pruned entries", "count", n)
		}
	}
	return j, nil
}

// Record queues e. When the queue is full the entry is dropped and counted.
func (j *Journal) Record(e Entry) {
	if j == nil {
		return
	}
	j.closeMu.RLock()
	defer j.closeMu.RUnlock()
	if j.closed.Load() {
		return
	}
	select {
	case j.queue <- request{entry: e}:
	default:
		j.dropped.Add(1)
		j.metrics.RecordJournalDrop()
	}
}

// Dropped returns the number of entries lost to a full queue.
func (j *Journal) Dropped() uint64 {
	if j == nil {
		return 0
	}
	return j.dropped.Load()
}

// Flush waits until every entry queued before the call is written.
func (j *Journal) Flush(ctx context.Context) error {
	if j == nil {
		return nil
	}
	done := make(chan struct{})
	j.closeMu.RLock()
	if j.closed.Load() {
		j.closeMu.RUnlock()
		return nil
	}
	select {
	case j.queue <- request{flush: done}:
	case <-ctx.Done():
		j.closeMu.RUnlock()
		return ctx.Err()
	}
	j.closeMu.RUnlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Recent returns up to n entries, newest first. Queued entries that have
// not been written yet are not included.
func (j *Journal) Recent(n int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	return j.store.Recent(n)
}

// Close drains the queue and closes the store.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	j.closeMu.Lock()
	if j.closed.Swap(true) {
		j.closeMu.Unlock()
		return nil
	}
	close(j.queue)
	j.closeMu.Unlock()

	<-j.done
	return j.store.Close()
}

func (j *Journal) run() {
	defer close(j.done)

	batch := make([]Entry, 0, maxBatch)
	var waiters []chan struct{}

	for req := range j.queue {
		batch, waiters = j.add(batch, waiters, req)

		// Drain whatever else is already queued into the same transaction.
	drain:
		for len(batch) < maxBatch {
			select {
			case next, ok := <-j.queue:
				if !ok {
					break drain
				}
				batch, waiters = j.add(batch, waiters, next)
			default:
				break drain
			}
		}

		j.write(batch)
		batch = batch[:0]
		for _, w := range waiters {
			close(w)
		}
		waiters = waiters[:0]
	}
}

func (j *Journal) add(batch []Entry, waiters []chan struct{}, req request) ([]Entry, []chan struct{}) {
	if req.flush != nil {
		return batch, append(waiters, req.flush)
	}
	return append(batch, req.entry), waiters
}

func (j *Journal) write(batch []Entry) {
	if len(batch) == 0 {
		return
	}
	if err := j.store.InsertBatch(batch); err != nil {
		j.log.Warn("write failed", "entries", len(batch), "error", err)
	}
}
