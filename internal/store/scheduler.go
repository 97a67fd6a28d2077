package store

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vgreport/vgdraft/internal/database"
)

// DefaultDebounce is how long a cell's write waits for further edits before
// it lands.
const DefaultDebounce = 650 * time.Millisecond

type pendingWrite struct {
	timer *time.Timer
	row   database.DraftRecord
}

// scheduler debounces persistence per cell. Scheduling a key that already has
// a pending write cancels the old timer and replaces the row, so at most one
// write is ever in flight per key and an older row can never land after a
// newer one.
type scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*pendingWrite
	write   func(row database.DraftRecord)
}

func newScheduler(delay time.Duration, write func(row database.DraftRecord)) *scheduler {
	return &scheduler{
		delay:   delay,
		pending: make(map[string]*pendingWrite),
		write:   write,
	}
}

// Schedule arms (or re-arms) the debounced write for row's cell.
func (s *scheduler) Schedule(row database.DraftRecord) {
	key := row.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.pending[key]; ok {
		prev.timer.Stop()
	}

	pw := &pendingWrite{row: row}
	pw.timer = time.AfterFunc(s.delay, func() { s.fire(key, pw) })
	s.pending[key] = pw
}

// fire runs when a debounce timer elapses. A stale timer whose entry was
// replaced or flushed does nothing.
func (s *scheduler) fire(key string, pw *pendingWrite) {
	s.mu.Lock()
	current, ok := s.pending[key]
	if !ok || current != pw {
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	s.write(pw.row)
}

// Flush cancels every pending timer and writes all pending rows concurrently,
// returning once every write has completed.
func (s *scheduler) Flush(ctx context.Context, write func(ctx context.Context, row database.DraftRecord) error) error {
	s.mu.Lock()
	rows := make([]database.DraftRecord, 0, len(s.pending))
	for key, pw := range s.pending {
		pw.timer.Stop()
		rows = append(rows, pw.row)
		delete(s.pending, key)
	}
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, row := range rows {
		g.Go(func() error {
			return write(ctx, row)
		})
	}
	return g.Wait()
}

// PendingCount reports how many cells still have a scheduled write.
func (s *scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
