package service

import (
	"context"
	"sync"
	"time"

	"novelreader-backend/internal/common/logger"
	"novelreader-backend/internal/features/chapter/repository"
)

const viewFlushDelay = 5 * time.Second

// viewFlusher batches view-counter increments and writes them after a quiet
// period. Each Record cancels and reschedules the pending flush; Close flushes
// whatever is left.
type viewFlusher struct {
	mu      sync.Mutex
	pending map[string]int64
	timer   *time.Timer
	closed  bool

	repo  repository.ChapterRepository
	delay time.Duration
}

func newViewFlusher(repo repository.ChapterRepository, delay time.Duration) *viewFlusher {
	return &viewFlusher{
		pending: make(map[string]int64),
		repo:    repo,
		delay:   delay,
	}
}

// Record notes one view for the chapter.
func (f *viewFlusher) Record(chapterID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.pending[chapterID]++

	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = time.AfterFunc(f.delay, f.flush)
}

func (f *viewFlusher) flush() {
	f.mu.Lock()
	batch := f.pending
	f.pending = make(map[string]int64)
	f.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for chapterID, delta := range batch {
		if err := f.repo.AddViews(ctx, chapterID, delta); err != nil {
			logger.Warn().
				Err(err).
				Str("chapter_id", chapterID).
				Int64("delta", delta).
				Msg("Failed to flush view counter")
		}
	}
}

// Close stops the timer and flushes pending counts.
func (f *viewFlusher) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	if f.timer != nil {
		f.timer.Stop()
	}
	f.mu.Unlock()

	f.flush()
}
