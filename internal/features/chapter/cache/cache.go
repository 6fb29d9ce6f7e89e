package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"novelreader-backend/internal/common/logger"
	"novelreader-backend/internal/features/chapter/models"
)

// Store is the persistent tier behind the in-memory map. Backed by Redis in
// production; non-authoritative and best-effort.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Fetcher loads chapters from the remote content store. Satisfied by the
// chapter repository.
type Fetcher interface {
	GetByNumber(ctx context.Context, novelID string, number int) (*models.Chapter, error)
}

// ChapterCache is a two-tier lookup layer in front of chapter fetches with
// speculative prefetch of neighboring chapters. It is an optimization only:
// callers fetch for themselves on a miss, so cache failures never gate
// availability.
type ChapterCache struct {
	mu       sync.Mutex
	mem      map[string]*models.Chapter
	inflight map[string]struct{}

	store   Store
	fetcher Fetcher
	ttl     time.Duration
}

func NewChapterCache(store Store, fetcher Fetcher, ttl time.Duration) *ChapterCache {
	return &ChapterCache{
		mem:      make(map[string]*models.Chapter),
		inflight: make(map[string]struct{}),
		store:    store,
		fetcher:  fetcher,
		ttl:      ttl,
	}
}

func cacheKey(novelID string, number int) string {
	return fmt.Sprintf("chapter:%s:%d", novelID, number)
}

// Get returns the cached chapter for (novelID, number). A memory hit is
// returned directly; a persistent-tier hit is promoted into memory first.
// Get never fetches from the content store.
func (c *ChapterCache) Get(ctx context.Context, novelID string, number int) (*models.Chapter, bool) {
	key := cacheKey(novelID, number)

	c.mu.Lock()
	if ch, ok := c.mem[key]; ok {
		c.mu.Unlock()
		return ch, true
	}
	c.mu.Unlock()

	var ch models.Chapter
	if err := c.store.Get(ctx, key, &ch); err != nil {
		return nil, false
	}

	c.mu.Lock()
	c.mem[key] = &ch
	c.mu.Unlock()

	return &ch, true
}

// Put stores the chapter in memory and persists it best-effort. The key is
// derived from the chapter's own fields; an existing entry is overwritten.
func (c *ChapterCache) Put(ctx context.Context, ch *models.Chapter) {
	key := cacheKey(ch.NovelID, ch.Number)

	c.mu.Lock()
	c.mem[key] = ch
	c.mu.Unlock()

	if err := c.store.Set(ctx, key, ch, c.ttl); err != nil {
		// The in-memory copy stays authoritative for the session.
		logger.Warn().
			Err(err).
			Str("novel_id", ch.NovelID).
			Int("chapter", ch.Number).
			Msg("Failed to persist chapter to cache store")
	}
}

// Prefetch speculatively loads (novelID, number) in the background. It is a
// no-op when the number is out of range, the chapter is already cached in
// either tier, or a fetch for it is already in flight. Fetch errors leave the
// cache unchanged.
func (c *ChapterCache) Prefetch(ctx context.Context, novelID string, number int) {
	if number < 1 {
		return
	}

	key := cacheKey(novelID, number)

	c.mu.Lock()
	if _, ok := c.mem[key]; ok {
		c.mu.Unlock()
		return
	}
	if _, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		return
	}
	c.inflight[key] = struct{}{}
	c.mu.Unlock()

	if exists, err := c.store.Exists(ctx, key); err == nil && exists {
		c.clearInflight(key)
		return
	}

	// Detached from the request context: an abandoned prefetch settles in the
	// background with its result kept or discarded, never cancelled.
	bgCtx := context.WithoutCancel(ctx)

	go func() {
		defer c.clearInflight(key)

		ch, err := c.fetcher.GetByNumber(bgCtx, novelID, number)
		if err != nil {
			logger.Debug().
				Err(err).
				Str("novel_id", novelID).
				Int("chapter", number).
				Msg("Chapter prefetch failed")
			return
		}

		c.Put(bgCtx, ch)
	}()
}

// IsLoading reports whether a prefetch for (novelID, number) is in flight.
func (c *ChapterCache) IsLoading(novelID string, number int) bool {
	key := cacheKey(novelID, number)

	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

// Clear drops every cached chapter of the novel from both tiers. Called when
// the reader leaves the novel's reading context.
func (c *ChapterCache) Clear(ctx context.Context, novelID string) error {
	prefix := fmt.Sprintf("chapter:%s:", novelID)

	c.mu.Lock()
	for key := range c.mem {
		if strings.HasPrefix(key, prefix) {
			delete(c.mem, key)
		}
	}
	c.mu.Unlock()

	if err := c.store.DeletePattern(ctx, prefix+"*"); err != nil {
		return fmt.Errorf("failed to clear persistent cache: %w", err)
	}

	return nil
}

// ClearAll drops every cached chapter from both tiers. Maintenance operation,
// used after bulk content edits.
func (c *ChapterCache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	c.mem = make(map[string]*models.Chapter)
	c.mu.Unlock()

	if err := c.store.DeletePattern(ctx, "chapter:*"); err != nil {
		return fmt.Errorf("failed to clear persistent cache: %w", err)
	}

	return nil
}

func (c *ChapterCache) clearInflight(key string) {
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
}
