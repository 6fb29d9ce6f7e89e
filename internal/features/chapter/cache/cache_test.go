package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelreader-backend/internal/features/chapter/models"
	"novelreader-backend/internal/features/chapter/repository"
)

type fakeStore struct {
	mu      sync.Mutex
	data    map[string]string
	failSet bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (s *fakeStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return errors.New("key not found")
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (s *fakeStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if s.failSet {
		return errors.New("store unavailable")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(raw)
	return nil
}

func (s *fakeStore) DeletePattern(_ context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			delete(s.data, key)
		}
	}
	return nil
}

func (s *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

type fakeFetcher struct {
	mu       sync.Mutex
	chapters map[string]*models.Chapter
	calls    int32
	delay    time.Duration
}

func newFakeFetcher(chapters ...*models.Chapter) *fakeFetcher {
	f := &fakeFetcher{chapters: make(map[string]*models.Chapter)}
	for _, ch := range chapters {
		f.chapters[fmt.Sprintf("%s:%d", ch.NovelID, ch.Number)] = ch
	}
	return f
}

func (f *fakeFetcher) GetByNumber(_ context.Context, novelID string, number int) (*models.Chapter, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.chapters[fmt.Sprintf("%s:%d", novelID, number)]
	if !ok {
		return nil, repository.ErrChapterNotFound
	}
	return ch, nil
}

func (f *fakeFetcher) callCount() int32 {
	return atomic.LoadInt32(&f.calls)
}

func testChapter(novelID string, number int) *models.Chapter {
	return &models.Chapter{
		ID:      fmt.Sprintf("ch-%s-%d", novelID, number),
		NovelID: novelID,
		Number:  number,
		Title:   fmt.Sprintf("Chapter %d", number),
		Content: "Lorem ipsum dolor sit amet.",
	}
}

func TestGetMissReturnsNotFound(t *testing.T) {
	c := NewChapterCache(newFakeStore(), newFakeFetcher(), time.Hour)

	ch, ok := c.Get(context.Background(), "novel-1", 3)
	assert.False(t, ok)
	assert.Nil(t, ch)
}

func TestPutThenGet(t *testing.T) {
	c := NewChapterCache(newFakeStore(), newFakeFetcher(), time.Hour)
	want := testChapter("novel-1", 5)

	c.Put(context.Background(), want)

	got, ok := c.Get(context.Background(), "novel-1", 5)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestGetPromotesFromPersistentTier(t *testing.T) {
	store := newFakeStore()
	c := NewChapterCache(store, newFakeFetcher(), time.Hour)
	want := testChapter("novel-1", 2)

	require.NoError(t, store.Set(context.Background(), "chapter:novel-1:2", want, time.Hour))

	got, ok := c.Get(context.Background(), "novel-1", 2)
	require.True(t, ok)
	assert.Equal(t, want.Content, got.Content)

	// Entry is promoted to memory: the store copy is no longer needed.
	store.mu.Lock()
	delete(store.data, "chapter:novel-1:2")
	store.mu.Unlock()

	got, ok = c.Get(context.Background(), "novel-1", 2)
	require.True(t, ok)
	assert.Equal(t, want.Title, got.Title)
}

func TestPutPersistFailureStillCaches(t *testing.T) {
	store := newFakeStore()
	store.failSet = true
	c := NewChapterCache(store, newFakeFetcher(), time.Hour)
	want := testChapter("novel-1", 1)

	c.Put(context.Background(), want)

	got, ok := c.Get(context.Background(), "novel-1", 1)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestPrefetchPopulatesCache(t *testing.T) {
	fetcher := newFakeFetcher(testChapter("novel-1", 4))
	c := NewChapterCache(newFakeStore(), fetcher, time.Hour)

	c.Prefetch(context.Background(), "novel-1", 4)

	require.Eventually(t, func() bool {
		_, ok := c.Get(context.Background(), "novel-1", 4)
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, fetcher.callCount())
}

func TestPrefetchDeduplicatesConcurrentCalls(t *testing.T) {
	fetcher := newFakeFetcher(testChapter("novel-1", 7))
	fetcher.delay = 30 * time.Millisecond
	c := NewChapterCache(newFakeStore(), fetcher, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Prefetch(context.Background(), "novel-1", 7)
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool {
		_, ok := c.Get(context.Background(), "novel-1", 7)
		return ok
	}, time.Second, 5*time.Millisecond)

	assert.EqualValues(t, 1, fetcher.callCount())
}

func TestPrefetchSkipsOutOfRangeNumbers(t *testing.T) {
	fetcher := newFakeFetcher()
	c := NewChapterCache(newFakeStore(), fetcher, time.Hour)

	c.Prefetch(context.Background(), "novel-1", 0)
	c.Prefetch(context.Background(), "novel-1", -3)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, fetcher.callCount())
}

func TestPrefetchSkipsCachedChapters(t *testing.T) {
	fetcher := newFakeFetcher(testChapter("novel-1", 9))
	c := NewChapterCache(newFakeStore(), fetcher, time.Hour)

	c.Put(context.Background(), testChapter("novel-1", 9))
	c.Prefetch(context.Background(), "novel-1", 9)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, fetcher.callCount())
}

func TestPrefetchSkipsPersistentTierHits(t *testing.T) {
	store := newFakeStore()
	fetcher := newFakeFetcher(testChapter("novel-1", 6))
	c := NewChapterCache(store, fetcher, time.Hour)

	require.NoError(t, store.Set(context.Background(), "chapter:novel-1:6", testChapter("novel-1", 6), time.Hour))

	c.Prefetch(context.Background(), "novel-1", 6)

	time.Sleep(20 * time.Millisecond)
	assert.EqualValues(t, 0, fetcher.callCount())
	assert.False(t, c.IsLoading("novel-1", 6))
}

func TestPrefetchErrorLeavesCacheUnchanged(t *testing.T) {
	fetcher := newFakeFetcher() // knows no chapters
	c := NewChapterCache(newFakeStore(), fetcher, time.Hour)

	c.Prefetch(context.Background(), "novel-1", 12)

	require.Eventually(t, func() bool {
		return !c.IsLoading("novel-1", 12)
	}, time.Second, 5*time.Millisecond)

	_, ok := c.Get(context.Background(), "novel-1", 12)
	assert.False(t, ok)
	assert.EqualValues(t, 1, fetcher.callCount())
}

func TestInflightMarkerClearedAfterSettle(t *testing.T) {
	fetcher := newFakeFetcher(testChapter("novel-1", 3))
	fetcher.delay = 30 * time.Millisecond
	c := NewChapterCache(newFakeStore(), fetcher, time.Hour)

	c.Prefetch(context.Background(), "novel-1", 3)
	assert.True(t, c.IsLoading("novel-1", 3))

	require.Eventually(t, func() bool {
		return !c.IsLoading("novel-1", 3)
	}, time.Second, 5*time.Millisecond)
}

func TestClearIsScopedToNovel(t *testing.T) {
	store := newFakeStore()
	c := NewChapterCache(store, newFakeFetcher(), time.Hour)

	c.Put(context.Background(), testChapter("novel-1", 1))
	c.Put(context.Background(), testChapter("novel-1", 2))
	c.Put(context.Background(), testChapter("novel-2", 1))

	require.NoError(t, c.Clear(context.Background(), "novel-1"))

	_, ok := c.Get(context.Background(), "novel-1", 1)
	assert.False(t, ok)
	_, ok = c.Get(context.Background(), "novel-1", 2)
	assert.False(t, ok)

	got, ok := c.Get(context.Background(), "novel-2", 1)
	require.True(t, ok)
	assert.Equal(t, "novel-2", got.NovelID)
}

func TestClearAllDropsBothTiers(t *testing.T) {
	store := newFakeStore()
	c := NewChapterCache(store, newFakeFetcher(), time.Hour)

	c.Put(context.Background(), testChapter("novel-1", 1))
	c.Put(context.Background(), testChapter("novel-2", 1))

	require.NoError(t, c.ClearAll(context.Background()))

	_, ok := c.Get(context.Background(), "novel-1", 1)
	assert.False(t, ok)
	_, ok = c.Get(context.Background(), "novel-2", 1)
	assert.False(t, ok)

	store.mu.Lock()
	assert.Empty(t, store.data)
	store.mu.Unlock()
}

func TestLastWriteWins(t *testing.T) {
	c := NewChapterCache(newFakeStore(), newFakeFetcher(), time.Hour)

	first := testChapter("novel-1", 8)
	second := testChapter("novel-1", 8)
	second.Content = "Revised content."

	c.Put(context.Background(), first)
	c.Put(context.Background(), second)

	got, ok := c.Get(context.Background(), "novel-1", 8)
	require.True(t, ok)
	assert.Equal(t, "Revised content.", got.Content)
}
