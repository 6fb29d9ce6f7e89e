package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelreader-backend/internal/features/chapter/cache"
	"novelreader-backend/internal/features/chapter/models"
	"novelreader-backend/internal/features/chapter/repository"
)

type mapStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string]string)}
}

func (s *mapStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return errors.New("key not found")
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (s *mapStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = string(raw)
	return nil
}

func (s *mapStore) DeletePattern(_ context.Context, pattern string) error {
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

func (s *mapStore) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

type fakeRepo struct {
	mu       sync.Mutex
	chapters map[string]*models.Chapter
	unlocks  map[string]bool
	views    map[string]int64
	getCalls int
}

func newFakeRepo(chapters ...*models.Chapter) *fakeRepo {
	r := &fakeRepo{
		chapters: make(map[string]*models.Chapter),
		unlocks:  make(map[string]bool),
		views:    make(map[string]int64),
	}
	for _, ch := range chapters {
		r.chapters[fmt.Sprintf("%s:%d", ch.NovelID, ch.Number)] = ch
	}
	return r
}

func (r *fakeRepo) GetByNumber(_ context.Context, novelID string, number int) (*models.Chapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	ch, ok := r.chapters[fmt.Sprintf("%s:%d", novelID, number)]
	if !ok {
		return nil, repository.ErrChapterNotFound
	}
	return ch, nil
}

func (r *fakeRepo) ListByNovel(_ context.Context, novelID string) ([]models.ChapterSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChapterSummary
	for _, ch := range r.chapters {
		if ch.NovelID == novelID {
			out = append(out, models.ChapterSummary{ID: ch.ID, Number: ch.Number, Title: ch.Title})
		}
	}
	return out, nil
}

func (r *fakeRepo) AddViews(_ context.Context, chapterID string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views[chapterID] += delta
	return nil
}

func (r *fakeRepo) IsUnlocked(_ context.Context, userID, chapterID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unlocks[userID+":"+chapterID], nil
}

func (r *fakeRepo) getCallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getCalls
}

type fakeWallet struct {
	mu      sync.Mutex
	calls   []string
	balance int64
	err     error
}

func (w *fakeWallet) Unlock(_ context.Context, userID, chapterID string, cost int64) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return 0, w.err
	}
	w.calls = append(w.calls, fmt.Sprintf("%s:%s:%d", userID, chapterID, cost))
	w.balance -= cost
	return w.balance, nil
}

func chapterFixture(novelID string, number int, locked bool) *models.Chapter {
	return &models.Chapter{
		ID:      fmt.Sprintf("ch-%s-%d", novelID, number),
		NovelID: novelID,
		Number:  number,
		Title:   fmt.Sprintf("Chapter %d", number),
		Content: "Body text.",
		Locked:  locked,
		Price:   50,
	}
}

func newTestService(repo *fakeRepo, wallet *fakeWallet) ChapterService {
	c := cache.NewChapterCache(newMapStore(), repo, time.Hour)
	return NewChapterService(repo, c, wallet)
}

func TestGetChapterFetchesOnMissAndCaches(t *testing.T) {
	repo := newFakeRepo(
		chapterFixture("novel-1", 4, false),
		chapterFixture("novel-1", 5, false),
		chapterFixture("novel-1", 6, false),
	)
	svc := newTestService(repo, &fakeWallet{})
	defer svc.Close()

	resp, err := svc.GetChapter(context.Background(), "", "novel-1", 5)
	require.NoError(t, err)
	assert.Equal(t, "Body text.", resp.Content)
	assert.True(t, resp.Unlocked)

	// Primary fetch plus the two neighbor prefetches.
	require.Eventually(t, func() bool {
		return repo.getCallCount() == 3
	}, 2*time.Second, 10*time.Millisecond)

	resp, err = svc.GetChapter(context.Background(), "", "novel-1", 5)
	require.NoError(t, err)
	assert.Equal(t, "Body text.", resp.Content)

	// Everything is cached now; the second read and its neighbor prefetches
	// touch nothing.
	time.Sleep(2 * prefetchNextDelay)
	assert.Equal(t, 3, repo.getCallCount())
}

func TestGetChapterNotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeWallet{})
	defer svc.Close()

	_, err := svc.GetChapter(context.Background(), "", "novel-1", 99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CHAPTER_NOT_FOUND")
}

func TestGetChapterInvalidNumber(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeWallet{})
	defer svc.Close()

	_, err := svc.GetChapter(context.Background(), "", "novel-1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALIDATION_ERROR")
}

func TestGetChapterSchedulesNeighborPrefetch(t *testing.T) {
	repo := newFakeRepo(
		chapterFixture("novel-1", 4, false),
		chapterFixture("novel-1", 5, false),
		chapterFixture("novel-1", 6, false),
	)
	store := newMapStore()
	c := cache.NewChapterCache(store, repo, time.Hour)
	svc := NewChapterService(repo, c, &fakeWallet{})
	defer svc.Close()

	_, err := svc.GetChapter(context.Background(), "", "novel-1", 5)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, prevOK := c.Get(context.Background(), "novel-1", 4)
		_, nextOK := c.Get(context.Background(), "novel-1", 6)
		return prevOK && nextOK
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetChapterLockedHidesContent(t *testing.T) {
	repo := newFakeRepo(chapterFixture("novel-1", 3, true))
	svc := newTestService(repo, &fakeWallet{})
	defer svc.Close()

	resp, err := svc.GetChapter(context.Background(), "user-1", "novel-1", 3)
	require.NoError(t, err)
	assert.True(t, resp.Locked)
	assert.False(t, resp.Unlocked)
	assert.Empty(t, resp.Content)
	assert.EqualValues(t, 50, resp.Price)
}

func TestGetChapterAnonymousReadsFreeButNotLocked(t *testing.T) {
	repo := newFakeRepo(chapterFixture("novel-1", 2, false), chapterFixture("novel-1", 3, true))
	svc := newTestService(repo, &fakeWallet{})
	defer svc.Close()

	free, err := svc.GetChapter(context.Background(), "", "novel-1", 2)
	require.NoError(t, err)
	assert.True(t, free.Unlocked)
	assert.Equal(t, "Body text.", free.Content)

	locked, err := svc.GetChapter(context.Background(), "", "novel-1", 3)
	require.NoError(t, err)
	assert.False(t, locked.Unlocked)
	assert.Empty(t, locked.Content)
}

func TestGetChapterLockedWithUnlockShowsContent(t *testing.T) {
	ch := chapterFixture("novel-1", 3, true)
	repo := newFakeRepo(ch)
	repo.unlocks["user-1:"+ch.ID] = true
	svc := newTestService(repo, &fakeWallet{})
	defer svc.Close()

	resp, err := svc.GetChapter(context.Background(), "user-1", "novel-1", 3)
	require.NoError(t, err)
	assert.True(t, resp.Unlocked)
	assert.Equal(t, "Body text.", resp.Content)
}

func TestUnlockChapterDebitsWallet(t *testing.T) {
	ch := chapterFixture("novel-1", 3, true)
	repo := newFakeRepo(ch)
	wallet := &fakeWallet{balance: 200}
	svc := newTestService(repo, wallet)
	defer svc.Close()

	resp, err := svc.UnlockChapter(context.Background(), "user-1", "novel-1", 3)
	require.NoError(t, err)
	assert.Equal(t, ch.ID, resp.ChapterID)
	assert.EqualValues(t, 50, resp.Cost)
	assert.EqualValues(t, 150, resp.NewBalance)
	require.Len(t, wallet.calls, 1)
	assert.Equal(t, "user-1:"+ch.ID+":50", wallet.calls[0])
}

func TestUnlockChapterRequiresAuth(t *testing.T) {
	svc := newTestService(newFakeRepo(chapterFixture("novel-1", 3, true)), &fakeWallet{})
	defer svc.Close()

	_, err := svc.UnlockChapter(context.Background(), "", "novel-1", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNAUTHORIZED")
}

func TestUnlockChapterNotLocked(t *testing.T) {
	svc := newTestService(newFakeRepo(chapterFixture("novel-1", 3, false)), &fakeWallet{})
	defer svc.Close()

	_, err := svc.UnlockChapter(context.Background(), "user-1", "novel-1", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAD_REQUEST")
}

func TestLeaveNovelClearsCache(t *testing.T) {
	repo := newFakeRepo(chapterFixture("novel-1", 1, false))
	store := newMapStore()
	c := cache.NewChapterCache(store, repo, time.Hour)
	svc := NewChapterService(repo, c, &fakeWallet{})
	defer svc.Close()

	_, err := svc.GetChapter(context.Background(), "", "novel-1", 1)
	require.NoError(t, err)

	_, ok := c.Get(context.Background(), "novel-1", 1)
	require.True(t, ok)

	require.NoError(t, svc.LeaveNovel(context.Background(), "novel-1"))

	_, ok = c.Get(context.Background(), "novel-1", 1)
	assert.False(t, ok)
}
