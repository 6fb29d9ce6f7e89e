package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewFlusherAggregatesAndFlushes(t *testing.T) {
	repo := newFakeRepo()
	f := newViewFlusher(repo, 20*time.Millisecond)
	defer f.Close()

	f.Record("ch-1")
	f.Record("ch-1")
	f.Record("ch-2")

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.views["ch-1"] == 2 && repo.views["ch-2"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestViewFlusherReschedulesOnRecord(t *testing.T) {
	repo := newFakeRepo()
	f := newViewFlusher(repo, 50*time.Millisecond)
	defer f.Close()

	f.Record("ch-1")
	time.Sleep(30 * time.Millisecond)
	f.Record("ch-1")
	time.Sleep(30 * time.Millisecond)

	// The second Record pushed the flush out; nothing written yet.
	repo.mu.Lock()
	flushed := repo.views["ch-1"]
	repo.mu.Unlock()
	assert.EqualValues(t, 0, flushed)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.views["ch-1"] == 2
	}, time.Second, 5*time.Millisecond)
}

func TestViewFlusherCloseFlushesPending(t *testing.T) {
	repo := newFakeRepo()
	f := newViewFlusher(repo, time.Hour)

	f.Record("ch-1")
	f.Record("ch-1")
	f.Close()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	assert.EqualValues(t, 2, repo.views["ch-1"])
}
