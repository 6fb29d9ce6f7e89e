package service

import (
	"context"
	"errors"
	"time"

	apperrors "novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/common/validation"
	"novelreader-backend/internal/features/chapter/cache"
	"novelreader-backend/internal/features/chapter/models"
	"novelreader-backend/internal/features/chapter/repository"
)

// WalletService is the slice of the coin ledger the chapter flow consumes.
type WalletService interface {
	Unlock(ctx context.Context, userID, chapterID string, cost int64) (int64, error)
}

type ChapterService interface {
	// GetChapter serves a chapter read for the given user (empty userID means
	// anonymous). Locked chapters come back without content unless unlocked.
	GetChapter(ctx context.Context, userID, novelID string, number int) (*models.ChapterResponse, error)
	ListChapters(ctx context.Context, novelID string) ([]models.ChapterSummary, error)
	UnlockChapter(ctx context.Context, userID, novelID string, number int) (*models.UnlockResponse, error)
	// LeaveNovel tears down the novel's reading context.
	LeaveNovel(ctx context.Context, novelID string) error
	// PurgeCache drops every cached chapter. Admin maintenance.
	PurgeCache(ctx context.Context) error
	// Close flushes pending view counts.
	Close()
}

// Delays before the speculative neighbor fetches so the primary response is
// never starved by them. Previous chapter first, next second.
const (
	prefetchPrevDelay = 100 * time.Millisecond
	prefetchNextDelay = 250 * time.Millisecond
)

type chapterService struct {
	repo   repository.ChapterRepository
	cache  *cache.ChapterCache
	wallet WalletService
	views  *viewFlusher
}

func NewChapterService(repo repository.ChapterRepository, chapterCache *cache.ChapterCache, wallet WalletService) ChapterService {
	return &chapterService{
		repo:   repo,
		cache:  chapterCache,
		wallet: wallet,
		views:  newViewFlusher(repo, viewFlushDelay),
	}
}

func (s *chapterService) GetChapter(ctx context.Context, userID, novelID string, number int) (*models.ChapterResponse, error) {
	if err := validation.ValidateChapterNumber(number); err != nil {
		return nil, apperrors.NewValidationError("number", err.Error())
	}

	ch, ok := s.cache.Get(ctx, novelID, number)
	if !ok {
		var err error
		ch, err = s.repo.GetByNumber(ctx, novelID, number)
		if err != nil {
			if errors.Is(err, repository.ErrChapterNotFound) {
				return nil, apperrors.NewChapterNotFoundError(novelID, number)
			}
			return nil, apperrors.NewDatabaseError("get chapter", err)
		}
		s.cache.Put(ctx, ch)
	}

	s.views.Record(ch.ID)
	s.scheduleNeighborPrefetch(ctx, novelID, number)

	unlocked := !ch.Locked
	if ch.Locked && userID != "" {
		isUnlocked, err := s.repo.IsUnlocked(ctx, userID, ch.ID)
		if err != nil {
			return nil, apperrors.NewDatabaseError("check unlock", err)
		}
		unlocked = isUnlocked
	}

	resp := &models.ChapterResponse{
		ID:       ch.ID,
		NovelID:  ch.NovelID,
		Number:   ch.Number,
		Title:    ch.Title,
		Locked:   ch.Locked,
		Unlocked: unlocked,
		Price:    ch.Price,
		Views:    ch.Views,
	}
	if unlocked {
		resp.Content = ch.Content
	}

	return resp, nil
}

func (s *chapterService) scheduleNeighborPrefetch(ctx context.Context, novelID string, number int) {
	bgCtx := context.WithoutCancel(ctx)

	time.AfterFunc(prefetchPrevDelay, func() {
		s.cache.Prefetch(bgCtx, novelID, number-1)
	})
	time.AfterFunc(prefetchNextDelay, func() {
		s.cache.Prefetch(bgCtx, novelID, number+1)
	})
}

func (s *chapterService) ListChapters(ctx context.Context, novelID string) ([]models.ChapterSummary, error) {
	chapters, err := s.repo.ListByNovel(ctx, novelID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list chapters", err)
	}
	return chapters, nil
}

func (s *chapterService) UnlockChapter(ctx context.Context, userID, novelID string, number int) (*models.UnlockResponse, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("unlock requires an authenticated user")
	}
	if err := validation.ValidateChapterNumber(number); err != nil {
		return nil, apperrors.NewValidationError("number", err.Error())
	}

	ch, err := s.repo.GetByNumber(ctx, novelID, number)
	if err != nil {
		if errors.Is(err, repository.ErrChapterNotFound) {
			return nil, apperrors.NewChapterNotFoundError(novelID, number)
		}
		return nil, apperrors.NewDatabaseError("get chapter", err)
	}

	if !ch.Locked {
		return nil, apperrors.New(apperrors.ErrCodeBadRequest, "Chapter is not locked")
	}

	newBalance, err := s.wallet.Unlock(ctx, userID, ch.ID, ch.Price)
	if err != nil {
		return nil, err
	}

	return &models.UnlockResponse{
		ChapterID:  ch.ID,
		Cost:       ch.Price,
		NewBalance: newBalance,
	}, nil
}

func (s *chapterService) LeaveNovel(ctx context.Context, novelID string) error {
	if err := s.cache.Clear(ctx, novelID); err != nil {
		return apperrors.NewCacheError("clear novel cache", err)
	}
	return nil
}

func (s *chapterService) PurgeCache(ctx context.Context) error {
	if err := s.cache.ClearAll(ctx); err != nil {
		return apperrors.NewCacheError("purge chapter cache", err)
	}
	return nil
}

func (s *chapterService) Close() {
	s.views.Close()
}
