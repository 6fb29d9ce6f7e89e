package repository

import (
	"context"
	"errors"

	"novelreader-backend/internal/features/chapter/models"
)

var ErrChapterNotFound = errors.New("chapter not found")

// ChapterRepository is the remote content store for chapters.
type ChapterRepository interface {
	// GetByNumber returns the non-hidden chapter at (novelID, number).
	GetByNumber(ctx context.Context, novelID string, number int) (*models.Chapter, error)
	// ListByNovel returns non-hidden chapter summaries ordered by number.
	ListByNovel(ctx context.Context, novelID string) ([]models.ChapterSummary, error)
	// AddViews adds delta to the chapter's view counter.
	AddViews(ctx context.Context, chapterID string, delta int64) error
	// IsUnlocked reports whether the user holds an unlock for the chapter.
	IsUnlocked(ctx context.Context, userID, chapterID string) (bool, error)
}
