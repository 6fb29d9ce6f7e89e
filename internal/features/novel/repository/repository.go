package repository

import (
	"context"
	"errors"

	"novelreader-backend/internal/features/novel/models"
)

var ErrNovelNotFound = errors.New("novel not found")

type NovelRepository interface {
	// GetByID returns a non-hidden novel.
	GetByID(ctx context.Context, id string) (*models.Novel, error)
	// List returns non-hidden novels matching the filter, newest first.
	List(ctx context.Context, filter models.ListFilter) ([]models.Novel, error)
}
