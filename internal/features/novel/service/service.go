package service

import (
	"context"
	"errors"

	apperrors "novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/features/novel/models"
	"novelreader-backend/internal/features/novel/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type NovelService interface {
	GetNovel(ctx context.Context, id string) (*models.Novel, error)
	ListNovels(ctx context.Context, filter models.ListFilter) ([]models.Novel, error)
}

type novelService struct {
	repo repository.NovelRepository
}

func NewNovelService(repo repository.NovelRepository) NovelService {
	return &novelService{repo: repo}
}

func (s *novelService) GetNovel(ctx context.Context, id string) (*models.Novel, error) {
	novel, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNovelNotFound) {
			return nil, apperrors.NewNovelNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseError("get novel", err)
	}

	return novel, nil
}

func (s *novelService) ListNovels(ctx context.Context, filter models.ListFilter) ([]models.Novel, error) {
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	novels, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list novels", err)
	}

	return novels, nil
}
