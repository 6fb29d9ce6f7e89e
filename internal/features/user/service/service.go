package service

import (
	"context"
	"errors"

	apperrors "novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/features/user/models"
	"novelreader-backend/internal/features/user/repository"
)

type UserService interface {
	GetUser(ctx context.Context, id string) (*models.UserResponse, error)
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{
		repo: repo,
	}
}

func (s *userService) GetUser(ctx context.Context, id string) (*models.UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found").WithUserID(id)
		}
		return nil, apperrors.NewDatabaseError("get user", err)
	}

	return toUserResponse(user), nil
}

func toUserResponse(user *models.User) *models.UserResponse {
	return &models.UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Coins:     user.Coins,
		CreatedAt: user.CreatedAt,
	}
}
