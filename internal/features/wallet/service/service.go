package service

import (
	"context"
	"errors"

	apperrors "novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/common/logger"
	"novelreader-backend/internal/common/validation"
	"novelreader-backend/internal/features/wallet/models"
	"novelreader-backend/internal/features/wallet/repository"
)

const defaultHistoryLimit = 50

// WalletService fronts the coin ledger. It satisfies the credit surface the
// payment flow needs and the unlock surface the chapter flow needs.
type WalletService interface {
	Credit(ctx context.Context, userID string, amount int64, description, idempotencyKey string) (int64, error)
	Unlock(ctx context.Context, userID, chapterID string, cost int64) (int64, error)
	GetBalance(ctx context.Context, userID string) (*models.Balance, error)
	History(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error)
}

type walletService struct {
	repo repository.WalletRepository
}

func NewWalletService(repo repository.WalletRepository) WalletService {
	return &walletService{repo: repo}
}

func (s *walletService) Credit(ctx context.Context, userID string, amount int64, description, idempotencyKey string) (int64, error) {
	if err := validation.ValidateCoinAmount(amount); err != nil {
		return 0, apperrors.NewValidationError("amount", err.Error())
	}
	if idempotencyKey == "" {
		return 0, apperrors.NewValidationError("idempotency_key", "idempotency key is required")
	}

	balance, err := s.repo.Credit(ctx, userID, amount, description, idempotencyKey)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found").WithUserID(userID)
		}
		return 0, apperrors.NewDatabaseError("credit wallet", err)
	}

	logger.Info().
		Str("user_id", userID).
		Int64("amount", amount).
		Int64("balance", balance).
		Str("idempotency_key", idempotencyKey).
		Msg("Wallet credited")

	return balance, nil
}

func (s *walletService) Unlock(ctx context.Context, userID, chapterID string, cost int64) (int64, error) {
	if cost < 0 {
		return 0, apperrors.NewValidationError("cost", "cost cannot be negative")
	}

	balance, err := s.repo.UnlockChapter(ctx, userID, chapterID, cost)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCoins) {
			return 0, apperrors.New(apperrors.ErrCodeInsufficientCoins, "Not enough coins to unlock chapter").
				WithDetail("chapter_id", chapterID).
				WithDetail("cost", cost)
		}
		if errors.Is(err, repository.ErrUserNotFound) {
			return 0, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found").WithUserID(userID)
		}
		return 0, apperrors.NewDatabaseError("unlock chapter", err)
	}

	logger.Info().
		Str("user_id", userID).
		Str("chapter_id", chapterID).
		Int64("cost", cost).
		Int64("balance", balance).
		Msg("Chapter unlocked")

	return balance, nil
}

func (s *walletService) GetBalance(ctx context.Context, userID string) (*models.Balance, error) {
	coins, err := s.repo.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.New(apperrors.ErrCodeUserNotFound, "User not found").WithUserID(userID)
		}
		return nil, apperrors.NewDatabaseError("get balance", err)
	}

	return &models.Balance{UserID: userID, Coins: coins}, nil
}

func (s *walletService) History(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}

	entries, err := s.repo.History(ctx, userID, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get ledger history", err)
	}

	return entries, nil
}
