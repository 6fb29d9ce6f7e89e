package repository

import (
	"context"
	"errors"

	"novelreader-backend/internal/features/wallet/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientCoins = errors.New("insufficient coins")
)

// WalletRepository wraps the authoritative ledger procedures in the database.
// Atomicity and idempotency live on the database side; this interface only
// carries the calls.
type WalletRepository interface {
	// Credit adds coins and returns the new balance. Idempotent per key: a
	// replayed key returns the original balance without crediting again.
	Credit(ctx context.Context, userID string, amount int64, description, idempotencyKey string) (int64, error)
	// UnlockChapter debits cost and records the unlock in one transaction.
	// Idempotent per (user, chapter).
	UnlockChapter(ctx context.Context, userID, chapterID string, cost int64) (int64, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error)
}
