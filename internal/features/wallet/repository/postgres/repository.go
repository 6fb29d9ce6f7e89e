package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"novelreader-backend/internal/features/wallet/models"
	"novelreader-backend/internal/features/wallet/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.WalletRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Credit(ctx context.Context, userID string, amount int64, description, idempotencyKey string) (int64, error) {
	query := `SELECT wallet_credit($1, $2, $3, $4)`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, userID, amount, description, idempotencyKey).Scan(&balance)
	if err != nil {
		if strings.Contains(err.Error(), "user not found") {
			return 0, repository.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}

	return balance, nil
}

func (r *postgresRepository) UnlockChapter(ctx context.Context, userID, chapterID string, cost int64) (int64, error) {
	query := `SELECT wallet_unlock_chapter($1, $2, $3)`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, userID, chapterID, cost).Scan(&balance)
	if err != nil {
		if strings.Contains(err.Error(), "insufficient coins") {
			return 0, repository.ErrInsufficientCoins
		}
		if strings.Contains(err.Error(), "user not found") {
			return 0, repository.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to unlock chapter: %w", err)
	}

	return balance, nil
}

func (r *postgresRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	query := `SELECT coins FROM users WHERE id = $1`

	var balance int64
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, repository.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	return balance, nil
}

func (r *postgresRepository) History(ctx context.Context, userID string, limit int) ([]models.LedgerEntry, error) {
	query := `
		SELECT id, amount, description, balance_after, created_at
		FROM ledger_entries
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger history: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.Amount, &e.Description, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
