package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelreader-backend/internal/features/wallet/repository"
)

func TestCreditCallsLedgerFunction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT wallet_credit`).
		WithArgs("user-1", int64(110), "coin purchase basic", "ORDER-1").
		WillReturnRows(sqlmock.NewRows([]string{"wallet_credit"}).AddRow(int64(110)))

	balance, err := repo.Credit(context.Background(), "user-1", 110, "coin purchase basic", "ORDER-1")
	require.NoError(t, err)
	assert.EqualValues(t, 110, balance)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnlockChapterMapsInsufficientCoins(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT wallet_unlock_chapter`).
		WithArgs("user-1", "ch-1", int64(50)).
		WillReturnError(errors.New("pq: insufficient coins"))

	_, err = repo.UnlockChapter(context.Background(), "user-1", "ch-1", 50)
	assert.ErrorIs(t, err, repository.ErrInsufficientCoins)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBalanceUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(`SELECT coins FROM users`).
		WithArgs("user-404").
		WillReturnRows(sqlmock.NewRows([]string{"coins"}))

	_, err = repo.GetBalance(context.Background(), "user-404")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
