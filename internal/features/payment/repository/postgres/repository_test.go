package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"novelreader-backend/internal/features/payment/models"
	"novelreader-backend/internal/features/payment/repository"
)

func TestMarkCompletedFlipsPendingRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)
	captured := time.Now()

	rows := sqlmock.NewRows([]string{
		"order_id", "user_id", "total_coins", "price_usd", "package_id", "status", "created_at", "captured_at",
	}).AddRow("ORDER-1", "user-1", int64(110), 2.00, "basic", "completed", captured.Add(-time.Minute), captured)

	mock.ExpectQuery(`UPDATE payments`).
		WithArgs("ORDER-1").
		WillReturnRows(rows)

	p, err := repo.MarkCompleted(context.Background(), "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.Status)
	assert.EqualValues(t, 110, p.TotalCoins)
	require.NotNil(t, p.CapturedAt)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkCompletedRejectsNonPendingOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	// The guarded update matches no row when the order is absent or already
	// completed.
	mock.ExpectQuery(`UPDATE payments`).
		WithArgs("ORDER-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"order_id", "user_id", "total_coins", "price_usd", "package_id", "status", "created_at", "captured_at",
		}))

	_, err = repo.MarkCompleted(context.Background(), "ORDER-1")
	assert.ErrorIs(t, err, repository.ErrNotPending)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePendingInsertsRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec(`INSERT INTO payments`).
		WithArgs("ORDER-1", "user-1", int64(110), 2.00, "basic").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.CreatePending(context.Background(), &models.Payment{
		OrderID:    "ORDER-1",
		UserID:     "user-1",
		TotalCoins: 110,
		PriceUSD:   2.00,
		PackageID:  "basic",
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
