package repository

import (
	"context"
	"errors"

	"novelreader-backend/internal/features/payment/models"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrNotPending is returned when the guarded pending→completed flip finds
	// no pending record, which is how duplicate captures are rejected.
	ErrNotPending = errors.New("payment is not pending")
	ErrPackageNotFound = errors.New("coin package not found")
)

type PaymentRepository interface {
	// CreatePending records a new order in pending state.
	CreatePending(ctx context.Context, p *models.Payment) error
	// MarkCompleted flips the order pending→completed and returns the updated
	// record. Returns ErrNotPending when the order is absent or already
	// completed; the flip and the status check are a single statement.
	MarkCompleted(ctx context.Context, orderID string) (*models.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error)

	// GetPackage returns an active coin package.
	GetPackage(ctx context.Context, packageID string) (*models.CoinPackage, error)
	ListPackages(ctx context.Context) ([]models.CoinPackage, error)
}
