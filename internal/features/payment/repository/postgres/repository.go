package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"novelreader-backend/internal/features/payment/models"
	"novelreader-backend/internal/features/payment/repository"
)

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.PaymentRepository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreatePending(ctx context.Context, p *models.Payment) error {
	query := `
		INSERT INTO payments (order_id, user_id, total_coins, price_usd, package_id, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
	`

	_, err := r.db.ExecContext(ctx, query,
		p.OrderID, p.UserID, p.TotalCoins, p.PriceUSD, p.PackageID)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

func (r *postgresRepository) MarkCompleted(ctx context.Context, orderID string) (*models.Payment, error) {
	// Status check and flip in one statement so concurrent captures cannot
	// both pass the pending gate.
	query := `
		UPDATE payments
		SET status = 'completed', captured_at = NOW()
		WHERE order_id = $1 AND status = 'pending'
		RETURNING order_id, user_id, total_coins, price_usd, package_id, status, created_at, captured_at
	`

	var p models.Payment
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.OrderID, &p.UserID, &p.TotalCoins, &p.PriceUSD, &p.PackageID,
		&p.Status, &p.CreatedAt, &p.CapturedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrNotPending
		}
		return nil, fmt.Errorf("failed to mark payment completed: %w", err)
	}

	return &p, nil
}

func (r *postgresRepository) GetByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	query := `
		SELECT order_id, user_id, total_coins, price_usd, package_id, status, created_at, captured_at
		FROM payments
		WHERE order_id = $1
	`

	var p models.Payment
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.OrderID, &p.UserID, &p.TotalCoins, &p.PriceUSD, &p.PackageID,
		&p.Status, &p.CreatedAt, &p.CapturedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	return &p, nil
}

func (r *postgresRepository) GetPackage(ctx context.Context, packageID string) (*models.CoinPackage, error) {
	query := `
		SELECT id, coins, bonus, price_usd
		FROM coin_packages
		WHERE id = $1 AND active = TRUE
	`

	var pkg models.CoinPackage
	err := r.db.QueryRowContext(ctx, query, packageID).Scan(
		&pkg.ID, &pkg.Coins, &pkg.Bonus, &pkg.PriceUSD)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, repository.ErrPackageNotFound
		}
		return nil, fmt.Errorf("failed to get package: %w", err)
	}

	return &pkg, nil
}

func (r *postgresRepository) ListPackages(ctx context.Context) ([]models.CoinPackage, error) {
	query := `
		SELECT id, coins, bonus, price_usd
		FROM coin_packages
		WHERE active = TRUE
		ORDER BY sort_order
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list packages: %w", err)
	}
	defer rows.Close()

	var packages []models.CoinPackage
	for rows.Next() {
		var pkg models.CoinPackage
		if err := rows.Scan(&pkg.ID, &pkg.Coins, &pkg.Bonus, &pkg.PriceUSD); err != nil {
			return nil, fmt.Errorf("failed to scan package: %w", err)
		}
		packages = append(packages, pkg)
	}

	return packages, rows.Err()
}
