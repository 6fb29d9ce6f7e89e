package service

import (
	"context"
	"errors"
	"fmt"

	"novelreader-backend/internal/common/config"
	apperrors "novelreader-backend/internal/common/errors"
	"novelreader-backend/internal/common/logger"
	"novelreader-backend/internal/features/payment/models"
	"novelreader-backend/internal/features/payment/repository"
	"novelreader-backend/internal/platform/paypal"
)

// PayPalClient is the external payment processor surface the handshake
// consumes.
type PayPalClient interface {
	Configured() bool
	CreateOrder(ctx context.Context, amountUSD float64, description, returnURL, cancelURL string) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResult, error)
}

// WalletService is the authoritative coin ledger surface.
type WalletService interface {
	Credit(ctx context.Context, userID string, amount int64, description, idempotencyKey string) (int64, error)
}

type PaymentService interface {
	ListPackages(ctx context.Context) ([]models.CoinPackage, error)
	// CreateOrder starts the checkout handshake: external order first, local
	// pending record second. Fails closed when the processor is not configured.
	CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.CreateOrderResponse, error)
	// CaptureOrder completes the handshake after the buyer returns from the
	// approval page. Coins are credited exactly once per order.
	CaptureOrder(ctx context.Context, userID, orderID string) (*models.CaptureResponse, error)
}

type paymentService struct {
	repo   repository.PaymentRepository
	pp     PayPalClient
	wallet WalletService

	returnURL string
	cancelURL string
}

func NewPaymentService(repo repository.PaymentRepository, pp PayPalClient, wallet WalletService, cfg *config.Config) PaymentService {
	return &paymentService{
		repo:      repo,
		pp:        pp,
		wallet:    wallet,
		returnURL: cfg.PayPal.ReturnURL,
		cancelURL: cfg.PayPal.CancelURL,
	}
}

func (s *paymentService) ListPackages(ctx context.Context) ([]models.CoinPackage, error) {
	packages, err := s.repo.ListPackages(ctx)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list packages", err)
	}
	return packages, nil
}

func (s *paymentService) CreateOrder(ctx context.Context, userID string, req models.CreateOrderRequest) (*models.CreateOrderResponse, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("checkout requires an authenticated user")
	}

	if !s.pp.Configured() {
		return nil, apperrors.New(apperrors.ErrCodePaymentNotConfigured, "Payment processor is not configured")
	}

	pkg, err := s.repo.GetPackage(ctx, req.PackageID)
	if err != nil {
		if errors.Is(err, repository.ErrPackageNotFound) {
			return nil, apperrors.NewNotFoundError("coin package", req.PackageID)
		}
		return nil, apperrors.NewDatabaseError("get package", err)
	}

	totalCoins := pkg.Coins + pkg.Bonus
	description := fmt.Sprintf("%d coins (%d + %d bonus)", totalCoins, pkg.Coins, pkg.Bonus)

	order, err := s.pp.CreateOrder(ctx, pkg.PriceUSD, description, s.returnURL, s.cancelURL)
	if err != nil {
		return nil, apperrors.NewPayPalAPIError("create order", err)
	}

	payment := &models.Payment{
		OrderID:    order.OrderID,
		UserID:     userID,
		TotalCoins: totalCoins,
		PriceUSD:   pkg.PriceUSD,
		PackageID:  pkg.ID,
		Status:     models.StatusPending,
	}

	if err := s.repo.CreatePending(ctx, payment); err != nil {
		// The external order now exists without a local record. It is never
		// credited (capture requires a pending record) but stays unreconciled
		// on the processor side.
		logger.Error().
			Err(err).
			Str("order_id", order.OrderID).
			Str("user_id", userID).
			Msg("External order created but local record failed")
		return nil, apperrors.NewDatabaseError("create payment record", err)
	}

	logger.Info().
		Str("order_id", order.OrderID).
		Str("user_id", userID).
		Str("package_id", pkg.ID).
		Int64("total_coins", totalCoins).
		Msg("Payment order created")

	return &models.CreateOrderResponse{
		OrderID:     order.OrderID,
		ApprovalURL: order.ApprovalURL,
	}, nil
}

func (s *paymentService) CaptureOrder(ctx context.Context, userID, orderID string) (*models.CaptureResponse, error) {
	if userID == "" {
		return nil, apperrors.NewUnauthorizedError("capture requires an authenticated user")
	}
	if orderID == "" {
		return nil, apperrors.NewValidationError("order_id", "order id is required")
	}

	if !s.pp.Configured() {
		return nil, apperrors.New(apperrors.ErrCodePaymentNotConfigured, "Payment processor is not configured")
	}

	existing, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return nil, apperrors.New(apperrors.ErrCodePaymentNotFound, "Unknown payment order").
				WithDetail("order_id", orderID)
		}
		return nil, apperrors.NewDatabaseError("get payment", err)
	}
	if existing.UserID != userID {
		return nil, apperrors.NewForbiddenError("order belongs to a different user")
	}

	capture, err := s.pp.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.NewPayPalAPIError("capture order", err)
	}

	if capture.Status != paypal.StatusCompleted {
		// Anything but a fully completed capture releases no coins and leaves
		// the local record pending.
		return nil, apperrors.New(apperrors.ErrCodeCaptureDeclined,
			fmt.Sprintf("Capture not completed: %s", capture.Status)).
			WithDetail("order_id", orderID).
			WithDetail("status", capture.Status)
	}

	payment, err := s.repo.MarkCompleted(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotPending) {
			// Replay or duplicate capture: refuse to credit again.
			return nil, apperrors.New(apperrors.ErrCodePaymentNotPending, "Payment already processed").
				WithDetail("order_id", orderID)
		}
		return nil, apperrors.NewDatabaseError("mark payment completed", err)
	}

	// Idempotency key equals the order id, so a retried credit for the same
	// order can never double-credit.
	newBalance, err := s.wallet.Credit(ctx, payment.UserID, payment.TotalCoins,
		fmt.Sprintf("coin purchase %s", payment.PackageID), orderID)
	if err != nil {
		// The record is completed but coins were not granted. Surfaced, not
		// retried here; the ledger call is safe to resend with the same key.
		logger.Error().
			Err(err).
			Str("order_id", orderID).
			Str("user_id", payment.UserID).
			Int64("total_coins", payment.TotalCoins).
			Msg("Capture completed but ledger credit failed")
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCreditFailed, "Capture succeeded but coin credit failed").
			WithDetail("order_id", orderID)
	}

	logger.Info().
		Str("order_id", orderID).
		Str("user_id", payment.UserID).
		Int64("coins", payment.TotalCoins).
		Msg("Payment captured and credited")

	return &models.CaptureResponse{
		OrderID:    orderID,
		Coins:      payment.TotalCoins,
		NewBalance: newBalance,
	}, nil
}
