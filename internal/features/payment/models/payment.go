package models

import "time"

// PaymentStatus only moves forward, from pending to completed.
type PaymentStatus string

const (
	StatusPending   PaymentStatus = "pending"
	StatusCompleted PaymentStatus = "completed"
)

// Payment is the local record of an external checkout order. Written once at
// creation, flipped once at capture, never deleted.
type Payment struct {
	OrderID    string        `json:"order_id"`
	UserID     string        `json:"user_id"`
	TotalCoins int64         `json:"total_coins"`
	PriceUSD   float64       `json:"price_usd"`
	PackageID  string        `json:"package_id"`
	Status     PaymentStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	CapturedAt *time.Time    `json:"captured_at,omitempty"`
}

// CoinPackage is a purchasable coin bundle.
type CoinPackage struct {
	ID       string  `json:"id"`
	Coins    int64   `json:"coins"`
	Bonus    int64   `json:"bonus"`
	PriceUSD float64 `json:"price_usd"`
}

// CreateOrderRequest starts a checkout for a coin package.
type CreateOrderRequest struct {
	PackageID string `json:"package_id" binding:"required"`
}

// CreateOrderResponse carries the approval redirect target.
type CreateOrderResponse struct {
	OrderID     string `json:"order_id"`
	ApprovalURL string `json:"approval_url"`
}

// CaptureResponse reports a credited capture.
type CaptureResponse struct {
	OrderID    string `json:"order_id"`
	Coins      int64  `json:"coins"`
	NewBalance int64  `json:"new_balance"`
}
