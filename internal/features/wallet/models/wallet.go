package models

import "time"

// Balance is the current coin balance of a user.
type Balance struct {
	UserID string `json:"user_id"`
	Coins  int64  `json:"coins"`
}

// LedgerEntry is one movement on a user's coin ledger. Amount is positive for
// credits and negative for debits.
type LedgerEntry struct {
	ID           int64     `json:"id"`
	Amount       int64     `json:"amount"`
	Description  string    `json:"description"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
