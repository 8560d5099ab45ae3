package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType represents the kind of balance movement.
type TransactionType string

const (
	TransactionTypeSpend  TransactionType = "SPEND"
	TransactionTypeTopup  TransactionType = "TOPUP"
	TransactionTypeRefund TransactionType = "REFUND"
)

// WalletTransaction is one immutable, settled delta against a wallet.
// Amount is signed (negative = spend, positive = topup/refund) and
// BalanceAfter is the wallet balance immediately after applying it,
// which makes the ledger a verifiable running total.
type WalletTransaction struct {
	ID              uuid.UUID       `json:"id"`
	WalletID        uuid.UUID       `json:"wallet_id"`
	Amount          int64           `json:"amount"`
	BalanceAfter    int64           `json:"balance_after"`
	TransactionType TransactionType `json:"transaction_type"`
	ReferenceID     string          `json:"reference_id"`
	CreatedAt       time.Time       `json:"created_at"`
}
