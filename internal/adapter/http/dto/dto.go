// Package dto defines the JSON request/response shapes of the HTTP API.
package dto

import (
	"fmt"
	"time"

	"agentshield-ledger/internal/core/domain"

	"github.com/google/uuid"
)

// ScopeRef identifies one wallet in a request body.
type ScopeRef struct {
	TenantID string `json:"tenant_id" binding:"required,uuid"`
	Scope    string `json:"scope" binding:"required,oneof=user department tenant"`
	ScopeID  string `json:"scope_id" binding:"required,uuid"`
}

// ToDomain converts the DTO into a domain.WalletRef.
func (r ScopeRef) ToDomain() (domain.WalletRef, error) {
	tenantID, err := uuid.Parse(r.TenantID)
	if err != nil {
		return domain.WalletRef{}, fmt.Errorf("invalid tenant_id: %w", err)
	}
	scopeID, err := uuid.Parse(r.ScopeID)
	if err != nil {
		return domain.WalletRef{}, fmt.Errorf("invalid scope_id: %w", err)
	}
	return domain.WalletRef{
		TenantID: tenantID,
		Scope:    domain.ScopeType(r.Scope),
		ScopeID:  scopeID,
	}, nil
}

// ChainToDomain converts an ordered list of scope refs.
func ChainToDomain(refs []ScopeRef) (domain.ScopeChain, error) {
	chain := make(domain.ScopeChain, 0, len(refs))
	for i, r := range refs {
		ref, err := r.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("scope_chain[%d]: %w", i, err)
		}
		chain = append(chain, ref)
	}
	return chain, nil
}

// AuthorizeRequest is the body of POST /authorize.
type AuthorizeRequest struct {
	ScopeChain      []ScopeRef `json:"scope_chain" binding:"required,min=1,dive"`
	EstimatedAmount int64      `json:"estimated_amount" binding:"min=0"`
	TraceID         string     `json:"trace_id" binding:"required"`
}

// DecisionResponse mirrors domain.Decision on the wire.
type DecisionResponse struct {
	Outcome     string `json:"outcome"`
	WALEntryID  string `json:"wal_entry_id,omitempty"`
	TraceID     string `json:"trace_id"`
	FailedScope string `json:"failed_scope,omitempty"`
	Shortfall   int64  `json:"shortfall,omitempty"`
}

// FromDecision converts a domain decision.
func FromDecision(d *domain.Decision) DecisionResponse {
	resp := DecisionResponse{
		Outcome:     string(d.Outcome),
		TraceID:     d.TraceID,
		FailedScope: string(d.FailedScope),
		Shortfall:   d.Shortfall,
	}
	if d.WALEntryID != uuid.Nil {
		resp.WALEntryID = d.WALEntryID.String()
	}
	return resp
}

// ConfirmRequest is the body of POST /charges/:trace_id/confirm.
// ActualAmount is a pointer so zero-cost executions bind explicitly.
type ConfirmRequest struct {
	ActualAmount *int64 `json:"actual_amount" binding:"required"`
}

// FailRequest is the body of POST /charges/:trace_id/fail.
type FailRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// WALEntryResponse renders one write-ahead ledger entry.
type WALEntryResponse struct {
	ID              string     `json:"id"`
	TraceID         string     `json:"trace_id"`
	ScopeChain      []ScopeRef `json:"scope_chain"`
	EstimatedAmount int64      `json:"estimated_amount"`
	ActualAmount    *int64     `json:"actual_amount,omitempty"`
	Status          string     `json:"status"`
	Reason          *string    `json:"reason,omitempty"`
	Attempts        int        `json:"attempts"`
	ReviewFlagged   bool       `json:"review_flagged"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
}

// FromWALEntry converts a domain WAL entry.
func FromWALEntry(e *domain.WALEntry) WALEntryResponse {
	chain := make([]ScopeRef, 0, len(e.ScopeChain))
	for _, ref := range e.ScopeChain {
		chain = append(chain, ScopeRef{
			TenantID: ref.TenantID.String(),
			Scope:    string(ref.Scope),
			ScopeID:  ref.ScopeID.String(),
		})
	}
	return WALEntryResponse{
		ID:              e.ID.String(),
		TraceID:         e.TraceID,
		ScopeChain:      chain,
		EstimatedAmount: e.EstimatedAmount,
		ActualAmount:    e.ActualAmount,
		Status:          string(e.Status),
		Reason:          e.Reason,
		Attempts:        e.Attempts,
		ReviewFlagged:   e.ReviewFlagged,
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateWalletRequest is the body of POST /wallets.
type CreateWalletRequest struct {
	TenantID       string `json:"tenant_id" binding:"required,uuid"`
	Scope          string `json:"scope" binding:"required,oneof=user department tenant"`
	ScopeID        string `json:"scope_id" binding:"required,uuid"`
	InitialBalance int64  `json:"initial_balance" binding:"min=0"`
	Currency       string `json:"currency" binding:"required,len=3"`
}

// TopupRequest is the body of POST /wallets/topup.
type TopupRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	ReferenceID string `json:"reference_id" binding:"required"`
}

// WalletResponse renders a wallet.
type WalletResponse struct {
	ID        string `json:"id"`
	TenantID  string `json:"tenant_id"`
	Scope     string `json:"scope"`
	ScopeID   string `json:"scope_id"`
	Balance   int64  `json:"balance"`
	Currency  string `json:"currency"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

// FromWallet converts a domain wallet.
func FromWallet(w *domain.Wallet) WalletResponse {
	return WalletResponse{
		ID:        w.ID.String(),
		TenantID:  w.TenantID.String(),
		Scope:     string(w.Scope),
		ScopeID:   w.ScopeID.String(),
		Balance:   w.Balance,
		Currency:  w.Currency,
		IsActive:  w.IsActive,
		CreatedAt: w.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// TransactionResponse renders one ledger row.
type TransactionResponse struct {
	ID              string `json:"id"`
	WalletID        string `json:"wallet_id"`
	Amount          int64  `json:"amount"`
	BalanceAfter    int64  `json:"balance_after"`
	TransactionType string `json:"transaction_type"`
	ReferenceID     string `json:"reference_id"`
	CreatedAt       string `json:"created_at"`
}

// FromTransaction converts a domain wallet transaction.
func FromTransaction(t *domain.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:              t.ID.String(),
		WalletID:        t.WalletID.String(),
		Amount:          t.Amount,
		BalanceAfter:    t.BalanceAfter,
		TransactionType: string(t.TransactionType),
		ReferenceID:     t.ReferenceID,
		CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// BalanceResponse renders the durable balance alongside hot-period spend.
type BalanceResponse struct {
	Balance     int64 `json:"balance"`
	PeriodSpend int64 `json:"period_spend"`
	Available   int64 `json:"available"`
}
