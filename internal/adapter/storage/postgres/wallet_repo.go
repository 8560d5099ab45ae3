package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// WalletRepo implements ports.WalletRepository over the wallets and
// wallet_transactions tables.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet. One wallet per scope per tenant; a second
// insert for the same scope fails the unique constraint.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, tenant_id, scope_type, scope_id, balance, currency, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		w.ID, w.TenantID, w.Scope, w.ScopeID,
		w.Balance, w.Currency, w.IsActive, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperror.ErrWalletExists()
		}
		return apperror.ErrDatabaseError(fmt.Errorf("insert wallet: %w", err))
	}
	return nil
}

// GetByRef fetches a wallet by scope identity. Returns nil, nil when absent.
func (r *WalletRepo) GetByRef(ctx context.Context, ref domain.WalletRef) (*domain.Wallet, error) {
	query := `SELECT id, tenant_id, scope_type, scope_id, balance, currency, is_active, created_at, updated_at
		FROM wallets WHERE tenant_id = $1 AND scope_type = $2 AND scope_id = $3`

	w := &domain.Wallet{}
	err := r.pool.QueryRow(ctx, query, ref.TenantID, ref.Scope, ref.ScopeID).Scan(
		&w.ID, &w.TenantID, &w.Scope, &w.ScopeID,
		&w.Balance, &w.Currency, &w.IsActive, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet by ref: %w", err))
	}
	return w, nil
}

// ApplyDelta applies one signed delta under a row lock and appends the
// matching ledger row, all in one database transaction. The unique
// (wallet_id, reference_id) constraint is the double-settlement guard: a
// repeated referenceID returns apperror.ErrDuplicateReference and leaves
// the balance untouched.
func (r *WalletRepo) ApplyDelta(ctx context.Context, ref domain.WalletRef, delta int64, referenceID string, txType domain.TransactionType) (*domain.WalletTransaction, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin apply delta: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	lockQuery := `SELECT id, balance FROM wallets
		WHERE tenant_id = $1 AND scope_type = $2 AND scope_id = $3 FOR UPDATE`

	var walletID uuid.UUID
	var balance int64
	err = tx.QueryRow(ctx, lockQuery, ref.TenantID, ref.Scope, ref.ScopeID).Scan(&walletID, &balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.ErrWalletNotFound(ref.String())
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock wallet: %w", err))
	}

	now := time.Now().UTC()
	txn := &domain.WalletTransaction{
		ID:              uuid.New(),
		WalletID:        walletID,
		Amount:          delta,
		BalanceAfter:    balance + delta,
		TransactionType: txType,
		ReferenceID:     referenceID,
		CreatedAt:       now,
	}

	insertQuery := `INSERT INTO wallet_transactions (id, wallet_id, amount, balance_after, transaction_type, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = tx.Exec(ctx, insertQuery,
		txn.ID, txn.WalletID, txn.Amount, txn.BalanceAfter,
		txn.TransactionType, txn.ReferenceID, txn.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return nil, apperror.ErrDuplicateReference(referenceID)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("insert wallet transaction: %w", err))
	}

	updateQuery := `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`
	if _, err := tx.Exec(ctx, updateQuery, txn.BalanceAfter, now, walletID); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("update wallet balance: %w", err))
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit apply delta: %w", err))
	}
	return txn, nil
}

// PeriodSpend sums settled spend (negative deltas, as positive spend) for
// a wallet since periodStart.
func (r *WalletRepo) PeriodSpend(ctx context.Context, ref domain.WalletRef, periodStart time.Time) (int64, error) {
	query := `SELECT COALESCE(-SUM(wt.amount), 0)
		FROM wallet_transactions wt
		JOIN wallets w ON w.id = wt.wallet_id
		WHERE w.tenant_id = $1 AND w.scope_type = $2 AND w.scope_id = $3
		AND wt.amount < 0 AND wt.created_at >= $4`

	var spend int64
	err := r.pool.QueryRow(ctx, query, ref.TenantID, ref.Scope, ref.ScopeID, periodStart).Scan(&spend)
	if err != nil {
		return 0, apperror.ErrDatabaseError(fmt.Errorf("sum period spend: %w", err))
	}
	return spend, nil
}

// Deactivate soft-deletes a wallet. Rows are never physically removed
// while ledger entries reference them.
func (r *WalletRepo) Deactivate(ctx context.Context, ref domain.WalletRef) error {
	query := `UPDATE wallets SET is_active = FALSE, updated_at = NOW()
		WHERE tenant_id = $1 AND scope_type = $2 AND scope_id = $3`

	tag, err := r.pool.Exec(ctx, query, ref.TenantID, ref.Scope, ref.ScopeID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("deactivate wallet: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrWalletNotFound(ref.String())
	}
	return nil
}
