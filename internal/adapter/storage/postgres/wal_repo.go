package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/pkg/apperror"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const walColumns = `id, trace_id, scope_chain, estimated_amount, actual_amount, status, reason, attempts, review_flagged, unreserved, created_at, updated_at`

// WALRepo implements ports.WALRepository over the wal_entries table.
type WALRepo struct {
	pool Pool
}

// NewWALRepo creates a new WALRepo.
func NewWALRepo(pool Pool) *WALRepo {
	return &WALRepo{pool: pool}
}

// Record inserts a new PENDING entry. The insert is the durability point:
// once it returns, the charge survives a process crash. A duplicate trace
// id returns apperror.ErrDuplicateReference so the caller can fall back to
// the stored entry.
func (r *WALRepo) Record(ctx context.Context, entry *domain.WALEntry) error {
	chainJSON, err := json.Marshal(entry.ScopeChain)
	if err != nil {
		return fmt.Errorf("marshal scope chain: %w", err)
	}

	query := `INSERT INTO wal_entries (` + walColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = r.pool.Exec(ctx, query,
		entry.ID, entry.TraceID, chainJSON, entry.EstimatedAmount, entry.ActualAmount,
		entry.Status, entry.Reason, entry.Attempts, entry.ReviewFlagged, entry.Unreserved,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return apperror.ErrDuplicateReference(entry.TraceID)
		}
		return apperror.ErrDatabaseError(fmt.Errorf("insert wal entry: %w", err))
	}
	return nil
}

// GetByTraceID fetches an entry by trace id. Returns nil, nil when absent.
func (r *WALRepo) GetByTraceID(ctx context.Context, traceID string) (*domain.WALEntry, error) {
	query := `SELECT ` + walColumns + ` FROM wal_entries WHERE trace_id = $1`
	entry, err := scanWALEntry(r.pool.QueryRow(ctx, query, traceID))
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Confirm moves PENDING -> CONFIRMED and records the actual execution cost.
func (r *WALRepo) Confirm(ctx context.Context, traceID string, actualAmount int64) (*domain.WALEntry, error) {
	query := `UPDATE wal_entries SET status = $1, actual_amount = $2, updated_at = NOW()
		WHERE trace_id = $3 AND status = $4
		RETURNING ` + walColumns

	entry, err := scanWALEntry(r.pool.QueryRow(ctx, query,
		domain.WALStatusConfirmed, actualAmount, traceID, domain.WALStatusPending))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, r.transitionConflict(ctx, traceID)
	}
	return entry, nil
}

// Fail moves PENDING -> FAILED with a reason; the caller releases the
// cache reservation.
func (r *WALRepo) Fail(ctx context.Context, traceID string, reason string) (*domain.WALEntry, error) {
	query := `UPDATE wal_entries SET status = $1, reason = $2, updated_at = NOW()
		WHERE trace_id = $3 AND status = $4
		RETURNING ` + walColumns

	entry, err := scanWALEntry(r.pool.QueryRow(ctx, query,
		domain.WALStatusFailed, reason, traceID, domain.WALStatusPending))
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, r.transitionConflict(ctx, traceID)
	}
	return entry, nil
}

// MarkSettled moves CONFIRMED -> SETTLED. A false return means another
// worker settled the entry first; the caller skips it.
func (r *WALRepo) MarkSettled(ctx context.Context, traceID string) (bool, error) {
	query := `UPDATE wal_entries SET status = $1, updated_at = NOW()
		WHERE trace_id = $2 AND status = $3`

	tag, err := r.pool.Exec(ctx, query, domain.WALStatusSettled, traceID, domain.WALStatusConfirmed)
	if err != nil {
		return false, apperror.ErrDatabaseError(fmt.Errorf("mark wal entry settled: %w", err))
	}
	return tag.RowsAffected() == 1, nil
}

// ListUnsettled returns PENDING and CONFIRMED entries created before
// now-olderThan, oldest first, excluding entries parked for review.
func (r *WALRepo) ListUnsettled(ctx context.Context, olderThan time.Duration) ([]domain.WALEntry, error) {
	cutoff := time.Now().UTC().Add(-olderThan)
	query := `SELECT ` + walColumns + ` FROM wal_entries
		WHERE status IN ($1, $2) AND review_flagged = FALSE AND created_at <= $3
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, domain.WALStatusPending, domain.WALStatusConfirmed, cutoff)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list unsettled wal entries: %w", err))
	}
	defer rows.Close()

	var entries []domain.WALEntry
	for rows.Next() {
		entry, err := scanWALEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("iterate wal entries: %w", err))
	}
	return entries, nil
}

// RecordAttempt bumps the settlement attempt counter; flagForReview parks
// the entry so sweeps skip it until an operator intervenes.
func (r *WALRepo) RecordAttempt(ctx context.Context, traceID string, flagForReview bool) error {
	query := `UPDATE wal_entries SET attempts = attempts + 1, review_flagged = review_flagged OR $1, updated_at = NOW()
		WHERE trace_id = $2`

	tag, err := r.pool.Exec(ctx, query, flagForReview, traceID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("record settlement attempt: %w", err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.ErrEntryNotFound(traceID)
	}
	return nil
}

// transitionConflict distinguishes a missing entry from one already past
// the expected state.
func (r *WALRepo) transitionConflict(ctx context.Context, traceID string) error {
	existing, err := r.GetByTraceID(ctx, traceID)
	if err != nil {
		return err
	}
	if existing == nil {
		return apperror.ErrEntryNotFound(traceID)
	}
	return apperror.ErrEntryStateConflict(traceID, string(existing.Status))
}

// scanWALEntry scans one row into a WALEntry, decoding the scope chain.
// Returns nil, nil on pgx.ErrNoRows.
func scanWALEntry(row pgx.Row) (*domain.WALEntry, error) {
	entry := &domain.WALEntry{}
	var chainJSON []byte
	err := row.Scan(
		&entry.ID, &entry.TraceID, &chainJSON, &entry.EstimatedAmount, &entry.ActualAmount,
		&entry.Status, &entry.Reason, &entry.Attempts, &entry.ReviewFlagged, &entry.Unreserved,
		&entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("scan wal entry: %w", err))
	}
	if err := json.Unmarshal(chainJSON, &entry.ScopeChain); err != nil {
		return nil, fmt.Errorf("decode scope chain: %w", err)
	}
	return entry, nil
}
