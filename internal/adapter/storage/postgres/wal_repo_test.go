package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEntry(status domain.WALStatus) *domain.WALEntry {
	now := time.Now().UTC().Truncate(time.Microsecond)
	tenantID := uuid.New()
	return &domain.WALEntry{
		ID:      uuid.New(),
		TraceID: "trace-" + uuid.NewString(),
		ScopeChain: domain.ScopeChain{
			{TenantID: tenantID, Scope: domain.ScopeUser, ScopeID: uuid.New()},
			{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID},
		},
		EstimatedAmount: 3_000_000,
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func walColumnNames() []string {
	return []string{"id", "trace_id", "scope_chain", "estimated_amount", "actual_amount", "status", "reason", "attempts", "review_flagged", "unreserved", "created_at", "updated_at"}
}

func walRow(t *testing.T, e *domain.WALEntry) *pgxmock.Rows {
	t.Helper()
	chainJSON, err := json.Marshal(e.ScopeChain)
	require.NoError(t, err)
	return pgxmock.NewRows(walColumnNames()).AddRow(
		e.ID, e.TraceID, chainJSON, e.EstimatedAmount, e.ActualAmount,
		e.Status, e.Reason, e.Attempts, e.ReviewFlagged, e.Unreserved, e.CreatedAt, e.UpdatedAt,
	)
}

func TestWALRepo_Record(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)
	e := newTestEntry(domain.WALStatusPending)

	mock.ExpectExec("INSERT INTO wal_entries").
		WithArgs(e.ID, e.TraceID, pgxmock.AnyArg(), e.EstimatedAmount, e.ActualAmount,
			e.Status, e.Reason, e.Attempts, e.ReviewFlagged, e.Unreserved, e.CreatedAt, e.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = repo.Record(context.Background(), e)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_Record_DuplicateTrace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)
	e := newTestEntry(domain.WALStatusPending)

	mock.ExpectExec("INSERT INTO wal_entries").
		WithArgs(e.ID, e.TraceID, pgxmock.AnyArg(), e.EstimatedAmount, e.ActualAmount,
			e.Status, e.Reason, e.Attempts, e.ReviewFlagged, e.Unreserved, e.CreatedAt, e.UpdatedAt).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = repo.Record(context.Background(), e)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BUD_003", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_GetByTraceID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)
	e := newTestEntry(domain.WALStatusPending)

	mock.ExpectQuery("SELECT .+ FROM wal_entries WHERE trace_id").
		WithArgs(e.TraceID).
		WillReturnRows(walRow(t, e))

	got, err := repo.GetByTraceID(context.Background(), e.TraceID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, e.ScopeChain, got.ScopeChain)
	assert.Equal(t, domain.WALStatusPending, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_GetByTraceID_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)

	mock.ExpectQuery("SELECT .+ FROM wal_entries WHERE trace_id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(walColumnNames()))

	got, err := repo.GetByTraceID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got, "missing entry should return nil, nil")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_Confirm(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)
	e := newTestEntry(domain.WALStatusConfirmed)
	actual := int64(2_750_000)
	e.ActualAmount = &actual

	mock.ExpectQuery("UPDATE wal_entries SET status").
		WithArgs(domain.WALStatusConfirmed, actual, e.TraceID, domain.WALStatusPending).
		WillReturnRows(walRow(t, e))

	got, err := repo.Confirm(context.Background(), e.TraceID, actual)
	require.NoError(t, err)
	require.NotNil(t, got.ActualAmount)
	assert.Equal(t, actual, *got.ActualAmount)
	assert.Equal(t, domain.WALStatusConfirmed, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_Confirm_AlreadyConfirmed(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)
	e := newTestEntry(domain.WALStatusConfirmed)

	// Conditional update matches nothing, repo re-reads to classify.
	mock.ExpectQuery("UPDATE wal_entries SET status").
		WithArgs(domain.WALStatusConfirmed, int64(100), e.TraceID, domain.WALStatusPending).
		WillReturnRows(pgxmock.NewRows(walColumnNames()))
	mock.ExpectQuery("SELECT .+ FROM wal_entries WHERE trace_id").
		WithArgs(e.TraceID).
		WillReturnRows(walRow(t, e))

	_, err = repo.Confirm(context.Background(), e.TraceID, 100)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BUD_006", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_Confirm_NotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)

	mock.ExpectQuery("UPDATE wal_entries SET status").
		WithArgs(domain.WALStatusConfirmed, int64(100), "missing", domain.WALStatusPending).
		WillReturnRows(pgxmock.NewRows(walColumnNames()))
	mock.ExpectQuery("SELECT .+ FROM wal_entries WHERE trace_id").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(walColumnNames()))

	_, err = repo.Confirm(context.Background(), "missing", 100)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BUD_005", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_Fail(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)
	e := newTestEntry(domain.WALStatusFailed)
	reason := "provider timeout"
	e.Reason = &reason

	mock.ExpectQuery("UPDATE wal_entries SET status").
		WithArgs(domain.WALStatusFailed, reason, e.TraceID, domain.WALStatusPending).
		WillReturnRows(walRow(t, e))

	got, err := repo.Fail(context.Background(), e.TraceID, reason)
	require.NoError(t, err)
	assert.Equal(t, domain.WALStatusFailed, got.Status)
	require.NotNil(t, got.Reason)
	assert.Equal(t, reason, *got.Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_MarkSettled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)

	mock.ExpectExec("UPDATE wal_entries SET status").
		WithArgs(domain.WALStatusSettled, "trace-1", domain.WALStatusConfirmed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	ok, err := repo.MarkSettled(context.Background(), "trace-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_MarkSettled_ConcurrentWorkerWon(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)

	mock.ExpectExec("UPDATE wal_entries SET status").
		WithArgs(domain.WALStatusSettled, "trace-1", domain.WALStatusConfirmed).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := repo.MarkSettled(context.Background(), "trace-1")
	require.NoError(t, err)
	assert.False(t, ok, "losing the settle race should report false, not error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_ListUnsettled(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)
	pending := newTestEntry(domain.WALStatusPending)
	confirmed := newTestEntry(domain.WALStatusConfirmed)

	rows := walRow(t, pending)
	chainJSON, err := json.Marshal(confirmed.ScopeChain)
	require.NoError(t, err)
	rows.AddRow(
		confirmed.ID, confirmed.TraceID, chainJSON, confirmed.EstimatedAmount, confirmed.ActualAmount,
		confirmed.Status, confirmed.Reason, confirmed.Attempts, confirmed.ReviewFlagged,
		confirmed.Unreserved, confirmed.CreatedAt, confirmed.UpdatedAt,
	)

	mock.ExpectQuery("SELECT .+ FROM wal_entries").
		WithArgs(domain.WALStatusPending, domain.WALStatusConfirmed, pgxmock.AnyArg()).
		WillReturnRows(rows)

	entries, err := repo.ListUnsettled(context.Background(), 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, pending.TraceID, entries[0].TraceID)
	assert.Equal(t, confirmed.TraceID, entries[1].TraceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWALRepo_RecordAttempt(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewWALRepo(mock)

	mock.ExpectExec("UPDATE wal_entries SET attempts").
		WithArgs(true, "trace-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err = repo.RecordAttempt(context.Background(), "trace-1", true)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
