package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"agentshield-ledger/config"
	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/internal/core/ports/mocks"
	"agentshield-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type settlementTestDeps struct {
	worker     *SettlementWorker
	walletRepo *mocks.MockWalletRepository
	walRepo    *mocks.MockWALRepository
	cache      *mocks.MockSpendCache
	ctrl       *gomock.Controller
}

func setupSettlement(t *testing.T) *settlementTestDeps {
	ctrl := gomock.NewController(t)
	d := &settlementTestDeps{
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		walRepo:    mocks.NewMockWALRepository(ctrl),
		cache:      mocks.NewMockSpendCache(ctrl),
		ctrl:       ctrl,
	}
	cfg := config.BudgetConfig{
		Period:            "monthly",
		SettleInterval:    30 * time.Second,
		AbandonAfter:      15 * time.Minute,
		MaxSettleAttempts: 5,
	}
	d.worker = NewSettlementWorker(d.walletRepo, d.walRepo, d.cache, cfg, zerolog.Nop())
	d.worker.now = func() time.Time { return testNow }
	return d
}

func confirmedEntry(chain domain.ScopeChain, estimated, actual int64) domain.WALEntry {
	return domain.WALEntry{
		ID:              uuid.New(),
		TraceID:         "trace-" + uuid.NewString(),
		ScopeChain:      chain,
		EstimatedAmount: estimated,
		ActualAmount:    &actual,
		Status:          domain.WALStatusConfirmed,
		CreatedAt:       testNow.Add(-2 * time.Minute),
	}
}

func TestSettlementWorker_SettlesConfirmedEntry(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	chain := testChain()
	entry := confirmedEntry(chain, 5_000, 4_200)

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	balances := []int64{95_800, 195_800, 995_800}
	for i, ref := range chain {
		d.walletRepo.EXPECT().
			ApplyDelta(ctx, ref, int64(-4_200), entry.TraceID, domain.TransactionTypeSpend).
			Return(&domain.WalletTransaction{BalanceAfter: balances[i]}, nil)
		// Reservation held at the estimate is released, balance refreshed.
		d.cache.EXPECT().ApplySettlement(ctx, ref, testPeriod, int64(5_000), balances[i]).Return(nil)
	}
	d.walRepo.EXPECT().MarkSettled(ctx, entry.TraceID).Return(true, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Settled)
	assert.Zero(t, report.Errors)
}

func TestSettlementWorker_RerunIsIdempotent(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tenantID := uuid.New()
	ref := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID}
	entry := confirmedEntry(domain.ScopeChain{ref}, 5_000, 5_000)

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	// A crash after the delta but before MarkSettled leaves the wallet-side
	// guard in place: the rerun sees a duplicate, reads the balance back and
	// leaves the cache alone since the first pass already squared it.
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, ref, int64(-5_000), entry.TraceID, domain.TransactionTypeSpend).
		Return(nil, apperror.ErrDuplicateReference(entry.TraceID))
	d.walletRepo.EXPECT().GetByRef(ctx, ref).
		Return(&domain.Wallet{TenantID: tenantID, Scope: ref.Scope, ScopeID: ref.ScopeID, Balance: 95_000, IsActive: true}, nil)
	d.walRepo.EXPECT().MarkSettled(ctx, entry.TraceID).Return(true, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
}

func TestSettlementWorker_ConcurrentWorkerWinsMarkSettled(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tenantID := uuid.New()
	ref := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID}
	entry := confirmedEntry(domain.ScopeChain{ref}, 1_000, 1_000)

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, ref, int64(-1_000), entry.TraceID, domain.TransactionTypeSpend).
		Return(nil, apperror.ErrDuplicateReference(entry.TraceID))
	d.walletRepo.EXPECT().GetByRef(ctx, ref).
		Return(&domain.Wallet{TenantID: tenantID, Scope: ref.Scope, ScopeID: ref.ScopeID, Balance: 99_000, IsActive: true}, nil)
	d.walRepo.EXPECT().MarkSettled(ctx, entry.TraceID).Return(false, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Conflicts)
	assert.Zero(t, report.Settled)
}

func TestSettlementWorker_RetryAfterPartialApplyKeepsOtherReservations(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tenantID := uuid.New()
	user := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeUser, ScopeID: uuid.New()}
	tenant := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID}
	entry := confirmedEntry(domain.ScopeChain{user, tenant}, 4_000, 4_000)

	// First pass debits the user wallet and squares its counter, then the
	// tenant write fails and the entry stays CONFIRMED for retry.
	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, user, int64(-4_000), entry.TraceID, domain.TransactionTypeSpend).
		Return(&domain.WalletTransaction{BalanceAfter: 6_000}, nil)
	d.cache.EXPECT().ApplySettlement(ctx, user, testPeriod, int64(4_000), int64(6_000)).Return(nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, tenant, int64(-4_000), entry.TraceID, domain.TransactionTypeSpend).
		Return(nil, errors.New("connection reset"))
	d.walRepo.EXPECT().RecordAttempt(ctx, entry.TraceID, false).Return(nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)

	// The retry hits the user wallet's reference guard. Squaring its
	// counter a second time would hand back spend that other in-flight
	// charges still hold, so only the tenant wallet sees a cache write.
	retry := entry
	retry.Attempts = 1
	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{retry}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, user, int64(-4_000), retry.TraceID, domain.TransactionTypeSpend).
		Return(nil, apperror.ErrDuplicateReference(retry.TraceID))
	d.walletRepo.EXPECT().GetByRef(ctx, user).
		Return(&domain.Wallet{TenantID: tenantID, Scope: user.Scope, ScopeID: user.ScopeID, Balance: 6_000, IsActive: true}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, tenant, int64(-4_000), retry.TraceID, domain.TransactionTypeSpend).
		Return(&domain.WalletTransaction{BalanceAfter: 96_000}, nil)
	d.cache.EXPECT().ApplySettlement(ctx, tenant, testPeriod, int64(4_000), int64(96_000)).Return(nil)
	d.walRepo.EXPECT().MarkSettled(ctx, retry.TraceID).Return(true, nil)

	report, err = d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
}

func TestSettlementWorker_UnreservedEntrySettlesWithoutRelease(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tenantID := uuid.New()
	ref := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID}
	entry := confirmedEntry(domain.ScopeChain{ref}, 1_000, 900)
	entry.Unreserved = true

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, ref, int64(-900), entry.TraceID, domain.TransactionTypeSpend).
		Return(&domain.WalletTransaction{BalanceAfter: 99_100}, nil)
	// The entry never held a reservation, so the cache write installs the
	// new balance but releases nothing from the period counter.
	d.cache.EXPECT().ApplySettlement(ctx, ref, testPeriod, int64(0), int64(99_100)).Return(nil)
	d.walRepo.EXPECT().MarkSettled(ctx, entry.TraceID).Return(true, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled)
}

func TestSettlementWorker_AbandonedUnreservedSkipsRelease(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	entry := domain.WALEntry{
		ID:              uuid.New(),
		TraceID:         "trace-open-stale",
		ScopeChain:      testChain(),
		EstimatedAmount: 2_000,
		Status:          domain.WALStatusPending,
		Unreserved:      true,
		CreatedAt:       testNow.Add(-30 * time.Minute),
	}
	failed := entry
	failed.Status = domain.WALStatusFailed

	// No Release expectations: nothing was reserved for this charge.
	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walRepo.EXPECT().Fail(ctx, "trace-open-stale", gomock.Any()).Return(&failed, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reversed)
}

func TestSettlementWorker_ReversesAbandonedPending(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	chain := testChain()
	entry := domain.WALEntry{
		ID:              uuid.New(),
		TraceID:         "trace-stale",
		ScopeChain:      chain,
		EstimatedAmount: 2_000,
		Status:          domain.WALStatusPending,
		CreatedAt:       testNow.Add(-30 * time.Minute),
	}
	failed := entry
	failed.Status = domain.WALStatusFailed

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walRepo.EXPECT().Fail(ctx, "trace-stale", gomock.Any()).Return(&failed, nil)
	for _, ref := range chain {
		d.cache.EXPECT().Release(ctx, ref, testPeriod, int64(2_000)).Return(nil)
	}

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reversed)
}

func TestSettlementWorker_YoungPendingLeftAlone(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	entry := domain.WALEntry{
		ID:              uuid.New(),
		TraceID:         "trace-fresh",
		ScopeChain:      testChain(),
		EstimatedAmount: 2_000,
		Status:          domain.WALStatusPending,
		CreatedAt:       testNow.Add(-1 * time.Minute),
	}

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Zero(t, report.Reversed)
	assert.Zero(t, report.Settled)
}

func TestSettlementWorker_RetryableErrorRecordsAttempt(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tenantID := uuid.New()
	ref := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID}
	entry := confirmedEntry(domain.ScopeChain{ref}, 1_000, 1_000)
	entry.Attempts = 1

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, ref, int64(-1_000), entry.TraceID, domain.TransactionTypeSpend).
		Return(nil, errors.New("connection reset"))
	d.walRepo.EXPECT().RecordAttempt(ctx, entry.TraceID, false).Return(nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Errors)
	assert.Zero(t, report.Flagged)
}

func TestSettlementWorker_FlagsAfterMaxAttempts(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tenantID := uuid.New()
	ref := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID}
	entry := confirmedEntry(domain.ScopeChain{ref}, 1_000, 1_000)
	entry.Attempts = 4 // next failure is the fifth attempt

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, ref, int64(-1_000), entry.TraceID, domain.TransactionTypeSpend).
		Return(nil, errors.New("connection reset"))
	d.walRepo.EXPECT().RecordAttempt(ctx, entry.TraceID, true).Return(nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Flagged)
	assert.Zero(t, report.Errors)
}

func TestSettlementWorker_CacheOutageDoesNotBlockSettlement(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	tenantID := uuid.New()
	ref := domain.WalletRef{TenantID: tenantID, Scope: domain.ScopeTenant, ScopeID: tenantID}
	entry := confirmedEntry(domain.ScopeChain{ref}, 1_000, 1_000)

	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return([]domain.WALEntry{entry}, nil)
	d.walletRepo.EXPECT().
		ApplyDelta(ctx, ref, int64(-1_000), entry.TraceID, domain.TransactionTypeSpend).
		Return(&domain.WalletTransaction{BalanceAfter: 99_000}, nil)
	d.cache.EXPECT().ApplySettlement(ctx, ref, testPeriod, int64(1_000), int64(99_000)).
		Return(errors.New("connection refused"))
	d.walRepo.EXPECT().MarkSettled(ctx, entry.TraceID).Return(true, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Settled, "durable settlement proceeds, cache reseeds on next miss")
}

func TestSettlementWorker_EmptyBacklog(t *testing.T) {
	d := setupSettlement(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.walRepo.EXPECT().ListUnsettled(ctx, time.Duration(0)).Return(nil, nil)

	report, err := d.worker.RunRecoveryPass(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
}
