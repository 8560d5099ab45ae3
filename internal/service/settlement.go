package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agentshield-ledger/config"
	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/internal/core/ports"
	"agentshield-ledger/internal/metrics"
	"agentshield-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// SettlementReport summarizes one recovery pass over the WAL.
type SettlementReport struct {
	Scanned   int // unsettled entries seen
	Settled   int // CONFIRMED entries applied to the wallet store
	Reversed  int // abandoned PENDING entries failed and released
	Conflicts int // entries another replica settled first
	Flagged   int // entries parked for manual review this pass
	Errors    int // entries that errored and will be retried
}

// SettlementWorker replays the WAL into the wallet store. It runs a pass
// at startup to recover from crashes, then sweeps on a fixed interval.
// Every step is idempotent, so overlapping replicas are safe.
type SettlementWorker struct {
	walletRepo ports.WalletRepository
	walRepo    ports.WALRepository
	cache      ports.SpendCache
	cfg        config.BudgetConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewSettlementWorker creates the settlement worker.
func NewSettlementWorker(
	walletRepo ports.WalletRepository,
	walRepo ports.WALRepository,
	cache ports.SpendCache,
	cfg config.BudgetConfig,
	log zerolog.Logger,
) *SettlementWorker {
	return &SettlementWorker{
		walletRepo: walletRepo,
		walRepo:    walRepo,
		cache:      cache,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// Start runs the recovery pass immediately, then sweeps every
// SettleInterval until the context is cancelled.
func (w *SettlementWorker) Start(ctx context.Context) {
	w.log.Info().
		Dur("interval", w.cfg.SettleInterval).
		Dur("abandon_after", w.cfg.AbandonAfter).
		Msg("settlement worker started")

	w.runAndLog(ctx)

	ticker := time.NewTicker(w.cfg.SettleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("settlement worker stopped")
			return
		case <-ticker.C:
			w.runAndLog(ctx)
		}
	}
}

func (w *SettlementWorker) runAndLog(ctx context.Context) {
	report, err := w.RunRecoveryPass(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("settlement pass failed")
		return
	}
	if report.Scanned > 0 {
		w.log.Info().
			Int("scanned", report.Scanned).
			Int("settled", report.Settled).
			Int("reversed", report.Reversed).
			Int("conflicts", report.Conflicts).
			Int("flagged", report.Flagged).
			Int("errors", report.Errors).
			Msg("settlement pass complete")
	}
}

// RunRecoveryPass processes every unsettled WAL entry once: CONFIRMED
// entries are applied to the wallet store, PENDING entries past the
// abandonment threshold are reversed, younger PENDING entries are left
// for their caller to confirm or fail.
func (w *SettlementWorker) RunRecoveryPass(ctx context.Context) (*SettlementReport, error) {
	entries, err := w.walRepo.ListUnsettled(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("list unsettled entries: %w", err)
	}

	report := &SettlementReport{Scanned: len(entries)}
	metrics.UnsettledEntries.Set(float64(len(entries)))

	for i := range entries {
		entry := &entries[i]
		switch entry.Status {
		case domain.WALStatusConfirmed:
			w.settleEntry(ctx, entry, report)
		case domain.WALStatusPending:
			if w.now().Sub(entry.CreatedAt) >= w.cfg.AbandonAfter {
				w.reverseEntry(ctx, entry, report)
			}
		}
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
	}
	return report, nil
}

// settleEntry applies one CONFIRMED entry to every wallet in its chain,
// squares the cache, and marks the entry SETTLED. The wallet-side
// reference guard makes the delta exactly-once per wallet even across
// crashes and concurrent replicas.
func (w *SettlementWorker) settleEntry(ctx context.Context, entry *domain.WALEntry, report *SettlementReport) {
	amount := entry.ChargeAmount()
	period := domain.PeriodLabel(w.cfg.Period, entry.CreatedAt)

	for _, ref := range entry.ScopeChain {
		newBalance, applied, err := w.applyCharge(ctx, ref, amount, entry.TraceID)
		if err != nil {
			w.recordFailure(ctx, entry, report, fmt.Errorf("apply charge to %s: %w", ref, err))
			return
		}
		if !applied {
			// An earlier pass already debited and squared this wallet.
			// Releasing the reservation again would hand back spend that
			// other in-flight charges still hold.
			continue
		}
		release := entry.EstimatedAmount
		if entry.Unreserved {
			release = 0
		}
		// The cache write releases the estimated reservation and installs
		// the post-settlement balance. Losing it is tolerable: the next
		// cold read reseeds from the store.
		if err := w.cache.ApplySettlement(ctx, ref, period, release, newBalance); err != nil {
			w.log.Warn().Err(err).
				Str("trace_id", entry.TraceID).
				Str("wallet", ref.String()).
				Msg("cache settlement write failed, will reseed on next miss")
		}
	}

	settled, err := w.walRepo.MarkSettled(ctx, entry.TraceID)
	if err != nil {
		w.recordFailure(ctx, entry, report, fmt.Errorf("mark settled: %w", err))
		return
	}
	if !settled {
		report.Conflicts++
		metrics.SettlementsTotal.WithLabelValues(metrics.ResultConflict).Inc()
		w.log.Debug().Str("trace_id", entry.TraceID).Msg("entry settled by a concurrent worker")
		return
	}

	report.Settled++
	metrics.SettlementsTotal.WithLabelValues(metrics.ResultSettled).Inc()
	w.log.Info().
		Str("trace_id", entry.TraceID).
		Int64("amount", amount).
		Msg("entry settled")
}

// applyCharge deducts the charge from one wallet and returns the new
// settled balance. A duplicate reference means an earlier pass already
// applied this wallet's share; the current balance is read back instead
// and applied is false so the caller leaves the cache alone.
func (w *SettlementWorker) applyCharge(ctx context.Context, ref domain.WalletRef, amount int64, traceID string) (int64, bool, error) {
	txn, err := w.walletRepo.ApplyDelta(ctx, ref, -amount, traceID, domain.TransactionTypeSpend)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == "BUD_003" {
			wallet, getErr := w.walletRepo.GetByRef(ctx, ref)
			if getErr != nil {
				return 0, false, fmt.Errorf("reload wallet after duplicate: %w", getErr)
			}
			if wallet == nil {
				return 0, false, fmt.Errorf("wallet %s vanished after duplicate reference", ref)
			}
			return wallet.Balance, false, nil
		}
		return 0, false, err
	}
	return txn.BalanceAfter, true, nil
}

// reverseEntry abandons a stale PENDING entry: the charge never confirmed,
// so the entry is failed and its reservations handed back.
func (w *SettlementWorker) reverseEntry(ctx context.Context, entry *domain.WALEntry, report *SettlementReport) {
	_, err := w.walRepo.Fail(ctx, entry.TraceID, "abandoned: no confirm or fail before timeout")
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == "BUD_006" {
			report.Conflicts++
			metrics.SettlementsTotal.WithLabelValues(metrics.ResultConflict).Inc()
			return
		}
		w.recordFailure(ctx, entry, report, fmt.Errorf("fail abandoned entry: %w", err))
		return
	}

	if !entry.Unreserved {
		period := domain.PeriodLabel(w.cfg.Period, entry.CreatedAt)
		for _, ref := range entry.ScopeChain {
			if err := w.cache.Release(ctx, ref, period, entry.EstimatedAmount); err != nil {
				w.log.Warn().Err(err).
					Str("trace_id", entry.TraceID).
					Str("wallet", ref.String()).
					Msg("failed to release abandoned reservation")
			}
		}
	}

	report.Reversed++
	metrics.SettlementsTotal.WithLabelValues(metrics.ResultReversed).Inc()
	w.log.Warn().
		Str("trace_id", entry.TraceID).
		Int64("estimated_amount", entry.EstimatedAmount).
		Time("created_at", entry.CreatedAt).
		Msg("abandoned entry reversed")
}

// recordFailure bumps the entry's attempt counter and parks it for manual
// review once the retry budget is spent.
func (w *SettlementWorker) recordFailure(ctx context.Context, entry *domain.WALEntry, report *SettlementReport, cause error) {
	flag := entry.Attempts+1 >= w.cfg.MaxSettleAttempts
	if err := w.walRepo.RecordAttempt(ctx, entry.TraceID, flag); err != nil {
		w.log.Error().Err(err).Str("trace_id", entry.TraceID).Msg("failed to record settlement attempt")
	}

	if flag {
		report.Flagged++
		metrics.SettlementsTotal.WithLabelValues(metrics.ResultFlagged).Inc()
		w.log.Error().Err(cause).
			Str("trace_id", entry.TraceID).
			Int("attempts", entry.Attempts+1).
			Msg("entry flagged for manual review")
		return
	}

	report.Errors++
	metrics.SettlementsTotal.WithLabelValues(metrics.ResultError).Inc()
	w.log.Error().Err(cause).
		Str("trace_id", entry.TraceID).
		Int("attempts", entry.Attempts+1).
		Msg("settlement attempt failed, will retry")
}
