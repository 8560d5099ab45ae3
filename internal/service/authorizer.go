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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WaterfallAuthorizer implements ports.BudgetAuthorizer. A request is
// checked against every wallet in its scope chain, most specific first;
// all checks must pass and every reservation is durably recorded in the
// WAL before the caller sees ALLOW.
type WaterfallAuthorizer struct {
	walletRepo ports.WalletRepository
	walRepo    ports.WALRepository
	cache      ports.SpendCache
	velocity   ports.VelocityLimiter
	receipts   ports.ReceiptEmitter
	cfg        config.BudgetConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewWaterfallAuthorizer creates the waterfall authorizer.
func NewWaterfallAuthorizer(
	walletRepo ports.WalletRepository,
	walRepo ports.WALRepository,
	cache ports.SpendCache,
	velocity ports.VelocityLimiter,
	receipts ports.ReceiptEmitter,
	cfg config.BudgetConfig,
	log zerolog.Logger,
) *WaterfallAuthorizer {
	return &WaterfallAuthorizer{
		walletRepo: walletRepo,
		walRepo:    walRepo,
		cache:      cache,
		velocity:   velocity,
		receipts:   receipts,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// Authorize runs the waterfall check and, on success, writes a PENDING
// WAL entry before returning ALLOW. A deny names the first exhausted
// scope; partial reservations are rolled back before the deny returns.
func (s *WaterfallAuthorizer) Authorize(ctx context.Context, req ports.AuthorizeRequest) (*domain.Decision, error) {
	if req.Amount < 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if req.TraceID == "" {
		return nil, apperror.Validation("trace_id is required")
	}
	if err := req.Chain.Validate(); err != nil {
		return nil, apperror.ErrInvalidScopeChain(err.Error())
	}

	// Replay: only ALLOW decisions are persisted, so a known trace id
	// means the request was already authorized.
	existing, err := s.walRepo.GetByTraceID(ctx, req.TraceID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("wal lookup: %w", err))
	}
	if existing != nil {
		if existing.IsTerminal() {
			// The stored id points at a finished charge; replaying an ALLOW
			// for it would hand the caller an entry nothing can confirm.
			return nil, apperror.ErrEntryStateConflict(req.TraceID, string(existing.Status))
		}
		s.log.Debug().Str("trace_id", req.TraceID).Msg("replayed authorize for known trace")
		return domain.NewAllow(req.TraceID, existing.ID), nil
	}

	if s.cfg.VelocityRPM > 0 {
		if err := s.checkVelocity(ctx, req.Chain); err != nil {
			return nil, err
		}
	}

	period := domain.PeriodLabel(s.cfg.Period, s.now())

	reserved := make([]domain.WalletRef, 0, len(req.Chain))
	for _, ref := range req.Chain {
		res, err := s.reserveWithSeed(ctx, ref, period, req.Amount)
		if err != nil {
			s.releaseAll(ctx, reserved, period, req.Amount)
			if decision, ok := s.failOpen(ctx, req, err); ok {
				return decision, nil
			}
			return nil, err
		}
		if res.Status == ports.ReserveDenied {
			s.releaseAll(ctx, reserved, period, req.Amount)
			metrics.AuthorizationsTotal.WithLabelValues("deny", string(ref.Scope)).Inc()
			s.log.Info().
				Str("trace_id", req.TraceID).
				Str("scope", string(ref.Scope)).
				Int64("shortfall", res.Shortfall).
				Msg("authorization denied")
			return domain.NewDeny(req.TraceID, ref.Scope, res.Shortfall), nil
		}
		reserved = append(reserved, ref)
	}

	decision, err := s.recordAllow(ctx, req, reserved, period)
	if err != nil {
		s.releaseAll(ctx, reserved, period, req.Amount)
		return nil, err
	}
	return decision, nil
}

// recordAllow durably writes the PENDING WAL entry. A duplicate trace id
// here means a concurrent call won the race; its entry is authoritative
// and this call's reservations are handed back.
func (s *WaterfallAuthorizer) recordAllow(ctx context.Context, req ports.AuthorizeRequest, reserved []domain.WalletRef, period string) (*domain.Decision, error) {
	now := s.now().UTC()
	entry := &domain.WALEntry{
		ID:              uuid.New(),
		TraceID:         req.TraceID,
		ScopeChain:      req.Chain,
		EstimatedAmount: req.Amount,
		Status:          domain.WALStatusPending,
		Unreserved:      len(reserved) == 0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.walRepo.Record(ctx, entry); err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == "BUD_003" {
			winner, getErr := s.walRepo.GetByTraceID(ctx, req.TraceID)
			if getErr != nil || winner == nil {
				return nil, apperror.InternalError(fmt.Errorf("wal lookup after duplicate: %w", getErr))
			}
			s.releaseAll(ctx, reserved, period, req.Amount)
			return domain.NewAllow(req.TraceID, winner.ID), nil
		}
		return nil, apperror.InternalError(fmt.Errorf("wal record: %w", err))
	}

	metrics.AuthorizationsTotal.WithLabelValues("allow", "").Inc()
	s.log.Info().
		Str("trace_id", req.TraceID).
		Str("wal_entry_id", entry.ID.String()).
		Int64("amount", req.Amount).
		Msg("authorization allowed")
	return domain.NewAllow(req.TraceID, entry.ID), nil
}

// reserveWithSeed reserves against one wallet, seeding the cache from the
// wallet store on a cold miss and retrying once.
func (s *WaterfallAuthorizer) reserveWithSeed(ctx context.Context, ref domain.WalletRef, period string, amount int64) (*ports.ReserveResult, error) {
	res, err := s.cache.Reserve(ctx, ref, period, amount)
	if err != nil {
		return nil, apperror.ErrCacheUnavailable(err)
	}
	if res.Status != ports.ReserveUnseeded {
		return res, nil
	}

	if err := s.seedWallet(ctx, ref, period); err != nil {
		return nil, err
	}

	res, err = s.cache.Reserve(ctx, ref, period, amount)
	if err != nil {
		return nil, apperror.ErrCacheUnavailable(err)
	}
	if res.Status == ports.ReserveUnseeded {
		return nil, apperror.InternalError(fmt.Errorf("wallet %s still unseeded after seeding", ref))
	}
	return res, nil
}

// seedWallet installs the settled balance plus the spend already reserved
// by unsettled WAL entries touching this wallet. The unsettled sum keeps a
// rebuilt counter conservative: a charge can never slip through twice just
// because the cache was wiped between authorize and settle.
func (s *WaterfallAuthorizer) seedWallet(ctx context.Context, ref domain.WalletRef, period string) error {
	wallet, err := s.walletRepo.GetByRef(ctx, ref)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("load wallet %s: %w", ref, err))
	}
	if wallet == nil {
		s.log.Error().Str("wallet", ref.String()).Msg("scope chain references unprovisioned wallet")
		return apperror.ErrWalletNotFound(string(ref.Scope))
	}
	if !wallet.IsActive {
		return apperror.ErrWalletInactive(string(ref.Scope))
	}

	outstanding, err := s.outstandingReservations(ctx, ref)
	if err != nil {
		return err
	}

	if err := s.cache.SeedBalance(ctx, ref, period, wallet.Balance, outstanding); err != nil {
		return apperror.ErrCacheUnavailable(err)
	}
	s.log.Debug().
		Str("wallet", ref.String()).
		Int64("balance", wallet.Balance).
		Int64("outstanding", outstanding).
		Msg("seeded spend cache from wallet store")
	return nil
}

// outstandingReservations sums the charge amounts of unsettled WAL entries
// whose scope chain includes the wallet.
func (s *WaterfallAuthorizer) outstandingReservations(ctx context.Context, ref domain.WalletRef) (int64, error) {
	entries, err := s.walRepo.ListUnsettled(ctx, 0)
	if err != nil {
		return 0, apperror.InternalError(fmt.Errorf("list unsettled: %w", err))
	}
	var total int64
	for i := range entries {
		for _, chainRef := range entries[i].ScopeChain {
			if chainRef == ref {
				total += entries[i].ChargeAmount()
				break
			}
		}
	}
	return total, nil
}

// failOpen decides whether a cache outage may be waved through. Only
// cache-unavailable faults qualify, and only for amounts at or under the
// configured limit; everything else stays fail-closed. A fail-open allow
// still writes the durable WAL entry, so the charge settles normally and
// the next seeded rebuild accounts for it.
func (s *WaterfallAuthorizer) failOpen(ctx context.Context, req ports.AuthorizeRequest, cause error) (*domain.Decision, bool) {
	var appErr *apperror.AppError
	if !errors.As(cause, &appErr) || appErr.Code != "SYS_001" {
		return nil, false
	}
	metrics.CacheFailures.Inc()
	if s.cfg.FailOpenLimit <= 0 || req.Amount > s.cfg.FailOpenLimit {
		s.log.Error().Err(cause).Str("trace_id", req.TraceID).Msg("spend cache unavailable, failing closed")
		return nil, false
	}

	decision, err := s.recordAllow(ctx, req, nil, "")
	if err != nil {
		s.log.Error().Err(err).Str("trace_id", req.TraceID).Msg("fail-open allow aborted, wal record failed")
		return nil, false
	}
	s.log.Warn().
		Str("trace_id", req.TraceID).
		Int64("amount", req.Amount).
		Int64("fail_open_limit", s.cfg.FailOpenLimit).
		Msg("spend cache unavailable, small request allowed without reservation")
	return decision, true
}

// checkVelocity enforces the per-user request rate ahead of any budget
// work. Limiter outages do not block authorization.
func (s *WaterfallAuthorizer) checkVelocity(ctx context.Context, chain domain.ScopeChain) error {
	userID, ok := chain.UserID()
	if !ok {
		return nil
	}
	allowed, err := s.velocity.Allow(ctx, userID, s.cfg.VelocityRPM)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID.String()).Msg("velocity check unavailable, skipping")
		return nil
	}
	if !allowed {
		return apperror.ErrVelocityExceeded()
	}
	return nil
}

// releaseAll undoes partial reservations, widest last so the chain unwinds
// in reverse. Failures are logged and left for the settlement sweep; a
// stranded reservation is conservative, never a leak of spend.
func (s *WaterfallAuthorizer) releaseAll(ctx context.Context, refs []domain.WalletRef, period string, amount int64) {
	for i := len(refs) - 1; i >= 0; i-- {
		if err := s.cache.Release(ctx, refs[i], period, amount); err != nil {
			s.log.Warn().Err(err).Str("wallet", refs[i].String()).Msg("failed to roll back reservation")
		}
	}
}

// Confirm records the actual execution cost against a PENDING entry and
// hands the confirmed charge to the receipt emitter. The reservation stays
// in the cache at the estimated amount until settlement squares it.
func (s *WaterfallAuthorizer) Confirm(ctx context.Context, traceID string, actualAmount int64) error {
	if actualAmount < 0 {
		return apperror.ErrInvalidAmount()
	}

	entry, err := s.walRepo.Confirm(ctx, traceID, actualAmount)
	if err != nil {
		return err
	}

	receipt := domain.Receipt{
		TraceID:      entry.TraceID,
		ActualAmount: actualAmount,
		ScopeChain:   entry.ScopeChain,
		ConfirmedAt:  entry.UpdatedAt,
	}
	if err := s.receipts.Emit(ctx, receipt); err != nil {
		// Receipts are downstream of the ledger; a failed emit never
		// unwinds a confirmed charge.
		s.log.Error().Err(err).Str("trace_id", traceID).Msg("receipt emission failed")
	}

	s.log.Info().
		Str("trace_id", traceID).
		Int64("actual_amount", actualAmount).
		Msg("charge confirmed")
	return nil
}

// Fail voids a PENDING entry and releases its reservations immediately, so
// failed executions never consume budget until the next settlement pass.
func (s *WaterfallAuthorizer) Fail(ctx context.Context, traceID string, reason string) error {
	entry, err := s.walRepo.Fail(ctx, traceID, reason)
	if err != nil {
		return err
	}

	if !entry.Unreserved {
		period := domain.PeriodLabel(s.cfg.Period, entry.CreatedAt)
		s.releaseAll(ctx, entry.ScopeChain, period, entry.EstimatedAmount)
	}

	s.log.Info().
		Str("trace_id", traceID).
		Str("reason", reason).
		Msg("charge failed, reservations released")
	return nil
}
