package service

import (
	"context"
	"fmt"
	"time"

	"agentshield-ledger/config"
	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/internal/core/ports"
	"agentshield-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// WalletService implements ports.WalletAdminService: provisioning, topups
// and balance inspection. These run from administrative surfaces only and
// go straight to the wallet store.
type WalletService struct {
	walletRepo ports.WalletRepository
	cache      ports.SpendCache
	cfg        config.BudgetConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewWalletService creates the wallet admin service.
func NewWalletService(walletRepo ports.WalletRepository, cache ports.SpendCache, cfg config.BudgetConfig, log zerolog.Logger) *WalletService {
	return &WalletService{
		walletRepo: walletRepo,
		cache:      cache,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// CreateWallet provisions a wallet for one scope within a tenant.
func (s *WalletService) CreateWallet(ctx context.Context, ref domain.WalletRef, initialBalance int64, currency string) (*domain.Wallet, error) {
	if !ref.Scope.Valid() {
		return nil, apperror.ErrInvalidScopeChain(fmt.Sprintf("unknown scope type %q", ref.Scope))
	}
	if initialBalance < 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if currency == "" {
		return nil, apperror.Validation("currency is required")
	}

	now := s.now().UTC()
	wallet := &domain.Wallet{
		ID:        uuid.New(),
		TenantID:  ref.TenantID,
		Scope:     ref.Scope,
		ScopeID:   ref.ScopeID,
		Balance:   initialBalance,
		Currency:  currency,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("wallet", ref.String()).
		Int64("initial_balance", initialBalance).
		Str("currency", currency).
		Msg("wallet provisioned")
	return wallet, nil
}

// Topup credits a wallet and refreshes the cached balance so the new
// funds are visible to authorization without waiting for a cache miss.
func (s *WalletService) Topup(ctx context.Context, ref domain.WalletRef, amount int64, referenceID string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if referenceID == "" {
		return nil, apperror.Validation("reference_id is required")
	}

	txn, err := s.walletRepo.ApplyDelta(ctx, ref, amount, referenceID, domain.TransactionTypeTopup)
	if err != nil {
		return nil, err
	}

	period := domain.PeriodLabel(s.cfg.Period, s.now())
	if err := s.cache.SeedBalance(ctx, ref, period, txn.BalanceAfter, 0); err != nil {
		s.log.Warn().Err(err).Str("wallet", ref.String()).Msg("cache refresh after topup failed")
	}

	s.log.Info().
		Str("wallet", ref.String()).
		Int64("amount", amount).
		Int64("balance_after", txn.BalanceAfter).
		Str("reference_id", referenceID).
		Msg("wallet topped up")
	return txn, nil
}

// Deactivate soft-deletes the wallet and zeroes its cached balance so
// in-flight authorizations deny instead of riding the stale cache entry
// until it expires.
func (s *WalletService) Deactivate(ctx context.Context, ref domain.WalletRef) error {
	if err := s.walletRepo.Deactivate(ctx, ref); err != nil {
		return err
	}
	period := domain.PeriodLabel(s.cfg.Period, s.now())
	if err := s.cache.SeedBalance(ctx, ref, period, 0, 0); err != nil {
		s.log.Warn().Err(err).Str("wallet", ref.String()).Msg("cache zeroing after deactivation failed")
	}
	s.log.Info().Str("wallet", ref.String()).Msg("wallet deactivated")
	return nil
}

// GetBalance returns the settled balance from the wallet store and the
// current hot-period spend counter. When the cache is unreachable the
// spend figure falls back to the settled transaction ledger, which lags
// by whatever is still unsettled but never invents spend.
func (s *WalletService) GetBalance(ctx context.Context, ref domain.WalletRef) (int64, int64, error) {
	wallet, err := s.walletRepo.GetByRef(ctx, ref)
	if err != nil {
		return 0, 0, apperror.InternalError(fmt.Errorf("load wallet: %w", err))
	}
	if wallet == nil {
		return 0, 0, apperror.ErrWalletNotFound(string(ref.Scope))
	}

	period := domain.PeriodLabel(s.cfg.Period, s.now())
	spend, err := s.cache.PeriodSpend(ctx, ref, period)
	if err != nil {
		s.log.Warn().Err(err).Str("wallet", ref.String()).Msg("hot spend read failed, falling back to settled ledger")
		spend, err = s.walletRepo.PeriodSpend(ctx, ref, domain.PeriodStart(s.cfg.Period, s.now()))
		if err != nil {
			s.log.Warn().Err(err).Str("wallet", ref.String()).Msg("ledger spend read failed, reporting zero")
			spend = 0
		}
	}
	return wallet.Balance, spend, nil
}
