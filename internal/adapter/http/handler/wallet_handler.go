package handler

import (
	"agentshield-ledger/internal/adapter/http/dto"
	"agentshield-ledger/internal/core/domain"
	"agentshield-ledger/internal/core/ports"
	"agentshield-ledger/pkg/apperror"
	"agentshield-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler handles the administrative wallet endpoints.
type WalletHandler struct {
	walletSvc ports.WalletAdminService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletSvc ports.WalletAdminService) *WalletHandler {
	return &WalletHandler{walletSvc: walletSvc}
}

// Create handles POST /api/v1/wallets.
func (h *WalletHandler) Create(c *gin.Context) {
	var req dto.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	ref, err := dto.ScopeRef{TenantID: req.TenantID, Scope: req.Scope, ScopeID: req.ScopeID}.ToDomain()
	if err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	wallet, err := h.walletSvc.CreateWallet(c.Request.Context(), ref, req.InitialBalance, req.Currency)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromWallet(wallet))
}

// Topup handles POST /api/v1/wallets/:tenant_id/:scope/:scope_id/topup.
func (h *WalletHandler) Topup(c *gin.Context) {
	ref, ok := refFromPath(c)
	if !ok {
		return
	}

	var req dto.TopupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	txn, err := h.walletSvc.Topup(c.Request.Context(), ref, req.Amount, req.ReferenceID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromTransaction(txn))
}

// GetBalance handles GET /api/v1/wallets/:tenant_id/:scope/:scope_id/balance.
func (h *WalletHandler) GetBalance(c *gin.Context) {
	ref, ok := refFromPath(c)
	if !ok {
		return
	}

	balance, spend, err := h.walletSvc.GetBalance(c.Request.Context(), ref)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.BalanceResponse{
		Balance:     balance,
		PeriodSpend: spend,
		Available:   balance - spend,
	})
}

// Deactivate handles DELETE /api/v1/wallets/:tenant_id/:scope/:scope_id.
func (h *WalletHandler) Deactivate(c *gin.Context) {
	ref, ok := refFromPath(c)
	if !ok {
		return
	}

	if err := h.walletSvc.Deactivate(c.Request.Context(), ref); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"status": "deactivated"})
}

// refFromPath parses the wallet identity out of the URL. On failure it
// writes the error response and returns false.
func refFromPath(c *gin.Context) (domain.WalletRef, bool) {
	tenantID, err := uuid.Parse(c.Param("tenant_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid tenant_id"))
		return domain.WalletRef{}, false
	}
	scope := domain.ScopeType(c.Param("scope"))
	if !scope.Valid() {
		response.Error(c, apperror.Validation("invalid scope"))
		return domain.WalletRef{}, false
	}
	scopeID, err := uuid.Parse(c.Param("scope_id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid scope_id"))
		return domain.WalletRef{}, false
	}
	return domain.WalletRef{TenantID: tenantID, Scope: scope, ScopeID: scopeID}, true
}
