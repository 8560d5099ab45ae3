package handler

import (
	"agentshield-ledger/internal/adapter/http/dto"
	"agentshield-ledger/internal/core/ports"
	"agentshield-ledger/pkg/apperror"
	"agentshield-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// BudgetHandler handles the authorize / confirm / fail lifecycle.
type BudgetHandler struct {
	authorizer ports.BudgetAuthorizer
	walRepo    ports.WALRepository
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(authorizer ports.BudgetAuthorizer, walRepo ports.WALRepository) *BudgetHandler {
	return &BudgetHandler{authorizer: authorizer, walRepo: walRepo}
}

// Authorize handles POST /api/v1/budget/authorize.
func (h *BudgetHandler) Authorize(c *gin.Context) {
	var req dto.AuthorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	chain, err := dto.ChainToDomain(req.ScopeChain)
	if err != nil {
		response.Error(c, apperror.ErrInvalidScopeChain(err.Error()))
		return
	}

	decision, err := h.authorizer.Authorize(c.Request.Context(), ports.AuthorizeRequest{
		Chain:   chain,
		Amount:  req.EstimatedAmount,
		TraceID: req.TraceID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromDecision(decision))
}

// Confirm handles POST /api/v1/budget/charges/:trace_id/confirm.
func (h *BudgetHandler) Confirm(c *gin.Context) {
	traceID := c.Param("trace_id")

	var req dto.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.authorizer.Confirm(c.Request.Context(), traceID, *req.ActualAmount); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"trace_id": traceID, "status": "CONFIRMED"})
}

// Fail handles POST /api/v1/budget/charges/:trace_id/fail.
func (h *BudgetHandler) Fail(c *gin.Context) {
	traceID := c.Param("trace_id")

	var req dto.FailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.authorizer.Fail(c.Request.Context(), traceID, req.Reason); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"trace_id": traceID, "status": "FAILED"})
}

// GetCharge handles GET /api/v1/budget/charges/:trace_id.
func (h *BudgetHandler) GetCharge(c *gin.Context) {
	traceID := c.Param("trace_id")

	entry, err := h.walRepo.GetByTraceID(c.Request.Context(), traceID)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if entry == nil {
		response.Error(c, apperror.ErrEntryNotFound(traceID))
		return
	}

	response.OK(c, dto.FromWALEntry(entry))
}
