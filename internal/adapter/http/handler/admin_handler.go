package handler

import (
	"github.com/shipost/wallet-ledger/internal/adapter/http/dto"
	"github.com/shipost/wallet-ledger/internal/adapter/http/middleware"
	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/apperror"
	"github.com/shipost/wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves administrative corrections and the reconciliation
// audit. All routes require the ledger:admin scope.
type AdminHandler struct {
	ledgerSvc ports.LedgerService
	reconSvc  ports.ReconciliationService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(ledgerSvc ports.LedgerService, reconSvc ports.ReconciliationService) *AdminHandler {
	return &AdminHandler{ledgerSvc: ledgerSvc, reconSvc: reconSvc}
}

func adminSubject(c *gin.Context) (string, bool) {
	if subject, exists := c.Get(middleware.CtxSubject); exists {
		if s, ok := subject.(string); ok && s != "" {
			return s, true
		}
	}
	response.Error(c, apperror.ErrInvalidToken())
	return "", false
}

// Adjust handles POST /api/v1/admin/accounts/:id/adjust.
func (h *AdminHandler) Adjust(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}
	actor, ok := adminSubject(c)
	if !ok {
		return
	}

	var req dto.AdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	entry, err := h.ledgerSvc.Adjust(c.Request.Context(), ports.AdjustRequest{
		AccountID:   accountID,
		Amount:      req.Amount,
		Direction:   domain.EntryDirection(req.Direction),
		Description: req.Description,
		ActorID:     actor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEntryResponse(entry))
}

// Reset handles POST /api/v1/admin/accounts/:id/reset.
func (h *AdminHandler) Reset(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}
	actor, ok := adminSubject(c)
	if !ok {
		return
	}

	entry, err := h.ledgerSvc.ResetBalance(c.Request.Context(), accountID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	if entry == nil {
		response.OK(c, gin.H{"reset": false, "message": "balance already zero"})
		return
	}
	response.Created(c, toEntryResponse(entry))
}

// Reconcile handles GET /api/v1/admin/accounts/:id/reconciliation.
func (h *AdminHandler) Reconcile(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	report, err := h.reconSvc.Reconcile(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
