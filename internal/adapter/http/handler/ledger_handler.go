package handler

import (
	"context"

	"github.com/shipost/wallet-ledger/internal/adapter/http/dto"
	"github.com/shipost/wallet-ledger/internal/adapter/http/middleware"
	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/internal/service"
	"github.com/shipost/wallet-ledger/pkg/apperror"
	"github.com/shipost/wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderIdempotencyKey opts a mutating request into exactly-once handling.
const HeaderIdempotencyKey = "X-Idempotency-Key"

// LedgerHandler serves the mutating ledger endpoints. The core operations
// are replayable; callers wanting dedup send X-Idempotency-Key and the
// guard replays the first response for repeats.
type LedgerHandler struct {
	ledgerSvc ports.LedgerService
	guard     *service.IdempotencyGuard
}

// NewLedgerHandler creates a new LedgerHandler. guard may be nil, which
// disables request dedup entirely.
func NewLedgerHandler(ledgerSvc ports.LedgerService, guard *service.IdempotencyGuard) *LedgerHandler {
	return &LedgerHandler{ledgerSvc: ledgerSvc, guard: guard}
}

// Credit handles POST /api/v1/accounts/:id/credit.
func (h *LedgerHandler) Credit(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	var req dto.CreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	reason := domain.ReasonRecharge
	if req.Reason != "" {
		reason = domain.EntryReason(req.Reason)
	}
	actorID := subjectPtr(c)

	entry, err := h.execute(c, "credit", accountID, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledgerSvc.Credit(ctx, ports.CreditRequest{
			AccountID:         accountID,
			Amount:            req.Amount,
			Description:       req.Description,
			Reason:            reason,
			ExternalReference: req.ExternalReference,
			ActorID:           actorID,
		})
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEntryResponse(entry))
}

// Debit handles POST /api/v1/accounts/:id/debit.
func (h *LedgerHandler) Debit(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	var req dto.DebitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)
	actorID := subjectPtr(c)

	entry, err := h.execute(c, "debit", accountID, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledgerSvc.Debit(ctx, ports.DebitRequest{
			AccountID:         accountID,
			Amount:            req.Amount,
			Description:       req.Description,
			ExternalReference: req.ExternalReference,
			ActorID:           actorID,
		})
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEntryResponse(entry))
}

// Refund handles POST /api/v1/accounts/:id/refund.
func (h *LedgerHandler) Refund(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)
	actorID := subjectPtr(c)

	entry, err := h.execute(c, "refund", accountID, func(ctx context.Context) (*domain.LedgerEntry, error) {
		return h.ledgerSvc.Refund(ctx, ports.RefundRequest{
			AccountID:         accountID,
			Amount:            req.Amount,
			Description:       req.Description,
			ExternalReference: req.ExternalReference,
			ActorID:           actorID,
		})
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, toEntryResponse(entry))
}

// execute runs fn through the idempotency guard when the caller sent a key
// and the guard is wired; otherwise it calls fn directly.
func (h *LedgerHandler) execute(c *gin.Context, operation string, accountID uuid.UUID, fn func(context.Context) (*domain.LedgerEntry, error)) (*domain.LedgerEntry, error) {
	key := c.GetHeader(HeaderIdempotencyKey)
	if key == "" || h.guard == nil {
		return fn(c.Request.Context())
	}

	scopedKey := domain.BuildIdempotencyKey(operation, accountID, key)
	entry, replayed, err := h.guard.Execute(c.Request.Context(), scopedKey, fn)
	if err != nil {
		return nil, err
	}
	if replayed {
		c.Header("X-Idempotent-Replay", "true")
	}
	return entry, nil
}

// subjectPtr returns the authenticated service subject, if any, for actor
// attribution on entries.
func subjectPtr(c *gin.Context) *string {
	if subject, exists := c.Get(middleware.CtxSubject); exists {
		if s, ok := subject.(string); ok && s != "" {
			return &s
		}
	}
	return nil
}
