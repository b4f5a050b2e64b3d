package handler

import (
	"strconv"

	"github.com/shipost/wallet-ledger/internal/adapter/http/dto"
	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/apperror"
	"github.com/shipost/wallet-ledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AccountHandler serves the read-only account endpoints.
type AccountHandler struct {
	ledgerSvc  ports.LedgerService
	historySvc ports.HistoryService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(ledgerSvc ports.LedgerService, historySvc ports.HistoryService) *AccountHandler {
	return &AccountHandler{ledgerSvc: ledgerSvc, historySvc: historySvc}
}

func parseAccountID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid account id"))
		return uuid.Nil, false
	}
	return id, true
}

// GetBalance handles GET /api/v1/accounts/:id/balance.
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	account, err := h.ledgerSvc.GetBalance(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, toBalanceResponse(account))
}

// CheckSufficiency handles GET /api/v1/accounts/:id/sufficiency?amount=N.
func (h *AccountHandler) CheckSufficiency(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	amount, err := strconv.ParseInt(c.Query("amount"), 10, 64)
	if err != nil || amount <= 0 {
		response.Error(c, apperror.Validation("amount must be a positive integer"))
		return
	}

	result, err := h.ledgerSvc.CheckSufficient(c.Request.Context(), accountID, amount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

// ListEntries handles GET /api/v1/accounts/:id/entries.
func (h *AccountHandler) ListEntries(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	params := ports.EntryListParams{
		AccountID: accountID,
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
	}
	if v := c.Query("direction"); v != "" {
		d := domain.EntryDirection(v)
		if d != domain.DirectionCredit && d != domain.DirectionDebit {
			response.Error(c, apperror.Validation("direction must be CREDIT or DEBIT"))
			return
		}
		params.Direction = &d
	}
	if v := c.Query("reason"); v != "" {
		r := domain.EntryReason(v)
		params.Reason = &r
	}
	if v := c.Query("from"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("from must be a unix timestamp"))
			return
		}
		params.From = &ts
	}
	if v := c.Query("to"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("to must be a unix timestamp"))
			return
		}
		params.To = &ts
	}

	entries, total, err := h.historySvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.EntryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, toEntryResponse(&entries[i]))
	}
	response.OK(c, dto.EntryListResponse{
		Entries:  items,
		Total:    total,
		Page:     params.Page,
		PageSize: params.PageSize,
	})
}

// GetSummary handles GET /api/v1/accounts/:id/summary.
func (h *AccountHandler) GetSummary(c *gin.Context) {
	accountID, ok := parseAccountID(c)
	if !ok {
		return
	}

	summary, err := h.historySvc.Summary(c.Request.Context(), accountID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summary)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
