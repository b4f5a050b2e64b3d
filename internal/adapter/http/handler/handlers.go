package handler

import (
	"net/http"
	"time"

	"github.com/shipost/wallet-ledger/internal/adapter/http/dto"
	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/money"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports service health including dependency checks.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		type depStatus struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		}

		deps := make(map[string]depStatus)
		allHealthy := true

		for _, checker := range checkers {
			if err := checker.Ping(c.Request.Context()); err != nil {
				deps[checker.Name()] = depStatus{Status: "unhealthy", Error: err.Error()}
				allHealthy = false
			} else {
				deps[checker.Name()] = depStatus{Status: "healthy"}
			}
		}

		status := "healthy"
		httpCode := http.StatusOK
		if !allHealthy {
			status = "degraded"
			httpCode = http.StatusServiceUnavailable
		}

		c.JSON(httpCode, gin.H{
			"status":       status,
			"dependencies": deps,
		})
	}
}

func toEntryResponse(e *domain.LedgerEntry) dto.EntryResponse {
	return dto.EntryResponse{
		ID:                e.ID.String(),
		AccountID:         e.AccountID.String(),
		Direction:         string(e.Direction),
		Amount:            e.Amount,
		AmountDisplay:     money.FormatMajor(e.Amount),
		Reason:            string(e.Reason),
		Description:       e.Description,
		BalanceAfter:      e.BalanceAfter,
		Status:            string(e.Status),
		ActorID:           e.ActorID,
		ExternalReference: e.ExternalReference,
		CreatedAt:         e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toBalanceResponse(a *domain.AccountBalance) dto.BalanceResponse {
	resp := dto.BalanceResponse{
		AccountID:      a.AccountID.String(),
		Balance:        a.Balance,
		BalanceDisplay: money.FormatMajor(a.Balance),
		TotalEarned:    a.TotalEarned,
		TotalSpent:     a.TotalSpent,
	}
	if a.LastRechargeAt != nil {
		s := a.LastRechargeAt.UTC().Format(time.RFC3339)
		resp.LastRechargeAt = &s
	}
	return resp
}
