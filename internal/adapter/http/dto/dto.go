package dto

// CreditRequest is the request body for crediting an account.
type CreditRequest struct {
	Amount            int64   `json:"amount" binding:"required,gt=0"`
	Description       string  `json:"description" binding:"required,min=1,max=500"`
	Reason            string  `json:"reason" binding:"omitempty,oneof=RECHARGE ADJUSTMENT"`
	ExternalReference *string `json:"external_reference,omitempty" binding:"omitempty,max=100,safe_id"`
}

// DebitRequest is the request body for debiting an account.
type DebitRequest struct {
	Amount            int64   `json:"amount" binding:"required,gt=0"`
	Description       string  `json:"description" binding:"required,min=1,max=500"`
	ExternalReference *string `json:"external_reference,omitempty" binding:"omitempty,max=100,safe_id"`
}

// RefundRequest is the request body for refunding a prior charge.
type RefundRequest struct {
	Amount            int64   `json:"amount" binding:"required,gt=0"`
	Description       string  `json:"description" binding:"required,min=1,max=500"`
	ExternalReference *string `json:"external_reference,omitempty" binding:"omitempty,max=100,safe_id"`
}

// AdjustRequest is the request body for an administrative adjustment.
type AdjustRequest struct {
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Direction   string `json:"direction" binding:"required,oneof=CREDIT DEBIT"`
	Description string `json:"description" binding:"required,min=1,max=500"`
}

// BalanceResponse is the response for a balance query. Amounts are int64
// minor units; the display field carries the major-unit rendering so
// clients never do the conversion themselves.
type BalanceResponse struct {
	AccountID      string  `json:"account_id"`
	Balance        int64   `json:"balance"`
	BalanceDisplay string  `json:"balance_display"`
	TotalEarned    int64   `json:"total_earned"`
	TotalSpent     int64   `json:"total_spent"`
	LastRechargeAt *string `json:"last_recharge_at,omitempty"`
}

// EntryResponse is the response body for a single ledger entry.
type EntryResponse struct {
	ID                string  `json:"id"`
	AccountID         string  `json:"account_id"`
	Direction         string  `json:"direction"`
	Amount            int64   `json:"amount"`
	AmountDisplay     string  `json:"amount_display"`
	Reason            string  `json:"reason"`
	Description       string  `json:"description"`
	BalanceAfter      int64   `json:"balance_after"`
	Status            string  `json:"status"`
	ActorID           *string `json:"actor_id,omitempty"`
	ExternalReference *string `json:"external_reference,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// EntryListResponse wraps a paginated entry list.
type EntryListResponse struct {
	Entries  []EntryResponse `json:"entries"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}
