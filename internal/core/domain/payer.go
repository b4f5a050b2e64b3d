package domain

import "github.com/google/uuid"

// CostBearer tags who is responsible for a shipment cost.
type CostBearer string

const (
	BearerBrand         CostBearer = "BRAND"
	BearerServiceCenter CostBearer = "SERVICE_CENTER"
	BearerCustomer      CostBearer = "CUSTOMER"
)

// CostEvent is a cost raised by the shipment workflow, carrying the
// candidate accounts the payer policy may resolve to.
type CostEvent struct {
	ShipmentID             string     `json:"shipment_id"`
	Bearer                 CostBearer `json:"bearer"`
	Amount                 int64      `json:"amount"` // minor units
	Description            string     `json:"description"`
	BrandAccountID         uuid.UUID  `json:"brand_account_id"`
	ServiceCenterAccountID *uuid.UUID `json:"service_center_account_id,omitempty"`
}

// PayerAction describes what the ledger must do for a cost event.
// Charge=false means the cost is settled outside the ledger (e.g. COD
// collected from the customer) and no entry is written.
type PayerAction struct {
	Charge      bool      `json:"charge"`
	AccountID   uuid.UUID `json:"account_id,omitempty"`
	Description string    `json:"description,omitempty"`
}
