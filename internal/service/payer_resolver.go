package service

import (
	"context"
	"fmt"

	"github.com/shipost/wallet-ledger/internal/core/domain"
	"github.com/shipost/wallet-ledger/internal/core/ports"
	"github.com/shipost/wallet-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// PayerResolverImpl implements ports.PayerResolver: the policy mapping a
// shipment cost to the wallet that pays for it.
type PayerResolverImpl struct {
	ledger ports.LedgerService
	log    zerolog.Logger
}

// NewPayerResolver creates a new PayerResolverImpl.
func NewPayerResolver(ledger ports.LedgerService, log zerolog.Logger) *PayerResolverImpl {
	return &PayerResolverImpl{ledger: ledger, log: log}
}

// Resolve maps a cost event to a payer action. Pure and stateless: it never
// touches storage.
func (r *PayerResolverImpl) Resolve(event domain.CostEvent) (*domain.PayerAction, error) {
	switch event.Bearer {
	case domain.BearerBrand:
		return &domain.PayerAction{
			Charge:      true,
			AccountID:   event.BrandAccountID,
			Description: event.Description,
		}, nil
	case domain.BearerServiceCenter:
		if event.ServiceCenterAccountID == nil {
			return nil, apperror.Validation("service center account id is required for SERVICE_CENTER bearer")
		}
		return &domain.PayerAction{
			Charge:      true,
			AccountID:   *event.ServiceCenterAccountID,
			Description: event.Description,
		}, nil
	case domain.BearerCustomer:
		// Collected from the customer outside the ledger (e.g. COD).
		return &domain.PayerAction{Charge: false}, nil
	default:
		return nil, apperror.ErrUnknownCostBearer(string(event.Bearer))
	}
}

// Apply resolves the event and, when it charges an account, debits it with
// the shipment id as external reference. Returns nil entry for no-ops.
func (r *PayerResolverImpl) Apply(ctx context.Context, event domain.CostEvent) (*domain.LedgerEntry, error) {
	action, err := r.Resolve(event)
	if err != nil {
		return nil, err
	}
	if !action.Charge {
		r.log.Debug().
			Str("shipment_id", event.ShipmentID).
			Str("bearer", string(event.Bearer)).
			Msg("cost bearer settles outside the ledger")
		return nil, nil
	}

	description := action.Description
	if description == "" {
		description = fmt.Sprintf("shipment %s cost", event.ShipmentID)
	}
	shipmentRef := event.ShipmentID

	return r.ledger.Debit(ctx, ports.DebitRequest{
		AccountID:         action.AccountID,
		Amount:            event.Amount,
		Description:       description,
		ExternalReference: &shipmentRef,
	})
}
