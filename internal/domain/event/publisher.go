package event

import (
	"context"

	"github.com/wekeepgrowing/payment-reconciler/internal/domain/entity"
)

// SettlementPublisher announces terminal ledger transitions to other services.
type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, evt entity.SettlementEvent) error
	Close() error
}
