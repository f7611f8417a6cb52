package strategy

import (
	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/rebalance"
)

// Market submits the full planned quantity in a single order priced at the
// last traded price (the touch when there has been no trade this session).
// Optimizes for certainty of execution over price.
type Market struct{}

// Name implements Strategy.
func (Market) Name() string { return "market" }

// BuildOrders implements Strategy.
func (Market) BuildOrders(action rebalance.PlannedAction, quote broker.Quote) ([]broker.OrderTicket, error) {
	side, qty, err := sizeAction(action, quote)
	if err != nil {
		return nil, err
	}

	return []broker.OrderTicket{{
		Code:     action.Code,
		Side:     side,
		Price:    referencePrice(quote, side),
		Quantity: qty,
		Tier:     0,
	}}, nil
}
