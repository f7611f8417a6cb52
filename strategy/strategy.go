// Package strategy turns planned rebalancing actions into concrete order
// tickets under one of two price-timing policies.
package strategy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/rebalance"
)

var (
	// ErrQuoteUnavailable means no usable price could be derived for the
	// instrument, so the action can be neither sized nor priced.
	ErrQuoteUnavailable = errors.New("no usable price for instrument")

	// ErrInvalidQuantity means the whole action sizes to zero shares.
	ErrInvalidQuantity = errors.New("estimated quantity is zero")
)

// Strategy builds the order tickets for one planned action. Implementations
// must conserve the estimated quantity exactly across the tickets they
// return, and must never return a zero-quantity ticket.
type Strategy interface {
	Name() string
	BuildOrders(action rebalance.PlannedAction, quote broker.Quote) ([]broker.OrderTicket, error)
}

// ByName selects a strategy variant by its configuration name. The empty
// string selects the default split strategy.
func ByName(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "split":
		return Split{}, nil
	case "market", "last":
		return Market{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: split, market)", name)
	}
}

// referencePrice is the last traded price, falling back to the touch when
// there has been no trade this session.
func referencePrice(quote broker.Quote, side broker.Side) float64 {
	if quote.Last > 0 {
		return quote.Last
	}
	if side == broker.Buy {
		return quote.BestAsk
	}
	return quote.BestBid
}

// sizeAction computes floor(|deviation| / reference price) for the action.
func sizeAction(action rebalance.PlannedAction, quote broker.Quote) (broker.Side, int64, error) {
	side, err := action.Side()
	if err != nil {
		return "", 0, err
	}
	price := referencePrice(quote, side)
	if price <= 0 {
		return "", 0, fmt.Errorf("%w: %s", ErrQuoteUnavailable, action.Code)
	}
	qty := int64(math.Floor(math.Abs(action.Deviation) / price))
	if qty <= 0 {
		return "", 0, fmt.Errorf("%w: %s", ErrInvalidQuantity, action.Code)
	}
	return side, qty, nil
}
