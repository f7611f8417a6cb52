package strategy

import (
	"fmt"
	"math"

	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/rebalance"
)

// tierWeights splits one planned quantity 33/33/34 across three price
// levels. The integer-rounding remainder always lands on the last tier so
// the total quantity is conserved exactly.
var tierWeights = [...]float64{0.33, 0.33, 0.34}

// Split spreads one planned quantity across three price tiers stepped one
// tick apart from the touch: tier 0 rests at the best bid (BUY) or best ask
// (SELL), each further tier one tick worse. This improves fill probability
// across a small price range without resting the whole order at one level.
type Split struct{}

// Name implements Strategy.
func (Split) Name() string { return "split" }

// BuildOrders implements Strategy. Tiers that round to zero quantity are
// skipped, never submitted.
func (Split) BuildOrders(action rebalance.PlannedAction, quote broker.Quote) ([]broker.OrderTicket, error) {
	side, qty, err := sizeAction(action, quote)
	if err != nil {
		return nil, err
	}
	if quote.TickSize <= 0 {
		return nil, fmt.Errorf("%w: %s has no tick size", ErrQuoteUnavailable, action.Code)
	}

	base := touchPrice(quote, side)
	if base <= 0 {
		return nil, fmt.Errorf("%w: %s has an empty book", ErrQuoteUnavailable, action.Code)
	}

	tickets := make([]broker.OrderTicket, 0, len(tierWeights))
	assigned := int64(0)
	for tier, weight := range tierWeights {
		var q int64
		if tier == len(tierWeights)-1 {
			q = qty - assigned
		} else {
			q = int64(math.Floor(float64(qty) * weight))
		}
		if q <= 0 {
			continue
		}
		assigned += q

		tickets = append(tickets, broker.OrderTicket{
			Code:     action.Code,
			Side:     side,
			Price:    tierPrice(base, quote.TickSize, tier, side),
			Quantity: q,
			Tier:     tier,
		})
	}
	return tickets, nil
}

// touchPrice is the best price on the side the order rests at: the best bid
// for a BUY, the best ask for a SELL. Falls back to the last trade when the
// book side is empty.
func touchPrice(quote broker.Quote, side broker.Side) float64 {
	if side == broker.Buy {
		if quote.BestBid > 0 {
			return quote.BestBid
		}
	} else if quote.BestAsk > 0 {
		return quote.BestAsk
	}
	return quote.Last
}

// tierPrice steps the base price `tier` whole ticks away from the touch and
// snaps the result onto the tick grid, away from the touch, so the order is
// always at least that many ticks worse and still at a valid price.
func tierPrice(base, tick float64, tier int, side broker.Side) float64 {
	if side == broker.Buy {
		return math.Floor((base-float64(tier)*tick)/tick) * tick
	}
	return math.Ceil((base+float64(tier)*tick)/tick) * tick
}
