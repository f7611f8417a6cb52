package broker

import (
	"context"
	"time"
)

// Side is the direction of an order.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Holding is one position held in the account.
type Holding struct {
	Code      string
	Name      string
	Quantity  int64
	AvgPrice  float64
	LastPrice float64
}

// MarketValue is derived from quantity and last price so it cannot drift out
// of sync with either.
func (h Holding) MarketValue() float64 {
	return float64(h.Quantity) * h.LastPrice
}

// AccountSnapshot is the state of one account at a point in time. It is
// immutable once fetched; one snapshot backs one planning cycle.
type AccountSnapshot struct {
	Account    string
	TotalAsset float64
	Cash       float64
	Purchased  float64
	Valuation  float64
	ProfitLoss float64
	Holdings   []Holding
}

// Holding returns the position for code, if held.
func (s AccountSnapshot) Holding(code string) (Holding, bool) {
	for _, h := range s.Holdings {
		if h.Code == code {
			return h, true
		}
	}
	return Holding{}, false
}

// Quote carries the prices an order strategy needs for one instrument.
type Quote struct {
	Code     string
	Last     float64 // last traded price, 0 if no trade this session
	BestBid  float64
	BestAsk  float64
	TickSize float64 // minimum price increment at the current price level
}

// DailyClose is one day's closing price for an instrument.
type DailyClose struct {
	Date  time.Time
	Close float64
}

// OpenOrder is a previously submitted order not yet fully filled or
// cancelled.
type OpenOrder struct {
	ID        string
	OrgNo     string // forwarding branch number, required by the cancel call
	Code      string
	Side      Side
	Remaining int64
	PlacedAt  time.Time
}

// OrderTicket is one concrete order to submit. Several tickets may originate
// from a single planned action (one per price tier).
type OrderTicket struct {
	Code     string
	Side     Side
	Price    float64
	Quantity int64
	Tier     int // 0-based tier index; always 0 for the market strategy
}

// SubmitResult is the broker's verdict on one ticket.
type SubmitResult struct {
	OrderID  string
	Accepted bool
	Reason   string
}

// Broker is the capability the rebalancing engine needs from a brokerage
// account. Implementations own authentication and transport concerns;
// a rejected order is a SubmitResult, not an error.
type Broker interface {
	GetAccountSnapshot(ctx context.Context) (AccountSnapshot, error)
	GetQuote(ctx context.Context, code string) (Quote, error)
	ListOpenOrders(ctx context.Context) ([]OpenOrder, error)
	CancelOrder(ctx context.Context, order OpenOrder) error
	SubmitOrder(ctx context.Context, ticket OrderTicket) (SubmitResult, error)
}
