package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/rebalance"
)

func buyAction(deviation float64) rebalance.PlannedAction {
	return rebalance.PlannedAction{
		Code:      "005930",
		Action:    rebalance.Buy,
		Deviation: deviation,
	}
}

func TestSplitBuyTiers(t *testing.T) {
	t.Parallel()

	// +500,000 KRW at last 70,000 sizes to 7 shares; best bid 69,900 with a
	// 100 tick yields tiers 69,900 / 69,800 / 69,700 at 2/2/3 shares.
	quote := broker.Quote{
		Code:     "005930",
		Last:     70000,
		BestBid:  69900,
		BestAsk:  70000,
		TickSize: 100,
	}

	tickets, err := Split{}.BuildOrders(buyAction(500_000), quote)
	require.NoError(t, err)
	require.Len(t, tickets, 3)

	wantPrices := []float64{69900, 69800, 69700}
	wantQty := []int64{2, 2, 3}
	for i, tk := range tickets {
		assert.Equal(t, "005930", tk.Code)
		assert.Equal(t, broker.Buy, tk.Side)
		assert.Equal(t, i, tk.Tier)
		assert.Equal(t, wantPrices[i], tk.Price)
		assert.Equal(t, wantQty[i], tk.Quantity)
	}
}

func TestSplitSellTiers(t *testing.T) {
	t.Parallel()

	action := rebalance.PlannedAction{
		Code:      "069500",
		Action:    rebalance.Sell,
		Deviation: -350_000,
	}
	quote := broker.Quote{
		Code:     "069500",
		Last:     35000,
		BestBid:  34995,
		BestAsk:  35000,
		TickSize: 5,
	}

	// floor(350,000 / 35,000) = 10 shares -> 3/3/4, prices stepping up from
	// the best ask.
	tickets, err := Split{}.BuildOrders(action, quote)
	require.NoError(t, err)
	require.Len(t, tickets, 3)

	wantPrices := []float64{35000, 35005, 35010}
	wantQty := []int64{3, 3, 4}
	for i, tk := range tickets {
		assert.Equal(t, broker.Sell, tk.Side)
		assert.Equal(t, wantPrices[i], tk.Price)
		assert.Equal(t, wantQty[i], tk.Quantity)
	}
}

func TestSplitConservesQuantity(t *testing.T) {
	t.Parallel()

	quote := broker.Quote{Last: 1000, BestBid: 999, BestAsk: 1001, TickSize: 1}

	// Every quantity from 1..200 must be conserved exactly across tiers,
	// including the 10 -> {3,3,4} case (never {3,3,3} with a dropped unit).
	for qty := int64(1); qty <= 200; qty++ {
		tickets, err := Split{}.BuildOrders(buyAction(float64(qty)*1000), quote)
		require.NoError(t, err, "qty=%d", qty)

		total := int64(0)
		for _, tk := range tickets {
			require.Positive(t, tk.Quantity, "qty=%d tier=%d", qty, tk.Tier)
			total += tk.Quantity
		}
		require.Equal(t, qty, total, "qty=%d", qty)
	}
}

func TestSplitSkipsZeroQuantityTiers(t *testing.T) {
	t.Parallel()

	quote := broker.Quote{Last: 1000, BestBid: 999, BestAsk: 1001, TickSize: 1}

	// 1 share: tiers 0 and 1 round to zero and are skipped, the single
	// share rests on the last tier.
	tickets, err := Split{}.BuildOrders(buyAction(1000), quote)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, 2, tickets[0].Tier)
	assert.Equal(t, int64(1), tickets[0].Quantity)
}

func TestSplitErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		action rebalance.PlannedAction
		quote  broker.Quote
		want   error
	}{
		{
			name:   "no prices at all",
			action: buyAction(500_000),
			quote:  broker.Quote{TickSize: 100},
			want:   ErrQuoteUnavailable,
		},
		{
			name:   "missing tick size",
			action: buyAction(500_000),
			quote:  broker.Quote{Last: 70000, BestBid: 69900, BestAsk: 70000},
			want:   ErrQuoteUnavailable,
		},
		{
			name:   "deviation below one share",
			action: buyAction(30_000),
			quote:  broker.Quote{Last: 70000, BestBid: 69900, BestAsk: 70000, TickSize: 100},
			want:   ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Split{}.BuildOrders(tt.action, tt.quote)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSplitSnapsOffGridTouch(t *testing.T) {
	t.Parallel()

	// A touch that is not on the tick grid snaps away from the touch: down
	// for a buy, so the order is at least as passive as requested.
	quote := broker.Quote{Last: 70050, BestBid: 69950, BestAsk: 70050, TickSize: 100}

	tickets, err := Split{}.BuildOrders(buyAction(700_500), quote)
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	assert.Equal(t, 69900.0, tickets[0].Price)
	assert.Equal(t, 69800.0, tickets[1].Price)
	assert.Equal(t, 69700.0, tickets[2].Price)
}

func TestByName(t *testing.T) {
	t.Parallel()

	s, err := ByName("split")
	require.NoError(t, err)
	assert.Equal(t, "split", s.Name())

	s, err = ByName("")
	require.NoError(t, err)
	assert.Equal(t, "split", s.Name())

	s, err = ByName(" Market ")
	require.NoError(t, err)
	assert.Equal(t, "market", s.Name())

	_, err = ByName("twap")
	assert.Error(t, err)
}
