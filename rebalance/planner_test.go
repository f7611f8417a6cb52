package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/portfolio"
)

func snapshot() broker.AccountSnapshot {
	return broker.AccountSnapshot{
		Account:    "12345678",
		TotalAsset: 10_000_000,
		Cash:       2_000_000,
		Holdings: []broker.Holding{
			{Code: "069500", Name: "KODEX 200", Quantity: 100, AvgPrice: 32000, LastPrice: 35000},
			{Code: "114260", Name: "KODEX Treasury 3Y", Quantity: 40, AvgPrice: 110000, LastPrice: 112500},
		},
	}
}

func TestPlanBuyDeviation(t *testing.T) {
	t.Parallel()

	// 10M total, 20% target, 1.5M currently held.
	snap := broker.AccountSnapshot{
		TotalAsset: 10_000_000,
		Holdings: []broker.Holding{
			{Code: "005930", Name: "Samsung", Quantity: 20, LastPrice: 75000}, // 1,500,000
		},
	}

	plan, err := Plan(snap, []portfolio.Target{{Code: "005930", Name: "Samsung", Portion: 0.20}}, 0)
	require.NoError(t, err)
	require.Len(t, plan, 1)

	a := plan[0]
	assert.Equal(t, 2_000_000.0, a.TargetAmount)
	assert.Equal(t, 1_500_000.0, a.CurrentAmount)
	assert.Equal(t, 500_000.0, a.Deviation)
	assert.Equal(t, Buy, a.Action)
	// floor(500,000 / 75,000) = 6 at the holding's last price.
	assert.Equal(t, int64(6), a.Quantity)
}

func TestPlanActionsAndQuantities(t *testing.T) {
	t.Parallel()

	targets := []portfolio.Target{
		{Code: "069500", Name: "KODEX 200", Portion: 0.30},          // target 3M vs 3.5M held -> SELL
		{Code: "114260", Name: "KODEX Treasury 3Y", Portion: 0.45},  // target 4.5M vs 4.5M held -> HOLD
		{Code: "360750", Name: "TIGER S&P500", Portion: 0.10},       // target 1M vs 0 -> BUY, unpriced
	}

	plan, err := Plan(snapshot(), targets, 0)
	require.NoError(t, err)
	require.Len(t, plan, 3)

	sell := plan[0]
	assert.Equal(t, Sell, sell.Action)
	assert.Equal(t, -500_000.0, sell.Deviation)
	assert.Equal(t, int64(14), sell.Quantity) // floor(500,000 / 35,000)

	hold := plan[1]
	assert.Equal(t, Hold, hold.Action)
	assert.Equal(t, int64(0), hold.Quantity)

	buy := plan[2]
	assert.Equal(t, Buy, buy.Action)
	assert.Equal(t, 1_000_000.0, buy.Deviation)
	// Not held, so no reference price and no estimate yet; the order
	// strategy sizes it from a live quote.
	assert.Equal(t, 0.0, buy.Price)
	assert.Equal(t, int64(0), buy.Quantity)
}

func TestPlanOrderPreserved(t *testing.T) {
	t.Parallel()

	targets := []portfolio.Target{
		{Code: "z", Portion: 0.1},
		{Code: "a", Portion: 0.1},
		{Code: "m", Portion: 0.1},
	}

	plan, err := Plan(snapshot(), targets, 0)
	require.NoError(t, err)
	require.Len(t, plan, 3)
	assert.Equal(t, "z", plan[0].Code)
	assert.Equal(t, "a", plan[1].Code)
	assert.Equal(t, "m", plan[2].Code)
}

func TestPlanThresholdBoundary(t *testing.T) {
	t.Parallel()

	const threshold = 50_000

	tests := []struct {
		name       string
		totalAsset float64
		want       Action
	}{
		// Held amount is fixed at 1M (100 shares x 10,000); total asset
		// moves the target amount around the boundary.
		{"deviation exactly at threshold is HOLD", 2_100_000, Hold},  // target 1.05M, dev +50k
		{"deviation just above threshold is BUY", 2_100_002, Buy},    // dev +50,001
		{"negative deviation at threshold is HOLD", 1_900_000, Hold}, // dev -50k
		{"negative deviation past threshold is SELL", 1_899_998, Sell},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			snap := broker.AccountSnapshot{
				TotalAsset: tt.totalAsset,
				Holdings: []broker.Holding{
					{Code: "x", Quantity: 100, LastPrice: 10000},
				},
			}
			plan, err := Plan(snap, []portfolio.Target{{Code: "x", Portion: 0.5}}, threshold)
			require.NoError(t, err)
			require.Len(t, plan, 1)
			assert.Equal(t, tt.want, plan[0].Action)
		})
	}
}

func TestPlanIsIdempotent(t *testing.T) {
	t.Parallel()

	targets := []portfolio.Target{
		{Code: "069500", Portion: 0.3},
		{Code: "360750", Portion: 0.2},
	}

	first, err := Plan(snapshot(), targets, 0)
	require.NoError(t, err)
	second, err := Plan(snapshot(), targets, 0)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlanNeverAutoSellsUnlistedHoldings(t *testing.T) {
	t.Parallel()

	// 114260 is held but not targeted; it must not appear in the plan.
	plan, err := Plan(snapshot(), []portfolio.Target{{Code: "069500", Portion: 0.3}}, 0)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "069500", plan[0].Code)
}

func TestPlanTargetAmountsBounded(t *testing.T) {
	t.Parallel()

	targets := []portfolio.Target{
		{Code: "a", Portion: 0.4},
		{Code: "b", Portion: 0.35},
		{Code: "c", Portion: 0.25},
	}

	snap := snapshot()
	plan, err := Plan(snap, targets, 0)
	require.NoError(t, err)

	sum := 0.0
	for _, a := range plan {
		sum += a.TargetAmount
	}
	assert.LessOrEqual(t, sum, snap.TotalAsset*(1+portfolio.WeightEpsilon))
}

func TestPlanWeightSumError(t *testing.T) {
	t.Parallel()

	targets := []portfolio.Target{
		{Code: "a", Portion: 0.7},
		{Code: "b", Portion: 0.4},
	}
	_, err := Plan(snapshot(), targets, 0)
	assert.ErrorIs(t, err, ErrWeightSum)
}

func TestPlanSkipsNonPositiveWeights(t *testing.T) {
	t.Parallel()

	targets := []portfolio.Target{
		{Code: "a", Portion: 0.3},
		{Code: "b", Portion: 0},
	}
	plan, err := Plan(snapshot(), targets, 0)
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assert.Equal(t, "a", plan[0].Code)
}

func TestSide(t *testing.T) {
	t.Parallel()

	side, err := PlannedAction{Action: Buy}.Side()
	require.NoError(t, err)
	assert.Equal(t, broker.Buy, side)

	side, err = PlannedAction{Action: Sell}.Side()
	require.NoError(t, err)
	assert.Equal(t, broker.Sell, side)

	_, err = PlannedAction{Action: Hold}.Side()
	assert.Error(t, err)
}
