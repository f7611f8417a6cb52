// Package rebalance computes the diff between current holdings and a target
// allocation.
package rebalance

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/portfolio"
)

// DefaultThreshold is the absolute deviation (KRW) below which no order is
// planned. An absolute amount, not a percentage: percentage thresholds
// misbehave for small accounts.
const DefaultThreshold = 10000

// ErrWeightSum mirrors portfolio.ErrWeightSum for callers that build target
// slices without going through a file.
var ErrWeightSum = portfolio.ErrWeightSum

// Action classifies one planned deviation.
type Action string

const (
	Buy  Action = "BUY"
	Sell Action = "SELL"
	Hold Action = "HOLD"
)

// PlannedAction is one row of the rebalancing plan. Created fresh each
// planning cycle and never mutated afterwards.
type PlannedAction struct {
	Code          string
	Name          string
	TargetWeight  float64
	TargetAmount  float64
	CurrentAmount float64
	Deviation     float64 // target minus current; positive means buy
	Action        Action
	Quantity      int64   // estimated shares at the reference price, 0 if unpriceable
	Price         float64 // reference price used for the estimate, 0 if not held
}

// Plan computes one planned action per target, in target order. It is a pure
// function of its inputs: running it twice on the same snapshot and targets
// yields identical plans.
//
// Holdings absent from the targets are deliberately left alone: nothing is
// ever auto-sold just because it is not listed. Deviations are valued at the
// last traded price, not cost basis. A threshold <= 0 selects
// DefaultThreshold.
func Plan(snapshot broker.AccountSnapshot, targets []portfolio.Target, threshold float64) ([]PlannedAction, error) {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	sum := 0.0
	for _, t := range targets {
		if t.Portion > 0 {
			sum += t.Portion
		}
	}
	if sum > 1+portfolio.WeightEpsilon {
		return nil, fmt.Errorf("%w (%.4f)", ErrWeightSum, sum)
	}

	plan := make([]PlannedAction, 0, len(targets))
	for _, t := range targets {
		if t.Portion <= 0 {
			continue
		}

		action := PlannedAction{
			Code:         t.Code,
			Name:         t.Name,
			TargetWeight: t.Portion,
			TargetAmount: snapshot.TotalAsset * t.Portion,
		}
		if h, ok := snapshot.Holding(t.Code); ok {
			action.CurrentAmount = h.MarketValue()
			action.Price = h.LastPrice
		}
		action.Deviation = action.TargetAmount - action.CurrentAmount

		switch {
		case action.Deviation > threshold:
			action.Action = Buy
		case action.Deviation < -threshold:
			action.Action = Sell
		default:
			action.Action = Hold
		}

		if action.Price > 0 {
			action.Quantity = int64(math.Floor(math.Abs(action.Deviation) / action.Price))
		}

		plan = append(plan, action)
	}
	return plan, nil
}

// Side maps a planned action onto an order side. Hold has no side.
func (a PlannedAction) Side() (broker.Side, error) {
	switch a.Action {
	case Buy:
		return broker.Buy, nil
	case Sell:
		return broker.Sell, nil
	}
	return "", errors.New("hold action has no order side")
}
