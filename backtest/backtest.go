// Package backtest simulates a periodically rebalanced portfolio over
// historical daily closes.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/portfolio"
)

// HistorySource yields daily closing prices for one instrument.
type HistorySource interface {
	DailyCloses(ctx context.Context, code string, from, to time.Time) ([]broker.DailyClose, error)
}

// Frequency is how often the simulated portfolio is snapped back to its
// target weights.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
)

// FrequencyByName selects a rebalance frequency by its configuration name.
// The empty string selects monthly.
func FrequencyByName(name string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "monthly":
		return Monthly, nil
	case "weekly":
		return Weekly, nil
	case "biweekly":
		return Biweekly, nil
	case "quarterly":
		return Quarterly, nil
	default:
		return "", fmt.Errorf("unknown rebalance frequency %q (supported: weekly, biweekly, monthly, quarterly)", name)
	}
}

// bucket maps a date onto its rebalancing period. The last trading day of
// each bucket is a rebalance day.
func (f Frequency) bucket(t time.Time) int {
	switch f {
	case Weekly:
		y, w := t.ISOWeek()
		return y*100 + w
	case Biweekly:
		y, w := t.ISOWeek()
		return y*100 + w/2
	case Quarterly:
		return t.Year()*10 + (int(t.Month())-1)/3
	default:
		return t.Year()*100 + int(t.Month())
	}
}

// Point is the simulated portfolio value on one day, normalized to a 1.0
// start.
type Point struct {
	Date  time.Time
	Value float64
}

// Result summarizes one simulation.
type Result struct {
	Start       time.Time
	End         time.Time
	Days        int     // trading days simulated
	TotalReturn float64 // final value over initial, minus 1
	CAGR        float64 // annualized over the actual window
	MaxDrawdown float64 // worst peak-to-trough, as a negative fraction
	History     []Point
	Dropped     []string // target codes with no usable history
}

// Runner fetches history through a source and simulates one portfolio.
type Runner struct {
	source HistorySource
	log    zerolog.Logger
}

// NewRunner creates a backtest runner over the given history source.
func NewRunner(source HistorySource, log zerolog.Logger) *Runner {
	return &Runner{
		source: source,
		log:    log.With().Str("component", "backtest").Logger(),
	}
}

// Run simulates the targets over the trailing window of years, rebalancing
// at freq. Instruments with no history are dropped and the remaining
// weights renormalized; days before every surviving instrument is listed
// are dropped too, so the whole portfolio starts on the same trading day.
func (r *Runner) Run(ctx context.Context, targets []portfolio.Target, years int, freq Frequency) (*Result, error) {
	if years <= 0 {
		years = 3
	}
	to := time.Now()
	from := to.AddDate(-years, 0, 0)

	series := make(map[string][]broker.DailyClose)
	weights := make(map[string]float64)
	var dropped []string
	for _, t := range targets {
		if t.Portion <= 0 {
			continue
		}
		closes, err := r.source.DailyCloses(ctx, t.Code, from, to)
		if err != nil {
			return nil, fmt.Errorf("history %s: %w", t.Code, err)
		}
		if len(closes) == 0 {
			dropped = append(dropped, t.Code)
			r.log.Warn().Str("code", t.Code).Msg("no history, dropped from simulation")
			continue
		}
		series[t.Code] = closes
		weights[t.Code] = t.Portion
	}
	if len(series) == 0 {
		return nil, errors.New("no instrument has usable history")
	}

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	for code := range weights {
		weights[code] /= sum
	}

	dates, prices := align(series)
	if len(dates) == 0 {
		return nil, errors.New("instruments share no trading days")
	}

	history := simulate(dates, prices, weights, freq)
	total, cagr, mdd := metrics(history)

	return &Result{
		Start:       dates[0],
		End:         dates[len(dates)-1],
		Days:        len(dates),
		TotalReturn: total,
		CAGR:        cagr,
		MaxDrawdown: mdd,
		History:     history,
		Dropped:     dropped,
	}, nil
}

// align keeps only the dates on which every instrument has a close, sorted
// ascending. A recently listed instrument therefore shortens the whole
// simulation window rather than entering with a gap.
func align(series map[string][]broker.DailyClose) ([]time.Time, map[string]map[time.Time]float64) {
	prices := make(map[string]map[time.Time]float64, len(series))
	for code, closes := range series {
		m := make(map[time.Time]float64, len(closes))
		for _, c := range closes {
			m[day(c.Date)] = c.Close
		}
		prices[code] = m
	}

	var dates []time.Time
	for _, first := range prices {
		for d := range first {
			shared := true
			for _, m := range prices {
				if _, ok := m[d]; !ok {
					shared = false
					break
				}
			}
			if shared {
				dates = append(dates, d)
			}
		}
		break
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, prices
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// simulate walks the aligned dates with an initial value of 1.0, marking
// the holdings to market daily and snapping them back to the target weights
// on the last trading day of each period. The final day never rebalances;
// there is no following day to realize the new weights on.
func simulate(dates []time.Time, prices map[string]map[time.Time]float64, weights map[string]float64, freq Frequency) []Point {
	holdings := make(map[string]float64, len(weights))
	for code, w := range weights {
		holdings[code] = w / prices[code][dates[0]]
	}

	history := make([]Point, 0, len(dates))
	for i, date := range dates {
		value := 0.0
		for code, qty := range holdings {
			value += qty * prices[code][date]
		}
		history = append(history, Point{Date: date, Value: value})

		if i < len(dates)-1 && freq.bucket(date) != freq.bucket(dates[i+1]) {
			for code, w := range weights {
				holdings[code] = value * w / prices[code][date]
			}
		}
	}
	return history
}

// metrics derives total return, CAGR and maximum drawdown from a value
// history.
func metrics(history []Point) (total, cagr, mdd float64) {
	first := history[0].Value
	last := history[len(history)-1].Value
	total = last/first - 1

	years := history[len(history)-1].Date.Sub(history[0].Date).Hours() / 24 / 365.25
	if years > 0 {
		cagr = math.Pow(last/first, 1/years) - 1
	}

	peak := first
	for _, p := range history {
		if p.Value > peak {
			peak = p.Value
		}
		if dd := p.Value/peak - 1; dd < mdd {
			mdd = dd
		}
	}
	return total, cagr, mdd
}
