// Package engine orchestrates one planning/execution cycle against a
// brokerage account.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/journal"
	"github.com/rustyeddy/kisrebal/pkg/id"
	"github.com/rustyeddy/kisrebal/portfolio"
	"github.com/rustyeddy/kisrebal/rebalance"
	"github.com/rustyeddy/kisrebal/strategy"
)

// Options configures one cycle.
type Options struct {
	EnableBuy  bool
	EnableSell bool
	Threshold  float64           // negligible-amount threshold, KRW; <=0 selects the default
	Strategy   strategy.Strategy // nil selects the split strategy
}

// Submission is the outcome of one submitted ticket.
type Submission struct {
	TicketID string
	Ticket   broker.OrderTicket
	Accepted bool
	Reason   string
}

// Skip records a planned action that produced no orders.
type Skip struct {
	Code   string
	Reason string
}

// CycleResult is everything one cycle produced, for reporting.
type CycleResult struct {
	CycleID     string
	Snapshot    broker.AccountSnapshot
	Plan        []rebalance.PlannedAction
	Traded      bool
	Reconcile   ReconcileResult
	Submissions []Submission
	Skips       []Skip
}

// Coordinator runs planning/execution cycles sequentially: snapshot, plan,
// reconcile open orders, then submit tickets in planner order and tier
// order. There is no concurrency within a cycle and no automatic retry of
// rejected submissions.
type Coordinator struct {
	broker     broker.Broker
	reconciler *Reconciler
	journal    journal.Journal
	log        zerolog.Logger
}

// NewCoordinator creates a coordinator. A nil journal records nothing.
func NewCoordinator(b broker.Broker, j journal.Journal, log zerolog.Logger) *Coordinator {
	if j == nil {
		j = journal.Nop{}
	}
	return &Coordinator{
		broker:     b,
		reconciler: NewReconciler(b, log),
		journal:    j,
		log:        log.With().Str("component", "coordinator").Logger(),
	}
}

// Run executes one cycle. The plan is always computed and returned, even
// when neither trading direction is enabled; orders are only placed for
// actions whose direction is enabled, and only after reconciliation. When
// execution aborts mid-cycle the result returned alongside the error holds
// everything cancelled and submitted up to that point.
func (c *Coordinator) Run(ctx context.Context, targets []portfolio.Target, opts Options) (*CycleResult, error) {
	snap, err := c.broker.GetAccountSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("account snapshot: %w", err)
	}

	plan, err := rebalance.Plan(snap, targets, opts.Threshold)
	if err != nil {
		return nil, err
	}

	res := &CycleResult{
		CycleID:  id.New(),
		Snapshot: snap,
		Plan:     plan,
	}

	strat := opts.Strategy
	if strat == nil {
		strat = strategy.Split{}
	}

	var execErr error
	if opts.EnableBuy || opts.EnableSell {
		res.Traded = true
		execErr = c.execute(ctx, res, strat, opts)
	}

	mode := "plan"
	if res.Traded {
		mode = strat.Name()
	}
	if err := c.journal.RecordCycle(journal.CycleRecord{
		CycleID:      res.CycleID,
		Account:      snap.Account,
		Mode:         mode,
		TotalAsset:   snap.TotalAsset,
		Planned:      len(plan),
		Cancelled:    res.Reconcile.Cancelled,
		CancelFailed: res.Reconcile.Failed,
		Time:         time.Now(),
	}); err != nil {
		c.log.Warn().Err(err).Msg("journal cycle record failed")
	}

	// An execution abort still returns the partial result: whatever was
	// cancelled and submitted before the failure must reach the report.
	return res, execErr
}

// execute runs reconciliation and then the order strategy for every enabled
// action. It never submits a ticket before reconciliation has completed.
func (c *Coordinator) execute(ctx context.Context, res *CycleResult, strat strategy.Strategy, opts Options) error {
	rec, err := c.reconciler.Reconcile(ctx)
	if err != nil {
		return err
	}
	res.Reconcile = rec
	if rec.Failed > 0 {
		// Partial cancellation failure does not abort the cycle.
		c.log.Warn().Int("failed", rec.Failed).Int("cancelled", rec.Cancelled).
			Msg("proceeding despite partial cancellation failure")
	}

	for _, action := range res.Plan {
		if !enabled(action, opts) {
			continue
		}

		quote, err := c.broker.GetQuote(ctx, action.Code)
		if err != nil {
			// A transport failure here means price data cannot be trusted
			// for the rest of the cycle either.
			return fmt.Errorf("quote %s: %w", action.Code, err)
		}

		tickets, err := strat.BuildOrders(action, quote)
		if err != nil {
			c.skip(res, action, err)
			continue
		}

		for _, tk := range tickets {
			c.submit(ctx, res, tk)
		}
	}
	return nil
}

func (c *Coordinator) submit(ctx context.Context, res *CycleResult, tk broker.OrderTicket) {
	sub := Submission{TicketID: id.New(), Ticket: tk}

	sr, err := c.broker.SubmitOrder(ctx, tk)
	switch {
	case err != nil:
		sub.Reason = err.Error()
	default:
		sub.Accepted = sr.Accepted
		sub.Reason = sr.Reason
	}
	res.Submissions = append(res.Submissions, sub)

	outcome := journal.OutcomeRejected
	if sub.Accepted {
		outcome = journal.OutcomeAccepted
	}
	c.log.Info().
		Str("code", tk.Code).
		Str("side", string(tk.Side)).
		Int("tier", tk.Tier).
		Float64("price", tk.Price).
		Int64("quantity", tk.Quantity).
		Str("outcome", outcome).
		Str("reason", sub.Reason).
		Msg("order submitted")

	if err := c.journal.RecordTicket(journal.TicketRecord{
		TicketID: sub.TicketID,
		CycleID:  res.CycleID,
		Code:     tk.Code,
		Side:     string(tk.Side),
		Tier:     tk.Tier,
		Price:    tk.Price,
		Quantity: tk.Quantity,
		Outcome:  outcome,
		Reason:   sub.Reason,
		Time:     time.Now(),
	}); err != nil {
		c.log.Warn().Err(err).Msg("journal ticket record failed")
	}
}

func (c *Coordinator) skip(res *CycleResult, action rebalance.PlannedAction, cause error) {
	res.Skips = append(res.Skips, Skip{Code: action.Code, Reason: cause.Error()})
	c.log.Warn().Str("code", action.Code).Err(cause).Msg("action skipped")

	if err := c.journal.RecordTicket(journal.TicketRecord{
		TicketID: id.New(),
		CycleID:  res.CycleID,
		Code:     action.Code,
		Side:     string(action.Action),
		Outcome:  journal.OutcomeSkipped,
		Reason:   cause.Error(),
		Time:     time.Now(),
	}); err != nil {
		c.log.Warn().Err(err).Msg("journal ticket record failed")
	}
}

func enabled(action rebalance.PlannedAction, opts Options) bool {
	switch action.Action {
	case rebalance.Buy:
		return opts.EnableBuy
	case rebalance.Sell:
		return opts.EnableSell
	}
	return false
}
