package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/kisrebal/broker"
)

// Reconciler cancels every resting order on the account before a new plan is
// executed, so a stale order and a freshly computed one can never
// double-lock the same funds or shares.
type Reconciler struct {
	broker broker.Broker
	log    zerolog.Logger
}

// ReconcileResult counts cancellation outcomes for one cycle.
type ReconcileResult struct {
	Cancelled int
	Failed    int
}

// NewReconciler creates a reconciler over the given broker.
func NewReconciler(b broker.Broker, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		broker: b,
		log:    log.With().Str("component", "reconciler").Logger(),
	}
}

// Reconcile lists all open orders and issues a cancel for each. Individual
// cancellation failures are logged and counted, never fatal; a failure to
// list the open set is fatal since nothing can be guaranteed about it.
func (r *Reconciler) Reconcile(ctx context.Context) (ReconcileResult, error) {
	orders, err := r.broker.ListOpenOrders(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list open orders: %w", err)
	}

	var res ReconcileResult
	for _, o := range orders {
		if err := r.broker.CancelOrder(ctx, o); err != nil {
			res.Failed++
			r.log.Warn().Err(err).
				Str("order_id", o.ID).
				Str("code", o.Code).
				Msg("cancel failed")
			continue
		}
		res.Cancelled++
		r.log.Info().
			Str("order_id", o.ID).
			Str("code", o.Code).
			Str("side", string(o.Side)).
			Int64("remaining", o.Remaining).
			Msg("cancelled open order")
	}
	return res, nil
}
