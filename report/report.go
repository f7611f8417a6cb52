// Package report renders cycle results as plain-text tables for the
// terminal.
package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/rustyeddy/kisrebal/backtest"
	"github.com/rustyeddy/kisrebal/broker"
	"github.com/rustyeddy/kisrebal/engine"
	"github.com/rustyeddy/kisrebal/rebalance"
)

// Summary writes the account summary block: totals first, then one row
// per held position.
func Summary(w io.Writer, snap broker.AccountSnapshot) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Account\t%s\n", snap.Account)
	fmt.Fprintf(tw, "Total asset\t%s\n", krw(snap.TotalAsset))
	fmt.Fprintf(tw, "Cash\t%s\n", krw(snap.Cash))
	fmt.Fprintf(tw, "Purchased\t%s\n", krw(snap.Purchased))
	fmt.Fprintf(tw, "Valuation\t%s\n", krw(snap.Valuation))
	fmt.Fprintf(tw, "Profit/loss\t%s\n", krw(snap.ProfitLoss))
	tw.Flush()

	if len(snap.Holdings) == 0 {
		return
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tQTY\tAVG PRICE\tLAST\tVALUE")
	for _, h := range snap.Holdings {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			h.Code, h.Name, h.Quantity, krw(h.AvgPrice), krw(h.LastPrice), krw(h.MarketValue()))
	}
	tw.Flush()
}

// Plan writes one row per planned action: target weight and amount,
// current amount, the deviation, and the decided action.
func Plan(w io.Writer, plan []rebalance.PlannedAction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tTARGET %\tTARGET AMT\tCURRENT AMT\tDIFF\tACTION\tEST QTY")
	for _, a := range plan {
		// An unheld instrument has no reference price yet; its quantity is
		// sized from the live quote at execution time, not known here.
		qty := strconv.FormatInt(a.Quantity, 10)
		if a.Price == 0 {
			qty = "?"
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\t%s\t%s\t%s\n",
			a.Code, a.Name, a.TargetWeight*100,
			krw(a.TargetAmount), krw(a.CurrentAmount), krw(a.Deviation),
			a.Action, qty)
	}
	tw.Flush()
}

// PlanSummary writes the one-line action count shown under the plan table.
// Only actions with a sized, nonzero quantity are counted.
func PlanSummary(w io.Writer, plan []rebalance.PlannedAction, mode string) {
	buys, sells := 0, 0
	for _, a := range plan {
		if a.Quantity <= 0 {
			continue
		}
		switch a.Action {
		case rebalance.Buy:
			buys++
		case rebalance.Sell:
			sells++
		}
	}
	fmt.Fprintf(w, "Plan summary: %d BUY orders, %d SELL orders ready using '%s' mode\n",
		buys, sells, mode)
}

// Execution writes the reconciliation counts and one row per submitted
// ticket, followed by any skipped actions.
func Execution(w io.Writer, res *engine.CycleResult) {
	fmt.Fprintf(w, "Cancelled %d open order(s)", res.Reconcile.Cancelled)
	if res.Reconcile.Failed > 0 {
		fmt.Fprintf(w, " (%d cancellation(s) failed)", res.Reconcile.Failed)
	}
	fmt.Fprintln(w)

	if len(res.Submissions) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CODE\tSIDE\tTIER\tPRICE\tQTY\tOUTCOME")
		for _, s := range res.Submissions {
			outcome := "accepted"
			if !s.Accepted {
				outcome = "rejected: " + s.Reason
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\n",
				s.Ticket.Code, s.Ticket.Side, s.Ticket.Tier,
				krw(s.Ticket.Price), s.Ticket.Quantity, outcome)
		}
		tw.Flush()
	}

	for _, s := range res.Skips {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Code, s.Reason)
	}
}

// Backtest writes the simulated performance metrics for one portfolio.
func Backtest(w io.Writer, res *backtest.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Period\t%s to %s (%d trading days)\n",
		res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), res.Days)
	fmt.Fprintf(tw, "Total return\t%+.2f%%\n", res.TotalReturn*100)
	fmt.Fprintf(tw, "CAGR\t%+.2f%%\n", res.CAGR*100)
	fmt.Fprintf(tw, "Max drawdown\t%.2f%%\n", res.MaxDrawdown*100)
	tw.Flush()

	for _, code := range res.Dropped {
		fmt.Fprintf(w, "no history for %s; excluded from the simulation\n", code)
	}
}

// OpenOrders writes one row per revocable open order.
func OpenOrders(w io.Writer, orders []broker.OpenOrder) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "no open orders")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ORDER\tCODE\tSIDE\tREMAINING\tPLACED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			o.ID, o.Code, o.Side, o.Remaining, o.PlacedAt.Format("15:04:05"))
	}
	tw.Flush()
}

// krw formats an amount in whole won with thousands separators. Negative
// amounts keep their sign ahead of the grouping.
func krw(amount float64) string {
	s := strconv.FormatFloat(amount, 'f', 0, 64)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
