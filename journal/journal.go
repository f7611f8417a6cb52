// Package journal records rebalancing cycles and order tickets for audit.
package journal

import "time"

// CycleRecord summarizes one planning/execution cycle.
type CycleRecord struct {
	CycleID      string
	Account      string
	Mode         string // strategy name, or "plan" for a report-only run
	TotalAsset   float64
	Planned      int // number of planned actions
	Cancelled    int // open orders cancelled during reconciliation
	CancelFailed int
	Time         time.Time
}

// TicketRecord is the outcome of one order ticket within a cycle.
type TicketRecord struct {
	TicketID string
	CycleID  string
	Code     string
	Side     string
	Tier     int
	Price    float64
	Quantity int64
	Outcome  string // "accepted", "rejected" or "skipped"
	Reason   string
	Time     time.Time
}

// Ticket outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

type Journal interface {
	RecordCycle(CycleRecord) error
	RecordTicket(TicketRecord) error
	Close() error
}

// Nop discards everything. Used for plan-only runs.
type Nop struct{}

func (Nop) RecordCycle(CycleRecord) error   { return nil }
func (Nop) RecordTicket(TicketRecord) error { return nil }
func (Nop) Close() error                    { return nil }
