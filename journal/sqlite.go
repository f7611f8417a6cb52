package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordCycle(c CycleRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO cycles
		(cycle_id, account, mode, total_asset, planned, cancelled, cancel_failed, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.CycleID, c.Account, c.Mode, c.TotalAsset,
		c.Planned, c.Cancelled, c.CancelFailed, c.Time,
	)
	return err
}

func (j *SQLite) RecordTicket(t TicketRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO tickets
		(ticket_id, cycle_id, code, side, tier, price, quantity, outcome, reason, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TicketID, t.CycleID, t.Code, t.Side, t.Tier,
		t.Price, t.Quantity, t.Outcome, t.Reason, t.Time,
	)
	return err
}

// ListTickets returns the tickets recorded for one cycle, oldest first.
func (j *SQLite) ListTickets(cycleID string) ([]TicketRecord, error) {
	rows, err := j.db.Query(`
		SELECT ticket_id, cycle_id, code, side, tier, price, quantity, outcome, reason, time
		FROM tickets WHERE cycle_id = ? ORDER BY ticket_id`, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TicketRecord
	for rows.Next() {
		var t TicketRecord
		if err := rows.Scan(
			&t.TicketID, &t.CycleID, &t.Code, &t.Side, &t.Tier,
			&t.Price, &t.Quantity, &t.Outcome, &t.Reason, &t.Time,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
