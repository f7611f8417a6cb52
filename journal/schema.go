package journal

const Schema = `
CREATE TABLE IF NOT EXISTS cycles (
	cycle_id TEXT PRIMARY KEY,
	account TEXT NOT NULL,
	mode TEXT NOT NULL,
	total_asset REAL NOT NULL,
	planned INTEGER NOT NULL,
	cancelled INTEGER NOT NULL,
	cancel_failed INTEGER NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	ticket_id TEXT PRIMARY KEY,
	cycle_id TEXT NOT NULL,
	code TEXT NOT NULL,
	side TEXT NOT NULL,
	tier INTEGER NOT NULL,
	price REAL NOT NULL,
	quantity INTEGER NOT NULL,
	outcome TEXT NOT NULL,
	reason TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tickets_cycle ON tickets(cycle_id);
`
