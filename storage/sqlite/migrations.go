package sqlite

import "database/sql"

// schema runs on startup. budget_dividers must exist before transactions
// because of the foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS budget_dividers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    max_budget INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_number TEXT NOT NULL CHECK (length(card_number) = 4),
    start TEXT NOT NULL,
    "end" TEXT NOT NULL,
    amount TEXT NOT NULL,
    vendor TEXT NOT NULL,
    budget_divider_id INTEGER,
    FOREIGN KEY (budget_divider_id) REFERENCES budget_dividers(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_card_number ON transactions(card_number);
CREATE INDEX IF NOT EXISTS idx_transactions_budget_divider_id ON transactions(budget_divider_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
