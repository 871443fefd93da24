// Package ledger persists the append-only order ledger.
//
// The ledger is the single source of truth for portfolio state. Rows are
// only ever inserted or have their status advanced; they are never
// updated in place or deleted.
package ledger

// Schema creates the orders table. Prices and values are stored as
// exact decimal strings, never floats.
const Schema = `
CREATE TABLE IF NOT EXISTS orders (
    order_id           INTEGER PRIMARY KEY AUTOINCREMENT,
    symbol             TEXT    NOT NULL,
    action             TEXT    NOT NULL CHECK (action IN ('BUY', 'SELL')),
    shares             INTEGER NOT NULL CHECK (shares > 0),
    price              TEXT    NOT NULL,
    value              TEXT    NOT NULL,
    allocation_percent REAL    NOT NULL DEFAULT 0,
    execution_time     TEXT    NOT NULL,
    session_type       TEXT    NOT NULL,
    status             TEXT    NOT NULL DEFAULT 'PENDING'
                       CHECK (status IN ('PENDING', 'EXECUTED', 'FAILED', 'CANCELLED')),
    created_at         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);
CREATE INDEX IF NOT EXISTS idx_orders_session ON orders(session_type);
`
