package database

// schemas maps database names to their embedded schema definitions.
// Keeping the schema next to the connection code means tests and production
// always run against the same definition.
var schemas = map[string]string{
	"ledger": ledgerSchema,
	"cache":  cacheSchema,
}

// ledgerSchema defines the immutable transaction trail and user-entered
// income records. Rows are never updated in place.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS transactions (
    id          TEXT PRIMARY KEY,
    symbol      TEXT NOT NULL,
    contract    TEXT NOT NULL DEFAULT '',
    instrument  TEXT NOT NULL,
    date        INTEGER NOT NULL,
    quantity    REAL NOT NULL,
    price       REAL NOT NULL,
    strike      REAL NOT NULL DEFAULT 0,
    expiry      INTEGER NOT NULL DEFAULT 0,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_symbol ON transactions(symbol);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);

CREATE TABLE IF NOT EXISTS income_records (
    id          TEXT PRIMARY KEY,
    symbol      TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    amount      REAL NOT NULL,
    date        INTEGER NOT NULL,
    created_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_income_symbol ON income_records(symbol);
`

// cacheSchema stores msgpack-encoded market data snapshots with expiry.
const cacheSchema = `
CREATE TABLE IF NOT EXISTS quote_snapshots (
    symbol     TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS option_chains (
    symbol     TEXT NOT NULL,
    expiry     INTEGER NOT NULL,
    data       BLOB NOT NULL,
    expires_at INTEGER NOT NULL,
    PRIMARY KEY (symbol, expiry)
);
`
