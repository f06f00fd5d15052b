package corpus

// Schema is the SQL schema for the words database. The corpus is the only
// durable state in the system; everything else is rebuilt per process.
const Schema = `
CREATE TABLE IF NOT EXISTS words (
    word       TEXT PRIMARY KEY,
    category   TEXT NOT NULL,
    facts      TEXT NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`
