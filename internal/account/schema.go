package account

// Schema is the DDL for the accounts table shared by the SQL backends.
const Schema = `CREATE TABLE IF NOT EXISTS accounts (
    id      TEXT PRIMARY KEY,
    number  TEXT NOT NULL UNIQUE,
    pin     TEXT NOT NULL,
    balance BIGINT NOT NULL DEFAULT 0
)`
