package postgres

// SetupSQL is the script an operator runs against a fresh database when
// the application reports that the schema is missing. It matches the
// embedded migrations; it exists so the script can be printed verbatim
// without a database connection.
const SetupSQL = `-- Run this script against your PostgreSQL database to set up the CRM schema.

CREATE TABLE IF NOT EXISTS users (
    id           uuid PRIMARY KEY,
    email        text NOT NULL UNIQUE,
    pwd_hash     bytea NOT NULL,
    salt_auth    bytea NOT NULL,
    verified     boolean NOT NULL DEFAULT false,
    verify_token text NOT NULL DEFAULT '',
    created_at   timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS crm_state (
    user_id    uuid PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    content    jsonb NOT NULL,
    updated_at timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS login_limiter (
    email         text NOT NULL,
    ip_hash       bytea NOT NULL,
    fail_count    int NOT NULL DEFAULT 0,
    blocked_until timestamptz NOT NULL DEFAULT 'epoch',
    updated_at    timestamptz NOT NULL DEFAULT now(),
    PRIMARY KEY (email, ip_hash)
);`
