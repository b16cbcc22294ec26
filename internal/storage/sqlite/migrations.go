package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
//
// Membership is a single table with a composite primary key: a (journey,
// user) pair has exactly one status row, so the member, pending, and
// rejected sets cannot overlap no matter what sequence of admission
// operations runs.
const schema = `
CREATE TABLE IF NOT EXISTS journeys (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL UNIQUE,
    name TEXT NOT NULL,
    leader_id TEXT NOT NULL,
    start_date INTEGER,
    end_date INTEGER,
    status TEXT NOT NULL DEFAULT 'active',
    is_locked INTEGER NOT NULL DEFAULT 0,
    is_input_locked INTEGER NOT NULL DEFAULT 0,
    require_approval INTEGER NOT NULL DEFAULT 0,
    password_hash TEXT NOT NULL DEFAULT '',
    join_token_jti TEXT NOT NULL DEFAULT '',
    join_token_expires_at INTEGER,
    join_token_used INTEGER NOT NULL DEFAULT 0,
    expire_at INTEGER,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT,
    is_guest INTEGER NOT NULL DEFAULT 0,
    expire_at INTEGER,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS journey_members (
    journey_id TEXT NOT NULL,
    user_id TEXT NOT NULL,
    status TEXT NOT NULL,
    PRIMARY KEY (journey_id, user_id),
    FOREIGN KEY (journey_id) REFERENCES journeys(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    journey_id TEXT NOT NULL,
    payer_id TEXT NOT NULL,
    title TEXT NOT NULL,
    amount REAL NOT NULL,
    expire_at INTEGER,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (journey_id) REFERENCES journeys(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email) WHERE email IS NOT NULL AND email != '';
CREATE INDEX IF NOT EXISTS idx_journeys_join_token_jti ON journeys(join_token_jti) WHERE join_token_jti != '';
CREATE INDEX IF NOT EXISTS idx_journey_members_user_id ON journey_members(user_id);
CREATE INDEX IF NOT EXISTS idx_expenses_journey_id ON expenses(journey_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
