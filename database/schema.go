// campusvoice/database/schema.go
package database

// Base schema per driver. Each entry is executed on its own so the same
// runner works for drivers that reject multi-statement Exec with arguments.
var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS problems (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL,
	category TEXT NOT NULL,
	score INTEGER NOT NULL DEFAULT 0,
	solved BOOLEAN NOT NULL DEFAULT 0,
	creator_id TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	poll_question TEXT
)`,
	`CREATE TABLE IF NOT EXISTS replies (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	problem_id INTEGER NOT NULL,
	text TEXT NOT NULL,
	creator_id TEXT NOT NULL,
	parent_reply_id INTEGER,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (problem_id) REFERENCES problems(id) ON DELETE CASCADE,
	FOREIGN KEY (parent_reply_id) REFERENCES replies(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS votes (
	problem_id INTEGER NOT NULL,
	device_id TEXT NOT NULL,
	vote_type TEXT NOT NULL CHECK (vote_type IN ('up', 'down')),
	PRIMARY KEY (problem_id, device_id),
	FOREIGN KEY (problem_id) REFERENCES problems(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS poll_votes (
	problem_id INTEGER NOT NULL,
	device_id TEXT NOT NULL,
	vote_option TEXT NOT NULL CHECK (vote_option IN ('yes', 'no')),
	PRIMARY KEY (problem_id, device_id),
	FOREIGN KEY (problem_id) REFERENCES problems(id) ON DELETE CASCADE
)`,
	`CREATE TABLE IF NOT EXISTS visitors (
	device_id TEXT PRIMARY KEY,
	first_seen DATETIME NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at DATETIME NOT NULL
)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS problems (
	id BIGSERIAL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	description TEXT NOT NULL,
	category VARCHAR(50) NOT NULL,
	score INTEGER NOT NULL DEFAULT 0,
	solved BOOLEAN NOT NULL DEFAULT FALSE,
	creator_id VARCHAR(100) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	poll_question TEXT
)`,
	`CREATE TABLE IF NOT EXISTS replies (
	id BIGSERIAL PRIMARY KEY,
	problem_id BIGINT NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
	text TEXT NOT NULL,
	creator_id VARCHAR(100) NOT NULL,
	parent_reply_id BIGINT REFERENCES replies(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS votes (
	problem_id BIGINT NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
	device_id VARCHAR(100) NOT NULL,
	vote_type VARCHAR(10) NOT NULL CHECK (vote_type IN ('up', 'down')),
	PRIMARY KEY (problem_id, device_id)
)`,
	`CREATE TABLE IF NOT EXISTS poll_votes (
	problem_id BIGINT NOT NULL REFERENCES problems(id) ON DELETE CASCADE,
	device_id VARCHAR(100) NOT NULL,
	vote_option VARCHAR(10) NOT NULL CHECK (vote_option IN ('yes', 'no')),
	PRIMARY KEY (problem_id, device_id)
)`,
	`CREATE TABLE IF NOT EXISTS visitors (
	device_id VARCHAR(100) PRIMARY KEY,
	first_seen TIMESTAMPTZ NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL
)`,
}
