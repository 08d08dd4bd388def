// campusvoice/database/migrations.go
package database

// migration represents a single database schema migration. Statements must
// be valid on every supported driver.
type migration struct {
	Version    uint
	Statements []string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Statements: []string{
			// Listing filters and the two sort orders
			`CREATE INDEX IF NOT EXISTS idx_problems_category ON problems(category)`,
			`CREATE INDEX IF NOT EXISTS idx_problems_score ON problems(score DESC, id DESC)`,
		},
	},
	{
		Version: 2,
		Statements: []string{
			// Sync lookups by device and reply fetches by problem
			`CREATE INDEX IF NOT EXISTS idx_votes_device ON votes(device_id)`,
			`CREATE INDEX IF NOT EXISTS idx_poll_votes_device ON poll_votes(device_id)`,
			`CREATE INDEX IF NOT EXISTS idx_replies_problem ON replies(problem_id)`,
			`CREATE INDEX IF NOT EXISTS idx_replies_parent ON replies(parent_reply_id)`,
		},
	},
}
