package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per finished session
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			time_remaining REAL NOT NULL,
			duration REAL NOT NULL,
			fruits_cut INTEGER NOT NULL DEFAULT 0,
			bombs_cut INTEGER NOT NULL DEFAULT 0,
			ended_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Per-fruit cut counts for a session
		`CREATE TABLE IF NOT EXISTS result_fruits (
			result_id TEXT NOT NULL REFERENCES results(id) ON DELETE CASCADE,
			fruit TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (result_id, fruit)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_results_score ON results(score DESC, ended_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
