package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Sessions table - one row per pipeline run
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			camera_source TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Touch events table - one row per touch delivered to the controller
		`CREATE TABLE IF NOT EXISTS touch_events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			event TEXT NOT NULL,
			occurred_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_touch_events_session_id ON touch_events(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_touch_events_occurred_at ON touch_events(occurred_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
