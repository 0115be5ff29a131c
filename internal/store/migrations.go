package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Alphabet table - direction tokens in token order
		`CREATE TABLE IF NOT EXISTS alphabet (
			position INTEGER PRIMARY KEY,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		// Classes table - one row per gesture class
		`CREATE TABLE IF NOT EXISTS classes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			exemplars INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Exemplars table - token levels of each stored example, as JSON
		`CREATE TABLE IF NOT EXISTS exemplars (
			id TEXT PRIMARY KEY,
			class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			levels TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_exemplars_class_id ON exemplars(class_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
