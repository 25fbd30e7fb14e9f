package store

// runMigrations creates the schema.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Custom gestures trained from samples.
		`CREATE TABLE IF NOT EXISTS gestures (
			id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL CHECK(kind IN ('static', 'dynamic')),
			tolerance REAL NOT NULL DEFAULT 0,
			triggers TEXT NOT NULL DEFAULT '[]',
			samples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Trained pose of static gestures.
		`CREATE TABLE IF NOT EXISTS gesture_landmarks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			landmark_index INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL
		)`,

		// Trained palm trajectory of dynamic gestures.
		`CREATE TABLE IF NOT EXISTS gesture_paths (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			sequence INTEGER NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			timestamp_ms INTEGER NOT NULL
		)`,

		// Actions may bind built-in gestures, so gesture_id is not a foreign key.
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			gesture_id TEXT NOT NULL,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Raw recorded samples used for training.
		`CREATE TABLE IF NOT EXISTS gesture_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
			sample_index INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_gesture_landmarks_gesture_id ON gesture_landmarks(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_paths_gesture_id ON gesture_paths(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actions_gesture_id ON actions(gesture_id)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_samples_gesture_id ON gesture_samples(gesture_id)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}
