package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Action binds a gesture id to a plugin action. The gesture may be a
// built-in or a custom gesture.
type Action struct {
	ID         string          `json:"id"`
	GestureID  string          `json:"gesture_id"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ActionRepository provides CRUD operations for actions.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

const actionColumns = `id, gesture_id, plugin_name, action_name, config, enabled, created_at`

func scanAction(row scanner) (*Action, error) {
	a := &Action{}
	var config string
	var enabled int
	if err := row.Scan(&a.ID, &a.GestureID, &a.PluginName, &a.ActionName, &config, &enabled, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Config = json.RawMessage(config)
	a.Enabled = enabled != 0
	return a, nil
}

func actionConfig(a *Action) string {
	if len(a.Config) == 0 {
		return "{}"
	}
	return string(a.Config)
}

// Create inserts a new action.
func (r *ActionRepository) Create(a *Action) error {
	a.CreatedAt = time.Now()
	_, err := r.db.Exec(
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.GestureID, a.PluginName, a.ActionName, actionConfig(a), a.Enabled, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an action by its ID.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	a, err := scanAction(r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// Enabled returns the enabled actions bound to a gesture, oldest first.
// A gesture without bindings yields an empty slice.
func (r *ActionRepository) Enabled(gestureID string) ([]*Action, error) {
	return r.query(`SELECT `+actionColumns+` FROM actions WHERE gesture_id = ? AND enabled = 1 ORDER BY created_at, id`, gestureID)
}

// List retrieves all actions, newest first.
func (r *ActionRepository) List() ([]*Action, error) {
	return r.query(`SELECT ` + actionColumns + ` FROM actions ORDER BY created_at DESC, id`)
}

func (r *ActionRepository) query(q string, args ...any) ([]*Action, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// Update updates an existing action.
func (r *ActionRepository) Update(a *Action) error {
	result, err := r.db.Exec(
		`UPDATE actions SET gesture_id = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		a.GestureID, a.PluginName, a.ActionName, actionConfig(a), a.Enabled, a.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes an action by its ID.
func (r *ActionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}
