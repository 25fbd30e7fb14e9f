package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/landmark"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Gesture is a custom gesture row. Its trained pose or path lives in the
// gesture_landmarks and gesture_paths tables.
type Gesture struct {
	ID          string
	Name        string
	Description string
	Kind        gesture.TemplateKind
	Tolerance   float64
	Triggers    []string
	Samples     int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GestureRepository provides CRUD operations for custom gestures.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

const gestureColumns = `id, display_name, description, kind, tolerance, triggers, samples, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanGesture(row scanner) (*Gesture, error) {
	g := &Gesture{}
	var kind, triggers string
	err := row.Scan(&g.ID, &g.Name, &g.Description, &kind, &g.Tolerance, &triggers, &g.Samples, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Kind = gesture.TemplateKind(kind)
	if err := json.Unmarshal([]byte(triggers), &g.Triggers); err != nil {
		return nil, fmt.Errorf("gesture %s triggers: %w", g.ID, err)
	}
	return g, nil
}

func encodeTriggers(triggers []string) (string, error) {
	if triggers == nil {
		triggers = []string{}
	}
	raw, err := json.Marshal(triggers)
	return string(raw), err
}

// Create inserts a new gesture.
func (r *GestureRepository) Create(g *Gesture) error {
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	triggers, err := encodeTriggers(g.Triggers)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(
		`INSERT INTO gestures (`+gestureColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Description, string(g.Kind), g.Tolerance, triggers, g.Samples, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetByID retrieves a gesture by its ID.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	g, err := scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

// List retrieves all gestures ordered by id.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(`SELECT ` + gestureColumns + ` FROM gestures ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gestures []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		gestures = append(gestures, g)
	}
	return gestures, rows.Err()
}

// Update updates an existing gesture.
func (r *GestureRepository) Update(g *Gesture) error {
	g.UpdatedAt = time.Now()

	triggers, err := encodeTriggers(g.Triggers)
	if err != nil {
		return err
	}
	result, err := r.db.Exec(
		`UPDATE gestures SET display_name = ?, description = ?, kind = ?, tolerance = ?, triggers = ?, samples = ?, updated_at = ?
		 WHERE id = ?`,
		g.Name, g.Description, string(g.Kind), g.Tolerance, triggers, g.Samples, g.UpdatedAt, g.ID,
	)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Delete removes a gesture and, by cascade, its pose, path and samples.
func (r *GestureRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// SaveLandmarks replaces the trained pose of a static gesture.
func (r *GestureRepository) SaveLandmarks(gestureID string, points []landmark.Point) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_landmarks WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO gesture_landmarks (gesture_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range points {
		if _, err := stmt.Exec(gestureID, i, p.X, p.Y, p.Z); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Landmarks returns the trained pose of a gesture in landmark order.
func (r *GestureRepository) Landmarks(gestureID string) ([]landmark.Point, error) {
	rows, err := r.db.Query(
		`SELECT x, y, z FROM gesture_landmarks WHERE gesture_id = ? ORDER BY landmark_index`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []landmark.Point
	for rows.Next() {
		var p landmark.Point
		if err := rows.Scan(&p.X, &p.Y, &p.Z); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SavePath replaces the trained trajectory of a dynamic gesture.
func (r *GestureRepository) SavePath(gestureID string, path []gesture.PathPoint) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_paths WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO gesture_paths (gesture_id, sequence, x, y, timestamp_ms) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range path {
		if _, err := stmt.Exec(gestureID, i, p.X, p.Y, p.Timestamp); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Path returns the trained trajectory of a gesture in sequence order.
func (r *GestureRepository) Path(gestureID string) ([]gesture.PathPoint, error) {
	rows, err := r.db.Query(
		`SELECT x, y, timestamp_ms FROM gesture_paths WHERE gesture_id = ? ORDER BY sequence`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var path []gesture.PathPoint
	for rows.Next() {
		var p gesture.PathPoint
		if err := rows.Scan(&p.X, &p.Y, &p.Timestamp); err != nil {
			return nil, err
		}
		path = append(path, p)
	}
	return path, rows.Err()
}

// Template loads a gesture together with its trained data. Gestures that
// have not been trained yet return a template with no pose or path.
func (r *GestureRepository) Template(id string) (*gesture.Template, error) {
	g, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	tpl := &gesture.Template{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Kind:        g.Kind,
		Tolerance:   g.Tolerance,
		Triggers:    g.Triggers,
	}
	switch g.Kind {
	case gesture.TemplateStatic:
		tpl.Landmarks, err = r.Landmarks(id)
	case gesture.TemplateDynamic:
		tpl.Path, err = r.Path(id)
	}
	if err != nil {
		return nil, err
	}
	return tpl, nil
}

// Templates loads every gesture that has trained data.
func (r *GestureRepository) Templates() ([]*gesture.Template, error) {
	gestures, err := r.List()
	if err != nil {
		return nil, err
	}
	var out []*gesture.Template
	for _, g := range gestures {
		tpl, err := r.Template(g.ID)
		if err != nil {
			return nil, err
		}
		if len(tpl.Landmarks) == 0 && len(tpl.Path) == 0 {
			continue
		}
		out = append(out, tpl)
	}
	return out, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
