package store

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/landmark"
)

func createGesture(t *testing.T, s *Store, id string, kind gesture.TemplateKind) *Gesture {
	t.Helper()
	g := &Gesture{ID: id, Name: id, Kind: kind, Tolerance: 0.5, Triggers: []string{"hello"}}
	if err := s.Gestures().Create(g); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	return g
}

func TestGestureRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := &Gesture{
		ID:          "shaka",
		Name:        "Shaka",
		Description: "thumb and pinky out",
		Kind:        gesture.TemplateStatic,
		Tolerance:   0.15,
		Triggers:    []string{"hang_loose", "hello"},
	}
	if err := repo.Create(g); err != nil {
		t.Fatalf("failed to create gesture: %v", err)
	}
	if g.CreatedAt.IsZero() || g.UpdatedAt.IsZero() {
		t.Error("timestamps should be set after create")
	}

	got, err := repo.GetByID("shaka")
	if err != nil {
		t.Fatalf("failed to get gesture by ID: %v", err)
	}
	if got.Name != g.Name || got.Description != g.Description || got.Kind != g.Kind {
		t.Errorf("got %+v, want %+v", got, g)
	}
	if got.Tolerance != g.Tolerance {
		t.Errorf("Tolerance mismatch: got %f, want %f", got.Tolerance, g.Tolerance)
	}
	if !slices.Equal(got.Triggers, g.Triggers) {
		t.Errorf("Triggers mismatch: got %v, want %v", got.Triggers, g.Triggers)
	}
}

func TestGestureRepository_Create_Duplicate(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "wave", gesture.TemplateDynamic)

	if err := s.Gestures().Create(&Gesture{ID: "wave", Name: "again", Kind: gesture.TemplateDynamic}); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestGestureRepository_Create_InvalidKind(t *testing.T) {
	s := newTestStore(t)
	if err := s.Gestures().Create(&Gesture{ID: "x", Name: "x", Kind: "sideways"}); err == nil {
		t.Error("expected check constraint to reject unknown kind")
	}
}

func TestGestureRepository_List(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		createGesture(t, s, id, gesture.TemplateStatic)
	}

	list, err := s.Gestures().List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var ids []string
	for _, g := range list {
		ids = append(ids, g.ID)
	}
	if want := []string{"alpha", "mid", "zeta"}; !slices.Equal(ids, want) {
		t.Errorf("List() ids = %v, want %v", ids, want)
	}
}

func TestGestureRepository_Update(t *testing.T) {
	s := newTestStore(t)
	g := createGesture(t, s, "wave", gesture.TemplateDynamic)

	g.Name = "Big wave"
	g.Triggers = nil
	if err := s.Gestures().Update(g); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := s.Gestures().GetByID("wave")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Name != "Big wave" {
		t.Errorf("Name = %q, want %q", got.Name, "Big wave")
	}
	if got.Triggers == nil || len(got.Triggers) != 0 {
		t.Errorf("Triggers = %#v, want empty slice", got.Triggers)
	}
}

func TestGestureRepository_NotFound(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(&Gesture{ID: "missing", Kind: gesture.TemplateStatic}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := repo.Template("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Template() error = %v, want ErrNotFound", err)
	}
}

func TestGestureRepository_StaticTemplate(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "shaka", gesture.TemplateStatic)
	repo := s.Gestures()

	pose := landmark.Normalize(landmark.Victory(0.5, 0.5))
	if err := repo.SaveLandmarks("shaka", pose); err != nil {
		t.Fatalf("SaveLandmarks() error = %v", err)
	}
	// saving again replaces rather than appends
	if err := repo.SaveLandmarks("shaka", pose); err != nil {
		t.Fatalf("SaveLandmarks() error = %v", err)
	}

	tpl, err := repo.Template("shaka")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if !slices.Equal(tpl.Landmarks, pose) {
		t.Errorf("Landmarks = %v, want %v", tpl.Landmarks, pose)
	}
	if tpl.Path != nil {
		t.Errorf("static template should have no path, got %v", tpl.Path)
	}
	if _, err := tpl.Definition(); err != nil {
		t.Errorf("stored template should build a definition: %v", err)
	}
}

func TestGestureRepository_DynamicTemplate(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "flick", gesture.TemplateDynamic)
	repo := s.Gestures()

	path := []gesture.PathPoint{{X: 0, Y: 0, Timestamp: 0}, {X: 0.5, Y: 0.1, Timestamp: 40}, {X: 1, Y: 0, Timestamp: 80}}
	if err := repo.SavePath("flick", path); err != nil {
		t.Fatalf("SavePath() error = %v", err)
	}

	tpl, err := repo.Template("flick")
	if err != nil {
		t.Fatalf("Template() error = %v", err)
	}
	if !slices.Equal(tpl.Path, path) {
		t.Errorf("Path = %v, want %v", tpl.Path, path)
	}
}

func TestGestureRepository_Templates_SkipsUntrained(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "trained", gesture.TemplateStatic)
	createGesture(t, s, "untrained", gesture.TemplateStatic)
	if err := s.Gestures().SaveLandmarks("trained", landmark.Normalize(landmark.Fist(0.5, 0.5))); err != nil {
		t.Fatalf("SaveLandmarks() error = %v", err)
	}

	tpls, err := s.Gestures().Templates()
	if err != nil {
		t.Fatalf("Templates() error = %v", err)
	}
	if len(tpls) != 1 || tpls[0].ID != "trained" {
		t.Errorf("Templates() = %v, want only trained", tpls)
	}
}

func TestGestureRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "shaka", gesture.TemplateStatic)
	if err := s.Gestures().SaveLandmarks("shaka", landmark.Fist(0.5, 0.5)); err != nil {
		t.Fatalf("SaveLandmarks() error = %v", err)
	}
	if _, err := s.Samples().Append("shaka", []json.RawMessage{json.RawMessage(`{}`)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if err := s.Gestures().Delete("shaka"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for _, table := range []string{"gesture_landmarks", "gesture_samples"} {
		var n int
		if err := s.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s should be empty after delete, has %d rows", table, n)
		}
	}
}
