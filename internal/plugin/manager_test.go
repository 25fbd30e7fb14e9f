package plugin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "zeta", "", "post")
	writePlugin(t, root, "alpha", "", "post", "notify")

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	plugins := manager.List()
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	if plugins[0].Manifest.Name != "alpha" || plugins[1].Manifest.Name != "zeta" {
		t.Errorf("List() should be sorted by name, got %s, %s", plugins[0].Manifest.Name, plugins[1].Manifest.Name)
	}

	alpha := plugins[0]
	if alpha.Path != filepath.Join(root, "alpha") {
		t.Errorf("Path = %q", alpha.Path)
	}
	if alpha.Executable != filepath.Join(root, "alpha", "run.sh") {
		t.Errorf("Executable = %q", alpha.Executable)
	}
	if !alpha.Supports("notify") || alpha.Supports("explode") {
		t.Error("Supports() should reflect the manifest actions")
	}
}

func TestManager_Discover_SkipsInvalid(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "good", "")

	bad := filepath.Join(root, "bad-json")
	os.MkdirAll(bad, 0o755)
	os.WriteFile(filepath.Join(bad, "plugin.json"), []byte("{invalid"), 0o644)

	noActions := filepath.Join(root, "no-actions")
	os.MkdirAll(noActions, 0o755)
	os.WriteFile(filepath.Join(noActions, "plugin.json"), []byte(`{"name":"empty","executable":"run.sh"}`), 0o644)

	os.MkdirAll(filepath.Join(root, "no-manifest"), 0o755)
	os.WriteFile(filepath.Join(root, "stray-file"), []byte("x"), 0o644)

	manager := NewManager(root)
	if err := manager.Discover(); err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if plugins := manager.List(); len(plugins) != 1 || plugins[0].Manifest.Name != "good" {
		t.Errorf("expected only the valid plugin, got %d", len(plugins))
	}
}

func TestManager_Discover_Rescan(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "first", "")

	manager := NewManager(root)
	manager.Discover()

	os.RemoveAll(filepath.Join(root, "first"))
	writePlugin(t, root, "second", "")
	manager.Discover()

	if _, err := manager.Get("first"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("removed plugin should be gone, got %v", err)
	}
	if _, err := manager.Get("second"); err != nil {
		t.Errorf("Get() error = %v", err)
	}
}

func TestManager_Discover_NonExistentDir(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing"))
	if err := manager.Discover(); err != nil {
		t.Errorf("Discover() on a missing dir should not fail: %v", err)
	}
	if len(manager.List()) != 0 {
		t.Error("expected no plugins")
	}
}

func TestManager_Get_NotFound(t *testing.T) {
	manager := NewManager(t.TempDir())
	if _, err := manager.Get("nonexistent"); !errors.Is(err, ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
	if manager.PluginDir() == "" {
		t.Error("PluginDir() should be set")
	}
}

func TestManifest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		manifest Manifest
		wantErr  bool
	}{
		{"valid", Manifest{Name: "a", Executable: "a", Actions: []string{"x"}}, false},
		{"no name", Manifest{Executable: "a", Actions: []string{"x"}}, true},
		{"no executable", Manifest{Name: "a", Actions: []string{"x"}}, true},
		{"no actions", Manifest{Name: "a", Executable: "a"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.manifest.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidManifest) {
				t.Errorf("expected ErrInvalidManifest, got %v", err)
			}
		})
	}
}
