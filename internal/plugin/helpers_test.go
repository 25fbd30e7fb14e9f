package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// writePlugin creates a plugin directory with a shell script executable
// and returns the loaded plugin.
func writePlugin(t *testing.T, root, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins are not supported on Windows")
	}
	if len(actions) == 0 {
		actions = []string{"run"}
	}

	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create plugin dir: %v", err)
	}
	manifest := Manifest{Name: name, Version: "1.0.0", Executable: "run.sh", Actions: actions}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0o644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	return &Plugin{Manifest: manifest, Path: dir, Executable: filepath.Join(dir, "run.sh")}
}
