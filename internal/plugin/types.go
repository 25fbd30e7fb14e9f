// Package plugin discovers action plugins and runs them when gestures are
// recognized. A plugin is an executable that reads one JSON Request on
// stdin and writes one JSON Response on stdout.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidManifest is returned for manifests missing required fields.
var ErrInvalidManifest = errors.New("invalid plugin manifest")

// Manifest describes a plugin's metadata and capabilities.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Validate checks the fields the runner relies on.
func (m Manifest) Validate() error {
	switch {
	case m.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidManifest)
	case m.Executable == "":
		return fmt.Errorf("%w: %s has no executable", ErrInvalidManifest, m.Name)
	case len(m.Actions) == 0:
		return fmt.Errorf("%w: %s declares no actions", ErrInvalidManifest, m.Name)
	}
	return nil
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	// Event is the recognized gesture event that triggered the action.
	Event json.RawMessage `json:"event,omitempty"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest `json:"manifest"`
	Path       string   `json:"path"`
	Executable string   `json:"executable"`
}

// Supports reports whether the plugin declares action.
func (p *Plugin) Supports(action string) bool {
	return slices.Contains(p.Manifest.Actions, action)
}
