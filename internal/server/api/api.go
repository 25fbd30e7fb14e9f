// Package api provides the HTTP handlers of the holocore control API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/plugin"
	"github.com/ayusman/holocore/internal/store"
)

// Recognizer is the part of the gesture recognizer the API drives.
type Recognizer interface {
	Status() gesture.Status
	Config() gesture.Config
	Configure(opts ...gesture.Option) gesture.Config
	Simulate(id string) (gesture.Event, error)
	History(limit int) []gesture.Event
	ListGestures() []gesture.Info
	RegisterGesture(def gesture.Definition) error
	RemoveGesture(id string) error
}

// Controller starts and stops recognition together with its frame source.
type Controller interface {
	Start() error
	Stop()
	Running() bool
}

// Plugins lists the discovered action plugins.
type Plugins interface {
	Discover() error
	Get(name string) (*plugin.Plugin, error)
	List() []*plugin.Plugin
}

type errorResponse struct {
	Error string `json:"error"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, gesture.ErrUnknownGesture),
		errors.Is(err, plugin.ErrPluginNotFound):
		return http.StatusNotFound
	case errors.Is(err, gesture.ErrBuiltinGesture),
		errors.Is(err, gesture.ErrSuppressed):
		return http.StatusConflict
	case errors.Is(err, gesture.ErrInvalidGestureID),
		errors.Is(err, gesture.ErrInvalidTemplate),
		errors.Is(err, gesture.ErrNoSamples):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return def
	}
	return v
}
