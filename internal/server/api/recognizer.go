package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/store"
	"github.com/ayusman/holocore/pkg/logger"
)

// RecognizerHandler exposes recognizer state, settings and control.
type RecognizerHandler struct {
	recognizer Recognizer
	control    Controller
	store      *store.Store
	log        logger.Logger
}

// NewRecognizerHandler creates a RecognizerHandler. control and s may be
// nil, in which case start/stop are unavailable and settings are not
// persisted.
func NewRecognizerHandler(rec Recognizer, control Controller, s *store.Store) *RecognizerHandler {
	return &RecognizerHandler{recognizer: rec, control: control, store: s, log: logger.Named("api.recognizer")}
}

type statusResponse struct {
	gesture.Status
	Source bool `json:"source"`
}

type historyResponse struct {
	Events []gesture.Event `json:"events"`
}

// Status handles GET /api/status.
func (h *RecognizerHandler) Status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{Status: h.recognizer.Status()}
	if h.control != nil {
		resp.Source = h.control.Running()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Config handles GET and PUT /api/config. PUT merges the body into the
// current settings, applies them and persists the clamped result.
func (h *RecognizerHandler) Config(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.recognizer.Config())
	case http.MethodPut:
		cfg := h.recognizer.Config()
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		applied := h.recognizer.Configure(gesture.WithConfig(cfg))
		if h.store != nil {
			if err := h.store.Settings().Set(store.SettingRecognizer, applied); err != nil {
				h.log.Error("persist recognizer settings", logger.Error(err))
				writeError(w, http.StatusInternalServerError, "Settings applied but not saved")
				return
			}
		}
		writeJSON(w, http.StatusOK, applied)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// History handles GET /api/history?limit=N.
func (h *RecognizerHandler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	events := h.recognizer.History(queryInt(r, "limit", gesture.DefaultHistoryLimit))
	if events == nil {
		events = []gesture.Event{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Events: events})
}

// Simulate handles POST /api/simulate/{id}.
func (h *RecognizerHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/simulate/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	ev, err := h.recognizer.Simulate(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// Control handles POST /api/recognizer/start and /api/recognizer/stop.
func (h *RecognizerHandler) Control(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.control == nil {
		writeError(w, http.StatusServiceUnavailable, "No frame source configured")
		return
	}

	switch strings.TrimPrefix(r.URL.Path, "/api/recognizer/") {
	case "start":
		if err := h.control.Start(); err != nil {
			h.log.Error("start recognition", logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	case "stop":
		h.control.Stop()
	default:
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"running": h.control.Running()})
}
