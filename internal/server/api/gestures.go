package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/store"
	"github.com/ayusman/holocore/pkg/logger"
)

// GestureHandler serves the gesture catalogue: built-in gestures from the
// recognizer merged with the custom gestures stored in the database.
type GestureHandler struct {
	store      *store.Store
	recognizer Recognizer
	log        logger.Logger
}

// NewGestureHandler creates a new GestureHandler.
func NewGestureHandler(s *store.Store, rec Recognizer) *GestureHandler {
	return &GestureHandler{store: s, recognizer: rec, log: logger.Named("api.gestures")}
}

// ServeHTTP routes /api/gestures and /api/gestures/{id}.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if strings.Contains(path, "/") {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createGestureRequest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Tolerance   float64  `json:"tolerance"`
	Triggers    []string `json:"triggers"`
}

type updateGestureRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Tolerance   float64  `json:"tolerance"`
	Triggers    []string `json:"triggers"`
}

type gestureResponse struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Kind           string   `json:"kind"`
	Type           string   `json:"type,omitempty"`
	BaseConfidence float64  `json:"base_confidence,omitempty"`
	Triggers       []string `json:"triggers"`
	Builtin        bool     `json:"builtin"`
	Quarantined    bool     `json:"quarantined"`
	Registered     bool     `json:"registered"`
	Tolerance      float64  `json:"tolerance,omitempty"`
	Samples        int      `json:"samples"`
	CreatedAt      string   `json:"created_at,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

func fromInfo(info gesture.Info) gestureResponse {
	triggers := info.Triggers
	if triggers == nil {
		triggers = []string{}
	}
	return gestureResponse{
		ID:             info.ID,
		Name:           info.DisplayName,
		Description:    info.Description,
		Kind:           string(info.Kind),
		BaseConfidence: info.BaseConfidence,
		Triggers:       triggers,
		Builtin:        info.Builtin,
		Quarantined:    info.Quarantined,
		Registered:     true,
	}
}

// withRow overlays the stored fields of a custom gesture.
func (g gestureResponse) withRow(row *store.Gesture) gestureResponse {
	g.ID = row.ID
	g.Name = row.Name
	g.Description = row.Description
	g.Type = string(row.Kind)
	g.Tolerance = row.Tolerance
	g.Samples = row.Samples
	g.CreatedAt = row.CreatedAt.Format(timeLayout)
	g.UpdatedAt = row.UpdatedAt.Format(timeLayout)
	if g.Kind == "" {
		g.Kind = string(gesture.KindCustom)
	}
	if len(row.Triggers) > 0 {
		g.Triggers = row.Triggers
	}
	if g.Triggers == nil {
		g.Triggers = []string{}
	}
	return g
}

func (h *GestureHandler) catalogue() map[string]gesture.Info {
	out := make(map[string]gesture.Info)
	for _, info := range h.recognizer.ListGestures() {
		out[info.ID] = info
	}
	return out
}

// list handles GET /api/gestures.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.Gestures().List()
	if err != nil {
		h.log.Error("list gestures", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	catalogue := h.catalogue()
	response := listGesturesResponse{Gestures: make([]gestureResponse, 0, len(catalogue)+len(rows))}
	for _, row := range rows {
		g := gestureResponse{}
		if info, ok := catalogue[row.ID]; ok {
			g = fromInfo(info)
			delete(catalogue, row.ID)
		}
		response.Gestures = append(response.Gestures, g.withRow(row))
	}
	for _, info := range catalogue {
		response.Gestures = append(response.Gestures, fromInfo(info))
	}
	sort.Slice(response.Gestures, func(i, j int) bool {
		return response.Gestures[i].ID < response.Gestures[j].ID
	})

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{id}.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	info, registered := h.catalogue()[id]
	row, err := h.store.Gestures().GetByID(id)
	switch {
	case err == nil:
		g := gestureResponse{}
		if registered {
			g = fromInfo(info)
		}
		writeJSON(w, http.StatusOK, g.withRow(row))
	case errors.Is(err, store.ErrNotFound) && registered:
		writeJSON(w, http.StatusOK, fromInfo(info))
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Gesture not found")
	default:
		h.log.Error("get gesture", logger.String("gesture", id), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
	}
}

// create handles POST /api/gestures. The gesture is recognized only once it
// has been trained from recorded samples.
func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if err := gesture.ValidateID(req.ID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if info, ok := h.catalogue()[req.ID]; ok && info.Builtin {
		writeError(w, http.StatusConflict, "A built-in gesture already uses this id")
		return
	}
	if _, err := h.store.Gestures().GetByID(req.ID); err == nil {
		writeError(w, http.StatusConflict, "Gesture already exists")
		return
	}

	kind := gesture.TemplateKind(req.Type)
	if kind == "" {
		kind = gesture.TemplateStatic
	}
	if kind != gesture.TemplateStatic && kind != gesture.TemplateDynamic {
		writeError(w, http.StatusBadRequest, "Invalid gesture type")
		return
	}

	tolerance := req.Tolerance
	if tolerance <= 0 {
		tolerance = gesture.DefaultStaticTolerance
		if kind == gesture.TemplateDynamic {
			tolerance = gesture.DefaultDynamicTolerance
		}
	}

	row := &store.Gesture{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Kind:        kind,
		Tolerance:   tolerance,
		Triggers:    req.Triggers,
	}
	if err := h.store.Gestures().Create(row); err != nil {
		h.log.Error("create gesture", logger.String("gesture", row.ID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to create gesture")
		return
	}

	h.log.Info("gesture created", logger.String("gesture", row.ID), logger.String("type", string(kind)))
	writeJSON(w, http.StatusCreated, gestureResponse{}.withRow(row))
}

// update handles PUT /api/gestures/{id}. A trained gesture is registered
// again so the change takes effect immediately.
func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	row, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	var req updateGestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		row.Name = req.Name
	}
	if req.Description != nil {
		row.Description = *req.Description
	}
	if req.Tolerance > 0 {
		row.Tolerance = req.Tolerance
	}
	if req.Triggers != nil {
		row.Triggers = req.Triggers
	}

	if err := h.store.Gestures().Update(row); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}

	info, registered := h.catalogue()[id]
	if registered {
		if err := registerTemplate(h.store, h.recognizer, id); err != nil {
			h.log.Warn("re-register gesture", logger.String("gesture", id), logger.Error(err))
		} else {
			info = h.catalogue()[id]
		}
	}

	g := gestureResponse{}
	if registered {
		g = fromInfo(info)
	}
	writeJSON(w, http.StatusOK, g.withRow(row))
}

// delete handles DELETE /api/gestures/{id}.
func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if info, ok := h.catalogue()[id]; ok && info.Builtin {
		writeError(w, http.StatusConflict, gesture.ErrBuiltinGesture.Error())
		return
	}

	stored := true
	if err := h.store.Gestures().Delete(id); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "Failed to delete gesture")
			return
		}
		stored = false
	}

	registered := true
	if err := h.recognizer.RemoveGesture(id); err != nil {
		if !errors.Is(err, gesture.ErrUnknownGesture) {
			writeDomainError(w, err)
			return
		}
		registered = false
	}

	if !stored && !registered {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}

	h.log.Info("gesture deleted", logger.String("gesture", id))
	w.WriteHeader(http.StatusNoContent)
}

// registerTemplate loads the trained template of id and registers it with
// the recognizer, replacing any previous definition.
func registerTemplate(s *store.Store, rec Recognizer, id string) error {
	tpl, err := s.Gestures().Template(id)
	if err != nil {
		return err
	}
	def, err := tpl.Definition()
	if err != nil {
		return err
	}
	return rec.RegisterGesture(def)
}
