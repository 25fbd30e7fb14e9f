package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/holocore/internal/gesture"
	"github.com/ayusman/holocore/internal/landmark"
	"github.com/ayusman/holocore/internal/store"
	"github.com/ayusman/holocore/pkg/logger"
)

// SamplesHandler records training samples and trains custom gestures.
type SamplesHandler struct {
	store      *store.Store
	recognizer Recognizer
	trainer    *gesture.Trainer
	log        logger.Logger
}

// NewSamplesHandler creates a new SamplesHandler.
func NewSamplesHandler(s *store.Store, rec Recognizer) *SamplesHandler {
	return &SamplesHandler{
		store:      s,
		recognizer: rec,
		trainer:    gesture.NewTrainer(),
		log:        logger.Named("api.samples"),
	}
}

// ServeHTTP routes /api/gestures/{id}/samples and /api/gestures/{id}/train.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}
	gestureID := parts[0]

	switch parts[1] {
	case "samples":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r, gestureID)
		case http.MethodPost:
			h.create(w, r, gestureID)
		case http.MethodDelete:
			h.clear(w, r, gestureID)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "train":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.train(w, r, gestureID)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

// list handles GET /api/gestures/{id}/samples.
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, gestureID string) {
	samples, err := h.store.Samples().GetByGestureID(gestureID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{Samples: make([]sampleResponse, 0, len(samples))}
	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			GestureID:   s.GestureID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(timeLayout),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/gestures/{id}/samples.
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, gestureID string) {
	if _, err := h.store.Gestures().GetByID(gestureID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to verify gesture")
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}

	total, err := h.store.Samples().Append(gestureID, req.Samples)
	if err != nil {
		h.log.Error("append samples", logger.String("gesture", gestureID), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int{"samples": total})
}

// clear handles DELETE /api/gestures/{id}/samples.
func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, gestureID string) {
	if err := h.store.Samples().DeleteByGestureID(gestureID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// train handles POST /api/gestures/{id}/train. It averages the recorded
// samples into a template, stores it and registers the gesture.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request, gestureID string) {
	row, err := h.store.Gestures().GetByID(gestureID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	samples, err := h.store.Samples().Data(gestureID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load samples")
		return
	}

	switch row.Kind {
	case gesture.TemplateStatic:
		var points []landmark.Point
		points, err = h.trainer.TrainStatic(samples)
		if err == nil {
			err = h.store.Gestures().SaveLandmarks(gestureID, points)
		}
	case gesture.TemplateDynamic:
		var path []gesture.PathPoint
		path, err = h.trainer.TrainDynamic(samples)
		if err == nil {
			err = h.store.Gestures().SavePath(gestureID, path)
		}
	}
	if err != nil {
		if errors.Is(err, gesture.ErrNoSamples) {
			writeError(w, http.StatusBadRequest, "Record samples before training")
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := registerTemplate(h.store, h.recognizer, gestureID); err != nil {
		h.log.Error("register trained gesture", logger.String("gesture", gestureID), logger.Error(err))
		writeDomainError(w, err)
		return
	}

	h.log.Info("gesture trained",
		logger.String("gesture", gestureID),
		logger.String("type", string(row.Kind)),
		logger.Int("samples", len(samples)))

	g := gestureResponse{}
	for _, info := range h.recognizer.ListGestures() {
		if info.ID == gestureID {
			g = fromInfo(info)
		}
	}
	writeJSON(w, http.StatusOK, g.withRow(row))
}
