package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/septagon/TRACE/internal/app"
	"github.com/septagon/TRACE/internal/gesture"
)

// ClassHandler serves the vocabulary: listing classes, classifying traces
// and adding examples.
type ClassHandler struct {
	session Session
	logger  *zap.Logger
}

// NewClassHandler creates a ClassHandler for the given session.
func NewClassHandler(s Session, logger *zap.Logger) *ClassHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassHandler{session: s, logger: logger}
}

type listClassesResponse struct {
	Classes []app.ClassInfo `json:"classes"`
}

type classifyRequest struct {
	Points []Point `json:"points"`
}

type exampleRequest struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// List handles GET /api/classes.
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, listClassesResponse{Classes: h.session.Classes()})
}

// Classify handles POST /api/classify. It never changes the vocabulary.
func (h *ClassHandler) Classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req classifyRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	t, err := trajectoryFrom(h.session, req.Points)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.session.Classify(t)
	if err != nil {
		h.logger.Error("classification failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to classify")
		return
	}
	writeJSON(w, http.StatusOK, NewResult(app.Outcome{Result: res}))
}

// AddExample handles POST /api/examples. The response carries the
// classification of the example made before it was added.
func (h *ClassHandler) AddExample(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req exampleRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	t, err := trajectoryFrom(h.session, req.Points)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.session.Train(t, req.Name)
	switch {
	case errors.Is(err, gesture.ErrEmptyName):
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	case err != nil:
		h.logger.Error("adding example failed", zap.String("class", req.Name), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to add example")
		return
	}
	writeJSON(w, http.StatusCreated, NewResult(app.Outcome{Result: res, Learned: req.Name}))
}
