package api

import (
	"net/http"

	"go.uber.org/zap"
)

// SnapshotHandler persists the vocabulary on request.
type SnapshotHandler struct {
	session Session
	logger  *zap.Logger
}

// NewSnapshotHandler creates a SnapshotHandler for the given session.
func NewSnapshotHandler(s Session, logger *zap.Logger) *SnapshotHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotHandler{session: s, logger: logger}
}

type snapshotResponse struct {
	Classes int `json:"classes"`
}

// ServeHTTP handles POST /api/snapshot.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := h.session.Save(r.Context()); err != nil {
		h.logger.Error("snapshot failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to save vocabulary")
		return
	}
	writeJSON(w, http.StatusOK, snapshotResponse{Classes: len(h.session.Classes())})
}
