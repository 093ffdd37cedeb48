package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/diane/internal/api/middleware"
	"github.com/dvloznov/diane/internal/domain"
	"github.com/dvloznov/diane/internal/store"
)

const defaultPromptLogLimit = 100

// PromptLogsHandler exposes the generation audit trail.
type PromptLogsHandler struct {
	store PromptLogStore
	log   zerolog.Logger
}

// NewPromptLogsHandler creates a new prompt logs handler.
func NewPromptLogsHandler(store PromptLogStore, log zerolog.Logger) *PromptLogsHandler {
	return &PromptLogsHandler{store: store, log: log}
}

// List handles GET /api/prompt-logs?limit=&offset=&kind=
func (h *PromptLogsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPromptLogLimit, 1, 500)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	logs, err := h.store.ListPromptLogs(r.Context(), store.PromptLogFilter{
		Limit:  limit,
		Offset: offset,
		Kind:   domain.PromptKind(r.URL.Query().Get("kind")),
	})
	if err != nil {
		writeStoreError(w, h.log, err, "Failed to list prompt logs")
		return
	}
	if logs == nil {
		logs = []domain.PromptLog{}
	}
	middleware.WriteJSON(w, http.StatusOK, logs)
}
