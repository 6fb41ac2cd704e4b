package handler

import (
	"net/http"
	"strconv"

	"physitutor/internal/service"
)

// LogHandler exposes the dialogue audit trail for debugging and analytics.
type LogHandler struct {
	dialogueSvc *service.DialogueService
}

// NewLogHandler creates a new log handler
func NewLogHandler(dialogueSvc *service.DialogueService) *LogHandler {
	return &LogHandler{dialogueSvc: dialogueSvc}
}

// Recent handles GET /v1/logs/recent?limit=N
func (h *LogHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	logs, err := h.dialogueSvc.RecentLogs(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(logs),
		"logs":  logs,
	})
}
