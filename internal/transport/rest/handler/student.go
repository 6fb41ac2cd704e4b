package handler

import (
	"net/http"

	"physitutor/internal/service"
	"physitutor/internal/transport/rest/middleware"
)

// StudentHandler exposes per-student durable records.
type StudentHandler struct {
	dialogueSvc *service.DialogueService
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(dialogueSvc *service.DialogueService) *StudentHandler {
	return &StudentHandler{dialogueSvc: dialogueSvc}
}

// Mistakes handles GET /v1/students/me/mistakes. Requires identity: the
// ledger is keyed on the student name, anonymous sessions have none.
func (h *StudentHandler) Mistakes(w http.ResponseWriter, r *http.Request) {
	name := middleware.GetStudentName(r.Context())
	if name == "" {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}

	mistakes, err := h.dialogueSvc.StudentMistakes(r.Context(), name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"student":  name,
		"mistakes": mistakes,
	})
}
