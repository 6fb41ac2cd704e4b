package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"physitutor/internal/model"
	"physitutor/internal/service"
	"physitutor/internal/transport/rest/middleware"
)

// SessionHandler handles the session lifecycle and dialogue endpoints.
type SessionHandler struct {
	dialogueSvc *service.DialogueService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(dialogueSvc *service.DialogueService) *SessionHandler {
	return &SessionHandler{dialogueSvc: dialogueSvc}
}

type createSessionRequest struct {
	QuestionID string `json:"questionId"`
}

// Create handles POST /v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuestionID == "" {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}

	studentID := middleware.GetStudentID(r.Context())
	studentName := middleware.GetStudentName(r.Context())
	session, err := h.dialogueSvc.CreateSession(r.Context(), req.QuestionID, studentID, studentName)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// GetStep handles GET /v1/sessions/{sessionId}/step
func (h *SessionHandler) GetStep(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	view, err := h.dialogueSvc.GetCurrentStep(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SubmitChoice handles POST /v1/sessions/{sessionId}/choice
func (h *SessionHandler) SubmitChoice(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req model.SubmitChoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.dialogueSvc.SubmitChoice(r.Context(), sessionID, req.Choice)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SubmitReasoning handles POST /v1/sessions/{sessionId}/reasoning
func (h *SessionHandler) SubmitReasoning(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req model.SubmitReasoningRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.dialogueSvc.SubmitReasoning(r.Context(), sessionID, req.Text, req.Image)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// History handles GET /v1/sessions/{sessionId}/history
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	entries, err := h.dialogueSvc.SessionHistory(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessionId": sessionID,
		"entries":   entries,
	})
}

// StartTransfer handles POST /v1/sessions/{sessionId}/transfer
func (h *SessionHandler) StartTransfer(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	result, err := h.dialogueSvc.StartTransfer(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GenerateTransfer handles POST /v1/sessions/{sessionId}/transfer/generate
func (h *SessionHandler) GenerateTransfer(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	questionID, err := h.dialogueSvc.GenerateTransferQuestion(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if questionID == "" {
		writeJSON(w, http.StatusOK, map[string]interface{}{"available": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"available":  true,
		"questionId": questionID,
	})
}

// End handles DELETE /v1/sessions/{sessionId}
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	state, err := h.dialogueSvc.EndSession(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}
