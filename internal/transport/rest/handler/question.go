package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"physitutor/internal/service"
)

// maxUploadBytes bounds photo uploads for analysis.
const maxUploadBytes = 10 << 20

// QuestionHandler handles question discovery and statistics endpoints.
type QuestionHandler struct {
	dialogueSvc *service.DialogueService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(dialogueSvc *service.DialogueService) *QuestionHandler {
	return &QuestionHandler{dialogueSvc: dialogueSvc}
}

// List handles GET /v1/questions
func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questions": h.dialogueSvc.ListQuestions(),
	})
}

// AnalyzeImage handles POST /v1/questions/analyze-image. Accepts a multipart
// upload under "file", runs AI analysis, and registers the resulting
// question.
func (h *QuestionHandler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = "image/png"
		name := strings.ToLower(header.Filename)
		if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") {
			mimeType = "image/jpeg"
		}
	}

	questionID, err := h.dialogueSvc.AnalyzeImage(r.Context(), image, mimeType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to analyze image, try a clearer photo")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questionId": questionID})
}

// Stats handles GET /v1/questions/{questionId}/stats
func (h *QuestionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	questionID := mux.Vars(r)["questionId"]

	stats, err := h.dialogueSvc.QuestionStats(r.Context(), questionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
