package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"physitutor/internal/service"
	"physitutor/internal/store"
	"physitutor/internal/transport/rest/handler"
	"physitutor/internal/transport/rest/middleware"
	"physitutor/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService     *service.AuthService
	DialogueService *service.DialogueService
	Sessions        *store.SessionStore
	WSHub           *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.DialogueService)
	questionHandler := handler.NewQuestionHandler(c.DialogueService)
	logHandler := handler.NewLogHandler(c.DialogueService)
	studentHandler := handler.NewStudentHandler(c.DialogueService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Sessions)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")

	// WebSocket routes (optional token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}/watch", wsHandler.Watch).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session and question routes: identity is optional, a bearer token
	// attaches the student to the session when present.
	api := v1.NewRoute().Subrouter()
	api.Use(authMW.OptionalStudent)

	api.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/step", sessionHandler.GetStep).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/choice", sessionHandler.SubmitChoice).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/reasoning", sessionHandler.SubmitReasoning).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/history", sessionHandler.History).Methods("GET", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/transfer", sessionHandler.StartTransfer).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/transfer/generate", sessionHandler.GenerateTransfer).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}", sessionHandler.End).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/questions", questionHandler.List).Methods("GET", "OPTIONS")
	api.HandleFunc("/questions/analyze-image", questionHandler.AnalyzeImage).Methods("POST", "OPTIONS")
	api.HandleFunc("/questions/{questionId}/stats", questionHandler.Stats).Methods("GET", "OPTIONS")

	api.HandleFunc("/logs/recent", logHandler.Recent).Methods("GET", "OPTIONS")
	api.HandleFunc("/students/me/mistakes", studentHandler.Mistakes).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
