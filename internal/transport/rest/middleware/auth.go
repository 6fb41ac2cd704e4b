package middleware

import (
	"context"
	"net/http"
	"strings"

	"physitutor/internal/service"
)

type contextKey string

const (
	StudentIDKey   contextKey = "studentId"
	StudentNameKey contextKey = "studentName"
)

// AuthMiddleware provides JWT authentication middleware
type AuthMiddleware struct {
	authSvc *service.AuthService
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(authSvc *service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc}
}

// OptionalStudent attaches student identity from a bearer token when one is
// present. Requests without a token proceed anonymously; only a present but
// invalid token is rejected.
func (m *AuthMiddleware) OptionalStudent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			// Try query param for WebSocket
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.authSvc.ValidateStudentToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, StudentIDKey, claims.StudentID)
		ctx = context.WithValue(ctx, StudentNameKey, claims.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetStudentID extracts the student ID from context, empty for anonymous
// requests.
func GetStudentID(ctx context.Context) string {
	if v := ctx.Value(StudentIDKey); v != nil {
		return v.(string)
	}
	return ""
}

// GetStudentName extracts the student name from context
func GetStudentName(ctx context.Context) string {
	if v := ctx.Value(StudentNameKey); v != nil {
		return v.(string)
	}
	return ""
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
