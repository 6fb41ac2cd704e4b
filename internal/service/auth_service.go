package service

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"physitutor/internal/model"
)

var (
	ErrEmptyStudentName = errors.New("student name is empty")
	ErrInvalidToken     = errors.New("invalid or expired token")
)

// AuthService issues and validates student identity tokens. Identity is
// optional: sessions without a token run anonymously and are excluded from
// the mistake ledger.
type AuthService struct {
	jwtSecret []byte
}

// NewAuthService creates a new auth service
func NewAuthService() *AuthService {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "super-secret-key-change-in-production"
	}
	return &AuthService{jwtSecret: []byte(secret)}
}

// Login issues a token for a student name.
func (s *AuthService) Login(name string) (*model.LoginResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyStudentName
	}

	studentID := "stu_" + uuid.New().String()[:8]

	claims := &model.StudentClaims{
		StudentID: studentID,
		Name:      name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			// No expiry for MVP - permanent token
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, err
	}

	return &model.LoginResponse{
		Token:     tokenString,
		StudentID: studentID,
	}, nil
}

// ValidateStudentToken validates a student JWT and returns its claims.
func (s *AuthService) ValidateStudentToken(tokenString string) (*model.StudentClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &model.StudentClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*model.StudentClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
