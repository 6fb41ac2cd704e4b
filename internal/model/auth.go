package model

import "github.com/golang-jwt/jwt/v5"

// StudentClaims are JWT claims for student identity tokens. Sessions created
// without a token stay anonymous and are excluded from the mistake ledger.
type StudentClaims struct {
	StudentID string `json:"studentId"`
	Name      string `json:"name"`
	jwt.RegisteredClaims
}

// LoginRequest is the request body for student login.
type LoginRequest struct {
	Name string `json:"name"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	StudentID string `json:"studentId"`
}
