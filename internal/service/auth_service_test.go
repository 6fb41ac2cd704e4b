package service

import (
	"strings"
	"testing"
)

func TestLoginIssuesValidToken(t *testing.T) {
	svc := NewAuthService()

	resp, err := svc.Login("Alice")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !strings.HasPrefix(resp.StudentID, "stu_") {
		t.Fatalf("unexpected student id %q", resp.StudentID)
	}

	claims, err := svc.ValidateStudentToken(resp.Token)
	if err != nil {
		t.Fatalf("ValidateStudentToken: %v", err)
	}
	if claims.StudentID != resp.StudentID || claims.Name != "Alice" {
		t.Fatalf("claims mismatch: %+v", claims)
	}
}

func TestLoginRejectsEmptyName(t *testing.T) {
	svc := NewAuthService()
	if _, err := svc.Login("   "); err != ErrEmptyStudentName {
		t.Fatalf("expected ErrEmptyStudentName, got %v", err)
	}
}

func TestValidateRejectsGarbageToken(t *testing.T) {
	svc := NewAuthService()
	if _, err := svc.ValidateStudentToken("not.a.token"); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
