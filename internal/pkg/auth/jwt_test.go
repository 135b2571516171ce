package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/yigit/careportal/internal/app/models"
)

func newTestService(exp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: exp, TokenIssuer: "careportal"})
}

func TestTokenRoundTripCarriesActor(t *testing.T) {
	svc := newTestService(time.Hour)
	actor := models.Actor{
		Role:       models.RoleDepartmentReferrer,
		Email:      "dean@example.edu",
		SubjectID:  "staff-7",
		Name:       "Dean Reyes",
		Department: "College of Nursing",
	}

	token, expiresIn, err := svc.GenerateAccessToken(actor)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if expiresIn != 3600 {
		t.Fatalf("expiresIn = %d", expiresIn)
	}

	claims, err := svc.ValidateAndExtractClaims(token)
	if err != nil {
		t.Fatalf("ValidateAndExtractClaims: %v", err)
	}
	if got := claims.Actor(); got != actor {
		t.Fatalf("actor = %+v, want %+v", got, actor)
	}
}

func TestExpiredToken(t *testing.T) {
	svc := newTestService(-time.Minute)
	token, _, err := svc.GenerateAccessToken(models.Actor{Role: models.RoleStudent, SubjectID: "2026-0001"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want expired", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token, _, _ := newTestService(time.Hour).GenerateAccessToken(models.Actor{Role: models.RoleStudent, SubjectID: "2026-0001"})
	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "careportal"})
	if _, err := other.ValidateAndExtractClaims(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want invalid", err)
	}
}

func TestExtractBearerToken(t *testing.T) {
	if _, err := ExtractBearerToken(""); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("err = %v", err)
	}
	if tok, _ := ExtractBearerToken("Bearer abc"); tok != "abc" {
		t.Fatalf("token = %q", tok)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPassword(hash, "s3cret-pass") || CheckPassword(hash, "wrong") {
		t.Fatal("password check mismatch")
	}
}
