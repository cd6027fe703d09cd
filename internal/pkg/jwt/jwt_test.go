package jwt_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/voteflow/voteflow-api/internal/pkg/jwt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := jwt.NewService("test-secret", 15*time.Minute)
	accountID := uuid.New()

	token, err := svc.GenerateAccessToken(accountID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.AccountID != accountID {
		t.Fatalf("expected account %s, got %s", accountID, claims.AccountID)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	svc := jwt.NewService("test-secret", -1*time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = svc.ValidateAccessToken(token)
	if !errors.Is(err, jwt.ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestWrongSecretRejected(t *testing.T) {
	issuer := jwt.NewService("secret-a", 15*time.Minute)
	verifier := jwt.NewService("secret-b", 15*time.Minute)

	token, err := issuer.GenerateAccessToken(uuid.New())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := verifier.ValidateAccessToken(token); !errors.Is(err, jwt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := jwt.NewService("test-secret", 15*time.Minute)

	if _, err := svc.ValidateAccessToken("not.a.token"); !errors.Is(err, jwt.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
