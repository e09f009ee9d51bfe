package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"skillbeam-backend/internal/models"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Password1", false},
		{"too short", "Pass1", true},
		{"no digit", "Passwords", true},
		{"empty", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if (err != nil) != tc.wantErr {
				t.Errorf("validatePassword(%q) error = %v, wantErr %v", tc.password, err, tc.wantErr)
			}
		})
	}
}

func TestRegister_ValidationFailsBeforeStorage(t *testing.T) {
	svc := &AuthService{}

	_, _, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    "not-an-email",
		Password: "short",
	})

	vErr, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("Expected *ValidationError, got %T", err)
	}
	if vErr.Fields["email"] == "" || vErr.Fields["password"] == "" {
		t.Errorf("Expected email and password field errors, got %+v", vErr.Fields)
	}
}

func TestRefreshToken_UnknownTokenRejected(t *testing.T) {
	svc := &AuthService{redis: newTestRedis(t)}

	_, err := svc.RefreshToken(context.Background(), "deadbeef")

	if _, ok := err.(*UnauthorizedError); !ok {
		t.Fatalf("Expected *UnauthorizedError, got %T (%v)", err, err)
	}
}

func TestLogout_RemovesStoredToken(t *testing.T) {
	client := newTestRedis(t)
	svc := &AuthService{redis: client}
	ctx := context.Background()

	if err := client.Set(ctx, "refresh:tok123", "user-id", time.Hour).Err(); err != nil {
		t.Fatalf("Failed to seed token: %v", err)
	}

	if err := svc.Logout(ctx, "tok123"); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}

	if err := client.Get(ctx, "refresh:tok123").Err(); err != redis.Nil {
		t.Errorf("Expected token to be deleted, got err %v", err)
	}
}

func TestGenerateToken_HexLength(t *testing.T) {
	token, err := generateToken(64)
	if err != nil {
		t.Fatalf("generateToken failed: %v", err)
	}
	if len(token) != 128 {
		t.Errorf("Expected 128 hex chars, got %d", len(token))
	}

	other, _ := generateToken(64)
	if token == other {
		t.Error("Expected distinct tokens")
	}
}
