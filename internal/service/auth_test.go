package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stockpile/stockpile-go/internal/crypto"
	"github.com/stockpile/stockpile-go/internal/model"
)

func newTestAuthService() (*AuthService, *memUserStore) {
	users := newMemUserStore()
	return NewAuthService(users, crypto.NewPasswordHasher(fastHashParams), "test-secret", time.Hour), users
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name    string
		req     model.RegisterRequest
		wantErr error
	}{
		{"empty email", model.RegisterRequest{Email: "", Password: "password123"}, ErrEmailRequired},
		{"blank email", model.RegisterRequest{Email: "   ", Password: "password123"}, ErrEmailRequired},
		{"empty password", model.RegisterRequest{Email: "test@example.com", Password: ""}, ErrPasswordRequired},
		{"malformed email", model.RegisterRequest{Email: "not-an-email", Password: "password123"}, ErrInvalidEmail},
		{"short password", model.RegisterRequest{Email: "test@example.com", Password: "12345"}, ErrPasswordTooShort},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc, users := newTestAuthService()
			if _, err := svc.Register(context.Background(), tc.req); !errors.Is(err, tc.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tc.wantErr)
			}
			if len(users.users) != 0 {
				t.Errorf("Register() stored %d users after failing validation", len(users.users))
			}
		})
	}
}

func TestRegisterStoresNormalizedEmailAndHash(t *testing.T) {
	svc, users := newTestAuthService()

	resp, err := svc.Register(context.Background(), model.RegisterRequest{Email: "  Alice@Example.COM ", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	if resp.Message != "User registered successfully." {
		t.Errorf("Message = %q", resp.Message)
	}

	stored, ok := users.users["alice@example.com"]
	if !ok {
		t.Fatal("user not stored under normalized email")
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Errorf("PasswordHash = %q, want an argon2id hash", stored.PasswordHash)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "A@B.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}
	_, err := svc.Register(ctx, model.RegisterRequest{Email: "a@b.com", Password: "another"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterStoreFailure(t *testing.T) {
	svc, users := newTestAuthService()
	users.failErr = errors.New("db down")

	_, err := svc.Register(context.Background(), model.RegisterRequest{Email: "a@b.com", Password: "secret1"})
	if err == nil || errors.Is(err, ErrEmailTaken) {
		t.Errorf("Register() error = %v, want the store error", err)
	}
}

func TestLoginIssuesToken(t *testing.T) {
	svc, users := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "A@B.com", Password: "secret1"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	resp, err := svc.Login(ctx, model.LoginRequest{Email: "a@b.COM", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if resp.Message != "Login successful." {
		t.Errorf("Message = %q", resp.Message)
	}

	claims, err := crypto.ValidateToken(resp.Token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken() unexpected error: %v", err)
	}
	if claims.UserID != users.users["a@b.com"].ID {
		t.Errorf("token UserID = %q, want %q", claims.UserID, users.users["a@b.com"].ID)
	}
	if claims.Email != "a@b.com" {
		t.Errorf("token Email = %q, want a@b.com", claims.Email)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()
	if _, err := svc.Register(ctx, model.RegisterRequest{Email: "user@example.com", Password: "right-password"}); err != nil {
		t.Fatalf("Register() unexpected error: %v", err)
	}

	tests := []struct {
		name    string
		req     model.LoginRequest
		wantErr error
	}{
		{"empty email", model.LoginRequest{Password: "x"}, ErrEmailRequired},
		{"empty password", model.LoginRequest{Email: "user@example.com"}, ErrPasswordRequired},
		{"wrong password", model.LoginRequest{Email: "user@example.com", Password: "wrong-password"}, ErrInvalidCredentials},
		{"unknown email", model.LoginRequest{Email: "ghost@example.com", Password: "right-password"}, ErrInvalidCredentials},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := svc.Login(ctx, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Login() error = %v, want %v", err, tc.wantErr)
			}
			if resp.Token != "" {
				t.Error("Login() returned a token on failure")
			}
		})
	}
}
