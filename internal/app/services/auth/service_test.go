package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	domainauth "whistleinn/internal/domain/auth"
	"whistleinn/internal/infra/security"
	"whistleinn/internal/infra/storage/memory"
)

func newService(t *testing.T, ttl time.Duration) *Service {
	t.Helper()
	hash, err := security.BcryptHasher{}.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &Service{
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		Sessions:          memory.NewSessionStore(),
		Passwords:         security.BcryptHasher{},
		Tokens:            security.RandomTokenGenerator{},
		SessionTTL:        ttl,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, time.Hour)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "admin", "correct horse", nil},
		{"wrong password", "admin", "battery staple", ErrInvalidCredentials},
		{"wrong username", "root", "correct horse", ErrInvalidCredentials},
		{"empty username", "", "correct horse", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(ctx, LoginParams{Username: tt.username, Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login: got %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if result.Token == "" {
				t.Fatal("empty token")
			}
			session, err := svc.ResolveToken(ctx, result.Token)
			if err != nil {
				t.Fatalf("ResolveToken: %v", err)
			}
			if session.Username != "admin" {
				t.Errorf("username: got %q", session.Username)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, time.Hour)
	result, err := svc.Login(ctx, LoginParams{Username: "admin", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(ctx, result.Token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.ResolveToken(ctx, result.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
}

func TestResolveTokenExpired(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, time.Nanosecond)
	result, err := svc.Login(ctx, LoginParams{Username: "admin", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, err := svc.ResolveToken(ctx, result.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("got %v, want ErrSessionNotFound", err)
	}
	// The expired session is purged, not just rejected.
	if _, err := svc.ResolveToken(ctx, result.Token); !errors.Is(err, domainauth.ErrSessionNotFound) {
		t.Fatalf("second resolve: got %v, want ErrSessionNotFound", err)
	}
}

func TestResolveTokenEmpty(t *testing.T) {
	svc := newService(t, time.Hour)
	if _, err := svc.ResolveToken(context.Background(), "  "); !errors.Is(err, domainauth.ErrTokenRequired) {
		t.Fatalf("got %v, want ErrTokenRequired", err)
	}
}

func TestLoginTokensAreUnique(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, time.Hour)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		result, err := svc.Login(ctx, LoginParams{Username: "admin", Password: "correct horse"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if seen[result.Token] {
			t.Fatal("token reuse across logins")
		}
		seen[result.Token] = true
	}
}
