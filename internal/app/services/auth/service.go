package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	domainauth "whistleinn/internal/domain/auth"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenGenerator interface {
	NewToken() (string, error)
}

// Service authenticates the site administrator. Credentials are a single
// configured username and bcrypt hash; there is no user table to manage.
type Service struct {
	AdminUsername     string
	AdminPasswordHash string
	Sessions          domainauth.SessionStore
	Passwords         PasswordHasher
	Tokens            TokenGenerator
	SessionTTL        time.Duration
	Logger            *slog.Logger
}

type LoginParams struct {
	Username string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	username := strings.TrimSpace(params.Username)
	if username == "" || username != s.AdminUsername {
		// Compare against the real hash anyway so a wrong username costs
		// the same as a wrong password.
		_ = s.Passwords.Compare(s.AdminPasswordHash, params.Password)
		return nil, ErrInvalidCredentials
	}
	if err := s.Passwords.Compare(s.AdminPasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.Tokens.NewToken()
	if err != nil {
		return nil, err
	}
	session, err := domainauth.NewSession(domainauth.CreateSessionParams{
		Token:    domainauth.Token(token),
		Username: username,
		TTL:      s.sessionTTL(),
		Now:      time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("admin authenticated", "username", username)
	}
	return &AuthResult{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.ensureDependencies(); err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, domainauth.Token(token))
}

// ResolveToken returns the live session for a bearer token, or
// ErrSessionNotFound for unknown and expired tokens alike.
func (s *Service) ResolveToken(ctx context.Context, token string) (*domainauth.Session, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	session, err := s.Sessions.Get(ctx, domainauth.Token(token))
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		_ = s.Sessions.Delete(ctx, session.Token)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) sessionTTL() time.Duration {
	if s.SessionTTL > 0 {
		return s.SessionTTL
	}
	return 24 * time.Hour
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.AdminUsername == "" || s.AdminPasswordHash == "":
		return errors.New("auth: admin credentials not configured")
	case s.Sessions == nil:
		return errors.New("auth: session store required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token generator required")
	default:
		return nil
	}
}
