package service

import (
	"context"
	"strings"
	"sync"

	"aidoc/internal/api"
	"aidoc/internal/auth/model"
	"aidoc/internal/session"
	"aidoc/pkg/logger"
	"aidoc/pkg/validation"
)

// RegisteredMessage is shown after a successful registration. Registering
// never logs the user in.
const RegisteredMessage = "Registration successful! Please log in."

// Gateway is the backend surface the auth flow needs.
type Gateway interface {
	Token(ctx context.Context, creds model.Credentials) (*model.TokenResponse, error)
	Register(ctx context.Context, creds model.Credentials) (*model.User, error)
}

type AuthService struct {
	Repo    Gateway
	Session *session.Session

	mu      sync.Mutex
	pending bool
}

func NewAuthService(repo Gateway, sess *session.Session) *AuthService {
	return &AuthService{Repo: repo, Session: sess}
}

// State derives the flow state from the in-flight flag and token presence.
func (s *AuthService) State(ctx context.Context) model.State {
	s.mu.Lock()
	pending := s.pending
	s.mu.Unlock()
	if pending {
		return model.Authenticating
	}
	if s.Session.Authenticated(ctx) {
		return model.Authenticated
	}
	return model.Anonymous
}

// Login exchanges credentials for a token and stores it. On failure the
// returned error carries the server's message.
func (s *AuthService) Login(ctx context.Context, creds model.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return api.Validation(err.Error(), err)
	}

	s.begin()
	defer s.end()

	resp, err := s.Repo.Token(ctx, creds)
	if err != nil {
		logger.Sugar.Infof("Login failed for %s: %v", creds.Email, err)
		return err
	}
	if err := s.Session.Set(ctx, resp.AccessToken); err != nil {
		return err
	}
	logger.Sugar.Infof("Logged in as %s", creds.Email)
	return nil
}

// Register creates an account and returns the message to display. It never
// touches the session.
func (s *AuthService) Register(ctx context.Context, creds model.Credentials) (string, error) {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := validation.Struct(creds); err != nil {
		return "", api.Validation(err.Error(), err)
	}

	s.begin()
	defer s.end()

	if _, err := s.Repo.Register(ctx, creds); err != nil {
		logger.Sugar.Infof("Registration failed for %s: %v", creds.Email, err)
		return "", err
	}
	logger.Sugar.Infof("Registered %s", creds.Email)
	return RegisteredMessage, nil
}

// Logout clears the stored token.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.Session.Clear(ctx)
}

func (s *AuthService) begin() {
	s.mu.Lock()
	s.pending = true
	s.mu.Unlock()
}

func (s *AuthService) end() {
	s.mu.Lock()
	s.pending = false
	s.mu.Unlock()
}
