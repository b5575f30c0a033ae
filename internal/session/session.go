package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"aidoc/pkg/logger"
	"aidoc/store"

	"github.com/golang-jwt/jwt/v5"
)

// TokenKey is the storage key of the bearer token.
const TokenKey = "accessToken"

var ErrNotLoggedIn = errors.New("not logged in")

// Session is the single owner of the stored bearer token. Every read, write
// and clear of the token goes through it.
type Session struct {
	mu    sync.Mutex
	store store.Store
	// onClear callbacks run after the token is removed.
	onClear []func()
}

func New(s store.Store) *Session {
	return &Session{store: s}
}

// Token returns the stored token, if any.
func (s *Session) Token(ctx context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok, err := s.store.Get(ctx, TokenKey)
	if err != nil {
		return "", false, fmt.Errorf("read session token: %w", err)
	}
	if !ok || tok == "" {
		return "", false, nil
	}
	return tok, true, nil
}

// Authenticated reports whether a token is present. Storage errors count as
// logged out.
func (s *Session) Authenticated(ctx context.Context) bool {
	_, ok, err := s.Token(ctx)
	return err == nil && ok
}

// Set replaces the stored token.
func (s *Session) Set(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Set(ctx, TokenKey, token); err != nil {
		return fmt.Errorf("store session token: %w", err)
	}
	logger.Sugar.Debug("Session token stored")
	return nil
}

// Clear removes the stored token and notifies OnClear subscribers.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.store.Remove(ctx, TokenKey)
	subs := append([]func(){}, s.onClear...)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	logger.Sugar.Info("Session token cleared")
	for _, fn := range subs {
		fn()
	}
	return nil
}

// OnClear registers fn to run whenever the token is cleared, whether by
// logout or by an authorization failure.
func (s *Session) OnClear(fn func()) {
	s.mu.Lock()
	s.onClear = append(s.onClear, fn)
	s.mu.Unlock()
}

// Claims is what the client can read out of a JWT bearer token. The
// signature is not verified; the values are for display only.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// Claims decodes the stored token without verifying it.
func (s *Session) Claims(ctx context.Context) (*Claims, error) {
	tok, ok, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(tok, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("token is not a JWT: %w", err)
	}

	var c Claims
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		c.Subject = sub
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return &c, nil
}
