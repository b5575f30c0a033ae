package session

import (
	"context"
	"testing"
	"time"

	"aidoc/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTokenClear(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore())

	assert.False(t, s.Authenticated(ctx))

	require.NoError(t, s.Set(ctx, "one"))
	require.NoError(t, s.Set(ctx, "two"))

	tok, ok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", tok)

	cleared := 0
	s.OnClear(func() { cleared++ })
	require.NoError(t, s.Clear(ctx))
	assert.False(t, s.Authenticated(ctx))
	assert.Equal(t, 1, cleared)
}

func TestSetRejectsEmptyToken(t *testing.T) {
	s := New(store.NewMemoryStore())
	assert.Error(t, s.Set(context.Background(), ""))
}

func TestClaims(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore())

	_, err := s.Claims(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ada@example.com",
		"exp": exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, signed))

	c, err := s.Claims(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", c.Subject)
	assert.True(t, c.ExpiresAt.Equal(exp))
	assert.False(t, c.Expired(time.Now()))
	assert.True(t, c.Expired(exp.Add(time.Second)))
}

func TestClaimsOpaqueToken(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemoryStore())
	require.NoError(t, s.Set(ctx, "opaque-token"))

	_, err := s.Claims(ctx)
	assert.Error(t, err)
}
