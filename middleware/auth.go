package middleware

import (
	"context"
	"errors"
	"net/http"

	"aidoc/pkg/logger"
)

type contextKey string

const requireAuthKey contextKey = "requireAuth"

// ErrNoToken is returned, without contacting the server, when a request
// needs authentication and no token is stored.
var ErrNoToken = errors.New("no session token")

// TokenSource is the part of the session the transport needs.
type TokenSource interface {
	Token(ctx context.Context) (string, bool, error)
	Clear(ctx context.Context) error
}

// WithAuth marks requests built from ctx as requiring a bearer token.
func WithAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, requireAuthKey, true)
}

// AuthRequired reports whether ctx was marked by WithAuth.
func AuthRequired(ctx context.Context) bool {
	v, _ := ctx.Value(requireAuthKey).(bool)
	return v
}

// Auth attaches "Authorization: Bearer <token>" to requests marked with
// WithAuth and clears the stored token on any 401 response, marked or not.
func Auth(tokens TokenSource, next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		ctx := r.Context()

		if AuthRequired(ctx) {
			tokenString, ok, err := tokens.Token(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				logger.Sugar.Warnf("Refusing %s %s: no session token", r.Method, r.URL.Path)
				return nil, ErrNoToken
			}
			r = r.Clone(ctx)
			r.Header.Set("Authorization", "Bearer "+tokenString)
		}

		resp, err := next.RoundTrip(r)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusUnauthorized {
			logger.Sugar.Infof("Received 401 for %s %s, clearing session", r.Method, r.URL.Path)
			if err := tokens.Clear(ctx); err != nil {
				logger.Sugar.Errorf("Failed to clear session after 401: %v", err)
			}
		}
		return resp, nil
	})
}
