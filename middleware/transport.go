package middleware

import (
	"net/http"
	"time"

	"aidoc/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// RequestID stamps every outgoing request with a fresh X-Request-ID unless
// the caller already set one.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Header.Get(RequestIDHeader) == "" {
			r = r.Clone(r.Context())
			r.Header.Set(RequestIDHeader, uuid.NewString())
		}
		return next.RoundTrip(r)
	})
}

// Logging records method, path, status and latency. Headers are never logged.
func Logging(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get(RequestIDHeader)),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			logger.Log.Warn("request failed", append(fields, zap.Error(err))...)
			return nil, err
		}
		logger.Log.Info("request", append(fields, zap.Int("status", resp.StatusCode))...)
		return resp, nil
	})
}

// Chain wraps base with the client's standard transports. The outermost
// layer runs first: request id, then logging, then auth.
func Chain(tokens TokenSource, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return RequestID(Logging(Auth(tokens, base)))
}
