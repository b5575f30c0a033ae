package router

import (
	"context"

	"aidoc/internal/api"
)

// Route is a view the client can show.
type Route string

const (
	Root   Route = "/"
	Login  Route = "/login"
	Editor Route = "/editor"
)

// Presence is the only thing the guard asks of the session.
type Presence interface {
	Authenticated(ctx context.Context) bool
}

// Resolve applies the route guard to a requested route. It only checks that
// a token is present; expiry and signature are the server's business.
func Resolve(ctx context.Context, requested Route, sess Presence) Route {
	switch requested {
	case Login:
		if sess.Authenticated(ctx) {
			return Editor
		}
		return Login
	case Editor:
		if !sess.Authenticated(ctx) {
			return Login
		}
		return Editor
	default:
		return Resolve(ctx, Login, sess)
	}
}

// AfterError decides where to go once a flow running on current failed with
// err. Only authorization failures navigate; the view shows everything else.
func AfterError(current Route, err error) Route {
	if err != nil && api.IsAuthFailure(err) {
		return Login
	}
	return current
}
