package service

import (
	"context"
	"net/http"
	"testing"

	"aidoc/internal/api"
	"aidoc/internal/auth/model"
	"aidoc/internal/auth/repository"
	"aidoc/internal/fakeapi"
	"aidoc/internal/session"
	"aidoc/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*AuthService, *fakeapi.Server) {
	t.Helper()
	srv := fakeapi.New(t, "")
	sess := session.New(store.NewMemoryStore())
	client := api.New(api.Options{BaseURL: srv.URL}, sess)
	return NewAuthService(repository.NewAuthRepository(client), sess), srv
}

func TestLoginStoresToken(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	srv.AddUser("ada@example.com", "pw")

	assert.Equal(t, model.Anonymous, svc.State(ctx))
	require.NoError(t, svc.Login(ctx, model.Credentials{Email: " ada@example.com ", Password: "pw"}))
	assert.Equal(t, model.Authenticated, svc.State(ctx))

	claims, err := svc.Session.Claims(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", claims.Subject)
}

func TestLoginFailureStaysAnonymous(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	srv.AddUser("ada@example.com", "pw")

	err := svc.Login(ctx, model.Credentials{Email: "ada@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, "Incorrect username or password", err.Error())
	assert.Equal(t, model.Anonymous, svc.State(ctx))
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	svc, srv := setup(t)

	err := svc.Login(context.Background(), model.Credentials{Email: "ada", Password: ""})
	require.Error(t, err)
	assert.Equal(t, api.KindValidation, api.KindOf(err))
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Zero(t, srv.TotalCalls())
}

func TestRegisterNeverAuthenticates(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()

	msg, err := svc.Register(ctx, model.Credentials{Email: "grace@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, RegisteredMessage, msg)
	assert.Equal(t, model.Anonymous, svc.State(ctx))
	assert.Equal(t, 0, srv.Calls(fakeapi.RouteLogin))

	// The account works for a separate, explicit login.
	require.NoError(t, svc.Login(ctx, model.Credentials{Email: "grace@example.com", Password: "pw"}))
}

func TestRegisterDuplicate(t *testing.T) {
	svc, srv := setup(t)
	srv.AddUser("ada@example.com", "pw")

	_, err := svc.Register(context.Background(), model.Credentials{Email: "ada@example.com", Password: "pw"})
	var reqErr *api.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.Status)
	assert.Equal(t, "Email already registered", reqErr.Message)
}

func TestLogout(t *testing.T) {
	svc, srv := setup(t)
	ctx := context.Background()
	require.NoError(t, svc.Session.Set(ctx, srv.IssueToken("ada@example.com")))

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, model.Anonymous, svc.State(ctx))
}
