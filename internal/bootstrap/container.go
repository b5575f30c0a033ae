package bootstrap

import (
	"net/http"

	"aidoc/config"
	"aidoc/internal/api"
	authRepo "aidoc/internal/auth/repository"
	authService "aidoc/internal/auth/service"
	docRepo "aidoc/internal/document/repository"
	docService "aidoc/internal/document/service"
	"aidoc/internal/session"
	"aidoc/store"
)

// Container holds the wired client core shared by the CLI and the TUI.
type Container struct {
	Config  *config.Config
	Store   store.Store
	Session *session.Session
	Client  *api.Client
	Auth    *authService.AuthService
	Docs    *docService.DocumentService
}

// NewContainer wires everything on top of st. transport may be nil.
func NewContainer(cfg *config.Config, st store.Store, transport http.RoundTripper) *Container {
	sess := session.New(st)
	client := api.New(api.Options{
		BaseURL:    cfg.API.BaseURL,
		PathPrefix: cfg.API.PathPrefix,
		Timeout:    cfg.API.Timeout,
		Transport:  transport,
	}, sess)

	docs := docService.NewDocumentService(docRepo.NewDocumentRepository(client))
	// Losing the token, by logout or by a 401, discards the workspace.
	sess.OnClear(docs.Reset)

	return &Container{
		Config:  cfg,
		Store:   st,
		Session: sess,
		Client:  client,
		Auth:    authService.NewAuthService(authRepo.NewAuthRepository(client), sess),
		Docs:    docs,
	}
}

// Open opens the persistent token store named by cfg and wires on top of it.
func Open(cfg *config.Config) (*Container, error) {
	st, err := store.OpenSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, err
	}
	return NewContainer(cfg, st, nil), nil
}

func (c *Container) Close() error {
	return c.Store.Close()
}
