package repository

import (
	"context"
	"net/http"
	"net/url"

	"aidoc/internal/api"
	"aidoc/internal/auth/model"
)

type AuthRepository struct {
	Client *api.Client
}

func NewAuthRepository(client *api.Client) *AuthRepository {
	return &AuthRepository{Client: client}
}

// Token exchanges credentials for a bearer token. The backend follows the
// OAuth2 password flow, so the email travels as "username".
func (r *AuthRepository) Token(ctx context.Context, creds model.Credentials) (*model.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)

	var resp model.TokenResponse
	if err := r.Client.PostForm(ctx, "/auth/token", form, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *AuthRepository) Register(ctx context.Context, creds model.Credentials) (*model.User, error) {
	var u model.User
	if err := r.Client.Do(ctx, http.MethodPost, "/auth/register", creds, false, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
