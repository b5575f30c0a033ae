package repository

import (
	"context"
	"fmt"
	"net/http"

	"aidoc/internal/api"
	"aidoc/internal/document/model"
)

// DocumentRepository reaches the backend's /documents endpoints. Every call
// is authenticated.
type DocumentRepository struct {
	Client *api.Client
}

func NewDocumentRepository(client *api.Client) *DocumentRepository {
	return &DocumentRepository{Client: client}
}

func (r *DocumentRepository) List(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := r.Client.Do(ctx, http.MethodGet, "/documents/", nil, true, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	return docs, nil
}

func (r *DocumentRepository) Create(ctx context.Context, title string) (*model.Document, error) {
	var doc model.Document
	if err := r.Client.Do(ctx, http.MethodPost, "/documents/", model.CreateDocRequest{Title: title}, true, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Content(ctx context.Context, id int) (string, error) {
	var content string
	if err := r.Client.Do(ctx, http.MethodGet, docPath(id), nil, true, &content); err != nil {
		return "", err
	}
	return content, nil
}

func (r *DocumentRepository) UpdateContent(ctx context.Context, id int, content string) error {
	return r.Client.Do(ctx, http.MethodPut, docPath(id), model.SaveDocRequest{Content: content}, true, nil)
}

func (r *DocumentRepository) Delete(ctx context.Context, id int) error {
	return r.Client.Do(ctx, http.MethodDelete, docPath(id), nil, true, nil)
}

func (r *DocumentRepository) Assist(ctx context.Context, id int, req model.AssistRequest) (string, error) {
	var generated string
	if err := r.Client.Do(ctx, http.MethodPost, docPath(id)+"/assist", req, true, &generated); err != nil {
		return "", err
	}
	return generated, nil
}

func docPath(id int) string {
	return fmt.Sprintf("/documents/%d", id)
}
