package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gdg-garage/ecopoints-api/internal/models"
	"github.com/gdg-garage/ecopoints-api/internal/services"
)

type APIKeyHandler struct {
	apiKeys *services.APIKeyService
	log     logrus.FieldLogger
}

func NewAPIKeyHandler(apiKeys *services.APIKeyService, log logrus.FieldLogger) *APIKeyHandler {
	return &APIKeyHandler{apiKeys: apiKeys, log: log}
}

type CreateAPIKeyInput struct {
	Body struct {
		Name      string     `json:"name" maxLength:"100"`
		ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	}
}

type APIKeyResponse struct {
	ID         uint       `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"key"`
	CreatedAt  time.Time  `json:"createdAt"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	LastUsedAt *time.Time `json:"lastUsedAt"`
}

func apiKeyResponse(k models.APIKey, key string) APIKeyResponse {
	return APIKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		Key:        key,
		CreatedAt:  k.CreatedAt,
		ExpiresAt:  k.ExpiresAt,
		LastUsedAt: k.LastUsedAt,
	}
}

type CreateAPIKeyOutput struct {
	Body APIKeyResponse
}

// HandleCreate is the only place the full key is ever returned.
func (h *APIKeyHandler) HandleCreate(ctx context.Context, input *CreateAPIKeyInput) (*CreateAPIKeyOutput, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	apiKey, err := h.apiKeys.Create(ctx, p.User.ID, input.Body.Name, input.Body.ExpiresAt)
	if err != nil {
		return nil, humaError(h.log, err)
	}
	return &CreateAPIKeyOutput{Body: apiKeyResponse(*apiKey, apiKey.Key)}, nil
}

type ListAPIKeysOutput struct {
	Body []APIKeyResponse
}

func (h *APIKeyHandler) HandleList(ctx context.Context, _ *struct{}) (*ListAPIKeysOutput, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	keys, err := h.apiKeys.List(ctx, p.User.ID)
	if err != nil {
		return nil, humaError(h.log, err)
	}

	response := make([]APIKeyResponse, 0, len(keys))
	for _, k := range keys {
		response = append(response, apiKeyResponse(k, services.MaskKey(k.Key)))
	}
	return &ListAPIKeysOutput{Body: response}, nil
}

type DeleteAPIKeyInput struct {
	ID uint `path:"id"`
}

func (h *APIKeyHandler) HandleDelete(ctx context.Context, input *DeleteAPIKeyInput) (*struct{}, error) {
	p, err := currentPrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.apiKeys.Delete(ctx, p.User.ID, input.ID); err != nil {
		return nil, humaError(h.log, err)
	}
	return nil, nil
}
