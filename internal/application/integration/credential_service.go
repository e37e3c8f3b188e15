package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
)

// CredentialService manages per-tenant external service credentials and
// offers connectivity checks against the configured services
type CredentialService struct {
	store    integration.CredentialStore
	registry integration.PlatformRegistry
	logger   *zap.Logger
}

// NewCredentialService creates a credential service
func NewCredentialService(store integration.CredentialStore, registry integration.PlatformRegistry, logger *zap.Logger) *CredentialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialService{store: store, registry: registry, logger: logger}
}

// UpsertCredentialsRequest is the payload for storing service credentials
type UpsertCredentialsRequest struct {
	Service       string `json:"service" binding:"required,oneof=careem talabat loyverse"`
	ClientID      string `json:"client_id"`
	ClientSecret  string `json:"client_secret"`
	Scope         string `json:"scope"`
	ChainCode     string `json:"chain_code"`
	APIToken      string `json:"api_token"`
	BaseURL       string `json:"base_url"`
	TokenURL      string `json:"token_url"`
	WebhookSecret string `json:"webhook_secret"`
}

// CredentialStatusResponse reports which services a tenant has configured.
// Secrets never leave the store.
type CredentialStatusResponse struct {
	Service    string `json:"service"`
	Configured bool   `json:"configured"`
}

// Upsert stores credentials for one service
func (s *CredentialService) Upsert(ctx context.Context, tenantID uuid.UUID, req *UpsertCredentialsRequest) error {
	creds := &integration.Credentials{
		TenantID:      tenantID,
		Service:       req.Service,
		ClientID:      req.ClientID,
		ClientSecret:  req.ClientSecret,
		Scope:         req.Scope,
		ChainCode:     req.ChainCode,
		APIToken:      req.APIToken,
		BaseURL:       req.BaseURL,
		TokenURL:      req.TokenURL,
		WebhookSecret: req.WebhookSecret,
	}
	if err := s.store.Save(ctx, creds); err != nil {
		return err
	}

	s.logger.Info("credentials stored",
		zap.String("tenant_id", tenantID.String()),
		zap.String("service", req.Service))
	return nil
}

// Status reports the configuration state of every known service
func (s *CredentialService) Status(ctx context.Context, tenantID uuid.UUID) ([]CredentialStatusResponse, error) {
	services := []string{integration.ServiceCareem, integration.ServiceTalabat, integration.ServiceLoyverse}
	statuses := make([]CredentialStatusResponse, 0, len(services))
	for _, service := range services {
		_, err := s.store.Get(ctx, tenantID, service)
		switch {
		case err == nil:
			statuses = append(statuses, CredentialStatusResponse{Service: service, Configured: true})
		case errors.Is(err, integration.ErrCredentialsNotConfigured):
			statuses = append(statuses, CredentialStatusResponse{Service: service, Configured: false})
		default:
			return nil, err
		}
	}
	return statuses, nil
}

// TestConnection attempts a credential-only handshake with one platform
func (s *CredentialService) TestConnection(ctx context.Context, tenantID uuid.UUID, service string) (bool, error) {
	var code integration.PlatformCode
	switch service {
	case integration.ServiceCareem:
		code = integration.PlatformCodeCareem
	case integration.ServiceTalabat:
		code = integration.PlatformCodeTalabat
	default:
		return false, fmt.Errorf("integration: connection test not supported for service %q", service)
	}

	adapter, err := s.registry.GetPlatform(code)
	if err != nil {
		return false, err
	}
	return adapter.TestConnection(ctx, tenantID), nil
}
