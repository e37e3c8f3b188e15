package integration

import (
	"context"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Credentials
// ---------------------------------------------------------------------------

// Credential service names
const (
	// ServiceCareem is the credential service name for Careem
	ServiceCareem = "careem"
	// ServiceTalabat is the credential service name for Talabat
	ServiceTalabat = "talabat"
	// ServiceLoyverse is the credential service name for the Loyverse POS
	ServiceLoyverse = "loyverse"
)

// Credentials holds one tenant's credentials for one external service.
// Which fields are required depends on the service; each client validates
// its own requirements at construction and fails fast with
// ErrCredentialsNotConfigured.
type Credentials struct {
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// Service is the external service these credentials are for
	Service string
	// ClientID is the OAuth2 client ID
	ClientID string
	// ClientSecret is the OAuth2 client secret
	ClientSecret string
	// Scope is the OAuth2 scope (Careem)
	Scope string
	// ChainCode is the restaurant chain code (Talabat)
	ChainCode string
	// APIToken is a bearer token for token-based services (Loyverse)
	APIToken string
	// BaseURL overrides the service API base URL when set
	BaseURL string
	// TokenURL overrides the OAuth2 token endpoint when set
	TokenURL string
	// WebhookSecret signs inbound webhooks from this service
	WebhookSecret string
}

// CredentialStore provides per-tenant, per-service credential access.
// Credential management is owned outside this subsystem; the engine only
// reads.
type CredentialStore interface {
	// Get returns the credentials for a tenant and service, or
	// ErrCredentialsNotConfigured if none exist
	Get(ctx context.Context, tenantID uuid.UUID, service string) (*Credentials, error)

	// Save creates or replaces credentials for a tenant and service
	Save(ctx context.Context, creds *Credentials) error
}
