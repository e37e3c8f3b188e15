package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/config"
)

// maxPlatformResponseSize limits response body reads to prevent memory
// exhaustion on a misbehaving remote
const maxPlatformResponseSize = 10 * 1024 * 1024 // 10MB

// CareemAdapter implements DeliveryPlatform for Careem. Credentials are
// resolved per tenant on every call; tokens are shared through the
// process-wide TokenCache.
type CareemAdapter struct {
	cfg        config.CareemConfig
	creds      integration.CredentialStore
	tokens     *TokenCache
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCareemAdapter creates a Careem platform adapter
func NewCareemAdapter(cfg config.CareemConfig, creds integration.CredentialStore, tokens *TokenCache, logger *zap.Logger) *CareemAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CareemAdapter{
		cfg:    cfg,
		creds:  creds,
		tokens: tokens,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// PlatformCode returns the platform code this adapter handles
func (a *CareemAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeCareem
}

// resolveCredentials loads and validates the tenant's Careem credentials.
// A partially configured credential set is rejected outright: a client must
// never call endpoints with blank secrets.
func (a *CareemAdapter) resolveCredentials(ctx context.Context, tenantID uuid.UUID) (*integration.Credentials, error) {
	creds, err := a.creds.Get(ctx, tenantID, integration.ServiceCareem)
	if err != nil {
		return nil, err
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.Scope == "" {
		return nil, integration.ErrCredentialsNotConfigured
	}
	return creds, nil
}

func (a *CareemAdapter) baseURL(creds *integration.Credentials) string {
	if creds.BaseURL != "" {
		return strings.TrimSuffix(creds.BaseURL, "/")
	}
	return strings.TrimSuffix(a.cfg.BaseURL, "/")
}

func (a *CareemAdapter) tokenURL(creds *integration.Credentials) string {
	if creds.TokenURL != "" {
		return creds.TokenURL
	}
	return a.cfg.TokenURL
}

// getAccessToken returns a cached or freshly fetched OAuth2 access token
func (a *CareemAdapter) getAccessToken(ctx context.Context, creds *integration.Credentials) (string, error) {
	return a.tokens.GetToken(ctx, integration.PlatformCodeCareem, creds.ClientID, func(ctx context.Context) (string, error) {
		return a.fetchToken(ctx, creds)
	})
}

// fetchToken performs the OAuth2 client-credentials round-trip
func (a *CareemAdapter) fetchToken(ctx context.Context, creds *integration.Credentials) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)
	form.Set("scope", creds.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL(creds), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("careem: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", integration.NewPlatformTimeoutError(integration.PlatformCodeCareem, "token fetch timed out")
		}
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlatformResponseSize))
	if err != nil {
		return "", fmt.Errorf("careem: failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.Warn("careem token fetch rejected",
			zap.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: HTTP %d", integration.ErrPlatformAuthFailed, resp.StatusCode)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: token response missing access_token", integration.ErrPlatformInvalidResponse)
	}

	return tokenResp.AccessToken, nil
}

// SubmitCatalog pushes a catalog document to Careem. Careem accepts the
// catalog synchronously: any 2xx with a catalog id in the body is success.
func (a *CareemAdapter) SubmitCatalog(ctx context.Context, tenantID uuid.UUID, doc integration.CatalogDocument) (*integration.CatalogSubmitResult, error) {
	if doc.PlatformCode() != integration.PlatformCodeCareem {
		return nil, integration.ErrCatalogUnsupportedFormat
	}

	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	body, err := doc.MarshalBody()
	if err != nil {
		return nil, fmt.Errorf("careem: failed to marshal catalog: %w", err)
	}

	status, respBody, err := a.doAuthenticated(ctx, creds, http.MethodPost, a.baseURL(creds)+"/catalog", body)
	if err != nil {
		return nil, err
	}

	if status < 200 || status >= 300 {
		return nil, integration.NewPlatformAPIError(integration.PlatformCodeCareem, status, string(respBody))
	}

	var submitResp struct {
		CatalogID string `json:"catalog_id"`
		ID        string `json:"id"`
		Status    string `json:"status"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &submitResp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}

	externalID := submitResp.CatalogID
	if externalID == "" {
		externalID = submitResp.ID
	}
	if externalID == "" {
		return nil, fmt.Errorf("%w: catalog response missing catalog id", integration.ErrPlatformInvalidResponse)
	}

	resultStatus := submitResp.Status
	if resultStatus == "" {
		resultStatus = "ACCEPTED"
	}

	return &integration.CatalogSubmitResult{
		Success:    true,
		Status:     resultStatus,
		ExternalID: externalID,
		Message:    submitResp.Message,
	}, nil
}

// UpdateStoreStatus toggles the store open/closed on Careem
func (a *CareemAdapter) UpdateStoreStatus(ctx context.Context, tenantID uuid.UUID, storeID string, open bool) error {
	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return err
	}

	storeStatus := "CLOSED"
	if open {
		storeStatus = "OPEN"
	}
	body, _ := json.Marshal(map[string]string{"status": storeStatus})

	endpoint := fmt.Sprintf("%s/stores/%s/status", a.baseURL(creds), url.PathEscape(storeID))
	status, respBody, err := a.doAuthenticated(ctx, creds, http.MethodPatch, endpoint, body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return integration.NewPlatformAPIError(integration.PlatformCodeCareem, status, string(respBody))
	}
	return nil
}

// UpdateStoreHours pushes weekly opening hours to Careem
func (a *CareemAdapter) UpdateStoreHours(ctx context.Context, tenantID uuid.UUID, storeID string, hours []integration.DayHours) error {
	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return err
	}

	type careemDayHours struct {
		Day      string `json:"day"`
		OpensAt  string `json:"opens_at"`
		ClosesAt string `json:"closes_at"`
	}
	wire := make([]careemDayHours, 0, len(hours))
	for _, h := range hours {
		wire = append(wire, careemDayHours{Day: h.Day, OpensAt: h.OpensAt, ClosesAt: h.ClosesAt})
	}
	body, err := json.Marshal(map[string]any{"opening_hours": wire})
	if err != nil {
		return fmt.Errorf("careem: failed to marshal opening hours: %w", err)
	}

	endpoint := fmt.Sprintf("%s/stores/%s/opening-hours", a.baseURL(creds), url.PathEscape(storeID))
	status, respBody, err := a.doAuthenticated(ctx, creds, http.MethodPatch, endpoint, body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return integration.NewPlatformAPIError(integration.PlatformCodeCareem, status, string(respBody))
	}
	return nil
}

// UpdateVendorStatus toggles availability. Careem has no separate vendor
// concept; the store is the vendor.
func (a *CareemAdapter) UpdateVendorStatus(ctx context.Context, tenantID uuid.UUID, vendorID string, available bool) error {
	return a.UpdateStoreStatus(ctx, tenantID, vendorID, available)
}

// TestConnection attempts a token fetch only. Any failure yields false.
func (a *CareemAdapter) TestConnection(ctx context.Context, tenantID uuid.UUID) bool {
	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return false
	}
	_, err = a.fetchToken(ctx, creds)
	return err == nil
}

// doAuthenticated performs a bearer-authenticated JSON request and returns
// the status code and body. Transport failures become typed platform errors.
func (a *CareemAdapter) doAuthenticated(ctx context.Context, creds *integration.Credentials, method, endpoint string, body []byte) (int, []byte, error) {
	token, err := a.getAccessToken(ctx, creds)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("careem: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, integration.NewPlatformTimeoutError(integration.PlatformCodeCareem, err.Error())
		}
		return 0, nil, fmt.Errorf("careem: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxPlatformResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("careem: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked before its TTL; force a refresh on
		// the next call.
		a.tokens.Invalidate(integration.PlatformCodeCareem, creds.ClientID)
	}

	return resp.StatusCode, respBody, nil
}

// isTimeout reports whether err is a deadline or network timeout
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Ensure CareemAdapter implements DeliveryPlatform
var _ integration.DeliveryPlatform = (*CareemAdapter)(nil)
