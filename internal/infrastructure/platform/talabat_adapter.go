package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/config"
)

// TalabatAdapter implements DeliveryPlatform for Talabat. Catalog submission
// is asynchronous: the platform answers 202 with an import id, and the final
// validation outcome is retrieved later from a log endpoint (or delivered to
// the configured callback URL).
type TalabatAdapter struct {
	cfg        config.TalabatConfig
	creds      integration.CredentialStore
	tokens     *TokenCache
	httpClient *http.Client
	logger     *zap.Logger
}

// NewTalabatAdapter creates a Talabat platform adapter
func NewTalabatAdapter(cfg config.TalabatConfig, creds integration.CredentialStore, tokens *TokenCache, logger *zap.Logger) *TalabatAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TalabatAdapter{
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
func (a *TalabatAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeTalabat
}

// resolveCredentials loads and validates the tenant's Talabat credentials.
// Talabat requires a chain code in addition to the OAuth2 pair.
func (a *TalabatAdapter) resolveCredentials(ctx context.Context, tenantID uuid.UUID) (*integration.Credentials, error) {
	creds, err := a.creds.Get(ctx, tenantID, integration.ServiceTalabat)
	if err != nil {
		return nil, err
	}
	if creds.ClientID == "" || creds.ClientSecret == "" || creds.ChainCode == "" {
		return nil, integration.ErrCredentialsNotConfigured
	}
	return creds, nil
}

func (a *TalabatAdapter) baseURL(creds *integration.Credentials) string {
	if creds.BaseURL != "" {
		return strings.TrimSuffix(creds.BaseURL, "/")
	}
	return strings.TrimSuffix(a.cfg.BaseURL, "/")
}

func (a *TalabatAdapter) tokenURL(creds *integration.Credentials) string {
	if creds.TokenURL != "" {
		return creds.TokenURL
	}
	return a.cfg.TokenURL
}

// getAccessToken returns a cached or freshly fetched OAuth2 access token
func (a *TalabatAdapter) getAccessToken(ctx context.Context, creds *integration.Credentials) (string, error) {
	return a.tokens.GetToken(ctx, integration.PlatformCodeTalabat, creds.ClientID, func(ctx context.Context) (string, error) {
		return a.fetchToken(ctx, creds)
	})
}

// fetchToken performs the OAuth2 client-credentials round-trip
func (a *TalabatAdapter) fetchToken(ctx context.Context, creds *integration.Credentials) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL(creds), strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("talabat: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", integration.NewPlatformTimeoutError(integration.PlatformCodeTalabat, "token fetch timed out")
		}
		return "", fmt.Errorf("%w: %v", integration.ErrPlatformAuthFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPlatformResponseSize))
	if err != nil {
		return "", fmt.Errorf("talabat: failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		a.logger.Warn("talabat token fetch rejected",
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

// SubmitCatalog pushes a catalog document to Talabat. Success is strictly
// HTTP 202 with an import id; anything else is a rejection. The import id
// identifies the asynchronous validation run whose outcome FetchImportLog
// retrieves.
func (a *TalabatAdapter) SubmitCatalog(ctx context.Context, tenantID uuid.UUID, doc integration.CatalogDocument) (*integration.CatalogSubmitResult, error) {
	if doc.PlatformCode() != integration.PlatformCodeTalabat {
		return nil, integration.ErrCatalogUnsupportedFormat
	}

	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	body, err := doc.MarshalBody()
	if err != nil {
		return nil, fmt.Errorf("talabat: failed to marshal catalog: %w", err)
	}

	endpoint := fmt.Sprintf("%s/catalog/%s", a.baseURL(creds), url.PathEscape(creds.ChainCode))
	status, respBody, err := a.doAuthenticated(ctx, creds, http.MethodPut, endpoint, body)
	if err != nil {
		return nil, err
	}

	if status != http.StatusAccepted {
		return nil, integration.NewPlatformAPIError(integration.PlatformCodeTalabat, status, string(respBody))
	}

	var submitResp struct {
		ImportID string `json:"importId"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(respBody, &submitResp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if submitResp.ImportID == "" {
		return nil, fmt.Errorf("%w: catalog response missing importId", integration.ErrPlatformInvalidResponse)
	}

	return &integration.CatalogSubmitResult{
		Success:    true,
		Status:     "PENDING",
		ExternalID: submitResp.ImportID,
		Message:    submitResp.Message,
	}, nil
}

// ImportLogEntry is one line of an asynchronous catalog import log
type ImportLogEntry struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
	ItemID   string `json:"itemId,omitempty"`
}

// FetchImportLog retrieves the validation outcome of an earlier catalog
// submission identified by its import id
func (a *TalabatAdapter) FetchImportLog(ctx context.Context, tenantID uuid.UUID, importID string) ([]ImportLogEntry, error) {
	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/catalog/%s/logs/%s",
		a.baseURL(creds), url.PathEscape(creds.ChainCode), url.PathEscape(importID))
	status, respBody, err := a.doAuthenticated(ctx, creds, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, integration.NewPlatformAPIError(integration.PlatformCodeTalabat, status, string(respBody))
	}

	var logResp struct {
		Entries []ImportLogEntry `json:"entries"`
	}
	if err := json.Unmarshal(respBody, &logResp); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	return logResp.Entries, nil
}

// UpdateVendorStatus toggles vendor availability on Talabat
func (a *TalabatAdapter) UpdateVendorStatus(ctx context.Context, tenantID uuid.UUID, vendorID string, available bool) error {
	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return err
	}

	state := "CLOSED"
	if available {
		state = "OPEN"
	}
	body, _ := json.Marshal(map[string]string{"availabilityState": state})

	endpoint := fmt.Sprintf("%s/chains/%s/vendors/%s/availability",
		a.baseURL(creds), url.PathEscape(creds.ChainCode), url.PathEscape(vendorID))
	status, respBody, err := a.doAuthenticated(ctx, creds, http.MethodPut, endpoint, body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return integration.NewPlatformAPIError(integration.PlatformCodeTalabat, status, string(respBody))
	}
	return nil
}

// UpdateStoreStatus toggles availability. Talabat models the store as a
// vendor under the chain.
func (a *TalabatAdapter) UpdateStoreStatus(ctx context.Context, tenantID uuid.UUID, storeID string, open bool) error {
	return a.UpdateVendorStatus(ctx, tenantID, storeID, open)
}

// UpdateStoreHours pushes the weekly schedule of a vendor to Talabat
func (a *TalabatAdapter) UpdateStoreHours(ctx context.Context, tenantID uuid.UUID, storeID string, hours []integration.DayHours) error {
	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return err
	}

	type talabatScheduleDay struct {
		Day   string `json:"day"`
		Open  string `json:"open"`
		Close string `json:"close"`
	}
	wire := make([]talabatScheduleDay, 0, len(hours))
	for _, h := range hours {
		wire = append(wire, talabatScheduleDay{Day: h.Day, Open: h.OpensAt, Close: h.ClosesAt})
	}
	body, err := json.Marshal(map[string]any{"schedule": wire})
	if err != nil {
		return fmt.Errorf("talabat: failed to marshal schedule: %w", err)
	}

	endpoint := fmt.Sprintf("%s/chains/%s/vendors/%s/schedule",
		a.baseURL(creds), url.PathEscape(creds.ChainCode), url.PathEscape(storeID))
	status, respBody, err := a.doAuthenticated(ctx, creds, http.MethodPut, endpoint, body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return integration.NewPlatformAPIError(integration.PlatformCodeTalabat, status, string(respBody))
	}
	return nil
}

// TestConnection attempts a token fetch only. Any failure yields false.
func (a *TalabatAdapter) TestConnection(ctx context.Context, tenantID uuid.UUID) bool {
	creds, err := a.resolveCredentials(ctx, tenantID)
	if err != nil {
		return false
	}
	_, err = a.fetchToken(ctx, creds)
	return err == nil
}

// doAuthenticated performs a bearer-authenticated JSON request and returns
// the status code and body
func (a *TalabatAdapter) doAuthenticated(ctx context.Context, creds *integration.Credentials, method, endpoint string, body []byte) (int, []byte, error) {
	token, err := a.getAccessToken(ctx, creds)
	if err != nil {
		return 0, nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("talabat: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, integration.NewPlatformTimeoutError(integration.PlatformCodeTalabat, err.Error())
		}
		return 0, nil, fmt.Errorf("talabat: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxPlatformResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("talabat: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		a.tokens.Invalidate(integration.PlatformCodeTalabat, creds.ClientID)
	}

	return resp.StatusCode, respBody, nil
}

// Ensure TalabatAdapter implements DeliveryPlatform
var _ integration.DeliveryPlatform = (*TalabatAdapter)(nil)
