package pos

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
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/config"
)

// POS client errors
var (
	// ErrPOSAuthFailed means the POS rejected the configured API token
	ErrPOSAuthFailed = errors.New("pos: authentication failed")
	// ErrPOSRequestFailed means the POS rejected an otherwise valid request
	ErrPOSRequestFailed = errors.New("pos: request failed")
	// ErrPOSInvalidResponse means the POS answered with an unparseable body
	ErrPOSInvalidResponse = errors.New("pos: invalid response")
)

// defaultBaseURL is the Loyverse production API; overridable through config
const defaultBaseURL = "https://api.loyverse.com/v1.0"

// maxResponseSize limits response body reads
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// platformCustomerEmailDomain forms the synthetic customer email for each
// platform. The email doubles as the idempotency key: looking it up before
// creating keeps one customer per platform however often orders arrive.
const platformCustomerEmailDomain = "orders.possync.local"

// LoyverseClient implements the POSClient port against the Loyverse back
// office API. The API token is resolved per tenant from the credential
// store on every call.
type LoyverseClient struct {
	cfg        config.POSConfig
	creds      integration.CredentialStore
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLoyverseClient creates a Loyverse POS client
func NewLoyverseClient(cfg config.POSConfig, creds integration.CredentialStore, logger *zap.Logger) *LoyverseClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoyverseClient{
		cfg:   cfg,
		creds: creds,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (c *LoyverseClient) resolveCredentials(ctx context.Context, tenantID uuid.UUID) (*integration.Credentials, error) {
	creds, err := c.creds.Get(ctx, tenantID, integration.ServiceLoyverse)
	if err != nil {
		return nil, err
	}
	if creds.APIToken == "" {
		return nil, integration.ErrCredentialsNotConfigured
	}
	return creds, nil
}

func (c *LoyverseClient) baseURL(creds *integration.Credentials) string {
	if creds.BaseURL != "" {
		return strings.TrimSuffix(creds.BaseURL, "/")
	}
	if c.cfg.BaseURL != "" {
		return strings.TrimSuffix(c.cfg.BaseURL, "/")
	}
	return defaultBaseURL
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

type loyverseCustomer struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type loyverseCustomerList struct {
	Customers []loyverseCustomer `json:"customers"`
}

// platformCustomerEmail derives the synthetic customer email for a platform
func platformCustomerEmail(platformCode integration.PlatformCode) string {
	return strings.ToLower(string(platformCode)) + "@" + platformCustomerEmailDomain
}

// EnsurePlatformCustomer returns the synthetic customer representing a
// platform, creating it on first use. One customer per platform; end
// customers are never mirrored into the POS.
func (c *LoyverseClient) EnsurePlatformCustomer(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode) (string, error) {
	creds, err := c.resolveCredentials(ctx, tenantID)
	if err != nil {
		return "", err
	}

	email := platformCustomerEmail(platformCode)
	endpoint := c.baseURL(creds) + "/customers?email=" + url.QueryEscape(email)
	status, body, err := c.do(ctx, creds, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", c.statusError(status, body)
	}

	var list loyverseCustomerList
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPOSInvalidResponse, err)
	}
	for _, customer := range list.Customers {
		if strings.EqualFold(customer.Email, email) {
			return customer.ID, nil
		}
	}

	payload, err := json.Marshal(loyverseCustomer{
		Name:  string(platformCode) + " Orders",
		Email: email,
	})
	if err != nil {
		return "", fmt.Errorf("pos: failed to marshal customer: %w", err)
	}

	status, body, err = c.do(ctx, creds, http.MethodPost, c.baseURL(creds)+"/customers", payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", c.statusError(status, body)
	}

	var created loyverseCustomer
	if err := json.Unmarshal(body, &created); err != nil || created.ID == "" {
		return "", fmt.Errorf("%w: customer response missing id", ErrPOSInvalidResponse)
	}

	c.logger.Info("created platform customer",
		zap.String("tenant_id", tenantID.String()),
		zap.String("platform", string(platformCode)),
		zap.String("customer_id", created.ID))
	return created.ID, nil
}

// ---------------------------------------------------------------------------
// Payment types
// ---------------------------------------------------------------------------

// ListPaymentTypes returns the tender types configured in the POS
func (c *LoyverseClient) ListPaymentTypes(ctx context.Context, tenantID uuid.UUID) ([]integration.PaymentType, error) {
	creds, err := c.resolveCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	status, body, err := c.do(ctx, creds, http.MethodGet, c.baseURL(creds)+"/payment_types", nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, c.statusError(status, body)
	}

	var list struct {
		PaymentTypes []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"payment_types"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPOSInvalidResponse, err)
	}

	out := make([]integration.PaymentType, 0, len(list.PaymentTypes))
	for _, pt := range list.PaymentTypes {
		out = append(out, integration.PaymentType{ID: pt.ID, Name: pt.Name})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Receipts
// ---------------------------------------------------------------------------

type loyverseReceiptLine struct {
	ItemID    string          `json:"item_id,omitempty"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	LineNote  string          `json:"line_note,omitempty"`
}

type loyverseReceipt struct {
	Source     string                `json:"source"`
	OrderID    string                `json:"order,omitempty"`
	CustomerID string                `json:"customer_id,omitempty"`
	Note       string                `json:"note,omitempty"`
	LineItems  []loyverseReceiptLine `json:"line_items"`
	Payments   []loyversePayment     `json:"payments"`
}

type loyversePayment struct {
	PaymentTypeID string          `json:"payment_type_id"`
	MoneyAmount   decimal.Decimal `json:"money_amount"`
}

// CreateReceipt submits a receipt and returns the POS receipt number. The
// platform order id rides along as the receipt's order reference, so a
// retried submission lands on the same external key.
func (c *LoyverseClient) CreateReceipt(ctx context.Context, tenantID uuid.UUID, receipt *integration.Receipt) (string, error) {
	creds, err := c.resolveCredentials(ctx, tenantID)
	if err != nil {
		return "", err
	}

	wire := loyverseReceipt{
		Source:     string(receipt.PlatformCode),
		OrderID:    receipt.ExternalOrderID,
		CustomerID: receipt.CustomerID,
		Note:       receipt.Note,
		LineItems:  make([]loyverseReceiptLine, 0, len(receipt.LineItems)),
		Payments: []loyversePayment{
			{PaymentTypeID: receipt.PaymentTypeID, MoneyAmount: receipt.Total},
		},
	}
	for _, line := range receipt.LineItems {
		wire.LineItems = append(wire.LineItems, loyverseReceiptLine{
			ItemID:    line.ItemID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Price:     line.Price,
			LineNote:  line.Note,
		})
	}

	payload, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("pos: failed to marshal receipt: %w", err)
	}

	status, body, err := c.do(ctx, creds, http.MethodPost, c.baseURL(creds)+"/receipts", payload)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", c.statusError(status, body)
	}

	var created struct {
		ReceiptNumber string `json:"receipt_number"`
	}
	if err := json.Unmarshal(body, &created); err != nil || created.ReceiptNumber == "" {
		return "", fmt.Errorf("%w: receipt response missing receipt_number", ErrPOSInvalidResponse)
	}
	return created.ReceiptNumber, nil
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

type loyverseItemList struct {
	Items []struct {
		ID       string `json:"id"`
		ItemName string `json:"item_name"`
		Variants []struct {
			VariantID string `json:"variant_id"`
			SKU       string `json:"sku"`
		} `json:"variants"`
	} `json:"items"`
	Cursor string `json:"cursor"`
}

// ListItems returns the full POS item catalog, following pagination cursors
// until exhausted
func (c *LoyverseClient) ListItems(ctx context.Context, tenantID uuid.UUID) ([]integration.POSItem, error) {
	creds, err := c.resolveCredentials(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	out := make([]integration.POSItem, 0)
	cursor := ""
	for {
		endpoint := c.baseURL(creds) + "/items"
		if cursor != "" {
			endpoint += "?cursor=" + url.QueryEscape(cursor)
		}

		status, body, err := c.do(ctx, creds, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		if status < 200 || status >= 300 {
			return nil, c.statusError(status, body)
		}

		var page loyverseItemList
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPOSInvalidResponse, err)
		}

		for _, item := range page.Items {
			posItem := integration.POSItem{
				ID:       item.ID,
				Name:     item.ItemName,
				Variants: make([]integration.POSVariant, 0, len(item.Variants)),
			}
			for _, variant := range item.Variants {
				posItem.Variants = append(posItem.Variants, integration.POSVariant{
					ID:  variant.VariantID,
					SKU: variant.SKU,
				})
			}
			// single-variant items carry the SKU at item level too
			if len(item.Variants) == 1 {
				posItem.SKU = item.Variants[0].SKU
			}
			out = append(out, posItem)
		}

		if page.Cursor == "" {
			return out, nil
		}
		cursor = page.Cursor
	}
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

func (c *LoyverseClient) do(ctx context.Context, creds *integration.Credentials, method, endpoint string, body []byte) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("pos: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+creds.APIToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, nil, fmt.Errorf("%w: timed out: %v", ErrPOSRequestFailed, err)
		}
		return 0, nil, fmt.Errorf("%w: %v", ErrPOSRequestFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("pos: failed to read response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func (c *LoyverseClient) statusError(status int, body []byte) error {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return fmt.Errorf("%w: HTTP %d", ErrPOSAuthFailed, status)
	}
	c.logger.Warn("pos request rejected",
		zap.Int("status", status),
		zap.ByteString("body", body))
	return fmt.Errorf("%w: HTTP %d: %s", ErrPOSRequestFailed, status, body)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Ensure LoyverseClient implements POSClient
var _ integration.POSClient = (*LoyverseClient)(nil)
