package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Inbound Order Model
// ---------------------------------------------------------------------------

// InboundOrder is the normalized form of a platform order webhook payload
type InboundOrder struct {
	// OrderID is the platform's order identifier
	OrderID string
	// PlatformCode identifies which platform sent the order
	PlatformCode PlatformCode
	// Items are the order line items
	Items []InboundOrderItem
	// Total is the platform-provided order total, nil when absent
	Total *decimal.Decimal
	// Payment carries the raw payment section, shape varies per platform
	Payment map[string]interface{}
	// CreatedAt is when the order was created on the platform
	CreatedAt *time.Time
}

// InboundOrderItem is one line item of an inbound platform order
type InboundOrderItem struct {
	// ProductID is the platform product identifier, may be empty
	ProductID string
	// SKU is the platform SKU, optional secondary identifier
	SKU string
	// Quantity is the ordered quantity
	Quantity decimal.Decimal
	// UnitPrice is the per-unit price, nil when the platform omits it
	UnitPrice *decimal.Decimal
	// SpecialInstructions is the free-text note from the customer
	SpecialInstructions string
	// ModifierNames are the names of selected modifiers
	ModifierNames []string
}

// rawOrderItem tolerates the identifier and price key variants platforms use
type rawOrderItem struct {
	ProductID           string           `json:"product_id"`
	ID                  string           `json:"id"`
	SKU                 string           `json:"sku"`
	Quantity            *decimal.Decimal `json:"quantity"`
	UnitPrice           *decimal.Decimal `json:"unit_price"`
	Price               *decimal.Decimal `json:"price"`
	SpecialInstructions string           `json:"special_instructions"`
	Modifiers           []struct {
		Name string `json:"name"`
	} `json:"modifiers"`
}

type rawOrderBody struct {
	Items   []rawOrderItem `json:"items"`
	Pricing *struct {
		Total *decimal.Decimal `json:"total"`
	} `json:"pricing"`
	Payment   map[string]interface{} `json:"payment"`
	CreatedAt *time.Time             `json:"created_at"`
}

type rawOrderEnvelope struct {
	OrderID string          `json:"order_id"`
	Order   json.RawMessage `json:"order"`
}

// NormalizeOrderPayload parses a platform order webhook body into an
// InboundOrder. The payload may be the full envelope {order_id, order: {...}}
// or just the inner order object; normalization happens once here so nothing
// downstream needs shape checks. A payload whose items section is absent,
// not an array, or empty is rejected with ErrInvalidOrderPayload before any
// I/O.
func NormalizeOrderPayload(platformCode PlatformCode, payload []byte) (*InboundOrder, error) {
	var envelope rawOrderEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrderPayload, err)
	}

	body := payload
	if len(envelope.Order) > 0 {
		body = envelope.Order
	}

	var raw rawOrderBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOrderPayload, err)
	}
	if len(raw.Items) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidOrderPayload)
	}

	order := &InboundOrder{
		OrderID:      envelope.OrderID,
		PlatformCode: platformCode,
		Items:        make([]InboundOrderItem, 0, len(raw.Items)),
		Payment:      raw.Payment,
		CreatedAt:    raw.CreatedAt,
	}
	if raw.Pricing != nil {
		order.Total = raw.Pricing.Total
	}

	for _, item := range raw.Items {
		productID := item.ProductID
		if productID == "" {
			productID = item.ID
		}
		unitPrice := item.UnitPrice
		if unitPrice == nil {
			unitPrice = item.Price
		}
		quantity := decimal.NewFromInt(1)
		if item.Quantity != nil && item.Quantity.IsPositive() {
			quantity = *item.Quantity
		}

		names := make([]string, 0, len(item.Modifiers))
		for _, mod := range item.Modifiers {
			if mod.Name != "" {
				names = append(names, mod.Name)
			}
		}

		order.Items = append(order.Items, InboundOrderItem{
			ProductID:           productID,
			SKU:                 item.SKU,
			Quantity:            quantity,
			UnitPrice:           unitPrice,
			SpecialInstructions: item.SpecialInstructions,
			ModifierNames:       names,
		})
	}

	return order, nil
}

// ---------------------------------------------------------------------------
// Mapped / Unmapped Items
// ---------------------------------------------------------------------------

// UnmappedReason explains why an order item could not be mapped
type UnmappedReason string

const (
	// UnmappedReasonMissingProductID means the item carried no platform identifier
	UnmappedReasonMissingProductID UnmappedReason = "missing_product_id"
	// UnmappedReasonNoMappingFound means no active mapping matched the identifier
	UnmappedReasonNoMappingFound UnmappedReason = "no_mapping_found"
)

// MappedOrderItem pairs an order item with its resolved POS reference
type MappedOrderItem struct {
	Item    InboundOrderItem
	Mapping MappingResult
}

// UnmappedOrderItem pairs an order item with the reason it did not resolve
type UnmappedOrderItem struct {
	Item   InboundOrderItem
	Reason UnmappedReason
}

// ---------------------------------------------------------------------------
// Receipt Model
// ---------------------------------------------------------------------------

// Receipt is the POS-facing representation of an inbound order
type Receipt struct {
	// ExternalOrderID is the platform order ID, reused verbatim on retries
	// so resubmission stays idempotent on the POS side
	ExternalOrderID string
	// PlatformCode identifies the originating platform
	PlatformCode PlatformCode
	// CustomerID is the synthetic per-platform POS customer
	CustomerID string
	// PaymentTypeID is the resolved POS tender type
	PaymentTypeID string
	// Note is the receipt-level note
	Note string
	// Total is the receipt total
	Total decimal.Decimal
	// LineItems are the receipt lines, one per mapped order item
	LineItems []ReceiptLine
}

// ReceiptLine is one line of a POS receipt
type ReceiptLine struct {
	// ItemID is the POS item ID
	ItemID string
	// VariantID is the POS variant ID, empty when the item has none
	VariantID string
	// Quantity is the line quantity
	Quantity decimal.Decimal
	// Price is the unit price
	Price decimal.Decimal
	// Note concatenates special instructions and modifier names
	Note string
}

// ---------------------------------------------------------------------------
// POSClient Port Interface
// ---------------------------------------------------------------------------

// PaymentType is a tender type configured in the POS
type PaymentType struct {
	ID   string
	Name string
}

// POSItem is an item as listed by the POS back office
type POSItem struct {
	ID       string
	Name     string
	SKU      string
	Variants []POSVariant
}

// POSVariant is one variant of a POS item
type POSVariant struct {
	ID  string
	SKU string
}

// POSClient defines the port interface for the POS back office. Concrete
// implementation lives in the infrastructure layer.
type POSClient interface {
	// EnsurePlatformCustomer returns the synthetic customer representing a
	// platform (one per platform, not per end-customer), creating it if needed
	EnsurePlatformCustomer(ctx context.Context, tenantID uuid.UUID, platformCode PlatformCode) (string, error)

	// ListPaymentTypes returns the tender types configured in the POS
	ListPaymentTypes(ctx context.Context, tenantID uuid.UUID) ([]PaymentType, error)

	// CreateReceipt submits a receipt and returns the POS receipt number
	CreateReceipt(ctx context.Context, tenantID uuid.UUID, receipt *Receipt) (string, error)

	// ListItems returns the POS item catalog, used for SKU auto-mapping
	ListItems(ctx context.Context, tenantID uuid.UUID) ([]POSItem, error)
}

// OrderGate answers whether a tenant may process an order right now.
// Billing and quota live behind this boundary; the engine consumes only the
// yes/no answer.
type OrderGate interface {
	AllowOrder(ctx context.Context, tenantID uuid.UUID) (bool, error)
}
