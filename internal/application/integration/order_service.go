package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/infrastructure/config"
	"github.com/possync/backend/internal/infrastructure/pos"
	"github.com/possync/backend/internal/infrastructure/telemetry"
)

const (
	actionOrderTransform = "order.transform"

	metadataPayloadKey = "payload"
)

// OrderProcessResult summarizes one processed order
type OrderProcessResult struct {
	OrderID          string                 `json:"order_id"`
	ReceiptNumber    string                 `json:"receipt_number"`
	Status           integration.SyncStatus `json:"status"`
	MappedCount      int                    `json:"mapped_count"`
	UnmappedCount    int                    `json:"unmapped_count"`
	UnmappedProducts []string               `json:"unmapped_products,omitempty"`
	Total            decimal.Decimal        `json:"total"`
	SyncLogID        uuid.UUID              `json:"sync_log_id"`
}

// OrderService turns inbound platform orders into POS receipts. Every
// attempt, successful or not, leaves exactly one sync log entry; failures
// that could still succeed keep the raw payload so the attempt can be
// replayed, while rejected payloads and quota refusals do not.
type OrderService struct {
	mappings *MappingService
	posCli   integration.POSClient
	gate     integration.OrderGate
	syncLogs integration.SyncLogRepository
	posCfg   config.POSConfig
	metrics  *telemetry.SyncMetrics
	logger   *zap.Logger
}

// NewOrderService creates an order service
func NewOrderService(
	mappings *MappingService,
	posCli integration.POSClient,
	gate integration.OrderGate,
	syncLogs integration.SyncLogRepository,
	posCfg config.POSConfig,
	metrics *telemetry.SyncMetrics,
	logger *zap.Logger,
) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		mappings: mappings,
		posCli:   posCli,
		gate:     gate,
		syncLogs: syncLogs,
		posCfg:   posCfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// ---------------------------------------------------------------------------
// Processing
// ---------------------------------------------------------------------------

// ProcessOrder validates, transforms and submits one inbound order
func (s *OrderService) ProcessOrder(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, payload []byte) (*OrderProcessResult, error) {
	start := time.Now()

	allowed, err := s.gate.AllowOrder(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.recordFailure(ctx, tenantID, platformCode, "unknown", payload,
			"order rejected: tenant may not process orders", false, false, nil)
		return nil, integration.ErrOrderNotAllowed
	}

	order, err := integration.NormalizeOrderPayload(platformCode, payload)
	if err != nil {
		s.recordFailure(ctx, tenantID, platformCode, "unknown", payload,
			fmt.Sprintf("order rejected: %v", err), false, false, nil)
		s.metrics.RecordOrder(ctx, platformCode, integration.SyncStatusFailed, time.Since(start))
		return nil, err
	}

	result, err := s.transform(ctx, tenantID, order, payload)
	status := integration.SyncStatusFailed
	if result != nil {
		status = result.Status
	}
	s.metrics.RecordOrder(ctx, platformCode, status, time.Since(start))
	return result, err
}

// RetryOrder replays a previously failed order attempt from its sync log
// entry. Any failed entry with a stored payload qualifies: mapping failures
// become replayable once the operator has created the missing mappings, so
// eligibility here is wider than the retryable flag that marks candidates
// for automatic retry. Rejected payloads carry no stored payload and stay
// out for good.
func (s *OrderService) RetryOrder(ctx context.Context, tenantID uuid.UUID, syncLogID uuid.UUID) (*OrderProcessResult, error) {
	entry, err := s.syncLogs.FindByID(ctx, syncLogID)
	if err != nil {
		return nil, err
	}
	if entry.TenantID != tenantID {
		return nil, integration.ErrSyncLogNotFound
	}
	if entry.Status != integration.SyncStatusFailed {
		return nil, integration.ErrSyncLogNotRetryable
	}
	raw, ok := entry.Metadata[metadataPayloadKey].(string)
	if !ok || raw == "" {
		return nil, integration.ErrSyncLogNotRetryable
	}

	s.logger.Info("retrying order",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", entry.SubjectID),
		zap.String("platform", entry.PlatformCode.String()))
	return s.ProcessOrder(ctx, tenantID, entry.PlatformCode, []byte(raw))
}

func (s *OrderService) transform(ctx context.Context, tenantID uuid.UUID, order *integration.InboundOrder, payload []byte) (*OrderProcessResult, error) {
	platformCode := order.PlatformCode

	mapped, unmapped, err := s.mappings.MapOrderItems(ctx, tenantID, platformCode, order.Items)
	if err != nil {
		s.recordFailure(ctx, tenantID, platformCode, order.OrderID, payload,
			fmt.Sprintf("mapping lookup failed: %v", err), true, true, nil)
		return nil, err
	}

	unmappedProducts := unmappedProductNames(unmapped)
	if len(unmapped) > 0 {
		s.metrics.RecordUnmappedItems(ctx, platformCode, len(unmapped))
	}

	if len(mapped) == 0 {
		// not retryable automatically, but replayable once the operator
		// has created the missing mappings
		s.recordFailure(ctx, tenantID, platformCode, order.OrderID, payload,
			fmt.Sprintf("no order items could be mapped (%d unmapped)", len(unmapped)), false, true,
			map[string]interface{}{
				"unmapped_count":    len(unmapped),
				"unmapped_products": unmappedProducts,
			})
		return nil, integration.ErrNoMappableItems
	}

	customerID, err := s.posCli.EnsurePlatformCustomer(ctx, tenantID, platformCode)
	if err != nil {
		s.recordFailure(ctx, tenantID, platformCode, order.OrderID, payload,
			fmt.Sprintf("platform customer lookup failed: %v", err), isTransient(err), true, nil)
		return nil, err
	}

	paymentTypeID, tenderFallback, err := s.resolveTender(ctx, tenantID, platformCode)
	if err != nil {
		s.recordFailure(ctx, tenantID, platformCode, order.OrderID, payload,
			fmt.Sprintf("tender resolution failed: %v", err), isTransient(err), true, nil)
		return nil, err
	}

	receipt := buildReceipt(order, mapped, customerID, paymentTypeID)

	receiptNumber, err := s.posCli.CreateReceipt(ctx, tenantID, receipt)
	if err != nil {
		s.recordFailure(ctx, tenantID, platformCode, order.OrderID, payload,
			fmt.Sprintf("receipt creation failed: %v", err), isTransient(err), true, nil)
		return nil, err
	}

	status := integration.SyncStatusSuccess
	message := fmt.Sprintf("order %s synced as receipt %s", order.OrderID, receiptNumber)
	if len(unmapped) > 0 {
		status = integration.SyncStatusWarning
		message = fmt.Sprintf("order %s synced as receipt %s with %d unmapped item(s): %s",
			order.OrderID, receiptNumber, len(unmapped), strings.Join(unmappedProducts, ", "))
	} else if tenderFallback {
		status = integration.SyncStatusWarning
		message = fmt.Sprintf("order %s synced as receipt %s using fallback tender", order.OrderID, receiptNumber)
	}

	entry := s.record(ctx, tenantID, platformCode, order.OrderID, status, message,
		map[string]interface{}{
			"receipt_number":    receiptNumber,
			"mapped_count":      len(mapped),
			"unmapped_count":    len(unmapped),
			"unmapped_products": unmappedProducts,
			"total":             receipt.Total.String(),
		})

	result := &OrderProcessResult{
		OrderID:          order.OrderID,
		ReceiptNumber:    receiptNumber,
		Status:           status,
		MappedCount:      len(mapped),
		UnmappedCount:    len(unmapped),
		UnmappedProducts: unmappedProducts,
		Total:            receipt.Total,
	}
	if entry != nil {
		result.SyncLogID = entry.ID
	}
	return result, nil
}

// ---------------------------------------------------------------------------
// Receipt assembly
// ---------------------------------------------------------------------------

// buildReceipt assembles the POS receipt from the mapped subset of an order.
// The platform-provided total wins when present; otherwise the total is the
// sum over mapped lines only.
func buildReceipt(order *integration.InboundOrder, mapped []integration.MappedOrderItem, customerID, paymentTypeID string) *integration.Receipt {
	lines := make([]integration.ReceiptLine, 0, len(mapped))
	lineSum := decimal.Zero
	for _, m := range mapped {
		price := decimal.Zero
		if m.Item.UnitPrice != nil {
			price = *m.Item.UnitPrice
		}
		lineSum = lineSum.Add(price.Mul(m.Item.Quantity))

		lines = append(lines, integration.ReceiptLine{
			ItemID:    m.Mapping.POSItemID,
			VariantID: m.Mapping.POSVariantID,
			Quantity:  m.Item.Quantity,
			Price:     price,
			Note:      lineNote(m.Item),
		})
	}

	total := lineSum
	if order.Total != nil {
		total = *order.Total
	}

	return &integration.Receipt{
		ExternalOrderID: order.OrderID,
		PlatformCode:    order.PlatformCode,
		CustomerID:      customerID,
		PaymentTypeID:   paymentTypeID,
		Note:            fmt.Sprintf("%s order %s", order.PlatformCode, order.OrderID),
		Total:           total,
		LineItems:       lines,
	}
}

// lineNote joins special instructions and modifier names into one line note
func lineNote(item integration.InboundOrderItem) string {
	parts := make([]string, 0, 1+len(item.ModifierNames))
	if item.SpecialInstructions != "" {
		parts = append(parts, item.SpecialInstructions)
	}
	parts = append(parts, item.ModifierNames...)
	return strings.Join(parts, "; ")
}

// resolveTender picks the POS payment type named after the platform. When no
// tender matches, the first configured one is used unless strict tender
// matching is on.
func (s *OrderService) resolveTender(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode) (string, bool, error) {
	paymentTypes, err := s.posCli.ListPaymentTypes(ctx, tenantID)
	if err != nil {
		return "", false, err
	}
	if len(paymentTypes) == 0 {
		return "", false, fmt.Errorf("integration: no payment types configured in POS")
	}

	for _, pt := range paymentTypes {
		if strings.EqualFold(pt.Name, platformCode.String()) {
			return pt.ID, false, nil
		}
	}
	for _, pt := range paymentTypes {
		if strings.Contains(strings.ToUpper(pt.Name), platformCode.String()) {
			return pt.ID, false, nil
		}
	}

	if s.posCfg.StrictTender {
		return "", false, fmt.Errorf("integration: no payment type matches platform %s", platformCode)
	}

	s.logger.Warn("no payment type matches platform, falling back to first",
		zap.String("platform", platformCode.String()),
		zap.String("fallback", paymentTypes[0].Name))
	return paymentTypes[0].ID, true, nil
}

func unmappedProductNames(unmapped []integration.UnmappedOrderItem) []string {
	names := make([]string, 0, len(unmapped))
	for _, u := range unmapped {
		name := u.Item.ProductID
		if name == "" {
			name = u.Item.SKU
		}
		if name == "" {
			name = "(unidentified item)"
		}
		names = append(names, fmt.Sprintf("%s (%s)", name, u.Reason))
	}
	return names
}

// isTransient reports whether a failure is worth an automatic retry
func isTransient(err error) bool {
	var apiErr *integration.PlatformAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	if errors.Is(err, pos.ErrPOSRequestFailed) {
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Sync log recording
// ---------------------------------------------------------------------------

// recordFailure appends a FAILED entry. retryable marks candidates for
// automatic retry; replayable keeps the raw payload so an operator can
// replay the attempt manually after fixing the cause.
func (s *OrderService) recordFailure(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, orderID string, payload []byte, message string, retryable, replayable bool, extra map[string]interface{}) {
	metadata := map[string]interface{}{
		"retryable": retryable,
	}
	if retryable || replayable {
		metadata[metadataPayloadKey] = string(payload)
	}
	for k, v := range extra {
		metadata[k] = v
	}
	s.record(ctx, tenantID, platformCode, orderID, integration.SyncStatusFailed, message, metadata)
}

func (s *OrderService) record(ctx context.Context, tenantID uuid.UUID, platformCode integration.PlatformCode, orderID string, status integration.SyncStatus, message string, metadata map[string]interface{}) *integration.SyncLog {
	entry, err := integration.NewSyncLog(tenantID, integration.SyncSubjectOrder, orderID,
		platformCode, actionOrderTransform, status, message)
	if err != nil {
		s.logger.Error("failed to build sync log entry", zap.Error(err))
		return nil
	}
	for k, v := range metadata {
		entry.WithMetadata(k, v)
	}

	if err := s.syncLogs.Append(ctx, entry); err != nil {
		// the order outcome stands even when the audit write fails
		s.logger.Error("failed to append sync log entry",
			zap.String("order_id", orderID), zap.Error(err))
		return nil
	}
	return entry
}
