package location

import (
	"time"

	"github.com/google/uuid"

	"github.com/possync/backend/internal/domain/integration"
	"github.com/possync/backend/internal/domain/location"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// DayHoursRequest is one weekday's opening hours
type DayHoursRequest struct {
	Day      string `json:"day" binding:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	OpensAt  string `json:"opens_at" binding:"required"`
	ClosesAt string `json:"closes_at" binding:"required"`
}

// CreateLocationRequest is the payload for creating a location
type CreateLocationRequest struct {
	Name            string            `json:"name" binding:"required"`
	CareemStoreID   string            `json:"careem_store_id"`
	TalabatVendorID string            `json:"talabat_vendor_id"`
	WeeklyHours     []DayHoursRequest `json:"weekly_hours" binding:"dive"`
}

// DayHours converts the request hours to the domain representation
func (r *CreateLocationRequest) DayHours() []integration.DayHours {
	return toDayHours(r.WeeklyHours)
}

// UpdateLocationRequest is the payload for updating a location. Nil fields
// keep their current value.
type UpdateLocationRequest struct {
	Name            string            `json:"name"`
	CareemStoreID   *string           `json:"careem_store_id"`
	TalabatVendorID *string           `json:"talabat_vendor_id"`
	IsOpen          *bool             `json:"is_open"`
	IsBusy          *bool             `json:"is_busy"`
	WeeklyHours     []DayHoursRequest `json:"weekly_hours" binding:"dive"`
}

// DayHours converts the request hours to the domain representation
func (r *UpdateLocationRequest) DayHours() []integration.DayHours {
	return toDayHours(r.WeeklyHours)
}

// UpsertCareemBranchRequest is the payload for recording a Careem branch
type UpsertCareemBranchRequest struct {
	BrandID               string `json:"brand_id" binding:"required"`
	BranchID              string `json:"branch_id" binding:"required"`
	Name                  string `json:"name"`
	POSIntegrationEnabled *bool  `json:"pos_integration_enabled"`
	IsVisible             *bool  `json:"is_visible"`
}

// LinkCareemBranchRequest is the payload for linking a branch to a location
type LinkCareemBranchRequest struct {
	LocationID string `json:"location_id" binding:"required,uuid"`
}

func toDayHours(hours []DayHoursRequest) []integration.DayHours {
	converted := make([]integration.DayHours, len(hours))
	for i, h := range hours {
		converted[i] = integration.DayHours{
			Day:      h.Day,
			OpensAt:  h.OpensAt,
			ClosesAt: h.ClosesAt,
		}
	}
	return converted
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// LocationResponse is the API representation of a location
type LocationResponse struct {
	ID                   uuid.UUID                              `json:"id"`
	Name                 string                                 `json:"name"`
	IsOpen               bool                                   `json:"is_open"`
	IsBusy               bool                                   `json:"is_busy"`
	CareemStoreID        string                                 `json:"careem_store_id,omitempty"`
	TalabatVendorID      string                                 `json:"talabat_vendor_id,omitempty"`
	WeeklyHours          []integration.DayHours                 `json:"weekly_hours,omitempty"`
	PlatformSyncStatuses map[string]location.PlatformSyncStatus `json:"platform_sync_statuses"`
	CreatedAt            time.Time                              `json:"created_at"`
	UpdatedAt            time.Time                              `json:"updated_at"`
}

// ToLocationResponse converts a domain location to a response DTO
func ToLocationResponse(l *location.Location) *LocationResponse {
	statuses := make(map[string]location.PlatformSyncStatus, len(l.PlatformSyncStatuses))
	for code, status := range l.PlatformSyncStatuses {
		statuses[string(code)] = status
	}
	return &LocationResponse{
		ID:                   l.ID,
		Name:                 l.Name,
		IsOpen:               l.IsOpen,
		IsBusy:               l.IsBusy,
		CareemStoreID:        l.CareemStoreID,
		TalabatVendorID:      l.TalabatVendorID,
		WeeklyHours:          l.WeeklyHours,
		PlatformSyncStatuses: statuses,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
}

// ToLocationResponses converts a slice of domain locations
func ToLocationResponses(locations []location.Location) []LocationResponse {
	responses := make([]LocationResponse, len(locations))
	for i := range locations {
		responses[i] = *ToLocationResponse(&locations[i])
	}
	return responses
}

// CareemBrandResponse is the API representation of a Careem brand record
type CareemBrandResponse struct {
	ID       uuid.UUID `json:"id"`
	BrandID  string    `json:"brand_id"`
	Name     string    `json:"name"`
	State    string    `json:"state"`
	IsStale  bool      `json:"is_stale"`
	SyncedAt time.Time `json:"synced_at"`
}

// ToCareemBrandResponses converts a slice of domain brand records
func ToCareemBrandResponses(brands []location.CareemBrand) []CareemBrandResponse {
	responses := make([]CareemBrandResponse, len(brands))
	for i, b := range brands {
		responses[i] = CareemBrandResponse{
			ID:       b.ID,
			BrandID:  b.BrandID,
			Name:     b.Name,
			State:    b.State.String(),
			IsStale:  b.IsStale(),
			SyncedAt: b.SyncedAt,
		}
	}
	return responses
}

// CareemBranchResponse is the API representation of a Careem branch record
type CareemBranchResponse struct {
	ID                    uuid.UUID  `json:"id"`
	BrandID               string     `json:"brand_id"`
	BranchID              string     `json:"branch_id"`
	Name                  string     `json:"name"`
	LocationID            *uuid.UUID `json:"location_id,omitempty"`
	State                 string     `json:"state"`
	POSIntegrationEnabled bool       `json:"pos_integration_enabled"`
	IsVisible             bool       `json:"is_visible"`
	ClosedUntil           *time.Time `json:"closed_until,omitempty"`
	IsStale               bool       `json:"is_stale"`
	SyncedAt              time.Time  `json:"synced_at"`
}

// ToCareemBranchResponse converts a domain branch record to a response DTO
func ToCareemBranchResponse(b *location.CareemBranch) *CareemBranchResponse {
	return &CareemBranchResponse{
		ID:                    b.ID,
		BrandID:               b.BrandID,
		BranchID:              b.BranchID,
		Name:                  b.Name,
		LocationID:            b.LocationID,
		State:                 b.State.String(),
		POSIntegrationEnabled: b.POSIntegrationEnabled,
		IsVisible:             b.IsVisible,
		ClosedUntil:           b.ClosedUntil,
		IsStale:               b.IsStale(),
		SyncedAt:              b.SyncedAt,
	}
}

// ToCareemBranchResponses converts a slice of domain branch records
func ToCareemBranchResponses(branches []location.CareemBranch) []CareemBranchResponse {
	responses := make([]CareemBranchResponse, len(branches))
	for i := range branches {
		responses[i] = *ToCareemBranchResponse(&branches[i])
	}
	return responses
}
