package location

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/possync/backend/internal/domain/location"
)

// CareemDirectoryService maintains the mirrored Careem brand/branch
// hierarchy. Records arrive from operator imports and Careem callbacks;
// staleness flags tell the operator when a refresh is due, nothing here
// refreshes in the background.
type CareemDirectoryService struct {
	brands    location.CareemBrandRepository
	branches  location.CareemBranchRepository
	locations location.LocationRepository
	logger    *zap.Logger
}

// NewCareemDirectoryService creates a Careem directory service
func NewCareemDirectoryService(
	brands location.CareemBrandRepository,
	branches location.CareemBranchRepository,
	locations location.LocationRepository,
	logger *zap.Logger,
) *CareemDirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CareemDirectoryService{
		brands:    brands,
		branches:  branches,
		locations: locations,
		logger:    logger,
	}
}

// ListBrands returns all brand records of a tenant
func (s *CareemDirectoryService) ListBrands(ctx context.Context, tenantID uuid.UUID) ([]location.CareemBrand, error) {
	return s.brands.FindAll(ctx, tenantID)
}

// ListBranches returns branch records, optionally restricted to one brand
func (s *CareemDirectoryService) ListBranches(ctx context.Context, tenantID uuid.UUID, brandID string) ([]location.CareemBranch, error) {
	if brandID != "" {
		return s.branches.FindByBrand(ctx, tenantID, brandID)
	}
	return s.branches.FindAll(ctx, tenantID)
}

// UpsertBrand records or refreshes one brand
func (s *CareemDirectoryService) UpsertBrand(ctx context.Context, tenantID uuid.UUID, brandID, name string, mapped bool) (*location.CareemBrand, error) {
	brand, err := s.brands.FindByBrandID(ctx, tenantID, brandID)
	switch {
	case err == nil:
		if name != "" {
			brand.Name = name
		}
		brand.MarkSynced()
	case errors.Is(err, location.ErrCareemBrandNotFound):
		brand, err = location.NewCareemBrand(tenantID, brandID, name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if mapped {
		brand.MarkMapped()
	}

	if err := s.brands.Save(ctx, brand); err != nil {
		return nil, err
	}
	return brand, nil
}

// UpsertBranch records or refreshes one branch
func (s *CareemDirectoryService) UpsertBranch(ctx context.Context, tenantID uuid.UUID, req *UpsertCareemBranchRequest) (*location.CareemBranch, error) {
	branch, err := s.branches.FindByBranchID(ctx, tenantID, req.BranchID)
	switch {
	case err == nil:
		if req.Name != "" {
			branch.Name = req.Name
		}
		branch.BrandID = req.BrandID
		branch.MarkSynced()
	case errors.Is(err, location.ErrCareemBranchNotFound):
		branch, err = location.NewCareemBranch(tenantID, req.BrandID, req.BranchID, req.Name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	if req.POSIntegrationEnabled != nil {
		branch.POSIntegrationEnabled = *req.POSIntegrationEnabled
	}
	if req.IsVisible != nil {
		branch.IsVisible = *req.IsVisible
	}

	if err := s.branches.Save(ctx, branch); err != nil {
		return nil, err
	}
	return branch, nil
}

// LinkBranch maps a branch to an internal location and copies the branch ID
// onto the location's Careem store configuration
func (s *CareemDirectoryService) LinkBranch(ctx context.Context, tenantID uuid.UUID, branchID string, locationID uuid.UUID) (*location.CareemBranch, error) {
	branch, err := s.branches.FindByBranchID(ctx, tenantID, branchID)
	if err != nil {
		return nil, err
	}

	loc, err := s.locations.FindByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc.TenantID != tenantID {
		return nil, location.ErrLocationNotFound
	}

	branch.LinkLocation(locationID)
	loc.CareemStoreID = branch.BranchID
	loc.UpdatedAt = branch.UpdatedAt

	if err := s.branches.Save(ctx, branch); err != nil {
		return nil, err
	}
	if err := s.locations.Save(ctx, loc); err != nil {
		return nil, err
	}

	s.logger.Info("careem branch linked",
		zap.String("branch_id", branchID),
		zap.String("location_id", locationID.String()))
	return branch, nil
}

// UnlinkBranch detaches a branch from its internal location
func (s *CareemDirectoryService) UnlinkBranch(ctx context.Context, tenantID uuid.UUID, branchID string) (*location.CareemBranch, error) {
	branch, err := s.branches.FindByBranchID(ctx, tenantID, branchID)
	if err != nil {
		return nil, err
	}

	branch.UnlinkLocation()
	if err := s.branches.Save(ctx, branch); err != nil {
		return nil, err
	}
	return branch, nil
}
