package menu

import (
	"github.com/possync/backend/internal/domain/integration"
)

// CatalogTransformer converts a menu into one platform's catalog wire shape.
// Implementations are pure: no network I/O, no persistence, so they can be
// unit tested against fixed menu fixtures.
type CatalogTransformer interface {
	// PlatformCode returns the platform this transformer targets
	PlatformCode() integration.PlatformCode

	// Transform builds a submission-ready catalog document from the menu
	Transform(m *Menu) (integration.CatalogDocument, error)
}
