package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/feedsync/backend/internal/domain/feed"
	"github.com/feedsync/backend/internal/domain/vendor"
)

// ---------------------------------------------------------------------------
// Catalog Errors
// ---------------------------------------------------------------------------

var (
	ErrProductNotFound = errors.New("catalog: product not found")
)

// ---------------------------------------------------------------------------
// Product Status
// ---------------------------------------------------------------------------

// Status is the publication state of a catalog product.
type Status string

const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusRetired   Status = "retired"
)

// ---------------------------------------------------------------------------
// Upsert Result
// ---------------------------------------------------------------------------

// UpsertOutcome classifies what an upsert did.
type UpsertOutcome string

const (
	OutcomeCreated UpsertOutcome = "created"
	OutcomeUpdated UpsertOutcome = "updated"
	OutcomeSkipped UpsertOutcome = "skipped"
)

// UpsertResult reports the effect of importing one canonical product.
type UpsertResult struct {
	Outcome   UpsertOutcome
	ProductID uuid.UUID
}

// ---------------------------------------------------------------------------
// Store Port
// ---------------------------------------------------------------------------

// Store is the catalog side of the sync engine. Products are identified per
// vendor configuration by their external ID; the same external ID under two
// vendors is two distinct products.
type Store interface {
	// Upsert creates or updates the product owned by the given vendor
	// configuration. Unchanged products report OutcomeSkipped.
	Upsert(ctx context.Context, vendorID uuid.UUID, product *feed.CanonicalProduct) (UpsertResult, error)

	// FindByExternalID looks up a product by vendor and external ID.
	FindByExternalID(ctx context.Context, vendorID uuid.UUID, externalID string) (*Product, error)

	// ListOwnedExternalIDs maps every external ID owned by the vendor
	// configuration to its catalog product ID. Retired products are
	// excluded so policies are not reapplied to them.
	ListOwnedExternalIDs(ctx context.Context, vendorID uuid.UUID) (map[string]uuid.UUID, error)

	// ApplyPolicy applies a reconciliation policy to one product.
	ApplyPolicy(ctx context.Context, productID uuid.UUID, policy vendor.ReconciliationPolicy) error
}

// Product is the catalog's view of a synced product.
type Product struct {
	ID          uuid.UUID
	VendorID    uuid.UUID
	ExternalID  string
	Name        string
	Description string
	Price       decimal.Decimal
	SKU         string
	Stock       int
	Status      Status
}
