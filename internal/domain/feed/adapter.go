package feed

import "context"

// ---------------------------------------------------------------------------
// Vendor Adapter Port
// ---------------------------------------------------------------------------

// AdapterConfig carries everything an adapter needs to talk to one vendor
// API. Credential is the decrypted secret; adapter implementations must not
// write it to logs or embed it in error messages.
type AdapterConfig struct {
	BaseURL    string
	Credential string
	Mapping    FieldMapping
}

// VendorAdapter is the port every vendor API integration implements.
// FetchPage returns the raw records of one page; an empty slice signals the
// end of the feed. Normalize maps one raw record into a canonical product
// and reports false for records that should be skipped.
type VendorAdapter interface {
	// APIType identifies the adapter, e.g. "standard".
	APIType() string

	// FetchPage retrieves one page of products from the vendor API.
	// Page numbering starts at 1. Errors carry the feed error taxonomy
	// so callers can distinguish retryable from terminal failures.
	FetchPage(ctx context.Context, page, limit int) ([]RawRecord, error)

	// Normalize maps a raw record into a canonical product. The boolean
	// is false when the record is invalid and should be skipped.
	Normalize(record RawRecord) (*CanonicalProduct, bool)

	// TestConnection probes the vendor API for reachability.
	TestConnection(ctx context.Context) bool
}

// AdapterConstructor builds an adapter instance for one vendor
// configuration.
type AdapterConstructor func(cfg AdapterConfig) (VendorAdapter, error)
