package feed

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Canonical Product
// ---------------------------------------------------------------------------

// CanonicalProduct is the vendor-independent shape every adapter normalizes
// raw records into. ExternalID is the vendor's identifier for the product;
// it is unique per vendor configuration, not globally.
type CanonicalProduct struct {
	ExternalID  string
	Name        string
	Description string
	Price       decimal.Decimal
	SKU         string
	Stock       int
	ImageURLs   []string
	Categories  []string
}

// Valid reports whether the product satisfies the minimum requirements for
// catalog import: a non-empty external ID, a non-empty name, and a positive
// price.
func (p *CanonicalProduct) Valid() bool {
	if p == nil {
		return false
	}
	return p.ExternalID != "" && p.Name != "" && p.Price.IsPositive()
}

// DefaultFieldMapping is applied when a vendor configuration carries no
// mapping of its own. It matches the flat record shape most feeds use.
func DefaultFieldMapping() FieldMapping {
	return FieldMapping{
		"external_id": "id",
		"name":        "title",
		"description": "description",
		"price":       "price",
		"sku":         "sku",
		"stock":       "qty",
		"images":      "images",
		"categories":  "categories",
	}
}

// NormalizeRecord maps a raw vendor record into a canonical product using
// the given field mapping. Missing mapping entries fall back to the default
// paths. The second return value is false when the record does not yield a
// valid product; such records are skipped, never treated as fetch errors.
func NormalizeRecord(record RawRecord, mapping FieldMapping) (*CanonicalProduct, bool) {
	if len(record) == 0 {
		return nil, false
	}

	path := func(field string) string {
		if p, ok := mapping[field]; ok && p != "" {
			return p
		}
		return DefaultFieldMapping()[field]
	}

	product := &CanonicalProduct{}
	if id, ok := ResolveString(record, path("external_id")); ok {
		product.ExternalID = strings.TrimSpace(id)
	}
	if name, ok := ResolveString(record, path("name")); ok {
		product.Name = strings.TrimSpace(name)
	}
	if desc, ok := ResolveString(record, path("description")); ok {
		product.Description = desc
	}
	if price, ok := ResolveDecimal(record, path("price")); ok {
		product.Price = price
	}
	if sku, ok := ResolveString(record, path("sku")); ok {
		product.SKU = strings.TrimSpace(sku)
	}
	if stock, ok := ResolveInt(record, path("stock")); ok {
		product.Stock = max(stock, 0)
	}
	if images, ok := ResolveStrings(record, path("images")); ok {
		product.ImageURLs = images
	}
	if categories, ok := ResolveStrings(record, path("categories")); ok {
		product.Categories = categories
	}

	if !product.Valid() {
		return nil, false
	}
	return product, true
}
