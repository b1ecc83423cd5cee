package feed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecord_DefaultMapping(t *testing.T) {
	record := RawRecord{
		"id":    "42",
		"title": "Widget",
		"price": 9.99,
		"qty":   float64(3),
	}

	product, ok := NormalizeRecord(record, nil)
	require.True(t, ok)
	assert.Equal(t, "42", product.ExternalID)
	assert.Equal(t, "Widget", product.Name)
	assert.True(t, product.Price.Equal(decimal.NewFromFloat(9.99)))
	assert.Equal(t, 3, product.Stock)
}

func TestNormalizeRecord_CustomMapping(t *testing.T) {
	record := RawRecord{
		"sku_code": "ABC-1",
		"info": map[string]any{
			"label": "Gadget",
		},
		"pricing": map[string]any{
			"retail": "15.00",
		},
	}
	mapping := FieldMapping{
		"external_id": "sku_code",
		"name":        "info.label",
		"price":       "pricing.retail",
	}

	product, ok := NormalizeRecord(record, mapping)
	require.True(t, ok)
	assert.Equal(t, "ABC-1", product.ExternalID)
	assert.Equal(t, "Gadget", product.Name)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("15.00")))
}

func TestNormalizeRecord_NegativeStockClamped(t *testing.T) {
	record := RawRecord{
		"id":    "42",
		"title": "Widget",
		"price": 9.99,
		"qty":   float64(-7),
	}

	product, ok := NormalizeRecord(record, nil)
	require.True(t, ok)
	assert.Equal(t, 0, product.Stock)
}

func TestNormalizeRecord_MissingExternalID(t *testing.T) {
	record := RawRecord{
		"title": "Widget",
		"price": 9.99,
	}

	_, ok := NormalizeRecord(record, nil)
	assert.False(t, ok)
}

func TestNormalizeRecord_MissingName(t *testing.T) {
	record := RawRecord{
		"id":    "42",
		"price": 9.99,
	}

	_, ok := NormalizeRecord(record, nil)
	assert.False(t, ok)
}

func TestNormalizeRecord_NonPositivePrice(t *testing.T) {
	for _, price := range []any{0.0, -1.5, "oops"} {
		record := RawRecord{
			"id":    "42",
			"title": "Widget",
			"price": price,
		}
		_, ok := NormalizeRecord(record, nil)
		assert.False(t, ok, "price %v should be rejected", price)
	}
}

func TestNormalizeRecord_EmptyRecord(t *testing.T) {
	_, ok := NormalizeRecord(RawRecord{}, nil)
	assert.False(t, ok)
}
