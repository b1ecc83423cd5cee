package feed

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_FlatPath(t *testing.T) {
	record := RawRecord{"id": "42", "price": 9.99}

	v, ok := Resolve(record, "id")
	require.True(t, ok)
	assert.Equal(t, "42", v)
}

func TestResolve_NestedPath(t *testing.T) {
	record := RawRecord{
		"pricing": map[string]any{
			"retail": 19.5,
		},
	}

	v, ok := Resolve(record, "pricing.retail")
	require.True(t, ok)
	assert.Equal(t, 19.5, v)
}

func TestResolve_MissingKeyIsAbsentNotError(t *testing.T) {
	record := RawRecord{"id": "42"}

	_, ok := Resolve(record, "pricing.retail")
	assert.False(t, ok)
}

func TestResolve_NonMapIntermediate(t *testing.T) {
	record := RawRecord{"pricing": "not-a-map"}

	_, ok := Resolve(record, "pricing.retail")
	assert.False(t, ok)
}

func TestResolve_EmptyPath(t *testing.T) {
	record := RawRecord{"id": "42"}

	_, ok := Resolve(record, "")
	assert.False(t, ok)
}

func TestResolveString_NumericCoercion(t *testing.T) {
	record := RawRecord{"id": float64(42)}

	s, ok := ResolveString(record, "id")
	require.True(t, ok)
	assert.Equal(t, "42", s)
}

func TestResolveDecimal_StringPrice(t *testing.T) {
	record := RawRecord{"price": "12.30"}

	d, ok := ResolveDecimal(record, "price")
	require.True(t, ok)
	assert.True(t, d.Equal(decimal.RequireFromString("12.30")))
}

func TestResolveDecimal_Garbage(t *testing.T) {
	record := RawRecord{"price": "free"}

	_, ok := ResolveDecimal(record, "price")
	assert.False(t, ok)
}

func TestResolveStrings_MixedArray(t *testing.T) {
	record := RawRecord{"images": []any{"a.jpg", 7, "b.jpg", ""}}

	images, ok := ResolveStrings(record, "images")
	require.True(t, ok)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, images)
}
