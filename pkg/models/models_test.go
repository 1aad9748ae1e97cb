package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_String(t *testing.T) {
	assert.Equal(t, "45999", NumericPrice(45999).String())
	assert.Equal(t, "12000.5", NumericPrice(12000.5).String())
	assert.Equal(t, "1.234.567", TextPrice("1.234.567", "multiple decimal points").String())
	assert.Equal(t, "", Price{}.String())
}

func TestPrice_Present(t *testing.T) {
	assert.True(t, NumericPrice(0).Present())
	assert.True(t, TextPrice("1.2.3", "multiple decimal points").Present())
	assert.False(t, TextPrice("", "no digits").Present())
	assert.False(t, Price{}.Present())
}

func TestListingRecord_Valid(t *testing.T) {
	rec := ListingRecord{Name: "X1 Carbon", Price: NumericPrice(150000)}
	assert.True(t, rec.Valid())

	rec.Price = Price{}
	assert.False(t, rec.Valid(), "missing price must be invalid")

	rec = ListingRecord{Price: NumericPrice(1)}
	assert.False(t, rec.Valid(), "missing name must be invalid")
}

func TestListingRecord_Row(t *testing.T) {
	rec := ListingRecord{
		Name:      "ThinkPad E14",
		Website:   "paklap.pk",
		Specs:     "Core i5, 16GB",
		Model:     "21JK",
		Price:     NumericPrice(189999),
		SourceURL: "https://www.paklap.pk/laptops-prices.html",
	}
	row := rec.Row()
	require.Len(t, row, len(Columns))
	assert.Equal(t, []string{"ThinkPad E14", "paklap.pk", "Core i5, 16GB", "21JK", "189999", "https://www.paklap.pk/laptops-prices.html"}, row)
}

func TestPrice_MarshalJSON(t *testing.T) {
	out, err := json.Marshal(ListingRecord{Name: "A", Price: NumericPrice(99.5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"A","website":"","price":99.5,"url":""}`, string(out))

	out, err = json.Marshal(TextPrice("1.2.3", "multiple decimal points"))
	require.NoError(t, err)
	assert.Equal(t, `"1.2.3"`, string(out))

	out, err = json.Marshal(Price{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
