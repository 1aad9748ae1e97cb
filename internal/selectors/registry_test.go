package selectors

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	urlutil "github.com/law-makers/laptops/internal/utils/url"
)

func testTable() map[string]RuleSet {
	return map[string]RuleSet{
		"www.shop.pk": {Item: ".card", Name: Paths{".title::text"}, Price: Paths{".amount::text"}},
		DefaultKey:    {Item: ".product", Name: Paths{"h2::text"}, Price: Paths{".price::text"}},
	}
}

func TestNew_RequiresDefault(t *testing.T) {
	_, err := New(map[string]RuleSet{"shop.pk": {Item: ".card"}})
	assert.ErrorIs(t, err, ErrNoDefault)
}

func TestNew_RejectsBadSelectors(t *testing.T) {
	table := testTable()
	table["bad.pk"] = RuleSet{Item: ".card", Price: Paths{"span[[["}}

	_, err := New(table)
	var selErr *SelectorError
	require.True(t, errors.As(err, &selErr), "got %v", err)
	assert.Equal(t, "bad.pk", selErr.Domain)
	assert.Equal(t, "price", selErr.Field)

	table = testTable()
	table["attr.pk"] = RuleSet{Item: ".card::attr(href)"}
	_, err = New(table)
	require.True(t, errors.As(err, &selErr))
	assert.Equal(t, "item", selErr.Field)
}

func TestNew_RejectsDuplicatesAfterNormalization(t *testing.T) {
	table := testTable()
	table["https://shop.pk/"] = RuleSet{Item: ".x"}
	_, err := New(table)
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	r := MustNew(testTable())

	assert.Equal(t, ".card", r.Lookup("shop.pk").Item)
	assert.Equal(t, ".card", r.Lookup("https://www.shop.pk/laptops?page=2").Item)
	assert.Equal(t, r.Default(), r.Lookup("unknown.pk"))
	assert.Equal(t, r.Default(), r.Lookup(""))
	assert.True(t, r.Has("shop.pk"))
	assert.False(t, r.Has(DefaultKey))
	assert.Equal(t, []string{"shop.pk"}, r.Domains())
}

func TestLookup_ReturnsCopies(t *testing.T) {
	r := MustNew(testTable())

	rs := r.Lookup("shop.pk")
	rs.Name[0] = "mutated"
	assert.Equal(t, ".title::text", r.Lookup("shop.pk").Name[0])

	d := r.Default()
	d.Price[0] = "mutated"
	assert.Equal(t, ".price::text", r.Default().Price[0])
}

func TestBuiltin(t *testing.T) {
	r := Builtin()
	assert.ElementsMatch(t, []string{"technox.pk", "olx.com.pk", "paklap.pk", "shophive.com", "galaxy.pk", "fhlaptop.pk"}, r.Domains())
	assert.Equal(t, ".product-item", r.Lookup("https://www.paklap.pk/laptops-prices.html").Item)
	assert.Equal(t, r.Default(), r.Lookup("https://www.daraz.pk/laptops"))
	assert.Len(t, r.Default().Name, 6)
}

func TestStartURLs(t *testing.T) {
	seeds := StartURLs()
	require.Len(t, seeds, 31)
	for _, s := range seeds {
		assert.NoError(t, urlutil.ValidateURL(s), s)
	}

	seeds[0] = "changed"
	assert.NotEqual(t, "changed", StartURLs()[0])
}

func TestLoad(t *testing.T) {
	src := `
sites:
  www.myshop.pk:
    item: .product-card
    name: [".title::text", "h2::text"]
    price: .amount::text, .price::text
    delay: 5s
  default:
    item: .product
    name: h2::text
    price: .price::text
`
	sets, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	r, err := New(sets)
	require.NoError(t, err)
	rs := r.Lookup("myshop.pk")
	assert.Equal(t, ".product-card", rs.Item)
	assert.Equal(t, Paths{".title::text", "h2::text"}, rs.Name)
	assert.Equal(t, Paths{".amount::text", ".price::text"}, rs.Price)
	assert.Empty(t, rs.Specs)
	assert.Equal(t, 5*time.Second, rs.Delay)
	assert.Zero(t, r.Default().Delay)
}

func TestNew_RejectsNegativeDelay(t *testing.T) {
	table := testTable()
	table["slow.pk"] = RuleSet{Item: ".card", Delay: -time.Second}

	_, err := New(table)
	var selErr *SelectorError
	require.ErrorAs(t, err, &selErr)
	assert.Equal(t, "delay", selErr.Field)
}

func TestLoad_Empty(t *testing.T) {
	sets, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sites:\n  paklap.pk:\n    item: .grid-item\n    name: .n::text\n    price: .p::text\n"), 0o644))

	r, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, ".grid-item", r.Lookup("paklap.pk").Item)
	assert.Equal(t, ".product", r.Lookup("technox.pk").Item, "untouched built-ins survive")

	r, err = FromFile("")
	require.NoError(t, err)
	assert.Equal(t, ".product-item", r.Lookup("paklap.pk").Item)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := map[string]RuleSet{"a.pk": {Item: ".a"}, DefaultKey: {Item: ".d"}}
	over := map[string]RuleSet{"www.a.pk": {Item: ".b"}}
	got := Merge(base, over)
	assert.Equal(t, ".b", got["a.pk"].Item)
	assert.Equal(t, ".d", got[DefaultKey].Item)
	assert.Len(t, got, 2)
}
