package sqlbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteIdentifiers_Basic(t *testing.T) {
	got := rewriteIdentifiers(
		"orders.o_custkey = customer.c_custkey",
		map[string]string{"orders": "o", "customer": "c"},
	)
	assert.Equal(t, "o.o_custkey = c.c_custkey", got)
}

func TestRewriteIdentifiers_LongestNameFirst(t *testing.T) {
	got := rewriteIdentifiers(
		"hive.default.orders.o_custkey = orders.o_custkey",
		map[string]string{"hive.default.orders": "o", "orders": "o"},
	)
	assert.Equal(t, "o.o_custkey = o.o_custkey", got)
}

func TestRewriteIdentifiers_SkipsStringLiterals(t *testing.T) {
	got := rewriteIdentifiers(
		"orders.status = 'orders.pending'",
		map[string]string{"orders": "o"},
	)
	assert.Equal(t, "o.status = 'orders.pending'", got)
}

func TestRewriteIdentifiers_SkipsQuotedIdentifiers(t *testing.T) {
	got := rewriteIdentifiers(
		`"orders.x" = orders.x`,
		map[string]string{"orders": "o"},
	)
	assert.Equal(t, `"orders.x" = o.x`, got)
}

func TestRewriteIdentifiers_NoSubstringCorruption(t *testing.T) {
	// "customers" must not be treated as "customer"+"s"; "my_orders"
	// must not match "orders".
	got := rewriteIdentifiers(
		"customers.id = my_orders.id",
		map[string]string{"customer": "c", "orders": "o"},
	)
	assert.Equal(t, "customers.id = my_orders.id", got)
}

func TestRewriteIdentifiers_RequiresDotAfterName(t *testing.T) {
	// A bare occurrence of the table name is not a qualifier.
	got := rewriteIdentifiers(
		"orders_total = orders.total",
		map[string]string{"orders": "o"},
	)
	assert.Equal(t, "orders_total = o.total", got)
}

func TestRewriteIdentifiers_NotAfterDot(t *testing.T) {
	// "x.orders.y" has "orders" as a non-leading segment; leave it.
	got := rewriteIdentifiers(
		"x.orders.y = orders.y",
		map[string]string{"orders": "o"},
	)
	assert.Equal(t, "x.orders.y = o.y", got)
}

func TestRewriteIdentifiers_EscapedQuote(t *testing.T) {
	got := rewriteIdentifiers(
		"orders.note = 'it''s orders.x' AND orders.id = 1",
		map[string]string{"orders": "o"},
	)
	assert.Equal(t, "o.note = 'it''s orders.x' AND o.id = 1", got)
}

func TestAliasAllocator_CollisionSuffix(t *testing.T) {
	a := newAliasAllocator()

	assert.Equal(t, "c", a.Allocate("customer"))
	assert.Equal(t, "c", a.Allocate("customer"), "stable on re-allocation")
	assert.Equal(t, "c2", a.Allocate("catalog_sales"))
	assert.Equal(t, "c3", a.Allocate("hive.default.cart"))
	assert.Equal(t, "o", a.Allocate("orders"))
}

func TestAliasAllocator_NonLetterName(t *testing.T) {
	a := newAliasAllocator()
	assert.Equal(t, "t", a.Allocate("1raw"))
	assert.Equal(t, "t2", a.Allocate("2raw"))
}
