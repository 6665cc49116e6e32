package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olprint/storefront/catalog"
)

func testCart() (*Cart, *catalog.Catalog) {
	cat := catalog.New(nil, catalog.SeedProducts()...)
	return New(cat.Get, nil), cat
}

func TestAddIncrementsExisting(t *testing.T) {
	c, cat := testCart()

	p1, err := cat.Get("p1")
	require.NoError(t, err)

	c.Add(p1)
	c.Add(p1)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 2, c.Count())
}

func TestAddByID(t *testing.T) {
	c, _ := testCart()

	assert.True(t, c.AddByID("p3"))
	assert.Equal(t, 1, c.Count())

	// Unknown products are a boolean miss, never an error
	assert.False(t, c.AddByID("p999"))
	assert.Equal(t, 1, c.Count())
}

func TestUpdateQuantity(t *testing.T) {
	c, _ := testCart()
	require.True(t, c.AddByID("p2"))

	c.UpdateQuantity("p2", 2)
	assert.Equal(t, 3, c.Items()[0].Quantity)

	c.UpdateQuantity("p2", -2)
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestUpdateQuantityNeverDropsToZero(t *testing.T) {
	c, _ := testCart()
	require.True(t, c.AddByID("p2"))

	c.UpdateQuantity("p2", -1)
	assert.Equal(t, 1, c.Items()[0].Quantity)

	c.UpdateQuantity("p2", -10)
	assert.Equal(t, 1, c.Items()[0].Quantity)
}

func TestUpdateQuantityUnknownIDIsNoOp(t *testing.T) {
	c, _ := testCart()
	require.True(t, c.AddByID("p2"))

	c.UpdateQuantity("p999", 5)
	assert.Equal(t, 1, c.Count())
}

func TestRemove(t *testing.T) {
	c, _ := testCart()
	require.True(t, c.AddByID("p1"))
	require.True(t, c.AddByID("p2"))

	c.Remove("p1")

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].Product.ID)

	// Removing a missing item is a no-op
	c.Remove("p999")
	assert.Len(t, c.Items(), 1)
}

func TestSubtotal(t *testing.T) {
	c, _ := testCart()
	require.True(t, c.AddByID("p6")) // 32.50
	require.True(t, c.AddByID("p6"))
	require.True(t, c.AddByID("p4")) // 44.90

	assert.InDelta(t, 2*32.50+44.90, c.Subtotal(), 0.001)
	assert.Equal(t, 3, c.Count())
}

func TestClear(t *testing.T) {
	c, _ := testCart()
	require.True(t, c.AddByID("p1"))

	c.Clear()
	assert.Empty(t, c.Items())
	assert.Equal(t, 0, c.Count())
	assert.Zero(t, c.Subtotal())
}
