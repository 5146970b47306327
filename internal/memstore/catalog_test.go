package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-admin/internal/catalog"
)

func seedCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog()
	for _, in := range []catalog.ProductInput{
		{Name: "Keyboard", Price: 50, CategoryName: "Peripherals"},
		{Name: "mouse", Price: 20, CategoryName: "Peripherals"},
		{Name: "Monitor", Price: 200, CategoryName: "Displays"},
		{Name: "Mouse pad", Price: 20, CategoryName: "Peripherals"},
	} {
		_, err := c.Create(context.Background(), in)
		require.NoError(t, err)
	}
	return c
}

func names(products []catalog.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func TestCatalogListOrdersWithIDTieBreak(t *testing.T) {
	c := seedCatalog(t)

	page, err := c.List(context.Background(), catalog.ListOptions{Order: catalog.OrderPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"mouse", "Mouse pad", "Keyboard", "Monitor"}, names(page.Items))

	page, err = c.List(context.Background(), catalog.ListOptions{Order: catalog.OrderPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Monitor", "Keyboard", "mouse", "Mouse pad"}, names(page.Items))
}

func TestCatalogListFiltersAndPages(t *testing.T) {
	c := seedCatalog(t)

	page, err := c.List(context.Background(), catalog.ListOptions{Term: "MOUSE", Take: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"mouse"}, names(page.Items))
	assert.Equal(t, 2, page.TotalCount)
	assert.True(t, page.HasMore)

	page, err = c.List(context.Background(), catalog.ListOptions{Term: "mouse", Skip: 1, Take: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mouse pad"}, names(page.Items))
	assert.False(t, page.HasMore)
}

func TestCatalogReusesCategoriesByName(t *testing.T) {
	c := seedCatalog(t)

	categories, err := c.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Displays", categories[0].Name)
	assert.Equal(t, "Peripherals", categories[1].Name)
}

func TestCatalogReturnsCopies(t *testing.T) {
	c := seedCatalog(t)

	p, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	p.Category.Name = "changed"

	again, err := c.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Peripherals", again.Category.Name)

	assert.ErrorIs(t, c.Delete(context.Background(), 99), catalog.ErrProductNotFound)
}
