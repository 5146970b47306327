package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-admin/internal/catalog"
	"shop-admin/internal/memstore"
)

func TestServiceValidatesBeforeWriting(t *testing.T) {
	store := memstore.NewCatalog()
	service := catalog.NewService(store)

	_, err := service.AddProduct(context.Background(), catalog.ProductInput{Name: "ab", Price: 10, CategoryName: "Misc"})
	var validation catalog.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "name", validation.Field)

	products, err := store.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestServiceProductLifecycle(t *testing.T) {
	service := catalog.NewService(memstore.NewCatalog())
	ctx := context.Background()

	mouse, err := service.AddProduct(ctx, catalog.ProductInput{Name: "Mouse", Price: 19.99, CategoryName: "Peripherals"})
	require.NoError(t, err)
	_, err = service.AddProduct(ctx, catalog.ProductInput{Name: "Mousepad", Price: 5, CategoryName: "Peripherals"})
	require.NoError(t, err)

	categories, err := service.Categories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 1)

	page, err := service.Products(ctx, catalog.ListOptions{Term: "MOUSE", Take: 1, Order: catalog.OrderPriceAsc})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalCount)
	assert.True(t, page.HasMore)
	assert.Equal(t, "Mousepad", page.Items[0].Name)

	updated, err := service.UpdateProduct(ctx, mouse.ID, catalog.ProductInput{Name: "Wireless Mouse", Price: 29.99, CategoryName: "Wireless"})
	require.NoError(t, err)
	assert.Equal(t, "Wireless", updated.Category.Name)

	require.NoError(t, service.DeleteProduct(ctx, mouse.ID))
	assert.ErrorIs(t, service.DeleteProduct(ctx, mouse.ID), catalog.ErrProductNotFound)

	_, err = service.UpdateProduct(ctx, mouse.ID, catalog.ProductInput{Name: "Wireless Mouse", Price: 29.99, CategoryName: "Wireless"})
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = service.Product(ctx, mouse.ID)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)
}
