package memstore

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"shop-admin/internal/catalog"
)

type Catalog struct {
	mu             sync.RWMutex
	nextProductID  int64
	nextCategoryID int64
	products       map[int64]catalog.Product
	categories     map[string]catalog.Category
}

var _ catalog.Store = (*Catalog)(nil)

func NewCatalog() *Catalog {
	return &Catalog{
		products:   make(map[int64]catalog.Product),
		categories: make(map[string]catalog.Category),
	}
}

func (c *Catalog) List(_ context.Context, options catalog.ListOptions) (catalog.Page, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	term := strings.ToLower(options.Term)
	matched := make([]catalog.Product, 0, len(c.products))
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), term) {
			matched = append(matched, clone(p))
		}
	}
	sortProducts(matched, options.Order)

	total := len(matched)
	start := min(options.Skip, total)
	end := total
	if options.Take > 0 {
		end = min(start+options.Take, total)
	}

	return catalog.Page{
		Items:      matched[start:end],
		TotalCount: total,
		HasMore:    end < total,
	}, nil
}

func (c *Catalog) All(_ context.Context) ([]catalog.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]catalog.Product, 0, len(c.products))
	for _, p := range c.products {
		out = append(out, clone(p))
	}
	sortProducts(out, catalog.OrderIDAsc)
	return out, nil
}

func (c *Catalog) Get(_ context.Context, id int64) (catalog.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return clone(p), nil
}

func (c *Catalog) Create(_ context.Context, input catalog.ProductInput) (catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	category := c.ensureCategory(input.CategoryName)
	c.nextProductID++
	p := catalog.Product{
		ID:       c.nextProductID,
		Name:     input.Name,
		Price:    input.Price,
		Category: &category,
	}
	c.products[p.ID] = p
	return clone(p), nil
}

func (c *Catalog) Update(_ context.Context, id int64, input catalog.ProductInput) (catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}

	category := c.ensureCategory(input.CategoryName)
	p.Name = input.Name
	p.Price = input.Price
	p.Category = &category
	c.products[id] = p
	return clone(p), nil
}

func (c *Catalog) Delete(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(c.products, id)
	return nil
}

func (c *Catalog) Categories(_ context.Context) ([]catalog.Category, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]catalog.Category, 0, len(c.categories))
	for _, category := range c.categories {
		out = append(out, category)
	}
	slices.SortFunc(out, func(a, b catalog.Category) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// ensureCategory must be called with the write lock held.
func (c *Catalog) ensureCategory(name string) catalog.Category {
	if category, ok := c.categories[name]; ok {
		return category
	}
	c.nextCategoryID++
	category := catalog.Category{ID: c.nextCategoryID, Name: name}
	c.categories[name] = category
	return category
}

func clone(p catalog.Product) catalog.Product {
	if p.Category != nil {
		category := *p.Category
		p.Category = &category
	}
	return p
}

func sortProducts(products []catalog.Product, order catalog.Order) {
	slices.SortFunc(products, func(a, b catalog.Product) int {
		var c int
		switch order {
		case catalog.OrderNameAsc:
			c = strings.Compare(a.Name, b.Name)
		case catalog.OrderNameDesc:
			c = strings.Compare(b.Name, a.Name)
		case catalog.OrderPriceAsc:
			c = cmp.Compare(a.Price, b.Price)
		case catalog.OrderPriceDesc:
			c = cmp.Compare(b.Price, a.Price)
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
