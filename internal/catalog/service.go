package catalog

import (
	"context"
	"fmt"
)

// Store is the persistence contract behind the catalog. Create and Update
// resolve the category by name and create it when absent.
type Store interface {
	List(ctx context.Context, options ListOptions) (Page, error)
	All(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, error)
	Create(ctx context.Context, input ProductInput) (Product, error)
	Update(ctx context.Context, id int64, input ProductInput) (Product, error)
	Delete(ctx context.Context, id int64) error
	Categories(ctx context.Context) ([]Category, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) Products(ctx context.Context, options ListOptions) (Page, error) {
	return s.store.List(ctx, options.normalized())
}

func (s *Service) AllProducts(ctx context.Context) ([]Product, error) {
	return s.store.All(ctx)
}

func (s *Service) Product(ctx context.Context, id int64) (Product, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.store.Categories(ctx)
}

func (s *Service) AddProduct(ctx context.Context, input ProductInput) (Product, error) {
	input, err := Normalize(input)
	if err != nil {
		return Product{}, err
	}

	p, err := s.store.Create(ctx, input)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, input ProductInput) (Product, error) {
	input, err := Normalize(input)
	if err != nil {
		return Product{}, err
	}

	p, err := s.store.Update(ctx, id, input)
	if err != nil {
		return Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	return nil
}
