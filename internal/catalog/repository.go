package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `
	p.id, p.name, p.price, c.id, c.name
	FROM products p
	JOIN categories c ON c.id = p.category_id`

var orderClauses = map[Order]string{
	OrderIDAsc:     "p.id ASC",
	OrderNameAsc:   "p.name ASC, p.id ASC",
	OrderNameDesc:  "p.name DESC, p.id ASC",
	OrderPriceAsc:  "p.price ASC, p.id ASC",
	OrderPriceDesc: "p.price DESC, p.id ASC",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	var c Category
	if err := row.Scan(&p.ID, &p.Name, &p.Price, &c.ID, &c.Name); err != nil {
		return Product{}, err
	}
	p.Category = &c
	return p, nil
}

func (r *Repository) List(ctx context.Context, options ListOptions) (Page, error) {
	options = options.normalized()

	var total int
	if err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM products WHERE name ILIKE '%' || $1 || '%'
	`, options.Term).Scan(&total); err != nil {
		return Page{}, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		WHERE p.name ILIKE '%' || $1 || '%'
		ORDER BY `+orderClauses[options.Order]+`
		LIMIT $2 OFFSET $3
	`, options.Term, options.Take, options.Skip)
	if err != nil {
		return Page{}, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	items, err := collectProducts(rows)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Items:      items,
		TotalCount: total,
		HasMore:    options.Skip+len(items) < total,
	}, nil
}

func (r *Repository) All(ctx context.Context) ([]Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` ORDER BY p.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]Product, error) {
	products := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return products, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` WHERE p.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (r *Repository) Create(ctx context.Context, input ProductInput) (Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	category, err := ensureCategory(ctx, tx, input.CategoryName)
	if err != nil {
		return Product{}, err
	}

	p := Product{Name: input.Name, Price: input.Price, Category: &category}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (name, price, category_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`, p.Name, p.Price, category.ID).Scan(&p.ID)
	if err != nil {
		return Product{}, fmt.Errorf("insert product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Product{}, fmt.Errorf("commit transaction: %w", err)
	}

	return p, nil
}

func (r *Repository) Update(ctx context.Context, id int64, input ProductInput) (Product, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Product{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	category, err := ensureCategory(ctx, tx, input.CategoryName)
	if err != nil {
		return Product{}, err
	}

	p := Product{Category: &category}
	err = tx.QueryRowContext(ctx, `
		UPDATE products
		SET name = $2, price = $3, category_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, price
	`, id, input.Name, input.Price, category.ID).Scan(&p.ID, &p.Name, &p.Price)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Product{}, fmt.Errorf("commit transaction: %w", err)
	}

	return p, nil
}

func (r *Repository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrProductNotFound
	}

	return nil
}

func (r *Repository) Categories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	return categories, nil
}

// ensureCategory returns the category called name, creating it inside tx
// when it does not exist yet.
func ensureCategory(ctx context.Context, tx *sql.Tx, name string) (Category, error) {
	c := Category{Name: name}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO categories (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id
	`, name).Scan(&c.ID)
	if err != nil {
		return Category{}, fmt.Errorf("upsert category: %w", err)
	}
	return c, nil
}
