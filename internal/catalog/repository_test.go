package catalog

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var productRowColumns = []string{"id", "name", "price", "id", "name"}

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	database, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		database.Close()
	})
	return NewRepository(database), mock
}

func TestRepositoryListFiltersAndPages(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM products WHERE name ILIKE")).
		WithArgs("mo").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY p.price DESC, p.id ASC")).
		WithArgs("mo", 2, 0).
		WillReturnRows(sqlmock.NewRows(productRowColumns).
			AddRow(2, "Monitor", 199.0, 5, "Displays").
			AddRow(1, "Mouse", 19.99, 4, "Peripherals"))

	page, err := repo.List(context.Background(), ListOptions{Term: " mo ", Take: 2, Order: OrderPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, Product{ID: 2, Name: "Monitor", Price: 199, Category: &Category{ID: 5, Name: "Displays"}}, page.Items[0])
}

func TestRepositoryGetNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepositoryCreateUpsertsCategory(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories (name)")).
		WithArgs("Peripherals").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO products (name, price, category_id)")).
		WithArgs("Mouse", 19.99, int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	p, err := repo.Create(context.Background(), ProductInput{Name: "Mouse", Price: 19.99, CategoryName: "Peripherals"})
	require.NoError(t, err)
	assert.Equal(t, Product{ID: 1, Name: "Mouse", Price: 19.99, Category: &Category{ID: 4, Name: "Peripherals"}}, p)
}

func TestRepositoryUpdateMissingProductRollsBack(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO categories (name)")).
		WithArgs("Peripherals").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE products")).
		WithArgs(int64(9), "Mouse", 19.99, int64(4)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 9, ProductInput{Name: "Mouse", Price: 19.99, CategoryName: "Peripherals"})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRepositoryDelete(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM products WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 1))
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), ErrProductNotFound)
}

func TestRepositoryCategories(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM categories ORDER BY name ASC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "Displays").AddRow(4, "Peripherals"))

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Category{{ID: 5, Name: "Displays"}, {ID: 4, Name: "Peripherals"}}, categories)
}
