package shopclient

import (
	"context"

	"shop-admin/internal/auth"
	"shop-admin/internal/catalog"
)

const productFields = `id name price category { id name }`

const loginMutation = `mutation Login($input: LoginInput!) {
  login(input: $input) { token username expiresAt }
}`

const registerMutation = `mutation Register($input: RegisterInput!) {
  register(input: $input) { token username expiresAt }
}`

const productsQuery = `query Products($term: String, $skip: Int, $take: Int) {
  products(term: $term, skip: $skip, take: $take) { items { ` + productFields + ` } totalCount hasMore }
}`

const productQuery = `query Product($id: Int!) {
  product(id: $id) { ` + productFields + ` }
}`

const addProductMutation = `mutation AddProduct($input: AddProductInput!) {
  addProduct(input: $input) { ` + productFields + ` }
}`

const updateProductMutation = `mutation UpdateProduct($input: UpdateProductInput!) {
  updateProduct(input: $input) { ` + productFields + ` }
}`

const deleteProductMutation = `mutation DeleteProduct($id: Int!) {
  deleteProduct(id: $id)
}`

func credentials(username, password string) map[string]any {
	return map[string]any{"input": map[string]any{"username": username, "password": password}}
}

func (c *Client) Login(ctx context.Context, username, password string, editors ...RequestEditorFn) (auth.AuthPayload, error) {
	var out struct {
		Login auth.AuthPayload `json:"login"`
	}
	if err := c.Do(ctx, loginMutation, credentials(username, password), &out, editors...); err != nil {
		return auth.AuthPayload{}, err
	}
	return out.Login, nil
}

func (c *Client) Register(ctx context.Context, username, password string, editors ...RequestEditorFn) (auth.AuthPayload, error) {
	var out struct {
		Register auth.AuthPayload `json:"register"`
	}
	if err := c.Do(ctx, registerMutation, credentials(username, password), &out, editors...); err != nil {
		return auth.AuthPayload{}, err
	}
	return out.Register, nil
}

func (c *Client) Products(ctx context.Context, options catalog.ListOptions, editors ...RequestEditorFn) (catalog.Page, error) {
	variables := map[string]any{"term": options.Term, "skip": options.Skip}
	if options.Take > 0 {
		variables["take"] = options.Take
	}

	var out struct {
		Products catalog.Page `json:"products"`
	}
	if err := c.Do(ctx, productsQuery, variables, &out, editors...); err != nil {
		return catalog.Page{}, err
	}
	return out.Products, nil
}

// Product returns nil without error when the product does not exist.
func (c *Client) Product(ctx context.Context, id int64, editors ...RequestEditorFn) (*catalog.Product, error) {
	var out struct {
		Product *catalog.Product `json:"product"`
	}
	if err := c.Do(ctx, productQuery, map[string]any{"id": id}, &out, editors...); err != nil {
		return nil, err
	}
	return out.Product, nil
}

func (c *Client) AddProduct(ctx context.Context, input catalog.ProductInput, editors ...RequestEditorFn) (catalog.Product, error) {
	variables := map[string]any{"input": map[string]any{
		"name":         input.Name,
		"price":        input.Price,
		"categoryName": input.CategoryName,
	}}

	var out struct {
		AddProduct catalog.Product `json:"addProduct"`
	}
	if err := c.Do(ctx, addProductMutation, variables, &out, editors...); err != nil {
		return catalog.Product{}, err
	}
	return out.AddProduct, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, input catalog.ProductInput, editors ...RequestEditorFn) (catalog.Product, error) {
	variables := map[string]any{"input": map[string]any{
		"id":           id,
		"name":         input.Name,
		"price":        input.Price,
		"categoryName": input.CategoryName,
	}}

	var out struct {
		UpdateProduct catalog.Product `json:"updateProduct"`
	}
	if err := c.Do(ctx, updateProductMutation, variables, &out, editors...); err != nil {
		return catalog.Product{}, err
	}
	return out.UpdateProduct, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id int64, editors ...RequestEditorFn) error {
	return c.Do(ctx, deleteProductMutation, map[string]any{"id": id}, nil, editors...)
}
