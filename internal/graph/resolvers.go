package graph

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/graphql-go/graphql"

	"shop-admin/internal/auth"
	"shop-admin/internal/catalog"
)

type requestKey struct{}

// requestMeta is per-request state shared between the HTTP handler and the
// resolvers of one execution.
type requestMeta struct {
	clientIP string

	mu         sync.Mutex
	retryAfter time.Duration
}

func withRequestMeta(ctx context.Context, meta *requestMeta) context.Context {
	return context.WithValue(ctx, requestKey{}, meta)
}

func requestMetaFrom(ctx context.Context) *requestMeta {
	meta, _ := ctx.Value(requestKey{}).(*requestMeta)
	return meta
}

func (m *requestMeta) throttled(retryAfter time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if retryAfter > m.retryAfter {
		m.retryAfter = retryAfter
	}
}

func (m *requestMeta) retryAfterDelay() time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryAfter
}

func (r *Resolvers) products(p graphql.ResolveParams) (interface{}, error) {
	options := catalog.ListOptions{
		Term:  stringArg(p.Args, "term"),
		Skip:  intArg(p.Args, "skip"),
		Take:  intArg(p.Args, "take"),
		Order: catalog.Order(stringArg(p.Args, "order")),
	}

	page, err := r.Catalog.Products(p.Context, options)
	if err != nil {
		return nil, r.publicError("products", err)
	}

	return map[string]interface{}{
		"items":      productValues(page.Items),
		"totalCount": page.TotalCount,
		"hasMore":    page.HasMore,
	}, nil
}

func (r *Resolvers) allProducts(p graphql.ResolveParams) (interface{}, error) {
	products, err := r.Catalog.AllProducts(p.Context)
	if err != nil {
		return nil, r.publicError("allProductsRaw", err)
	}
	return productValues(products), nil
}

func (r *Resolvers) product(p graphql.ResolveParams) (interface{}, error) {
	product, err := r.Catalog.Product(p.Context, int64(intArg(p.Args, "id")))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, nil
		}
		return nil, r.publicError("product", err)
	}
	return productValue(product), nil
}

func (r *Resolvers) categories(p graphql.ResolveParams) (interface{}, error) {
	categories, err := r.Catalog.Categories(p.Context)
	if err != nil {
		return nil, r.publicError("categories", err)
	}

	values := make([]interface{}, 0, len(categories))
	for i := range categories {
		values = append(values, categoryValue(&categories[i]))
	}
	return values, nil
}

// me answers from the stored account, so a token whose account no longer
// exists is treated like no token at all.
func (r *Resolvers) me(p graphql.ResolveParams) (interface{}, error) {
	claimed, err := auth.RequireIdentity(p.Context)
	if err != nil {
		return nil, errNotAuthorized
	}

	identity, err := r.Auth.Identity(p.Context, claimed.ID)
	if err != nil {
		if errors.Is(err, auth.ErrAccountNotFound) {
			return nil, errNotAuthorized
		}
		return nil, r.publicError("me", err)
	}
	return identityValue(identity), nil
}

func (r *Resolvers) addProduct(p graphql.ResolveParams) (interface{}, error) {
	input := inputArg(p.Args)
	product, err := r.Catalog.AddProduct(p.Context, productInput(input))
	if err != nil {
		return nil, r.publicError("addProduct", err)
	}
	return productValue(product), nil
}

func (r *Resolvers) updateProduct(p graphql.ResolveParams) (interface{}, error) {
	input := inputArg(p.Args)
	product, err := r.Catalog.UpdateProduct(p.Context, int64(intArg(input, "id")), productInput(input))
	if err != nil {
		return nil, r.publicError("updateProduct", err)
	}
	return productValue(product), nil
}

func (r *Resolvers) deleteProduct(p graphql.ResolveParams) (interface{}, error) {
	if err := r.Catalog.DeleteProduct(p.Context, int64(intArg(p.Args, "id"))); err != nil {
		return nil, r.publicError("deleteProduct", err)
	}
	return true, nil
}

func (r *Resolvers) login(p graphql.ResolveParams) (interface{}, error) {
	if err := r.throttle(p.Context); err != nil {
		return nil, r.publicError("login", err)
	}

	input := inputArg(p.Args)
	payload, err := r.Auth.Login(p.Context, stringArg(input, "username"), stringArg(input, "password"))
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) && r.Logger != nil {
			r.Logger.Warn("login_failed", map[string]any{"ip": clientIP(p.Context)})
		}
		return nil, r.publicError("login", err)
	}
	return authPayloadValue(payload), nil
}

func (r *Resolvers) register(p graphql.ResolveParams) (interface{}, error) {
	if err := r.throttle(p.Context); err != nil {
		return nil, r.publicError("register", err)
	}

	input := inputArg(p.Args)
	payload, err := r.Auth.Register(p.Context, stringArg(input, "username"), stringArg(input, "password"))
	if err != nil {
		return nil, r.publicError("register", err)
	}
	if r.Logger != nil {
		r.Logger.Info("user_registered", map[string]any{"username": payload.Username})
	}
	return authPayloadValue(payload), nil
}

// throttle spends one credential attempt for the calling client.
func (r *Resolvers) throttle(ctx context.Context) error {
	err := r.Limiter.Allow(clientIP(ctx))
	var limited auth.ErrTooManyAttempts
	if errors.As(err, &limited) {
		requestMetaFrom(ctx).throttled(limited.RetryAfter)
	}
	return err
}

func clientIP(ctx context.Context) string {
	if meta := requestMetaFrom(ctx); meta != nil && meta.clientIP != "" {
		return meta.clientIP
	}
	return "unknown"
}

func productInput(input map[string]interface{}) catalog.ProductInput {
	return catalog.ProductInput{
		Name:         stringArg(input, "name"),
		Price:        floatArg(input, "price"),
		CategoryName: stringArg(input, "categoryName"),
	}
}

func inputArg(args map[string]interface{}) map[string]interface{} {
	input, _ := args["input"].(map[string]interface{})
	return input
}

func stringArg(args map[string]interface{}, name string) string {
	value, _ := args[name].(string)
	return value
}

func intArg(args map[string]interface{}, name string) int {
	switch value := args[name].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	}
	return 0
}

func floatArg(args map[string]interface{}, name string) float64 {
	switch value := args[name].(type) {
	case float64:
		return value
	case float32:
		return float64(value)
	case int:
		return float64(value)
	}
	return 0
}
