// Package graph exposes the catalog and the account operations over GraphQL.
// Every root field is registered with an auth.Access tag; fields tagged
// RequiresAuth check the gate's identity before their resolver runs.
package graph

import (
	"context"
	"fmt"

	"github.com/graphql-go/graphql"

	"shop-admin/internal/auth"
	"shop-admin/internal/catalog"
	"shop-admin/internal/observability"
)

// Resolvers carries the services the schema resolves against.
type Resolvers struct {
	Auth    *auth.Service
	Catalog *catalog.Service
	Limiter *auth.LoginRateLimiter
	Logger  *observability.Logger
}

// Schema is an executable GraphQL schema together with the access tag of
// each root field.
type Schema struct {
	schema graphql.Schema
	access map[string]auth.Access
}

type fieldSet struct {
	kind   string
	fields graphql.Fields
	access map[string]auth.Access
}

// add registers field under name. A RequiresAuth field whose caller has no
// identity fails with errNotAuthorized and its resolver is never invoked.
func (s *fieldSet) add(name string, access auth.Access, field *graphql.Field) {
	resolve := field.Resolve
	field.Resolve = func(p graphql.ResolveParams) (interface{}, error) {
		if _, err := access.Authorize(p.Context); err != nil {
			return nil, errNotAuthorized
		}
		return resolve(p)
	}
	s.fields[name] = field
	s.access[s.kind+"."+name] = access
}

func NewSchema(r *Resolvers) (*Schema, error) {
	access := make(map[string]auth.Access)
	query := &fieldSet{kind: "Query", fields: graphql.Fields{}, access: access}
	mutation := &fieldSet{kind: "Mutation", fields: graphql.Fields{}, access: access}

	query.add("products", auth.RequiresAuth, &graphql.Field{
		Type: graphql.NewNonNull(productPageType),
		Args: graphql.FieldConfigArgument{
			"term":  &graphql.ArgumentConfig{Type: graphql.String},
			"skip":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
			"take":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: catalog.DefaultPageSize},
			"order": &graphql.ArgumentConfig{Type: productOrderEnum, DefaultValue: string(catalog.OrderIDAsc)},
		},
		Resolve: r.products,
	})
	query.add("allProductsRaw", auth.RequiresAuth, &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType))),
		Resolve: r.allProducts,
	})
	query.add("product", auth.RequiresAuth, &graphql.Field{
		Type: productType,
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
		},
		Resolve: r.product,
	})
	query.add("categories", auth.Public, &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(categoryType))),
		Resolve: r.categories,
	})
	query.add("me", auth.RequiresAuth, &graphql.Field{
		Type:    graphql.NewNonNull(identityType),
		Resolve: r.me,
	})

	mutation.add("addProduct", auth.RequiresAuth, &graphql.Field{
		Type: graphql.NewNonNull(productType),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(addProductInput)},
		},
		Resolve: r.addProduct,
	})
	mutation.add("updateProduct", auth.RequiresAuth, &graphql.Field{
		Type: graphql.NewNonNull(productType),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(updateProductInput)},
		},
		Resolve: r.updateProduct,
	})
	mutation.add("deleteProduct", auth.RequiresAuth, &graphql.Field{
		Type: graphql.NewNonNull(graphql.Boolean),
		Args: graphql.FieldConfigArgument{
			"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
		},
		Resolve: r.deleteProduct,
	})
	mutation.add("login", auth.Public, &graphql.Field{
		Type: graphql.NewNonNull(authPayloadType),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(loginInput)},
		},
		Resolve: r.login,
	})
	mutation.add("register", auth.Public, &graphql.Field{
		Type: graphql.NewNonNull(authPayloadType),
		Args: graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(registerInput)},
		},
		Resolve: r.register,
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    graphql.NewObject(graphql.ObjectConfig{Name: "Query", Fields: query.fields}),
		Mutation: graphql.NewObject(graphql.ObjectConfig{Name: "Mutation", Fields: mutation.fields}),
	})
	if err != nil {
		return nil, fmt.Errorf("build graphql schema: %w", err)
	}

	return &Schema{schema: schema, access: access}, nil
}

// Access returns the tag a root field was registered with, keyed as
// "Query.products" or "Mutation.login".
func (s *Schema) Access(field string) (auth.Access, bool) {
	access, ok := s.access[field]
	return access, ok
}

// Request is the JSON body of a GraphQL call.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
	OperationName string                 `json:"operationName,omitempty"`
}

func (s *Schema) Execute(ctx context.Context, request Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  request.Query,
		VariableValues: request.Variables,
		OperationName:  request.OperationName,
		Context:        ctx,
	})
}
