package graph

import (
	"time"

	"github.com/graphql-go/graphql"

	"shop-admin/internal/auth"
	"shop-admin/internal/catalog"
)

var categoryType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Category",
	Fields: graphql.Fields{
		"id":   &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var productType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Product",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"name":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"price":    &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
		"category": &graphql.Field{Type: categoryType},
	},
})

var productPageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "ProductPage",
	Fields: graphql.Fields{
		"items":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(productType)))},
		"totalCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"hasMore":    &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
	},
})

var productOrderEnum = func() *graphql.Enum {
	values := graphql.EnumValueConfigMap{}
	for _, order := range catalog.Orders {
		values[string(order)] = &graphql.EnumValueConfig{Value: string(order)}
	}
	return graphql.NewEnum(graphql.EnumConfig{Name: "ProductOrder", Values: values})
}()

var identityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Identity",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		"username": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"role":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var authPayloadType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AuthPayload",
	Fields: graphql.Fields{
		"token":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"username":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"expiresAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
	},
})

var addProductInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "AddProductInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"name":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"price":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		"categoryName": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

var updateProductInput = graphql.NewInputObject(graphql.InputObjectConfig{
	Name: "UpdateProductInput",
	Fields: graphql.InputObjectConfigFieldMap{
		"id":           &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Int)},
		"name":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"price":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		"categoryName": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	},
})

func credentialsFields() graphql.InputObjectConfigFieldMap {
	return graphql.InputObjectConfigFieldMap{
		"username": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
	}
}

var loginInput = graphql.NewInputObject(graphql.InputObjectConfig{Name: "LoginInput", Fields: credentialsFields()})

var registerInput = graphql.NewInputObject(graphql.InputObjectConfig{Name: "RegisterInput", Fields: credentialsFields()})

// The executor's default resolver reads map keys, so domain values are
// flattened before they are returned.

func categoryValue(c *catalog.Category) map[string]interface{} {
	if c == nil {
		return nil
	}
	return map[string]interface{}{"id": c.ID, "name": c.Name}
}

func productValue(p catalog.Product) map[string]interface{} {
	value := map[string]interface{}{"id": p.ID, "name": p.Name, "price": p.Price}
	if p.Category != nil {
		value["category"] = categoryValue(p.Category)
	}
	return value
}

func productValues(products []catalog.Product) []interface{} {
	values := make([]interface{}, 0, len(products))
	for _, p := range products {
		values = append(values, productValue(p))
	}
	return values
}

func identityValue(identity auth.Identity) map[string]interface{} {
	return map[string]interface{}{
		"id":       identity.ID,
		"username": identity.Username,
		"role":     string(identity.Role),
	}
}

func authPayloadValue(payload auth.AuthPayload) map[string]interface{} {
	return map[string]interface{}{
		"token":     payload.Token,
		"username":  payload.Username,
		"expiresAt": payload.ExpiresAt.UTC().Format(time.RFC3339),
	}
}
