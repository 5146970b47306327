package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-admin/internal/auth"
)

func TestRootFieldsCarryAccessTags(t *testing.T) {
	schema, err := NewSchema(&Resolvers{})
	require.NoError(t, err)

	cases := map[string]auth.Access{
		"Query.products":         auth.RequiresAuth,
		"Query.allProductsRaw":   auth.RequiresAuth,
		"Query.product":          auth.RequiresAuth,
		"Query.me":               auth.RequiresAuth,
		"Query.categories":       auth.Public,
		"Mutation.addProduct":    auth.RequiresAuth,
		"Mutation.updateProduct": auth.RequiresAuth,
		"Mutation.deleteProduct": auth.RequiresAuth,
		"Mutation.login":         auth.Public,
		"Mutation.register":      auth.Public,
	}

	for field, want := range cases {
		got, ok := schema.Access(field)
		require.True(t, ok, field)
		assert.Equal(t, want, got, field)
	}

	assert.Len(t, schema.access, len(cases))
}

func TestErrorExtensionsCarryCode(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"code": CodeNotAuthenticated}, errNotAuthorized.Extensions())
	assert.Equal(t, notAuthorizedMessage, errNotAuthorized.Error())
}
