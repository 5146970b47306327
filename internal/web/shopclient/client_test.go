package shopclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-admin/internal/catalog"
)

func TestDoAppliesEditorsInOrder(t *testing.T) {
	seen := make(chan []string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- []string{r.Header.Get("Authorization"), r.Header.Get("X-Trace")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"ok":true}}`))
	}))
	defer server.Close()

	client := New(server.URL, WithRequestEditor(func(_ context.Context, req *http.Request) error {
		req.Header.Set("X-Trace", "client")
		req.Header.Set("Authorization", "Bearer client-wide")
		return nil
	}))

	var out struct {
		OK bool `json:"ok"`
	}
	err := client.Do(context.Background(), `{ ok }`, nil, &out, func(_ context.Context, req *http.Request) error {
		req.Header.Set("Authorization", "Bearer per-call")
		return nil
	})
	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, []string{"Bearer per-call", "client"}, <-seen)
}

func TestDoReturnsResponseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":null,"errors":[{"message":"The current user is not authorized to access this resource.","extensions":{"code":"AUTH_NOT_AUTHENTICATED"}}]}`))
	}))
	defer server.Close()

	_, err := New(server.URL).Products(context.Background(), catalog.ListOptions{})

	var responseErr *ResponseError
	require.ErrorAs(t, err, &responseErr)
	assert.True(t, responseErr.HasCode(CodeNotAuthenticated))
	assert.Equal(t, []string{"The current user is not authorized to access this resource."}, ErrorMessages(err))
}

func TestDoReturnsStatusErrorForNonGraphQLBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	err := New(server.URL).DeleteProduct(context.Background(), 1)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Nil(t, ErrorMessages(err))
}

func TestDoStopsWhenEditorFails(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	err := New(server.URL).Do(context.Background(), `{ ok }`, nil, nil, func(context.Context, *http.Request) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, called)
}

func TestLoginDecodesPayloadAndSendsVariables(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Contains(t, body.Query, "login(input: $input)")
		assert.Equal(t, map[string]any{"username": "alice", "password": "Secret123"}, body.Variables["input"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"login":{"token":"t.o.k","username":"alice","expiresAt":"2025-03-10T13:00:00Z"}}}`))
	}))
	defer server.Close()

	payload, err := New(server.URL, WithTimeout(time.Second)).Login(context.Background(), "alice", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, "t.o.k", payload.Token)
	assert.Equal(t, "alice", payload.Username)
	assert.True(t, payload.ExpiresAt.Equal(time.Date(2025, time.March, 10, 13, 0, 0, 0, time.UTC)))
}

func TestProductReturnsNilWhenMissing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"product":null}}`))
	}))
	defer server.Close()

	product, err := New(server.URL).Product(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, product)
}
