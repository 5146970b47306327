// Package shopclient calls the shop GraphQL API. It keeps no session state:
// credentials reach the API only through the request editors passed to each
// call.
package shopclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

// CodeNotAuthenticated is the extension code the API attaches to operations
// refused for lack of a valid session.
const CodeNotAuthenticated = "AUTH_NOT_AUTHENTICATED"

// RequestEditorFn mutates an outbound API request before it is sent.
type RequestEditorFn func(ctx context.Context, req *http.Request) error

type Client struct {
	endpoint   string
	httpClient *http.Client
	editors    []RequestEditorFn
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout, Transport: c.httpClient.Transport}
		}
	}
}

// WithRequestEditor adds an editor applied to every request, before the
// per-call editors.
func WithRequestEditor(fn RequestEditorFn) Option {
	return func(c *Client) {
		c.editors = append(c.editors, fn)
	}
}

func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GraphQLError is one entry of the "errors" array of a response.
type GraphQLError struct {
	Message    string         `json:"message"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// ResponseError is returned when the API answered with GraphQL errors.
type ResponseError struct {
	StatusCode int
	Errors     []GraphQLError
}

func (e *ResponseError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, gqlErr := range e.Errors {
		messages = append(messages, gqlErr.Message)
	}
	return "graphql: " + strings.Join(messages, "; ")
}

func (e *ResponseError) Messages() []string {
	messages := make([]string, 0, len(e.Errors))
	for _, gqlErr := range e.Errors {
		messages = append(messages, gqlErr.Message)
	}
	return messages
}

func (e *ResponseError) HasCode(code string) bool {
	for _, gqlErr := range e.Errors {
		if gqlErr.Code() == code {
			return true
		}
	}
	return false
}

// StatusError is returned when the API answered without a GraphQL body.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("graphql: unexpected status %d", e.StatusCode)
}

// ErrorMessages returns the caller-facing messages carried by err, or nil
// when err is not an API-reported failure.
func ErrorMessages(err error) []string {
	var responseErr *ResponseError
	if errors.As(err, &responseErr) {
		return responseErr.Messages()
	}
	return nil
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors"`
}

// Do executes query and decodes the "data" object into out. Editors run in
// order after the client-wide ones.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any, editors ...RequestEditorFn) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	all := make([]RequestEditorFn, 0, len(c.editors)+len(editors))
	all = append(all, c.editors...)
	all = append(all, editors...)
	for _, edit := range all {
		if edit == nil {
			continue
		}
		if err := edit(ctx, req); err != nil {
			return fmt.Errorf("edit request: %w", err)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	var result envelope
	if err := json.NewDecoder(io.LimitReader(res.Body, maxResponseBytes)).Decode(&result); err != nil {
		if res.StatusCode != http.StatusOK {
			return &StatusError{StatusCode: res.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if len(result.Errors) > 0 {
		return &ResponseError{StatusCode: res.StatusCode, Errors: result.Errors}
	}
	if res.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: res.StatusCode}
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
