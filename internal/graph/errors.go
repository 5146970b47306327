package graph

import (
	"errors"

	"shop-admin/internal/auth"
	"shop-admin/internal/catalog"
	"shop-admin/internal/observability"
)

const (
	CodeNotAuthenticated   = "AUTH_NOT_AUTHENTICATED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDuplicateUsername  = "DUPLICATE_USERNAME"
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

const notAuthorizedMessage = "The current user is not authorized to access this resource."

// Error is a resolver error whose message is safe to show to the caller.
// The code is exposed under "extensions".
type Error struct {
	Message string
	Code    string
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

var errNotAuthorized = Error{Message: notAuthorizedMessage, Code: CodeNotAuthenticated}

// publicError maps domain errors to caller-facing ones. Anything unexpected
// is logged and reported, and the caller only learns that it failed.
func (r *Resolvers) publicError(operation string, err error) error {
	var validation catalog.ValidationError
	var limited auth.ErrTooManyAttempts

	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return errNotAuthorized
	case errors.Is(err, auth.ErrInvalidCredentials):
		return Error{Message: "Invalid username or password.", Code: CodeInvalidCredentials}
	case errors.Is(err, auth.ErrUsernameTaken):
		return Error{Message: "A user with this name already exists.", Code: CodeDuplicateUsername}
	case errors.Is(err, auth.ErrInvalidInput):
		return Error{Message: "Username and password are required.", Code: CodeValidation}
	case errors.As(err, &validation):
		return Error{Message: validation.Message, Code: CodeValidation}
	case errors.Is(err, catalog.ErrProductNotFound):
		return Error{Message: "Product not found.", Code: CodeNotFound}
	case errors.As(err, &limited):
		return Error{Message: "Too many attempts. Try again later.", Code: CodeRateLimited}
	}

	observability.CaptureError(err)
	if r.Logger != nil {
		r.Logger.Error("graphql_resolver_failed", map[string]any{
			"operation": operation,
			"error":     err.Error(),
		})
	}
	return Error{Message: "Unexpected execution error.", Code: CodeInternal}
}
