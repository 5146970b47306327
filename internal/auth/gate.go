package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Access tags an API operation at schema build time.
type Access int

const (
	Public Access = iota
	RequiresAuth
)

func (a Access) String() string {
	if a == RequiresAuth {
		return "requires_auth"
	}
	return "public"
}

// Authorize reports whether an operation tagged a may run with ctx. Public
// operations always pass; the returned identity is zero when none is
// attached.
func (a Access) Authorize(ctx context.Context) (Identity, error) {
	identity, ok := IdentityFromContext(ctx)
	if a == RequiresAuth && !ok {
		return Identity{}, ErrUnauthenticated
	}
	return identity, nil
}

func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

func RequireIdentity(ctx context.Context) (Identity, error) {
	return RequiresAuth.Authorize(ctx)
}

type TokenValidator interface {
	Validate(tokenString string) (Identity, error)
}

type GateRecorder interface {
	RecordGateOutcome(outcome string)
}

const (
	GateAnonymous     = "anonymous"
	GateAuthenticated = "authenticated"
	GateRejected      = "rejected"
)

// Gate resolves the bearer credential of every inbound request once. It
// never answers the request itself: a missing or invalid token simply leaves
// the context without an identity, and tagged operations refuse to run.
type Gate struct {
	validator TokenValidator
	recorder  GateRecorder
}

func NewGate(validator TokenValidator, recorder GateRecorder) *Gate {
	return &Gate{validator: validator, recorder: recorder}
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, outcome := g.resolve(r)
		if g.recorder != nil {
			g.recorder.RecordGateOutcome(outcome)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *Gate) resolve(r *http.Request) (context.Context, string) {
	ctx := r.Context()

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ctx, GateAnonymous
	}

	tokenStr, ok := bearerToken(header)
	if !ok {
		return ctx, GateRejected
	}

	identity, err := g.validator.Validate(tokenStr)
	if err != nil {
		return ctx, GateRejected
	}

	return ContextWithIdentity(ctx, identity), GateAuthenticated
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	tokenStr := strings.TrimSpace(parts[1])
	if tokenStr == "" {
		return "", false
	}
	return tokenStr, true
}
