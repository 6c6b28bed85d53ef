package restapi

import (
	"context"

	"go-payroll-admin/internal/shared/contextutil"
)

// AuthProvider supplies the bearer token attached to upstream requests.
type AuthProvider interface {
	Token(ctx context.Context) (string, error)
}

// ContextTokenProvider forwards the caller's token stored in the request context,
// falling back to a service token when the context carries none.
type ContextTokenProvider struct {
	Fallback string
}

func (p ContextTokenProvider) Token(ctx context.Context) (string, error) {
	if tok := contextutil.GetAccessToken(ctx); tok != "" {
		return tok, nil
	}
	return p.Fallback, nil
}

// StaticTokenProvider always returns the same token.
type StaticTokenProvider string

func (p StaticTokenProvider) Token(context.Context) (string, error) {
	return string(p), nil
}
