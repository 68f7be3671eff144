package tenant

import (
	"context"
	"errors"
)

var ErrMissingFromContext = errors.New("tenant: missing from context")

type ctxKey struct{}

// ContextWithTenant stores the resolved tenant in a request-scoped context.
// The resolved tenant is never held in process-wide state; two requests for
// two tenants carry two disjoint contexts.
func ContextWithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, ctxKey{}, t)
}

// FromContext retrieves the ambient tenant if one was resolved.
func FromContext(ctx context.Context) (*Tenant, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	t, ok := val.(*Tenant)
	return t, ok
}

// IDFromContext returns the ambient tenant id or an error when the request
// was never tenant-resolved.
func IDFromContext(ctx context.Context) (ID, error) {
	t, ok := FromContext(ctx)
	if !ok || t == nil {
		return "", ErrMissingFromContext
	}
	return t.ID, nil
}
