package blueprint

import (
	"context"
	"errors"
	"fmt"
)

// serviceKey is a unique key per type parameter T for context storage.
type serviceKey[T any] struct{}

// WithService stores a typed service instance in the context for use by
// dynamic field resolvers.
func WithService[T any](ctx context.Context, svc T) context.Context {
	return context.WithValue(ctx, serviceKey[T]{}, any(svc))
}

// Service retrieves a typed service instance from context.
func Service[T any](ctx context.Context) (T, bool) {
	var zero T
	v := ctx.Value(serviceKey[T]{})
	if v == nil {
		return zero, false
	}
	if tv, ok := v.(T); ok {
		return tv, true
	}
	return zero, false
}

// ErrServiceUnavailable is returned by RequireService when the context holds
// no service of the requested type.
var ErrServiceUnavailable = errors.New("service not provided")

// RequireService returns the service or ErrServiceUnavailable.
func RequireService[T any](ctx context.Context) (T, error) {
	if v, ok := Service[T](ctx); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %T", ErrServiceUnavailable, (*T)(nil))
}
