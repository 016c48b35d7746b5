package provider

import (
	"context"
	"errors"
	"fmt"
)

// Fetcher is a typed lookup function: it fetches a V by key K.
type Fetcher[K any, V any] func(ctx context.Context, key K) (V, error)

// RequestBuilder turns a typed key into request parameters.
type RequestBuilder[K any] func(key K) map[string]any

// NewFetcher adapts p into a Fetcher. Each key is converted to a Request
// with build, and each successful Response is decoded into V. Errors from
// p are returned unchanged so that errors.Is and errors.As still work.
func NewFetcher[K any, V any](p Provider, build RequestBuilder[K]) (Fetcher[K, V], error) {
	if p == nil || build == nil {
		return nil, errors.New("provider and request builder cannot be nil")
	}
	return func(ctx context.Context, key K) (V, error) {
		var zero V
		req, err := NewRequest(build(key))
		if err != nil {
			return zero, err
		}
		resp, err := p.Get(ctx, req)
		if err != nil {
			return zero, err
		}
		var v V
		if err := resp.Decode(&v); err != nil {
			return zero, fmt.Errorf("decoding response for %s: %w", req, err)
		}
		return v, nil
	}, nil
}
