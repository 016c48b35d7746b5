// Package provider defines the single-method data provider contract and the
// decorators that attach caching, failure logging, metrics and tracing to it.
package provider

import (
	"context"
)

// Provider is the contract shared by base providers and every decorator.
// Callers never know which concrete chain they hold.
type Provider interface {
	// Get fetches the Response for req, or returns an error when the
	// underlying fetch cannot complete.
	Get(ctx context.Context, req Request) (Response, error)
}

// ProviderFunc adapts an ordinary function to the Provider interface.
type ProviderFunc func(ctx context.Context, req Request) (Response, error)

// Get calls f(ctx, req).
func (f ProviderFunc) Get(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Decorator wraps a Provider in another Provider.
type Decorator func(Provider) Provider

// Chain nests decorators around base. The first decorator is the outermost,
// so Chain(base, A, B) is A(B(base)).
func Chain(base Provider, decorators ...Decorator) Provider {
	p := base
	for i := len(decorators) - 1; i >= 0; i-- {
		if decorators[i] == nil {
			continue
		}
		p = decorators[i](p)
	}
	return p
}
