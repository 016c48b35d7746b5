package provider_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider is a test double for the provider.Provider interface.
type mockProvider struct {
	callCount atomic.Int32
	GetFunc   func(ctx context.Context, req provider.Request) (provider.Response, error)
}

func (m *mockProvider) Get(ctx context.Context, req provider.Request) (provider.Response, error) {
	m.callCount.Add(1)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, req)
	}
	return provider.Response{}, errors.New("mock provider not implemented")
}

// mapStore is a minimal thread-safe CacheStore that remembers the TTL it was given.
type mapStore struct {
	mu      sync.Mutex
	entries map[string]provider.Response
	ttls    map[string]time.Duration
	writes  atomic.Int32
}

func newMapStore() *mapStore {
	return &mapStore{
		entries: make(map[string]provider.Response),
		ttls:    make(map[string]time.Duration),
	}
}

func (s *mapStore) Lookup(_ context.Context, key string) (provider.Response, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp, ok := s.entries[key]
	return resp, ok, nil
}

func (s *mapStore) Store(_ context.Context, key string, resp provider.Response, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = resp
	s.ttls[key] = ttl
	s.writes.Add(1)
	return nil
}

func (s *mapStore) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func valueResponse(t *testing.T, v int) provider.Response {
	t.Helper()
	resp, err := provider.NewResponse(map[string]int{"value": v})
	require.NoError(t, err)
	return resp
}

func TestChain_Order(t *testing.T) {
	ctx := context.Background()
	var trace []string
	tag := func(name string) provider.Decorator {
		return func(inner provider.Provider) provider.Provider {
			return provider.ProviderFunc(func(ctx context.Context, req provider.Request) (provider.Response, error) {
				trace = append(trace, name+":before")
				resp, err := inner.Get(ctx, req)
				trace = append(trace, name+":after")
				return resp, err
			})
		}
	}
	base := provider.ProviderFunc(func(_ context.Context, _ provider.Request) (provider.Response, error) {
		trace = append(trace, "base")
		return provider.Response{Payload: []byte(`"ok"`)}, nil
	})

	chained := provider.Chain(base, tag("A"), nil, tag("B"))
	resp, err := chained.Get(ctx, provider.Request{})

	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(resp.Payload))
	assert.Equal(t, []string{"A:before", "B:before", "base", "B:after", "A:after"}, trace)
}

func TestChain_NoDecorators(t *testing.T) {
	base := &mockProvider{}
	assert.Same(t, base, provider.Chain(base))
}

func TestChain_CompositionTransparency(t *testing.T) {
	ctx := context.Background()
	req := provider.MustNewRequest(map[string]any{"symbol": "X", "date": "2024-01-01"})
	want := valueResponse(t, 42)
	base := provider.ProviderFunc(func(_ context.Context, _ provider.Request) (provider.Response, error) {
		return want, nil
	})
	logs := &recordingLogger{}

	chains := map[string]provider.Provider{
		"base":             base,
		"logging(cache)":   provider.Chain(base, provider.WithLogging(logs), provider.WithCache(newMapStore(), nopLogger())),
		"cache(logging)":   provider.Chain(base, provider.WithCache(newMapStore(), nopLogger()), provider.WithLogging(logs)),
		"cache(cache)":     provider.Chain(base, provider.WithCache(newMapStore(), nopLogger()), provider.WithCache(newMapStore(), nopLogger())),
		"logging(logging)": provider.Chain(base, provider.WithLogging(logs), provider.WithLogging(logs)),
	}

	for name, p := range chains {
		t.Run(name, func(t *testing.T) {
			got, err := p.Get(ctx, req)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
	assert.Empty(t, logs.messages(), "No logging should happen on the success path")
}
