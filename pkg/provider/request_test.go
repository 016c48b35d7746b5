package provider_test

import (
	"encoding/json"
	"testing"

	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_KeyIsOrderIndependent(t *testing.T) {
	// Arrange: the same values supplied in different ways.
	fromMap, err := provider.NewRequest(map[string]any{"symbol": "X", "date": "2024-01-01"})
	require.NoError(t, err)

	built, err := provider.Request{}.With("date", "2024-01-01")
	require.NoError(t, err)
	built, err = built.With("symbol", "X")
	require.NoError(t, err)

	reversed, err := provider.Request{}.With("symbol", "X")
	require.NoError(t, err)
	reversed, err = reversed.With("date", "2024-01-01")
	require.NoError(t, err)

	// Assert
	assert.Equal(t, `{"date":"2024-01-01","symbol":"X"}`, fromMap.Key())
	assert.Equal(t, fromMap.Key(), built.Key())
	assert.Equal(t, fromMap.Key(), reversed.Key())
}

func TestRequest_KeyNestedMapsAreSorted(t *testing.T) {
	a := provider.MustNewRequest(map[string]any{
		"filter": map[string]any{"b": 2, "a": 1},
		"symbol": "X",
	})
	b := provider.MustNewRequest(map[string]any{
		"symbol": "X",
		"filter": map[string]any{"a": 1, "b": 2},
	})
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, `{"filter":{"a":1,"b":2},"symbol":"X"}`, a.Key())
}

func TestRequest_KeyDependsOnValues(t *testing.T) {
	a := provider.MustNewRequest(map[string]any{"symbol": "X"})
	b := provider.MustNewRequest(map[string]any{"symbol": "Y"})
	assert.NotEqual(t, a.Key(), b.Key())
}

func TestRequest_KeyDoesNotEscapeHTML(t *testing.T) {
	r := provider.MustNewRequest(map[string]any{"q": "a<b&c"})
	assert.Equal(t, `{"q":"a<b&c"}`, r.Key())
}

func TestRequest_EmptyKey(t *testing.T) {
	assert.Equal(t, "{}", provider.Request{}.Key())
	assert.Equal(t, "{}", provider.MustNewRequest(nil).Key())
}

func TestRequest_IsImmutable(t *testing.T) {
	params := map[string]any{"symbol": "X"}
	r, err := provider.NewRequest(params)
	require.NoError(t, err)

	// Changing the source map does not leak into the Request.
	params["symbol"] = "Y"
	v, ok := r.Param("symbol")
	require.True(t, ok)
	assert.Equal(t, "X", v)

	// Neither does changing the copy returned by Params.
	r.Params()["symbol"] = "Z"
	v, _ = r.Param("symbol")
	assert.Equal(t, "X", v)

	// With leaves the receiver untouched.
	r2, err := r.With("date", "2024-01-01")
	require.NoError(t, err)
	_, ok = r.Param("date")
	assert.False(t, ok)
	assert.NotEqual(t, r.Key(), r2.Key())
}

func TestRequest_IsImmutable_NestedValues(t *testing.T) {
	filter := map[string]any{"a": "1"}
	fields := []string{"open", "close"}
	r, err := provider.NewRequest(map[string]any{"filter": filter, "fields": fields})
	require.NoError(t, err)
	key := r.Key()

	// Nested input values are copied.
	filter["a"] = "2"
	fields[0] = "high"
	v, ok := r.Param("filter")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"a": "1"}, v)
	v, _ = r.Param("fields")
	assert.Equal(t, []any{"open", "close"}, v)

	// Nested values handed out by Params are copies too.
	r.Params()["filter"].(map[string]any)["a"] = "3"
	r.Params()["fields"].([]any)[1] = "low"
	assert.Equal(t, key, r.Key())
	assert.Equal(t, `{"fields":["open","close"],"filter":{"a":"1"}}`, r.Key())
	rebuilt, err := provider.NewRequest(r.Params())
	require.NoError(t, err)
	assert.Equal(t, key, rebuilt.Key(), "Params must round-trip to the same key")
}

func TestRequest_NumbersKeepTheirForm(t *testing.T) {
	r := provider.MustNewRequest(map[string]any{"limit": 10, "big": int64(9007199254740993)})

	v, ok := r.Param("limit")
	require.True(t, ok)
	assert.Equal(t, json.Number("10"), v)
	assert.Equal(t, `{"big":9007199254740993,"limit":10}`, r.Key())
}

func TestRequest_RejectsUnserializableValues(t *testing.T) {
	_, err := provider.NewRequest(map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not serializable")

	assert.Panics(t, func() {
		provider.MustNewRequest(map[string]any{"fn": func() {}})
	})
}

func TestResponse_NewAndDecode(t *testing.T) {
	resp, err := provider.NewResponse(map[string]int{"value": 42})
	require.NoError(t, err)
	assert.Equal(t, `{"value":42}`, string(resp.Payload))

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, 42, out.Value)

	err = provider.Response{Payload: []byte("not json")}.Decode(&out)
	require.Error(t, err)
}
