package provider

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// emptyKey is the cache key of a Request with no parameters.
const emptyKey = "{}"

// Request carries the parameters of a lookup. It is immutable: parameters
// are held only in their canonical JSON form, so neither the caller's input
// nor anything returned by Param or Params aliases the Request's state.
type Request struct {
	key string
}

// NewRequest builds a Request from params. Values must be JSON-serializable.
// They are copied deeply, so later changes to params or to anything nested in
// it do not affect the Request.
//
// Accessors return values in their decoded JSON form: numbers come back as
// json.Number and lists as []any.
func NewRequest(params map[string]any) (Request, error) {
	if len(params) == 0 {
		return Request{}, nil
	}
	key, err := canonicalKey(params)
	if err != nil {
		return Request{}, err
	}
	return Request{key: key}, nil
}

// MustNewRequest is like NewRequest but panics on an unserializable value.
func MustNewRequest(params map[string]any) Request {
	r, err := NewRequest(params)
	if err != nil {
		panic(err)
	}
	return r
}

// With returns a copy of r with name set to value.
func (r Request) With(name string, value any) (Request, error) {
	p := r.Params()
	p[name] = value
	return NewRequest(p)
}

// Param returns a copy of a single parameter.
func (r Request) Param(name string) (any, bool) {
	v, ok := r.Params()[name]
	return v, ok
}

// Params returns a deep copy of all parameters.
func (r Request) Params() map[string]any {
	p := make(map[string]any)
	if r.key == "" {
		return p
	}
	dec := json.NewDecoder(strings.NewReader(r.key))
	dec.UseNumber()
	// The key was produced by canonicalKey, so it always decodes.
	_ = dec.Decode(&p)
	return p
}

// Key returns the deterministic cache key for r. It depends only on the
// parameter values, never on the order in which they were supplied.
func (r Request) Key() string {
	if r.key == "" {
		return emptyKey
	}
	return r.key
}

// String implements fmt.Stringer.
func (r Request) String() string {
	return r.Key()
}

// canonicalKey serializes params as JSON. encoding/json writes map keys in
// sorted order at every level, which makes the output order-independent.
func canonicalKey(params map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return "", fmt.Errorf("request is not serializable: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Response is the opaque result of a lookup.
type Response struct {
	Payload []byte `json:"payload" firestore:"payload"`
}

// NewResponse JSON-encodes v into a Response.
func NewResponse(v any) (Response, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal response payload: %w", err)
	}
	return Response{Payload: b}, nil
}

// Clone returns a Response whose Payload does not share memory with r.
func (r Response) Clone() Response {
	return Response{Payload: bytes.Clone(r.Payload)}
}

// Decode unmarshals the payload into v.
func (r Response) Decode(v any) error {
	if err := json.Unmarshal(r.Payload, v); err != nil {
		return fmt.Errorf("failed to unmarshal response payload: %w", err)
	}
	return nil
}
