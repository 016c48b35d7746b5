// Package source holds the base providers: the leaf implementations that
// perform the actual remote fetch behind the provider.Provider contract.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/illmade-knight/go-dataprovider/pkg/provider"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	httpSourceName   = "http-source"
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "go-dataprovider"
	defaultMaxBody   = 10 << 20
)

// OAuthConfig enables the OAuth2 client-credentials flow.
type OAuthConfig struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// HTTPSourceConfig holds the connection parameters of an HTTPSource.
type HTTPSourceConfig struct {
	// Host is the base URL, e.g. "https://data.example.com".
	Host string
	// Path is appended to Host for every lookup, e.g. "/v1/quotes".
	Path string
	// User and Password enable HTTP basic auth when User is set.
	User     string
	Password string
	// OAuth, when set, takes precedence over basic auth.
	OAuth     *OAuthConfig
	UserAgent string
	Timeout   time.Duration
	// MaxBodyBytes caps the accepted response size. Defaults to 10 MiB.
	MaxBodyBytes int64
}

// HTTPError captures an unexpected status code and the response body.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// HTTPSource fetches Responses from a remote JSON HTTP API. It performs no
// caching and no logging of failures; those belong to decorators.
type HTTPSource struct {
	endpoint *url.URL
	user     string
	password string
	client   *http.Client
	maxBody  int64
	logger   zerolog.Logger
}

// NewHTTPSource creates an HTTPSource. base may be nil, in which case a new
// client is created. The client's transport is wrapped to set the User-Agent
// and, when configured, to attach OAuth2 tokens.
func NewHTTPSource(ctx context.Context, cfg *HTTPSourceConfig, base *http.Client, logger zerolog.Logger) (*HTTPSource, error) {
	if cfg.Host == "" {
		return nil, errors.New("http source host cannot be empty")
	}
	endpoint, err := url.Parse(strings.TrimRight(cfg.Host, "/") + cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid http source host %q: %w", cfg.Host, err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("http source host %q must use http or https", cfg.Host)
	}

	if base == nil {
		base = &http.Client{}
	}
	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	client := &http.Client{
		Transport: &userAgentRoundTripper{Wrapped: transport, UserAgent: userAgent},
		Timeout:   timeout,
	}
	if cfg.OAuth != nil {
		cc := &clientcredentials.Config{
			ClientID:     cfg.OAuth.ClientID,
			ClientSecret: cfg.OAuth.ClientSecret,
			TokenURL:     cfg.OAuth.TokenURL,
			Scopes:       cfg.OAuth.Scopes,
		}
		// The token source fetches tokens through the same User-Agent client.
		client = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, client))
		client.Timeout = timeout
	}

	logger.Info().Str("endpoint", endpoint.String()).Bool("oauth", cfg.OAuth != nil).Msg("HTTPSource initialized.")

	return &HTTPSource{
		endpoint: endpoint,
		user:     cfg.User,
		password: cfg.Password,
		client:   client,
		maxBody:  maxBody,
		logger:   logger.With().Str("component", "HTTPSource").Logger(),
	}, nil
}

// Get issues GET <host><path>?<params> and maps the outcome into a Response
// or a *provider.ProviderError.
func (s *HTTPSource) Get(ctx context.Context, req provider.Request) (provider.Response, error) {
	u := *s.endpoint
	q := u.Query()
	for name, value := range req.Params() {
		switch list := value.(type) {
		case []any:
			q.Del(name)
			for _, v := range list {
				q.Add(name, queryValue(v))
			}
		default:
			q.Set(name, queryValue(value))
		}
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return provider.Response{}, provider.NewProviderError(httpSourceName, fmt.Errorf("failed to build request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if s.user != "" {
		httpReq.SetBasicAuth(s.user, s.password)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return provider.Response{}, provider.NewProviderError(httpSourceName, fmt.Errorf("request to %s failed: %w", s.endpoint.Host, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBody+1))
	if err != nil {
		return provider.Response{}, provider.NewProviderError(httpSourceName, fmt.Errorf("failed to read response body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode, Body: body}
		if resp.StatusCode == http.StatusNotFound {
			return provider.Response{}, provider.NewProviderError(httpSourceName, fmt.Errorf("%w: %w", provider.ErrNotFound, httpErr))
		}
		return provider.Response{}, provider.NewProviderError(httpSourceName, httpErr)
	}
	if int64(len(body)) > s.maxBody {
		return provider.Response{}, provider.NewProviderError(httpSourceName, fmt.Errorf("response too large: exceeds %d bytes", s.maxBody))
	}
	if !json.Valid(body) {
		return provider.Response{}, provider.NewProviderError(httpSourceName, errors.New("malformed response: body is not valid JSON"))
	}

	s.logger.Debug().Str("key", req.Key()).Int("bytes", len(body)).Msg("Fetched data from remote source.")
	return provider.Response{Payload: body}, nil
}

// Close releases idle connections.
func (s *HTTPSource) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

// queryValue renders a parameter as a query string value. Strings are used
// as-is; everything else uses its JSON form so that numbers and nested
// values are unambiguous. Lists are expanded by the caller into repeated
// parameters.
func queryValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
