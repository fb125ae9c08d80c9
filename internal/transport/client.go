// Package transport provides the authenticated HTTP client shared by the
// remote catalog and detail-lookup sources. Every failure leaves this
// package as a typed error from pkg/errors.
package transport

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
)

// Client provides HTTP client functionality with authentication.
type Client struct {
	provider   string
	http       *http.Client
	auth       Authenticator
	credential Credential
	logger     *zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// WithCredential sets the credential source applied by the authenticator.
func WithCredential(cred Credential) Option {
	return func(c *Client) {
		c.credential = cred
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(logger *zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new transport client for provider with the given authenticator.
func New(provider string, auth Authenticator, opts ...Option) *Client {
	if auth == nil {
		auth = &NoAuth{}
	}
	c := &Client{
		provider: provider,
		http:     &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:     auth,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the provider name used in errors.
func (c *Client) Provider() string {
	return c.provider
}

// Do performs an HTTP request with authentication applied. A request that
// produces no response returns a *errors.TransportError.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.credential != nil {
		credential, err := c.credential(ctx)
		if err != nil {
			return nil, err
		}
		if credential != "" {
			c.auth.Apply(req, credential)
		}
	}

	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str("provider", c.provider).
			Str("path", req.URL.Path).
			Msg("Request failed without response")
		return nil, errors.WrapTransport(c.provider, redact(req.URL), err)
	}

	c.logger.Trace().
		Str("provider", c.provider).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("Request completed")

	return resp, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.WrapResource("create", "request", "GET "+rawURL, err)
	}
	return c.Do(ctx, req)
}

// PostForm performs a form-encoded POST request.
func (c *Client) PostForm(ctx context.Context, rawURL string, values url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, errors.WrapResource("create", "request", "POST "+rawURL, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(ctx, req)
}

// GetJSON performs a GET request and decodes a JSON body into target.
func (c *Client) GetJSON(ctx context.Context, rawURL string, target any) error {
	resp, err := c.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	return DecodeResponse(resp, c.provider, target)
}

// ReadBody checks the status of resp and returns its body. The body is
// always closed.
func ReadBody(resp *http.Response, provider string) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	endpoint := ""
	if resp.Request != nil && resp.Request.URL != nil {
		endpoint = redact(resp.Request.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapTransport(provider, endpoint, errors.WrapIO("read", "response body", err))
	}

	if err := CheckStatus(resp, provider, endpoint, body); err != nil {
		return nil, err
	}
	return body, nil
}

// redact drops the query string so API keys never reach logs or errors.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.RawQuery = ""
	return clean.String()
}
