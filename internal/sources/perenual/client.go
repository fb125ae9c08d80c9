// Package perenual provides the remote catalog client for the Perenual
// species list API.
package perenual

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/internal/transport"
	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
)

// ProviderName identifies this source in errors and logs.
const ProviderName = "perenual"

// Client fetches catalog pages. It never retries; retry policy belongs to
// the caller.
type Client struct {
	baseURL   string
	transport *transport.Client
	logger    *zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewClient creates a client that sends apiKey as the "key" query parameter.
func NewClient(apiKey string, opts ...Option) *Client {
	o := &options{baseURL: constants.PerenualBaseURL}
	for _, opt := range opts {
		opt(o)
	}
	logger := logging.OrDefault(o.logger)

	return &Client{
		baseURL: o.baseURL,
		transport: transport.New(ProviderName, &transport.QueryAuth{Param: "key"},
			transport.WithCredential(transport.StaticCredential(apiKey)),
			transport.WithHTTPClient(o.httpClient),
			transport.WithLogger(logger),
		),
		logger: logger,
	}
}

// FetchPage fetches one page of the species list. query is sent as the
// free-text filter when non-empty.
func (c *Client) FetchPage(ctx context.Context, page int, query string) (catalog.Page, error) {
	if page < 1 {
		return catalog.Page{}, errors.NewValidationError("page", page, "must be >= 1")
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	if q := strings.TrimSpace(query); q != "" {
		params.Set("q", q)
	}
	endpoint := c.baseURL + "/species-list?" + params.Encode()

	resp, err := c.transport.Get(ctx, endpoint)
	if err != nil {
		return catalog.Page{}, err
	}
	body, err := transport.ReadBody(resp, ProviderName)
	if err != nil {
		return catalog.Page{}, err
	}

	result, skipped, err := catalog.DecodePage(page, body)
	if err != nil {
		return catalog.Page{}, err
	}

	event := c.logger.Debug().
		Int("page", page).
		Int("entries", len(result.Entries))
	if query != "" {
		event = event.Str("query", query)
	}
	if skipped > 0 {
		event = event.Int("skipped", skipped)
	}
	event.Msg("Fetched catalog page")

	return result, nil
}
