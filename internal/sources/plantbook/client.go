// Package plantbook looks up plant care details (light, temperature,
// humidity and soil thresholds) from the Open Plantbook API.
package plantbook

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/internal/transport"
	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
	"github.com/agentstation/plantmap/pkg/store"
)

// ProviderName identifies this source in errors and logs.
const ProviderName = "plantbook"

// SearchResult is one alias match.
type SearchResult struct {
	PID        string `json:"pid" yaml:"pid"`
	DisplayPID string `json:"display_pid" yaml:"display_pid"`
	Alias      string `json:"alias" yaml:"alias"`
}

// Detail holds care thresholds. A nil threshold was not reported.
type Detail struct {
	PID          string   `json:"pid" yaml:"pid"`
	DisplayPID   string   `json:"display_pid" yaml:"display_pid"`
	Alias        string   `json:"alias" yaml:"alias"`
	MaxLightLux  *float64 `json:"max_light_lux,omitempty" yaml:"max_light_lux,omitempty"`
	MinLightLux  *float64 `json:"min_light_lux,omitempty" yaml:"min_light_lux,omitempty"`
	MaxTemp      *float64 `json:"max_temp,omitempty" yaml:"max_temp,omitempty"`
	MinTemp      *float64 `json:"min_temp,omitempty" yaml:"min_temp,omitempty"`
	MaxEnvHumid  *float64 `json:"max_env_humid,omitempty" yaml:"max_env_humid,omitempty"`
	MinEnvHumid  *float64 `json:"min_env_humid,omitempty" yaml:"min_env_humid,omitempty"`
	MaxSoilMoist *float64 `json:"max_soil_moist,omitempty" yaml:"max_soil_moist,omitempty"`
	MinSoilMoist *float64 `json:"min_soil_moist,omitempty" yaml:"min_soil_moist,omitempty"`
	MaxSoilEC    *float64 `json:"max_soil_ec,omitempty" yaml:"max_soil_ec,omitempty"`
	MinSoilEC    *float64 `json:"min_soil_ec,omitempty" yaml:"min_soil_ec,omitempty"`
	ImageURL     string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

type searchResponse struct {
	Count   int            `json:"count"`
	Results []SearchResult `json:"results"`
}

// Client queries the detail API with a bearer token.
type Client struct {
	baseURL   string
	transport *transport.Client
	tokens    TokenProvider
	details   *gocache.Cache
	store     store.Store
	logger    *zerolog.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	tokens       TokenProvider
	store        store.Store
	logger       *zerolog.Logger
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

// WithTokenProvider replaces the client-credentials exchange.
func WithTokenProvider(tp TokenProvider) Option {
	return func(o *options) {
		o.tokens = tp
	}
}

// WithStore persists fetched details under store.KindDetail.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// NewClient creates a detail client authenticating as clientID.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	o := &options{
		baseURL:      constants.PlantbookBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logging.OrDefault(o.logger)
	if o.tokens == nil {
		o.tokens = newClientCredentials(o)
	}

	return &Client{
		baseURL: o.baseURL,
		transport: transport.New(ProviderName, &transport.BearerAuth{},
			transport.WithCredential(o.tokens.Token),
			transport.WithHTTPClient(o.httpClient),
			transport.WithLogger(o.logger),
		),
		tokens:  o.tokens,
		details: gocache.New(constants.DetailCacheTTL, constants.CacheCleanupInterval),
		store:   o.store,
		logger:  o.logger,
	}
}

// Search finds plants whose alias matches alias.
func (c *Client) Search(ctx context.Context, alias string) ([]SearchResult, error) {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return nil, errors.NewValidationError("alias", alias, "cannot be empty")
	}

	endpoint := c.baseURL + "/plant/search?" + url.Values{"alias": {alias}}.Encode()
	var resp searchResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Str("alias", alias).Int("results", len(resp.Results)).Msg("Searched plant details")
	return resp.Results, nil
}

// Detail returns the care thresholds for pid. Results are served from
// memory, then the store, then the network.
func (c *Client) Detail(ctx context.Context, pid string) (*Detail, error) {
	pid = strings.TrimSpace(pid)
	if pid == "" {
		return nil, errors.NewValidationError("pid", pid, "cannot be empty")
	}

	if cached, ok := c.details.Get(pid); ok {
		return cached.(*Detail).clone(), nil
	}

	if c.store != nil {
		var stored Detail
		err := c.store.Get(ctx, store.KindDetail, pid, &stored)
		switch {
		case err == nil:
			c.details.SetDefault(pid, stored.clone())
			return &stored, nil
		case !errors.IsNotFound(err):
			c.logger.Warn().Err(err).Str("pid", pid).Msg("Detail store read failed")
		}
	}

	endpoint := c.baseURL + "/plant/detail/" + url.PathEscape(pid) + "/"
	var detail Detail
	if err := c.getJSON(ctx, endpoint, &detail); err != nil {
		return nil, err
	}

	c.details.SetDefault(pid, detail.clone())
	if c.store != nil {
		if err := c.store.Put(ctx, store.KindDetail, pid, detail); err != nil {
			c.logger.Warn().Err(err).Str("pid", pid).Msg("Failed to persist plant detail")
		}
	}
	return &detail, nil
}

// getJSON issues an authenticated GET. When the API rejects a cached
// token with 401, the token is dropped and the request is sent once more
// with a fresh one.
func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	err := c.transport.GetJSON(ctx, endpoint, target)
	inv, ok := c.tokens.(tokenInvalidator)
	if !ok || !c.bearerRejected(err) {
		return err
	}
	c.logger.Debug().Str("endpoint", endpoint).Msg("Detail API rejected token, retrying with a new one")
	inv.Invalidate()
	return c.transport.GetJSON(ctx, endpoint, target)
}

// bearerRejected reports a 401 from the detail API itself. A 401 from the
// token exchange is final, since the client credentials are wrong.
func (c *Client) bearerRejected(err error) bool {
	var apiErr *errors.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		return false
	}
	return apiErr.Endpoint != c.baseURL+tokenPath
}

// clone returns a copy that shares no threshold pointers with d.
func (d *Detail) clone() *Detail {
	out := *d
	for _, p := range []**float64{
		&out.MaxLightLux, &out.MinLightLux, &out.MaxTemp, &out.MinTemp,
		&out.MaxEnvHumid, &out.MinEnvHumid, &out.MaxSoilMoist, &out.MinSoilMoist,
		&out.MaxSoilEC, &out.MinSoilEC,
	} {
		if *p != nil {
			v := **p
			*p = &v
		}
	}
	return &out
}

// Forget drops pid from memory and from the store so the next Detail
// call goes to the network.
func (c *Client) Forget(ctx context.Context, pid string) error {
	pid = strings.TrimSpace(pid)
	c.details.Delete(pid)
	if c.store == nil {
		return nil
	}
	return c.store.Delete(ctx, store.KindDetail, pid)
}
