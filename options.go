package plantmap

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/loader"
	"github.com/agentstation/plantmap/pkg/store"
)

// Option configures a Client.
type Option func(*options)

// options holds the client configuration.
type options struct {
	dataDir     string
	storeDriver store.Driver
	store       store.Store

	perenualAPIKey  string
	perenualBaseURL string
	fetcher         loader.Fetcher

	plantbookClientID     string
	plantbookClientSecret string
	plantbookBaseURL      string

	httpClient *http.Client
	logger     *zerolog.Logger
}

func defaults() *options {
	return &options{
		dataDir:          constants.DefaultDataDir,
		storeDriver:      store.DriverBolt,
		perenualBaseURL:  constants.PerenualBaseURL,
		plantbookBaseURL: constants.PlantbookBaseURL,
		httpClient:       &http.Client{Timeout: constants.DefaultHTTPTimeout},
	}
}

func (o *options) apply(opts ...Option) *options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithDataDir sets where the snapshot and the local store live.
func WithDataDir(dir string) Option {
	return func(o *options) {
		o.dataDir = dir
	}
}

// WithStoreDriver selects the local store backend.
func WithStoreDriver(driver store.Driver) Option {
	return func(o *options) {
		o.storeDriver = driver
	}
}

// WithStore uses an already opened store. The client does not close it.
func WithStore(s store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithPerenualAPIKey sets the catalog API key.
func WithPerenualAPIKey(key string) Option {
	return func(o *options) {
		o.perenualAPIKey = key
	}
}

// WithPerenualBaseURL overrides the catalog API base URL.
func WithPerenualBaseURL(u string) Option {
	return func(o *options) {
		o.perenualBaseURL = u
	}
}

// WithFetcher replaces the remote catalog client.
func WithFetcher(f loader.Fetcher) Option {
	return func(o *options) {
		o.fetcher = f
	}
}

// WithPlantbookCredentials sets the detail API client credentials.
func WithPlantbookCredentials(clientID, clientSecret string) Option {
	return func(o *options) {
		o.plantbookClientID = clientID
		o.plantbookClientSecret = clientSecret
	}
}

// WithPlantbookBaseURL overrides the detail API base URL.
func WithPlantbookBaseURL(u string) Option {
	return func(o *options) {
		o.plantbookBaseURL = u
	}
}

// WithHTTPTimeout sets the timeout of every remote request.
func WithHTTPTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithHTTPClient replaces the HTTP client used by both remote sources.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		if hc != nil {
			o.httpClient = hc
		}
	}
}

// WithLogger sets the logger passed to every component.
func WithLogger(logger *zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}
