package plantbook

import (
	"context"
	"net/url"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/internal/transport"
	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
)

// TokenProvider yields a bearer token for the detail API.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// tokenInvalidator is implemented by providers that cache tokens.
type tokenInvalidator interface {
	Invalidate()
}

const (
	tokenCacheKey = "access_token"
	tokenPath     = "/token/"
)

// ClientCredentials exchanges a client id and secret for an access token
// and reuses it until shortly before it expires.
type ClientCredentials struct {
	baseURL      string
	clientID     string
	clientSecret string
	transport    *transport.Client
	logger       *zerolog.Logger

	mu    sync.Mutex
	cache *gocache.Cache
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func newClientCredentials(o *options) *ClientCredentials {
	return &ClientCredentials{
		baseURL:      o.baseURL,
		clientID:     o.clientID,
		clientSecret: o.clientSecret,
		transport: transport.New(ProviderName, &transport.NoAuth{},
			transport.WithHTTPClient(o.httpClient),
			transport.WithLogger(o.logger),
		),
		logger: o.logger,
		cache:  gocache.New(gocache.NoExpiration, constants.CacheCleanupInterval),
	}
}

// Token implements TokenProvider. Concurrent callers share one exchange.
func (c *ClientCredentials) Token(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", errors.NewAuthenticationError(ProviderName, "client_credentials",
			"client id and secret are required", errors.ErrAPIKeyRequired)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached, ok := c.cache.Get(tokenCacheKey); ok {
		return cached.(string), nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	resp, err := c.transport.PostForm(ctx, c.baseURL+tokenPath, form)
	if err != nil {
		return "", err
	}
	var token tokenResponse
	if err := transport.DecodeResponse(resp, ProviderName, &token); err != nil {
		return "", err
	}
	if token.AccessToken == "" {
		return "", errors.NewParseError("json", "token response", "missing access_token", nil)
	}

	ttl := tokenTTL(token.ExpiresIn)
	c.cache.Set(tokenCacheKey, token.AccessToken, ttl)
	c.logger.Debug().Dur("ttl", ttl).Msg("Obtained detail API token")

	return token.AccessToken, nil
}

// Invalidate drops the cached token so the next Token call performs a new
// exchange.
func (c *ClientCredentials) Invalidate() {
	c.cache.Delete(tokenCacheKey)
}

// tokenTTL keeps a token until TokenExpirySkew before the server expires
// it, but always at least one second.
func tokenTTL(expiresIn int) time.Duration {
	ttl := time.Duration(expiresIn)*time.Second - constants.TokenExpirySkew
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}
