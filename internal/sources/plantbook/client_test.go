package plantbook

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
	"github.com/agentstation/plantmap/pkg/store"
)

// fakeAPI serves the token, search and detail endpoints and counts calls.
type fakeAPI struct {
	tokenCalls  atomic.Int32
	detailCalls atomic.Int32
	expiresIn   int
	tokenStatus int
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token/", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		if f.tokenStatus != 0 {
			w.WriteHeader(f.tokenStatus)
			return
		}
		_, _ = fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":%d,"token_type":"Bearer"}`,
			f.tokenCalls.Load(), f.expiresIn)
	})
	mux.HandleFunc("/plant/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		assert.Equal(t, "monstera", r.URL.Query().Get("alias"))
		_, _ = w.Write([]byte(`{"count":2,"results":[
			{"pid":"monstera deliciosa","display_pid":"Monstera deliciosa","alias":"monstera"},
			{"pid":"monstera adansonii","display_pid":"Monstera adansonii","alias":"swiss cheese"}]}`))
	})
	mux.HandleFunc("/plant/detail/", func(w http.ResponseWriter, r *http.Request) {
		f.detailCalls.Add(1)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		if r.URL.Path != "/plant/detail/monstera deliciosa/" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Not found."}`))
			return
		}
		_, _ = w.Write([]byte(`{"pid":"monstera deliciosa","display_pid":"Monstera deliciosa",
			"alias":"monstera","max_light_lux":30000,"min_light_lux":1500,"max_temp":32,
			"min_temp":12,"min_soil_ec":null,"image_url":"https://img/monstera.jpg"}`))
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)
	opts = append([]Option{WithBaseURL(server.URL + "/"), WithLogger(logging.NewNopLogger())}, opts...)
	return NewClient("id", "secret", opts...)
}

func TestSearch(t *testing.T) {
	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api)

	results, err := client.Search(context.Background(), " monstera ")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, SearchResult{PID: "monstera deliciosa", DisplayPID: "Monstera deliciosa", Alias: "monstera"}, results[0])

	_, err = client.Search(context.Background(), "  ")
	assert.True(t, errors.IsValidationError(err))
}

func TestTokenReusedAcrossRequests(t *testing.T) {
	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api)
	ctx := context.Background()

	for range 3 {
		_, err := client.Search(ctx, "monstera")
		require.NoError(t, err)
	}
	require.NoError(t, client.Forget(ctx, "monstera deliciosa"))
	_, err := client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.tokenCalls.Load())
}

func TestTokenConcurrentCallersShareExchange(t *testing.T) {
	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Search(context.Background(), "monstera")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), api.tokenCalls.Load())
}

func TestMissingCredentials(t *testing.T) {
	api := &fakeAPI{expiresIn: 3600}
	server := httptest.NewServer(api.handler(t))
	defer server.Close()

	client := NewClient("", "secret", WithBaseURL(server.URL), WithLogger(logging.NewNopLogger()))
	_, err := client.Search(context.Background(), "monstera")

	require.Error(t, err)
	assert.Equal(t, errors.KindMissingCredentials, errors.KindOf(err))
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
	assert.Zero(t, api.tokenCalls.Load(), "no network call without credentials")
}

func TestTokenRejected(t *testing.T) {
	api := &fakeAPI{tokenStatus: http.StatusUnauthorized}
	client := newTestClient(t, api)

	_, err := client.Search(context.Background(), "monstera")
	require.Error(t, err)
	assert.Equal(t, errors.KindHTTPStatus, errors.KindOf(err))
	assert.True(t, errors.IsAPIKeyError(err))
	assert.Equal(t, int32(1), api.tokenCalls.Load(), "a rejected exchange is not retried")
}

func TestDetail(t *testing.T) {
	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api)

	detail, err := client.Detail(context.Background(), "monstera deliciosa")
	require.NoError(t, err)
	assert.Equal(t, "Monstera deliciosa", detail.DisplayPID)
	require.NotNil(t, detail.MaxLightLux)
	assert.InDelta(t, 30000, *detail.MaxLightLux, 0.001)
	assert.Nil(t, detail.MinSoilEC)
	assert.Nil(t, detail.MaxEnvHumid)
	assert.Equal(t, "https://img/monstera.jpg", detail.ImageURL)
}

func TestDetailCacheHitSkipsNetwork(t *testing.T) {
	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api)
	ctx := context.Background()

	first, err := client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)
	second, err := client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), api.detailCalls.Load())
}

func TestDetailPersistsToStore(t *testing.T) {
	s, err := store.Open(store.Config{Driver: store.DriverBolt, Dir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api, WithStore(s))
	_, err = client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)

	// A fresh client has an empty memory cache but shares the store.
	other := newTestClient(t, api, WithStore(s))
	detail, err := other.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)
	assert.Equal(t, "monstera", detail.Alias)
	assert.Equal(t, int32(1), api.detailCalls.Load())
}

func TestForgetDropsStoredDetail(t *testing.T) {
	s, err := store.Open(store.Config{Driver: store.DriverSQLite, Dir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api, WithStore(s))
	_, err = client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)

	require.NoError(t, client.Forget(ctx, "monstera deliciosa"))
	_, err = client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.detailCalls.Load())
}

func TestDetailNotFound(t *testing.T) {
	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api)

	_, err := client.Detail(context.Background(), "nothing")
	require.Error(t, err)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestTokenTTL(t *testing.T) {
	assert.Equal(t, 3570*time.Second, tokenTTL(3600))
	assert.Equal(t, time.Second, tokenTTL(30))
	assert.Equal(t, time.Second, tokenTTL(0))
}

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

func TestWithTokenProvider(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(t, api, WithTokenProvider(staticTokens("tok-1")))

	_, err := client.Search(context.Background(), "monstera")
	require.NoError(t, err)
	assert.Zero(t, api.tokenCalls.Load())
}

// revokingAPI issues numbered tokens and rejects every token issued
// before minToken.
type revokingAPI struct {
	tokenCalls atomic.Int32
	apiCalls   atomic.Int32
	minToken   atomic.Int32
}

func (f *revokingAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token/", func(w http.ResponseWriter, _ *http.Request) {
		n := f.tokenCalls.Add(1)
		_, _ = fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
	})
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		f.apiCalls.Add(1)
		var n int32
		_, _ = fmt.Sscanf(r.Header.Get("Authorization"), "Bearer tok-%d", &n)
		if n < f.minToken.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
			return false
		}
		return true
	}
	mux.HandleFunc("/plant/search", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			_, _ = w.Write([]byte(`{"count":1,"results":[{"pid":"ficus lyrata","display_pid":"Ficus lyrata","alias":"fiddle leaf"}]}`))
		}
	})
	mux.HandleFunc("/plant/detail/", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			_, _ = w.Write([]byte(`{"pid":"ficus lyrata","display_pid":"Ficus lyrata","max_temp":30}`))
		}
	})
	return mux
}

func TestRevokedTokenIsRefreshedOnce(t *testing.T) {
	api := &revokingAPI{}
	api.minToken.Store(1)
	server := httptest.NewServer(api.handler())
	defer server.Close()
	client := NewClient("id", "secret", WithBaseURL(server.URL), WithLogger(logging.NewNopLogger()))
	ctx := context.Background()

	_, err := client.Search(ctx, "fiddle leaf")
	require.NoError(t, err)
	require.Equal(t, int32(1), api.tokenCalls.Load())

	// The server revokes tok-1 while it is still cached.
	api.minToken.Store(2)
	detail, err := client.Detail(ctx, "ficus lyrata")
	require.NoError(t, err)
	assert.Equal(t, "Ficus lyrata", detail.DisplayPID)
	assert.Equal(t, int32(2), api.tokenCalls.Load())
	assert.Equal(t, int32(3), api.apiCalls.Load())

	_, err = client.Search(ctx, "fiddle leaf")
	require.NoError(t, err)
	assert.Equal(t, int32(2), api.tokenCalls.Load(), "the new token is cached")
}

func TestRejectedTokenRetriedOnlyOnce(t *testing.T) {
	api := &revokingAPI{}
	api.minToken.Store(100)
	server := httptest.NewServer(api.handler())
	defer server.Close()
	client := NewClient("id", "secret", WithBaseURL(server.URL), WithLogger(logging.NewNopLogger()))

	_, err := client.Search(context.Background(), "fiddle leaf")
	require.Error(t, err)
	assert.True(t, errors.IsAPIKeyError(err))
	assert.Equal(t, int32(2), api.tokenCalls.Load())
	assert.Equal(t, int32(2), api.apiCalls.Load())
}

func TestStaticTokenRejectionIsReturned(t *testing.T) {
	api := &revokingAPI{}
	api.minToken.Store(100)
	server := httptest.NewServer(api.handler())
	defer server.Close()
	client := NewClient("", "", WithBaseURL(server.URL), WithTokenProvider(staticTokens("tok-1")),
		WithLogger(logging.NewNopLogger()))

	_, err := client.Detail(context.Background(), "ficus lyrata")
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(1), api.apiCalls.Load())
	assert.Zero(t, api.tokenCalls.Load())
}

func TestDetailCallersCannotCorruptCache(t *testing.T) {
	s, err := store.Open(store.Config{Driver: store.DriverBolt, Dir: t.TempDir()})
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	api := &fakeAPI{expiresIn: 3600}
	client := newTestClient(t, api, WithStore(s))

	first, err := client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)
	first.DisplayPID = "changed"
	*first.MaxTemp = -1

	second, err := client.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)
	assert.Equal(t, "Monstera deliciosa", second.DisplayPID)
	assert.InDelta(t, 32, *second.MaxTemp, 0.001)
	assert.NotSame(t, first, second)

	// Same for a detail served from the store into a fresh memory cache.
	other := newTestClient(t, api, WithStore(s))
	stored, err := other.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)
	*stored.MaxTemp = -1
	again, err := other.Detail(ctx, "monstera deliciosa")
	require.NoError(t, err)
	assert.InDelta(t, 32, *again.MaxTemp, 0.001)
	assert.Equal(t, int32(1), api.detailCalls.Load())
}
