package plantmap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/loader"
	"github.com/agentstation/plantmap/pkg/logging"
	"github.com/agentstation/plantmap/pkg/store"
)

// catalogServer serves pages pages of two plants each, then empty pages.
func catalogServer(t *testing.T, pages int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/species-list", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page > pages {
			_, _ = w.Write([]byte(`{"data":[]}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"data":[
			{"id":%d,"common_name":"Plant %d","scientific_name":["Plantus %d"],"watering":"Frequent"},
			{"id":%d,"common_name":"Plant %d","watering":"Minimum"}]}`,
			page*10, page*10, page*10, page*10+1, page*10+1)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newClient(t *testing.T, dir, baseURL string, driver store.Driver) Client {
	t.Helper()
	pm, err := New(
		WithDataDir(dir),
		WithStoreDriver(driver),
		WithPerenualAPIKey("test-key"),
		WithPerenualBaseURL(baseURL),
		WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)
	return pm
}

func TestDownloadThenReopenFromCache(t *testing.T) {
	for _, driver := range []store.Driver{store.DriverBolt, store.DriverSQLite} {
		t.Run(string(driver), func(t *testing.T) {
			server, calls := catalogServer(t, 2)
			dir := t.TempDir()
			ctx := context.Background()

			pm := newClient(t, dir, server.URL, driver)
			require.NoError(t, pm.Loader().LoadAllPages(ctx, ""))
			assert.Len(t, pm.Loader().State().Entries, 4)
			assert.Equal(t, int32(3), calls.Load())

			mirrored, err := pm.Mirror().Load(ctx)
			require.NoError(t, err)
			assert.Len(t, mirrored, 4)
			require.NoError(t, pm.Close())

			reopened := newClient(t, dir, server.URL, driver)
			defer func() { _ = reopened.Close() }()

			state := reopened.Loader().State()
			assert.True(t, state.FromCache)
			assert.Len(t, state.Entries, 4)
			require.NoError(t, reopened.Loader().LoadNextPage(ctx, ""))
			assert.Equal(t, int32(3), calls.Load(), "cached loader does not page")
		})
	}
}

func TestFavoriteFromLoadedEntries(t *testing.T) {
	server, _ := catalogServer(t, 1)
	pm := newClient(t, t.TempDir(), server.URL, store.DriverBolt)
	defer func() { _ = pm.Close() }()
	ctx := context.Background()

	require.NoError(t, pm.Loader().LoadNextPage(ctx, ""))

	entry, err := pm.FindEntry(ctx, 11)
	require.NoError(t, err)
	rec, err := pm.Garden().Favorite(ctx, entry)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.WateringIntervalDays)
	assert.Equal(t, pm.Loader().ConvertToSavedRecord(entry).WateringIntervalDays, rec.WateringIntervalDays)

	_, err = pm.FindEntry(ctx, 999)
	assert.True(t, errors.IsNotFound(err))
}

func TestFindEntryFallsBackToMirror(t *testing.T) {
	server, _ := catalogServer(t, 1)
	dir := t.TempDir()
	ctx := context.Background()

	pm := newClient(t, dir, server.URL, store.DriverBolt)
	require.NoError(t, pm.Loader().LoadAllPages(ctx, ""))
	require.NoError(t, pm.Snapshots().Clear())
	require.NoError(t, pm.Close())

	reopened := newClient(t, dir, server.URL, store.DriverBolt)
	defer func() { _ = reopened.Close() }()
	require.Empty(t, reopened.Loader().State().Entries)

	entry, err := reopened.FindEntry(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Plant 10", entry.CommonName)
}

func TestClearCache(t *testing.T) {
	server, _ := catalogServer(t, 1)
	pm := newClient(t, t.TempDir(), server.URL, store.DriverSQLite)
	defer func() { _ = pm.Close() }()
	ctx := context.Background()

	require.NoError(t, pm.Loader().LoadAllPages(ctx, ""))
	require.NoError(t, pm.ClearCache(ctx))

	assert.False(t, pm.Snapshots().Exists())
	mirrored, err := pm.Mirror().Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, mirrored)

	state := pm.Loader().State()
	assert.False(t, state.FromCache)
	assert.Empty(t, state.Entries)
	assert.True(t, state.CanLoadMore)
}

func TestClearCacheRefusedWhileFetching(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var calls atomic.Int32
	fetcher := loader.FetcherFunc(func(_ context.Context, page int, _ string) (catalog.Page, error) {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return catalog.Page{Number: page, Entries: []catalog.Entry{{ID: page, CommonName: "Fir"}}}, nil
	})

	pm, err := New(
		WithDataDir(t.TempDir()),
		WithFetcher(fetcher),
		WithLogger(logging.NewNopLogger()),
	)
	require.NoError(t, err)
	defer func() { _ = pm.Close() }()
	ctx := context.Background()

	pm.Snapshots().Save(catalog.Snapshot{{ID: 7}})
	pm.Snapshots().Wait()

	done := make(chan error, 1)
	go func() { done <- pm.Loader().LoadNextPage(ctx, "") }()
	<-started

	err = pm.ClearCache(ctx)
	assert.ErrorIs(t, err, loader.ErrBusy)
	assert.True(t, pm.Snapshots().Exists(), "nothing is removed while busy")
	assert.NoError(t, pm.Loader().LoadNextPage(ctx, ""))

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), calls.Load())
	assert.Len(t, pm.Loader().State().Entries, 1)

	require.NoError(t, pm.ClearCache(ctx))
	assert.False(t, pm.Snapshots().Exists())
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandHome("~/.plantmap")
	require.NoError(t, err)
	assert.Equal(t, home+"/.plantmap", got)

	got, err = expandHome("/var/lib/plantmap")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/plantmap", got)
}
