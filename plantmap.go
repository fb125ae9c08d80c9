// Package plantmap wires the plant catalog together: the paginated
// loader over the remote catalog, the snapshot cache, the local store and
// its catalog mirror, the user's garden and the plant detail lookup.
//
// Example usage:
//
//	pm, err := plantmap.New(
//	    plantmap.WithDataDir("~/.plantmap"),
//	    plantmap.WithPerenualAPIKey(os.Getenv("PERENUAL_API_KEY")),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pm.Close()
//
//	pm.Loader().OnPageLoaded(func(page int, entries []catalog.Entry) {
//	    fmt.Printf("page %d: %d plants\n", page, len(entries))
//	})
//	if err := pm.Loader().LoadNextPage(ctx, "fir"); err != nil {
//	    log.Fatal(err)
//	}
package plantmap

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/internal/snapshot"
	"github.com/agentstation/plantmap/internal/sources/perenual"
	"github.com/agentstation/plantmap/internal/sources/plantbook"
	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/garden"
	"github.com/agentstation/plantmap/pkg/loader"
	"github.com/agentstation/plantmap/pkg/logging"
	"github.com/agentstation/plantmap/pkg/mirror"
	"github.com/agentstation/plantmap/pkg/store"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client is the assembled plant catalog.
type Client interface {
	// Loader returns the catalog pagination state machine.
	Loader() *loader.Loader

	// Garden returns the favorites service.
	Garden() *garden.Service

	// Details returns the plant detail lookup client.
	Details() *plantbook.Client

	// Mirror returns the Persistence Bridge over the local store.
	Mirror() *mirror.Bridge

	// Snapshots returns the local snapshot cache.
	Snapshots() *snapshot.Cache

	// FindEntry looks id up in the loaded entries, then in the mirror.
	FindEntry(ctx context.Context, id int) (catalog.Entry, error)

	// ClearCache removes the snapshot and the mirror and returns the
	// loader to its empty idle state. It returns loader.ErrBusy and leaves
	// everything in place while a catalog fetch is in flight.
	ClearCache(ctx context.Context) error

	// Close waits for pending snapshot writes and closes the store.
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {
	options *options
	logger  *zerolog.Logger

	store     store.Store
	ownsStore bool

	snapshots *snapshot.Cache
	mirror    *mirror.Bridge
	loader    *loader.Loader
	garden    *garden.Service
	details   *plantbook.Client
}

// New opens the local store, builds every component and initializes the
// loader from the snapshot cache.
func New(opts ...Option) (Client, error) {
	o := defaults().apply(opts...)
	logger := logging.OrDefault(o.logger)

	dataDir, err := expandHome(o.dataDir)
	if err != nil {
		return nil, errors.WrapIO("resolve", o.dataDir, err)
	}

	c := &client{options: o, logger: logger, store: o.store}
	if c.store == nil {
		c.store, err = store.Open(store.Config{Driver: o.storeDriver, Dir: dataDir})
		if err != nil {
			return nil, errors.WrapResource("open", "store", string(o.storeDriver), err)
		}
		c.ownsStore = true
	}

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = perenual.NewClient(o.perenualAPIKey,
			perenual.WithBaseURL(o.perenualBaseURL),
			perenual.WithHTTPClient(o.httpClient),
			perenual.WithLogger(logger),
		)
	}

	c.snapshots = snapshot.New(dataDir, logger)
	c.mirror = mirror.New(c.store, logger)
	c.loader = loader.New(fetcher,
		loader.WithSnapshotCache(c.snapshots),
		loader.WithBridge(c.mirror),
		loader.WithLogger(logger),
	)
	c.garden = garden.NewService(c.store, garden.WithLogger(logger))
	c.details = plantbook.NewClient(o.plantbookClientID, o.plantbookClientSecret,
		plantbook.WithBaseURL(o.plantbookBaseURL),
		plantbook.WithHTTPClient(o.httpClient),
		plantbook.WithStore(c.store),
		plantbook.WithLogger(logger),
	)

	c.loader.Initialize()
	logger.Debug().
		Str("data_dir", dataDir).
		Str("store", string(o.storeDriver)).
		Msg("Plantmap client ready")

	return c, nil
}

func (c *client) Loader() *loader.Loader     { return c.loader }
func (c *client) Garden() *garden.Service    { return c.garden }
func (c *client) Details() *plantbook.Client { return c.details }
func (c *client) Mirror() *mirror.Bridge     { return c.mirror }
func (c *client) Snapshots() *snapshot.Cache { return c.snapshots }

// FindEntry implements Client.
func (c *client) FindEntry(ctx context.Context, id int) (catalog.Entry, error) {
	if e, ok := catalog.Snapshot(c.loader.State().Entries).Find(id); ok {
		return e, nil
	}
	e, err := c.mirror.Lookup(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return catalog.Entry{}, errors.NewNotFoundError("plant", strconv.Itoa(id))
		}
		return catalog.Entry{}, err
	}
	return e, nil
}

// ClearCache implements Client.
func (c *client) ClearCache(ctx context.Context) error {
	if c.loader.Busy() {
		return loader.ErrBusy
	}
	c.snapshots.Wait()
	if err := c.snapshots.Clear(); err != nil {
		return err
	}
	if err := c.mirror.Clear(ctx); err != nil {
		return err
	}
	c.loader.Initialize()
	return nil
}

// Close implements Client.
func (c *client) Close() error {
	c.snapshots.Wait()
	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}

// expandHome resolves a leading "~" to the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
