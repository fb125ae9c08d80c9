// Package loader pages through the remote plant catalog. It merges pages
// into one ordered list for infinite scroll, re-scopes itself when the
// search query changes, downloads the whole catalog on demand and serves
// a complete local snapshot instead of the network when one exists.
//
// At most one fetch is in flight per Loader. A call made while a fetch is
// running returns immediately without queuing.
package loader

import (
	"context"
	"math"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/garden"
	"github.com/agentstation/plantmap/pkg/logging"
)

// ErrBusy is returned by operations that cannot run while a fetch or a
// full download is in flight.
var ErrBusy = errors.New("catalog fetch in progress")

// Fetcher retrieves one catalog page. Page numbers start at 1.
type Fetcher interface {
	FetchPage(ctx context.Context, page int, query string) (catalog.Page, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, page int, query string) (catalog.Page, error)

// FetchPage implements Fetcher.
func (f FetcherFunc) FetchPage(ctx context.Context, page int, query string) (catalog.Page, error) {
	return f(ctx, page, query)
}

// SnapshotCache holds the last complete download.
type SnapshotCache interface {
	Load() (catalog.Snapshot, bool)
	Save(snapshot catalog.Snapshot)
}

// Bridge mirrors a complete download into durable storage.
type Bridge interface {
	ReplaceAll(ctx context.Context, entries []catalog.Entry) error
}

// State is the observable loader state. Values returned by the loader are
// copies and safe to keep.
type State struct {
	Entries          []catalog.Entry
	IsLoading        bool
	IsFetching       bool
	CanLoadMore      bool
	CurrentPage      int
	CurrentQuery     string
	Err              error
	DownloadProgress float64
	IsDownloadingAll bool
	FromCache        bool
}

func (s State) clone() State {
	s.Entries = catalog.Snapshot(s.Entries).Clone()
	return s
}

// Loader is the catalog pagination state machine.
type Loader struct {
	fetcher Fetcher
	cache   SnapshotCache
	bridge  Bridge
	logger  *zerolog.Logger
	hooks   *hooks

	mu    sync.Mutex
	state State
}

// New creates a loader in the idle state. Call Initialize to consult the
// snapshot cache.
func New(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher: fetcher,
		hooks:   newHooks(),
		state:   idleState(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.OrDefault(l.logger)
	return l
}

func idleState() State {
	return State{CanLoadMore: true, CurrentPage: 1}
}

// Initialize loads the snapshot cache. With a cached snapshot the loader
// is exhausted and never touches the network for paging; otherwise it is
// idle and empty. It does nothing while a fetch is in flight.
func (l *Loader) Initialize() {
	if l.Busy() {
		l.logger.Debug().Msg("Catalog fetch in flight, keeping loader state")
		return
	}

	var (
		snap catalog.Snapshot
		ok   bool
	)
	if l.cache != nil {
		snap, ok = l.cache.Load()
	}

	reset := false
	l.mutateIf(func(s *State) bool {
		if s.IsFetching || s.IsDownloadingAll {
			return false
		}
		reset = true
		if ok {
			*s = State{
				Entries:          snap,
				CanLoadMore:      false,
				CurrentPage:      1,
				DownloadProgress: 1,
				FromCache:        true,
			}
			return true
		}
		*s = idleState()
		return true
	})

	switch {
	case !reset:
		l.logger.Debug().Msg("Catalog fetch in flight, keeping loader state")
	case ok:
		l.logger.Info().Int("entries", len(snap)).Msg("Catalog loaded from snapshot cache")
	default:
		l.logger.Debug().Msg("No catalog snapshot, starting from the network")
	}
}

// Busy reports whether a page fetch or a full download is in flight.
func (l *Loader) Busy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.IsFetching || l.state.IsDownloadingAll
}

// State returns a consistent copy of the current state.
func (l *Loader) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}

// LoadNextPage fetches the next page for query and appends it. A different
// query than the current one restarts pagination from page 1. The call is
// a no-op while another fetch runs, when the entries came from the
// snapshot cache, or when the current scope is exhausted. The fetch error,
// if any, is returned and also kept in State().Err.
func (l *Loader) LoadNextPage(ctx context.Context, query string) error {
	var (
		page    int
		started bool
	)
	l.mutateIf(func(s *State) bool {
		if s.IsFetching || s.FromCache {
			return false
		}
		changed := false
		if query != s.CurrentQuery {
			*s = idleState()
			s.CurrentQuery = query
			changed = true
		}
		if !s.CanLoadMore {
			return changed
		}
		s.IsFetching = true
		s.IsLoading = true
		s.Err = nil
		page = s.CurrentPage
		started = true
		return true
	})
	if !started {
		return nil
	}

	log := l.logger.With().Int("page", page).Str("query", query).Logger()
	log.Debug().Msg("Fetching catalog page")

	result, err := l.fetcher.FetchPage(ctx, page, query)

	l.mutate(func(s *State) {
		s.IsFetching = false
		s.IsLoading = false
		if err != nil {
			s.Err = err
			return
		}
		if result.Empty() {
			s.CanLoadMore = false
			return
		}
		s.Entries = append(s.Entries, result.Entries...)
		s.CurrentPage = page + 1
	})

	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Catalog page fetch failed")
		l.hooks.failed(err)
		return err
	case result.Empty():
		log.Debug().Msg("Catalog exhausted")
	default:
		l.hooks.pageLoaded(page, catalog.Snapshot(result.Entries).Clone())
	}
	return nil
}

// LoadNextPageIfNeeded is the infinite-scroll trigger. It loads the next
// page when trigger is one of the last LookAheadDistance entries. A nil
// trigger always loads; a trigger not in the list never does.
func (l *Loader) LoadNextPageIfNeeded(ctx context.Context, trigger *catalog.Entry, query string) error {
	l.mu.Lock()
	fromCache := l.state.FromCache
	index := -1
	total := len(l.state.Entries)
	if trigger != nil {
		index = catalog.Snapshot(l.state.Entries).IndexOf(trigger.ID)
	}
	l.mu.Unlock()

	if fromCache {
		return nil
	}
	if trigger == nil {
		return l.LoadNextPage(ctx, query)
	}
	if index < 0 || index < total-constants.LookAheadDistance {
		return nil
	}
	return l.LoadNextPage(ctx, query)
}

// LoadAllPages downloads every page for query, replacing the current
// entries. Pages merged before a failure are kept and the failed page
// becomes the resume point. After a clean, unfiltered download the result
// is written to the snapshot cache and mirrored through the bridge before
// the loader leaves the busy state; neither failure is returned.
func (l *Loader) LoadAllPages(ctx context.Context, query string) error {
	started := false
	l.mutateIf(func(s *State) bool {
		if s.IsFetching || s.IsDownloadingAll {
			return false
		}
		*s = idleState()
		s.CurrentQuery = query
		s.IsDownloadingAll = true
		s.IsFetching = true
		s.IsLoading = true
		started = true
		return true
	})
	if !started {
		return nil
	}

	log := l.logger.With().Str("query", query).Logger()
	log.Info().Msg("Downloading full catalog")

	var (
		fetched int
		page    = 1
		err     error
	)
	for {
		var result catalog.Page
		result, err = l.fetcher.FetchPage(ctx, page, query)
		if err != nil || result.Empty() {
			break
		}
		fetched++
		current := page
		l.mutate(func(s *State) {
			s.Entries = append(s.Entries, result.Entries...)
			s.CurrentPage = current + 1
			s.DownloadProgress = math.Min(1, float64(fetched)*constants.ProgressStep)
		})
		l.hooks.pageLoaded(current, catalog.Snapshot(result.Entries).Clone())
		log.Debug().Int("page", current).Int("entries", len(result.Entries)).Msg("Merged catalog page")
		page++
	}

	// The download stays marked busy until it is persisted, so a second
	// download cannot start and overwrite it out of order.
	if err == nil && query == "" {
		l.persist(ctx, l.State().Entries)
	}

	l.mutate(func(s *State) {
		s.IsFetching = false
		s.IsLoading = false
		s.IsDownloadingAll = false
		s.DownloadProgress = 1
		if err != nil {
			s.Err = err
			return
		}
		s.CanLoadMore = false
	})

	if err != nil {
		log.Warn().Err(err).Int("page", page).Int("pages", fetched).Msg("Full catalog download stopped")
		l.hooks.failed(err)
		return err
	}

	log.Info().Int("pages", fetched).Msg("Full catalog downloaded")
	return nil
}

// persist stores a complete unfiltered download. Failures are logged only.
func (l *Loader) persist(ctx context.Context, entries []catalog.Entry) {
	if l.cache != nil {
		l.cache.Save(entries)
	}
	if l.bridge != nil {
		if err := l.bridge.ReplaceAll(ctx, entries); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to mirror catalog to local store")
		}
	}
}

// SearchLocally filters the resident entries by name without touching
// pagination. An empty query returns every entry.
func (l *Loader) SearchLocally(query string) []catalog.Entry {
	l.mu.Lock()
	entries := l.state.Entries
	l.mu.Unlock()
	return catalog.Filter(entries, query)
}

// ConvertToSavedRecord maps entry to the record stored when the user
// favorites it.
func (l *Loader) ConvertToSavedRecord(entry catalog.Entry) garden.SavedRecord {
	return garden.FromEntry(entry)
}

// mutate applies fn under the lock and notifies observers.
func (l *Loader) mutate(fn func(*State)) {
	l.mutateIf(func(s *State) bool {
		fn(s)
		return true
	})
}

// mutateIf applies fn under the lock and notifies observers only when fn
// reports a change. The state is copied only when someone is listening.
func (l *Loader) mutateIf(fn func(*State) bool) {
	notify := l.hooks.observingState()

	l.mu.Lock()
	changed := fn(&l.state)
	var snapshot State
	if changed && notify {
		snapshot = l.state.clone()
	}
	l.mu.Unlock()

	if changed && notify {
		l.hooks.stateChanged(snapshot)
	}
}
