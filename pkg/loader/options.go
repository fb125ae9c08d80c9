package loader

import (
	"github.com/rs/zerolog"
)

// Option configures a Loader.
type Option func(*Loader)

// WithSnapshotCache sets the cache read by Initialize and written after a
// complete unfiltered download.
func WithSnapshotCache(cache SnapshotCache) Option {
	return func(l *Loader) {
		l.cache = cache
	}
}

// WithBridge sets the Persistence Bridge that mirrors a complete
// unfiltered download into the Local Store.
func WithBridge(bridge Bridge) Option {
	return func(l *Loader) {
		l.bridge = bridge
	}
}

// WithLogger sets the loader logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}
