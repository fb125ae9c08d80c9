// Package constants provides shared constants used throughout the plantmap codebase.
// This includes timeouts, file permissions, remote endpoints and the fixed
// policy values of the catalog loader.
package constants

import "time"

// Timeout constants
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to remote services
	DefaultHTTPTimeout = 30 * time.Second

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// ShutdownTimeout bounds graceful shutdown, including pending snapshot writes
	ShutdownTimeout = 5 * time.Second

	// StoreOpenTimeout is how long to wait for the bolt file lock
	StoreOpenTimeout = 1 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for database files (rw-------)
	SecureFilePermissions = 0600
)

// Catalog loader policy
const (
	// LookAheadDistance is how close to the end of the loaded entries a
	// visible entry must be before the next page is requested.
	LookAheadDistance = 5

	// ProgressStep is the progress credited per downloaded page during a
	// full catalog download. The total page count is unknown up front.
	ProgressStep = 0.01

	// DefaultWateringIntervalDays applies to unknown watering labels
	DefaultWateringIntervalDays = 5

	// UnknownPlantName is shown when an entry carries no common name
	UnknownPlantName = "Unknown"
)

// Cache constants
const (
	// DetailCacheTTL is how long plant details stay in memory
	DetailCacheTTL = 1 * time.Hour

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute

	// TokenExpirySkew is subtracted from token lifetimes so a token is
	// refreshed before the server rejects it
	TokenExpirySkew = 30 * time.Second
)

// Remote endpoints
const (
	// PerenualBaseURL is the Perenual species API
	PerenualBaseURL = "https://perenual.com/api"

	// PlantbookBaseURL is the Open Plantbook API
	PlantbookBaseURL = "https://open.plantbook.io/api/v1"
)

// Path constants
const (
	// DefaultDataDir holds the snapshot file and the local store
	DefaultDataDir = "~/.plantmap"

	// SnapshotFileName is the single-blob catalog snapshot
	SnapshotFileName = "plants.json"

	// BoltFileName is the bbolt store file
	BoltFileName = "plantmap.db"

	// SQLiteFileName is the SQLite store file
	SQLiteFileName = "plantmap.sqlite"
)

// Format constants
const (
	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatDate is used in schedules
	TimeFormatDate = "2006-01-02"
)
