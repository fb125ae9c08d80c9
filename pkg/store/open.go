package store

import (
	"path/filepath"

	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
)

// Driver names a storage backend.
type Driver string

// Supported drivers.
const (
	DriverBolt   Driver = "bolt"
	DriverSQLite Driver = "sqlite"
)

// Config selects and locates a backend. When Path is empty the backend's
// default file name under Dir is used.
type Config struct {
	Driver Driver
	Dir    string
	Path   string
}

// Open returns the backend named by cfg.Driver. An empty driver means bolt.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverBolt, "":
		return OpenBolt(cfg.path(constants.BoltFileName))
	case DriverSQLite:
		return OpenSQLite(cfg.path(constants.SQLiteFileName))
	default:
		return nil, errors.NewConfigError("store", "unsupported driver "+string(cfg.Driver), nil)
	}
}

func (c Config) path(defaultName string) string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(c.Dir, defaultName)
}
