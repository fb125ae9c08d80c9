// Package snapshot stores the fully downloaded catalog as a single JSON
// file. Saves are asynchronous and atomic; a missing or corrupt file is
// reported as "no cache", never as an error.
package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
)

// Cache is the local snapshot cache.
type Cache struct {
	path   string
	logger *zerolog.Logger

	// writeMu serialises writers so two saves never race on the rename.
	writeMu sync.Mutex
	pending sync.WaitGroup

	// seq numbers saves in call order; written is the newest one on disk
	// or discarded by Clear. Guarded by writeMu.
	seq     atomic.Uint64
	written uint64
}

// New returns a cache stored at dir/plants.json.
func New(dir string, logger *zerolog.Logger) *Cache {
	return &Cache{
		path:   filepath.Join(dir, constants.SnapshotFileName),
		logger: logging.OrDefault(logger),
	}
}

// Path returns the snapshot file location.
func (c *Cache) Path() string {
	return c.path
}

// Exists reports whether a snapshot file is present.
func (c *Cache) Exists() bool {
	info, err := os.Stat(c.path)
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Load reads the snapshot. It returns false when the file is missing,
// unreadable, corrupt or empty.
func (c *Cache) Load() (catalog.Snapshot, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.Warn().Err(err).Str("path", c.path).Msg("Snapshot unreadable, ignoring cache")
		}
		return nil, false
	}

	var snap catalog.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		c.logger.Warn().Err(err).Str("path", c.path).Msg("Snapshot corrupt, ignoring cache")
		return nil, false
	}
	if len(snap) == 0 {
		return nil, false
	}

	c.logger.Debug().Int("entries", len(snap)).Msg("Loaded catalog snapshot")
	return snap, true
}

// Save writes snapshot in the background and returns immediately.
// Failures are logged and otherwise swallowed. When saves overlap, the
// last call wins regardless of which goroutine finishes first.
func (c *Cache) Save(snap catalog.Snapshot) {
	copied := snap.Clone()
	gen := c.seq.Add(1)
	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		wrote, err := c.commit(gen, copied)
		switch {
		case err != nil:
			c.logger.Warn().Err(err).Str("path", c.path).Msg("Failed to save catalog snapshot")
		case !wrote:
			c.logger.Debug().Uint64("save", gen).Msg("Skipped superseded catalog snapshot")
		default:
			c.logger.Debug().Int("entries", len(copied)).Str("path", c.path).Msg("Saved catalog snapshot")
		}
	}()
}

// Wait blocks until every pending Save has finished.
func (c *Cache) Wait() {
	c.pending.Wait()
}

// Clear removes the snapshot file. Saves requested before Clear that have
// not been written yet are dropped.
func (c *Cache) Clear() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.written = c.seq.Load()
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("delete", c.path, err)
	}
	return nil
}

// commit writes snap unless a later save or a Clear already superseded
// gen. It reports whether the file was written.
func (c *Cache) commit(gen uint64, snap catalog.Snapshot) (bool, error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if gen <= c.written {
		return false, nil
	}
	if err := c.write(snap); err != nil {
		return false, err
	}
	c.written = gen
	return true, nil
}

// write encodes snap to a temp file in the target directory and renames
// it over the snapshot, so readers see either the old or the new file.
// Callers hold writeMu.
func (c *Cache) write(snap catalog.Snapshot) error {
	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return errors.WrapParse("json", c.path, err)
	}

	tempFile, err := os.CreateTemp(dir, "plants_*.json.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("write", tempPath, err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return errors.WrapIO("sync", tempPath, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("close", tempPath, err)
	}
	if err := os.Chmod(tempPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("chmod", tempPath, err)
	}

	if err := os.Rename(tempPath, c.path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("move", c.path, err)
	}
	return nil
}
