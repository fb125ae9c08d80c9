// Package mirror persists a complete catalog download into the Local
// Store so it can be browsed and favorited without the network.
package mirror

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agentstation/plantmap/pkg/catalog"
	"github.com/agentstation/plantmap/pkg/errors"
	"github.com/agentstation/plantmap/pkg/logging"
	"github.com/agentstation/plantmap/pkg/store"
)

// Record is the stored form of one mirrored entry. Position is the
// entry's index in the download, so duplicate IDs are kept.
type Record struct {
	Position       int      `json:"position"`
	ID             int      `json:"id"`
	CommonName     string   `json:"common_name,omitempty"`
	ScientificName []string `json:"scientific_name,omitempty"`
	Watering       string   `json:"watering,omitempty"`
	ImageURL       string   `json:"image_url,omitempty"`
}

func newRecord(position int, e catalog.Entry) Record {
	return Record{
		Position:       position,
		ID:             e.ID,
		CommonName:     e.CommonName,
		ScientificName: e.ScientificName,
		Watering:       e.Watering,
		ImageURL:       e.ImageURL,
	}
}

// Entry converts the record back to a catalog entry.
func (r Record) Entry() catalog.Entry {
	return catalog.Entry{
		ID:             r.ID,
		CommonName:     r.CommonName,
		ScientificName: r.ScientificName,
		Watering:       r.Watering,
		ImageURL:       r.ImageURL,
	}
}

// positionKey zero-pads so the store's key order is download order.
func positionKey(position int) string {
	return fmt.Sprintf("%08d", position)
}

// Bridge mirrors catalog snapshots into a store.
type Bridge struct {
	store  store.Store
	logger *zerolog.Logger
}

// New creates a bridge over s.
func New(s store.Store, logger *zerolog.Logger) *Bridge {
	return &Bridge{store: s, logger: logging.OrDefault(logger)}
}

// ReplaceAll swaps the mirror for entries in one transaction.
func (b *Bridge) ReplaceAll(ctx context.Context, entries []catalog.Entry) error {
	records := make([]store.Record, len(entries))
	for i, e := range entries {
		records[i] = store.Record{Key: positionKey(i), Value: newRecord(i, e)}
	}
	if err := b.store.ReplaceAll(ctx, store.KindCatalog, records); err != nil {
		return err
	}
	b.logger.Info().Int("entries", len(entries)).Msg("Mirrored catalog to local store")
	return nil
}

// Load returns the mirrored snapshot in download order.
func (b *Bridge) Load(ctx context.Context) (catalog.Snapshot, error) {
	records, err := store.FetchWhere[Record](ctx, b.store, store.KindCatalog, nil)
	if err != nil {
		return nil, err
	}
	snap := make(catalog.Snapshot, len(records))
	for i, r := range records {
		snap[i] = r.Entry()
	}
	return snap, nil
}

// Lookup returns the first mirrored entry with id.
func (b *Bridge) Lookup(ctx context.Context, id int) (catalog.Entry, error) {
	matches, err := store.FetchWhere(ctx, b.store, store.KindCatalog, func(r Record) bool {
		return r.ID == id
	})
	if err != nil {
		return catalog.Entry{}, err
	}
	if len(matches) == 0 {
		return catalog.Entry{}, errors.NewNotFoundError("plant", fmt.Sprint(id))
	}
	return matches[0].Entry(), nil
}

// Clear removes the mirror.
func (b *Bridge) Clear(ctx context.Context) error {
	return b.store.DeleteAll(ctx, store.KindCatalog)
}
