// Package store is the durable key-value layer behind favorites, the
// catalog mirror and cached plant details. Values are JSON encoded and
// grouped by Kind; each backend keeps one namespace per kind.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agentstation/plantmap/pkg/errors"
)

// Kind names a record namespace.
type Kind string

// Record kinds.
const (
	KindFavorite Kind = "favorite"
	KindCatalog  Kind = "catalog"
	KindDetail   Kind = "detail"
)

// Kinds lists every kind a backend must provision.
var Kinds = []Kind{KindFavorite, KindCatalog, KindDetail}

// Record is one keyed value. Value holds anything json.Marshal accepts
// when writing; records returned by List carry a json.RawMessage.
type Record struct {
	Key   string
	Value any
}

// Decode unmarshals the record value into dest.
func (r Record) Decode(dest any) error {
	data, err := encode(r.Value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.WrapParse("json", r.Key, err)
	}
	return nil
}

// Store is implemented by every backend. Implementations are safe for
// concurrent use.
type Store interface {
	// Put inserts or replaces the value under kind/key.
	Put(ctx context.Context, kind Kind, key string, value any) error
	// Get decodes the value under kind/key into dest and returns an
	// *errors.NotFoundError when absent.
	Get(ctx context.Context, kind Kind, key string, dest any) error
	// Delete removes kind/key. Deleting a missing key is not an error.
	Delete(ctx context.Context, kind Kind, key string) error
	// DeleteAll removes every record of kind.
	DeleteAll(ctx context.Context, kind Kind) error
	// List returns every record of kind in key order.
	List(ctx context.Context, kind Kind) ([]Record, error)
	// ReplaceAll swaps the whole kind for records in one transaction.
	// On failure the previous records are untouched.
	ReplaceAll(ctx context.Context, kind Kind, records []Record) error
	// Close releases the backend.
	Close() error
}

// FetchWhere decodes every record of kind into T and keeps those pred
// accepts. A nil pred keeps everything.
func FetchWhere[T any](ctx context.Context, s Store, kind Kind, pred func(T) bool) ([]T, error) {
	records, err := s.List(ctx, kind)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(records))
	for _, rec := range records {
		var item T
		if err := rec.Decode(&item); err != nil {
			return nil, err
		}
		if pred == nil || pred(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

func encode(value any) ([]byte, error) {
	switch v := value.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.WrapParse("json", "record", err)
	}
	return data, nil
}

// encodeAll encodes records up front so a bad value fails before any
// write happens.
func encodeAll(records []Record) ([][]byte, error) {
	out := make([][]byte, len(records))
	for i, rec := range records {
		if rec.Key == "" {
			return nil, errors.NewValidationError("key", rec.Key, fmt.Sprintf("record %d has an empty key", i))
		}
		data, err := encode(rec.Value)
		if err != nil {
			return nil, err
		}
		out[i] = data
	}
	return out, nil
}

func validKind(kind Kind) error {
	for _, k := range Kinds {
		if k == kind {
			return nil
		}
	}
	return errors.NewValidationError("kind", string(kind), "unknown record kind")
}

func checkKey(ctx context.Context, kind Kind, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKind(kind); err != nil {
		return err
	}
	if key == "" {
		return errors.NewValidationError("key", key, "cannot be empty")
	}
	return nil
}
