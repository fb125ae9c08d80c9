package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
)

// BoltStore implements Store on a bbolt file with one bucket per kind.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the bbolt database at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	db, err := bolt.Open(path, constants.SecureFilePermissions, &bolt.Options{Timeout: constants.StoreOpenTimeout})
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, kind := range Kinds {
			if _, err := tx.CreateBucketIfNotExists([]byte(kind)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("create", "bucket", path, err)
	}

	return &BoltStore{db: db}, nil
}

// Put implements Store.
func (s *BoltStore) Put(ctx context.Context, kind Kind, key string, value any) error {
	if err := checkKey(ctx, kind, key); err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).Put([]byte(key), data)
	})
	if err != nil {
		return errors.WrapResource("put", string(kind), key, err)
	}
	return nil
}

// Get implements Store.
func (s *BoltStore) Get(ctx context.Context, kind Kind, key string, dest any) error {
	if err := checkKey(ctx, kind, key); err != nil {
		return err
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(kind)).Get([]byte(key)); v != nil {
			// bbolt values are only valid inside the transaction.
			data = bytes.Clone(v)
		}
		return nil
	})
	if err != nil {
		return errors.WrapResource("get", string(kind), key, err)
	}
	if data == nil {
		return errors.NewNotFoundError(string(kind), key)
	}
	return Record{Key: key, Value: data}.Decode(dest)
}

// Delete implements Store.
func (s *BoltStore) Delete(ctx context.Context, kind Kind, key string) error {
	if err := checkKey(ctx, kind, key); err != nil {
		return err
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).Delete([]byte(key))
	})
	if err != nil {
		return errors.WrapResource("delete", string(kind), key, err)
	}
	return nil
}

// DeleteAll implements Store.
func (s *BoltStore) DeleteAll(ctx context.Context, kind Kind) error {
	return s.ReplaceAll(ctx, kind, nil)
}

// List implements Store. bbolt iterates keys in byte order.
func (s *BoltStore) List(ctx context.Context, kind Kind) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validKind(kind); err != nil {
		return nil, err
	}

	var records []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(kind)).ForEach(func(k, v []byte) error {
			records = append(records, Record{Key: string(k), Value: json.RawMessage(bytes.Clone(v))})
			return nil
		})
	})
	if err != nil {
		return nil, errors.WrapResource("list", string(kind), "", err)
	}
	return records, nil
}

// ReplaceAll implements Store. The bucket is dropped and rebuilt inside a
// single Update, so a failure rolls back to the previous contents.
func (s *BoltStore) ReplaceAll(ctx context.Context, kind Kind, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validKind(kind); err != nil {
		return err
	}
	encoded, err := encodeAll(records)
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket([]byte(kind)); err != nil {
			return err
		}
		bucket, err := tx.CreateBucket([]byte(kind))
		if err != nil {
			return err
		}
		for i, rec := range records {
			if err := bucket.Put([]byte(rec.Key), encoded[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.WrapResource("replace", string(kind), "", err)
	}
	return nil
}

// Close implements Store.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
