package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/agentstation/utc"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/agentstation/plantmap/pkg/constants"
	"github.com/agentstation/plantmap/pkg/errors"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS records (
	kind       TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      BLOB NOT NULL,
	updated_at TEXT NOT NULL,
	PRIMARY KEY (kind, key)
);`

// SQLiteStore implements Store on a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the SQLite database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=" + busyTimeoutMillis() + ";",
		sqliteSchema,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, errors.WrapResource("initialize", "sqlite", path, err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, kind Kind, key string, value any) error {
	if err := checkKey(ctx, kind, key); err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (kind, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(kind, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		string(kind), key, data, utc.Now().Format(time.RFC3339Nano))
	if err != nil {
		return errors.WrapResource("put", string(kind), key, err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, kind Kind, key string, dest any) error {
	if err := checkKey(ctx, kind, key); err != nil {
		return err
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM records WHERE kind = ? AND key = ?`, string(kind), key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return errors.NewNotFoundError(string(kind), key)
	}
	if err != nil {
		return errors.WrapResource("get", string(kind), key, err)
	}
	return Record{Key: key, Value: json.RawMessage(data)}.Decode(dest)
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, kind Kind, key string) error {
	if err := checkKey(ctx, kind, key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND key = ?`, string(kind), key); err != nil {
		return errors.WrapResource("delete", string(kind), key, err)
	}
	return nil
}

// DeleteAll implements Store.
func (s *SQLiteStore) DeleteAll(ctx context.Context, kind Kind) error {
	return s.ReplaceAll(ctx, kind, nil)
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, kind Kind) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validKind(kind); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM records WHERE kind = ? ORDER BY key`, string(kind))
	if err != nil {
		return nil, errors.WrapResource("list", string(kind), "", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var key string
		var data []byte
		if err := rows.Scan(&key, &data); err != nil {
			return nil, errors.WrapResource("scan", string(kind), "", err)
		}
		records = append(records, Record{Key: key, Value: json.RawMessage(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapResource("list", string(kind), "", err)
	}
	return records, nil
}

// ReplaceAll implements Store inside one BEGIN ... COMMIT.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, kind Kind, records []Record) (err error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("begin", string(kind), "", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
		return errors.WrapResource("replace", string(kind), "", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (kind, key, value, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.WrapResource("prepare", string(kind), "", err)
	}
	defer func() { _ = stmt.Close() }()

	now := utc.Now().Format(time.RFC3339Nano)
	for i, rec := range records {
		if _, err = stmt.ExecContext(ctx, string(kind), rec.Key, encoded[i], now); err != nil {
			return errors.WrapResource("replace", string(kind), rec.Key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.WrapResource("commit", string(kind), "", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func busyTimeoutMillis() string {
	return strconv.FormatInt(constants.StoreOpenTimeout.Milliseconds(), 10)
}
