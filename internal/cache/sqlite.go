package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// SQLiteCache persists step results on disk so that a later run can resume a
// partially completed graph. One row is kept per step name; a row whose
// fingerprint no longer matches is stale and gets replaced on the next
// successful execution of that step.
type SQLiteCache struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS step_results (
	step_name   TEXT PRIMARY KEY,
	fingerprint TEXT NOT NULL,
	type_json   TEXT NOT NULL,
	value_json  TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// OpenSQLite opens (creating if needed) a result database at the given path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening result cache %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing result cache schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Has implements Cache.
func (c *SQLiteCache) Has(ctx context.Context, key Key) (bool, error) {
	var fp string
	err := c.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM step_results WHERE step_name = ?`, key.Step).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying result cache for step %q: %w", key.Step, err)
	}
	return fp == key.Fingerprint, nil
}

// Get implements Cache.
func (c *SQLiteCache) Get(ctx context.Context, key Key) (cty.Value, bool, error) {
	var fp, typeJSON, valueJSON string
	err := c.db.QueryRowContext(ctx,
		`SELECT fingerprint, type_json, value_json FROM step_results WHERE step_name = ?`, key.Step).
		Scan(&fp, &typeJSON, &valueJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return cty.NilVal, false, nil
	}
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("querying result cache for step %q: %w", key.Step, err)
	}
	if fp != key.Fingerprint {
		return cty.NilVal, false, nil
	}

	ty, err := ctyjson.UnmarshalType([]byte(typeJSON))
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("decoding cached result type for step %q: %w", key.Step, err)
	}
	val, err := ctyjson.Unmarshal([]byte(valueJSON), ty)
	if err != nil {
		return cty.NilVal, false, fmt.Errorf("decoding cached result for step %q: %w", key.Step, err)
	}
	return val, true, nil
}

// Put implements Cache. A row with the same fingerprint must not be
// overwritten; a row with a different (stale) fingerprint is replaced.
func (c *SQLiteCache) Put(ctx context.Context, key Key, value cty.Value) error {
	ty := value.Type()
	typeJSON, err := ctyjson.MarshalType(ty)
	if err != nil {
		return fmt.Errorf("encoding result type for step %q: %w", key.Step, err)
	}
	valueJSON, err := ctyjson.Marshal(value, ty)
	if err != nil {
		return fmt.Errorf("encoding result for step %q: %w", key.Step, err)
	}

	var existing string
	err = c.db.QueryRowContext(ctx,
		`SELECT fingerprint FROM step_results WHERE step_name = ?`, key.Step).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("querying result cache for step %q: %w", key.Step, err)
	}
	if err == nil && existing == key.Fingerprint {
		return fmt.Errorf("step %q is already cached for fingerprint %s, will not overwrite", key.Step, key.Fingerprint)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO step_results (step_name, fingerprint, type_json, value_json)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(step_name) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			type_json   = excluded.type_json,
			value_json  = excluded.value_json,
			created_at  = CURRENT_TIMESTAMP
	`, key.Step, key.Fingerprint, string(typeJSON), string(valueJSON))
	if err != nil {
		return fmt.Errorf("storing result for step %q: %w", key.Step, err)
	}
	return nil
}
