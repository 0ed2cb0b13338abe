// Package routestore persists a built route's artifacts (the ways_ordered.json,
// stops.json and route.geojson payloads plus the total length; maneuvers are
// not stored) in a local sqlite cache keyed by relation id, the same database/sql +
// mattn/go-sqlite3 pattern and embedded-migrations-slice approach the
// teacher's storage layer used for its GTFS cache.
package routestore

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		relation_id TEXT PRIMARY KEY,
		ways_ordered_json BLOB NOT NULL,
		stops_json BLOB NOT NULL,
		route_geojson BLOB NOT NULL,
		total_length_m REAL NOT NULL,
		built_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_built_at ON routes(built_at)`,
}

// Store is a sqlite-backed cache of built route artifacts.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the sqlite database at path and applies
// pending migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("routestore: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for i, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("routestore: migration %d: %w", i, err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record is a cached route's persisted artifacts.
type Record struct {
	RelationID      string
	WaysOrderedJSON []byte
	StopsJSON       []byte
	RouteGeoJSON    []byte
	TotalLengthM    float64
	BuiltAt         int64
}

// Put upserts a built route's artifacts.
func (s *Store) Put(ctx context.Context, rec Record) error {
	const q = `
		INSERT INTO routes (relation_id, ways_ordered_json, stops_json, route_geojson, total_length_m, built_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(relation_id) DO UPDATE SET
			ways_ordered_json = excluded.ways_ordered_json,
			stops_json = excluded.stops_json,
			route_geojson = excluded.route_geojson,
			total_length_m = excluded.total_length_m,
			built_at = excluded.built_at`
	_, err := s.db.ExecContext(ctx, q, rec.RelationID, rec.WaysOrderedJSON, rec.StopsJSON, rec.RouteGeoJSON, rec.TotalLengthM, rec.BuiltAt)
	if err != nil {
		return fmt.Errorf("routestore: put %s: %w", rec.RelationID, err)
	}
	return nil
}

// Get retrieves a cached route's artifacts by relation id. ok is false if
// no record is cached.
func (s *Store) Get(ctx context.Context, relationID string) (Record, bool, error) {
	const q = `
		SELECT relation_id, ways_ordered_json, stops_json, route_geojson, total_length_m, built_at
		FROM routes WHERE relation_id = ?`
	row := s.db.QueryRowContext(ctx, q, relationID)

	var rec Record
	err := row.Scan(&rec.RelationID, &rec.WaysOrderedJSON, &rec.StopsJSON, &rec.RouteGeoJSON, &rec.TotalLengthM, &rec.BuiltAt)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("routestore: get %s: %w", relationID, err)
	}
	return rec, true, nil
}

// Delete removes a cached route's artifacts, if present.
func (s *Store) Delete(ctx context.Context, relationID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM routes WHERE relation_id = ?`, relationID)
	if err != nil {
		return fmt.Errorf("routestore: delete %s: %w", relationID, err)
	}
	return nil
}
