// Package store persists triangulation run results to sqlite. Grounded on
// the teacher's database-handle-plus-embedded-migrations pattern
// (internal/db/db.go, internal/db/migrate.go in
// banshee-data/velocity.report), adapted from LiDAR track storage to
// triangulation run records; run identifiers follow the teacher's
// google/uuid usage in internal/lidar/sweep/runner.go.
package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/rfloc/internal/timeutil"
	"github.com/banshee-data/rfloc/internal/triangulate"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sqlite connection holding triangulation run history.
type DB struct {
	conn  *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if necessary) the sqlite database at path and
// applies any pending migrations.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening database: %w", err)
	}

	if err := migrateUp(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn, clock: timeutil.RealClock{}}, nil
}

func migrateUp(conn *sql.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("store: loading embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("store: creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("store: creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("store: applying migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	return d.conn.Close()
}

// Run is a persisted triangulation run: its outcome, telemetry, and the
// parameter values it was computed with.
type Run struct {
	ID        string
	CreatedAt int64
	Result    triangulate.Result
	Params    map[string]any
}

// SaveRun inserts a new run record, generating its id.
func (d *DB) SaveRun(result triangulate.Result, paramSnapshot map[string]any) (string, error) {
	id := uuid.New().String()
	paramsJSON, err := json.Marshal(paramSnapshot)
	if err != nil {
		return "", fmt.Errorf("store: marshaling parameter snapshot: %w", err)
	}

	_, err = d.conn.Exec(
		`INSERT INTO runs (id, created_at, latitude, longitude, clusters_found, combinations, seed_timeouts, position_timed_out, params_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		d.clock.Now().Unix(),
		result.Latitude,
		result.Longitude,
		result.Telemetry.ClustersFound,
		result.Telemetry.CombinationsExplored,
		result.Telemetry.SeedTimeouts,
		boolToInt(result.Telemetry.PositionSearchTimedOut),
		string(paramsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("store: inserting run: %w", err)
	}
	return id, nil
}

// GetRun retrieves a previously saved run by id.
func (d *DB) GetRun(id string) (Run, error) {
	var run Run
	var paramsJSON string
	var timedOut int

	row := d.conn.QueryRow(
		`SELECT id, created_at, latitude, longitude, clusters_found, combinations, seed_timeouts, position_timed_out, params_json
		 FROM runs WHERE id = ?`, id)

	if err := row.Scan(&run.ID, &run.CreatedAt, &run.Result.Latitude, &run.Result.Longitude,
		&run.Result.Telemetry.ClustersFound, &run.Result.Telemetry.CombinationsExplored,
		&run.Result.Telemetry.SeedTimeouts, &timedOut, &paramsJSON); err != nil {
		return Run{}, fmt.Errorf("store: fetching run %s: %w", id, err)
	}
	run.Result.Telemetry.PositionSearchTimedOut = timedOut != 0

	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return Run{}, fmt.Errorf("store: decoding parameter snapshot for run %s: %w", id, err)
	}

	return run, nil
}

// ListRuns returns the most recently created runs, newest first, up to
// limit.
func (d *DB) ListRuns(limit int) ([]Run, error) {
	rows, err := d.conn.Query(
		`SELECT id, created_at, latitude, longitude, clusters_found, combinations, seed_timeouts, position_timed_out, params_json
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var paramsJSON string
		var timedOut int
		if err := rows.Scan(&run.ID, &run.CreatedAt, &run.Result.Latitude, &run.Result.Longitude,
			&run.Result.Telemetry.ClustersFound, &run.Result.Telemetry.CombinationsExplored,
			&run.Result.Telemetry.SeedTimeouts, &timedOut, &paramsJSON); err != nil {
			return nil, fmt.Errorf("store: scanning run: %w", err)
		}
		run.Result.Telemetry.PositionSearchTimedOut = timedOut != 0
		if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
			return nil, fmt.Errorf("store: decoding parameter snapshot for run %s: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
