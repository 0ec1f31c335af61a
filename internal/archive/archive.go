// Package archive keeps fgmax results in a SQLite database so runs can be
// listed and compared after the solver output directory is gone. Each
// recorded run gets a UUID and one row per monitoring point.
package archive

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/fgmax/internal/fgmax"
	"github.com/banshee-data/fgmax/internal/monitoring"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("fgmax run not found")

// Archive is an open results database.
type Archive struct {
	*sql.DB
	now func() time.Time
}

// Open opens or creates the database at path. Call MigrateUp before use.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single connection so the pragmas hold for every statement.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure archive %s: %w", path, err)
	}
	return &Archive{DB: db, now: time.Now}, nil
}

// MigrateUp applies every pending schema migration.
func (a *Archive) MigrateUp() error {
	m, err := a.newMigrate()
	if err != nil {
		return err
	}
	// m is not closed since that would close the shared connection.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the applied schema version, 0 when none is.
func (a *Archive) MigrateVersion() (version uint, dirty bool, err error) {
	m, err := a.newMigrate()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (a *Archive) newMigrate() (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(a.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}
	return m, nil
}

// migrateLogger implements migrate.Logger interface
type migrateLogger struct{}

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	monitoring.Logf("[migrate] "+format, v...)
}

func (l *migrateLogger) Verbose() bool {
	return false
}

// Run is one recorded results file.
type Run struct {
	ID          string
	FGNo        int
	Label       string
	PointStyle  fgmax.PointStyle
	ResultsPath string
	OutDir      string
	Columns     int
	Shape       fgmax.Shape
	Indexing    string
	RecordedAt  time.Time
}

// RecordRun stores g's results and returns the new run ID. All rows are
// written in one transaction.
func (a *Archive) RecordRun(g *fgmax.Grid, res *fgmax.Results, outdir string) (string, error) {
	style, err := g.PointStyle()
	if err != nil {
		return "", err
	}
	if res == nil {
		return "", fmt.Errorf("fgno = %d: no results to record", g.ID)
	}

	id := uuid.NewString()
	tx, err := a.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	recorded := float64(a.now().UnixNano()) / 1e9
	_, err = tx.Exec(`
		INSERT INTO fgmax_runs (run_id, fgno, label, point_style, results_path, outdir,
			num_columns, shape_rows, shape_cols, indexing, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, g.ID, g.Label, int(style), res.Path, outdir,
		res.Columns, res.Shape.Rows, res.Shape.Cols, res.Indexing.String(), recorded)
	if err != nil {
		return "", fmt.Errorf("failed to insert fgmax run: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO fgmax_points (run_id, i, j, x, y, masked,
			level, b, h, h_time, s, s_time, arrival_time, dz, b0)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare point insert: %w", err)
	}
	defer stmt.Close()

	for i := 0; i < res.Shape.Rows; i++ {
		for j := 0; j < res.Shape.Cols; j++ {
			_, err := stmt.Exec(id, i, j, res.X.At(i, j), res.Y.At(i, j), res.Mask.At(i, j),
				value(res.Level, i, j), value(res.B, i, j), value(res.H, i, j), value(res.HTime, i, j),
				value(res.S, i, j), value(res.STime, i, j), value(res.Arrival, i, j),
				value(res.DZ, i, j), value(res.B0, i, j))
			if err != nil {
				return "", fmt.Errorf("failed to insert point (%d, %d): %w", i, j, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit fgmax run: %w", err)
	}
	return id, nil
}

// value is NULL for absent quantities and masked points.
func value(f *fgmax.Field, i, j int) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	v, ok := f.At(i, j)
	return sql.NullFloat64{Float64: v, Valid: ok}
}

// Runs lists recorded runs, oldest first.
func (a *Archive) Runs() ([]Run, error) {
	rows, err := a.Query(`
		SELECT run_id, fgno, COALESCE(label, ''), point_style, results_path, COALESCE(outdir, ''),
			num_columns, shape_rows, shape_cols, indexing, recorded_at
		FROM fgmax_runs
		ORDER BY recorded_at, fgno`)
	if err != nil {
		return nil, fmt.Errorf("failed to list fgmax runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r        Run
		style    int
		recorded float64
	)
	err := s.Scan(&r.ID, &r.FGNo, &r.Label, &style, &r.ResultsPath, &r.OutDir,
		&r.Columns, &r.Shape.Rows, &r.Shape.Cols, &r.Indexing, &recorded)
	if err != nil {
		return Run{}, err
	}
	r.PointStyle = fgmax.PointStyle(style)
	r.Shape.Flat = r.PointStyle == fgmax.StyleList || r.PointStyle == fgmax.StyleTransect
	sec, frac := math.Modf(recorded)
	r.RecordedAt = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	return r, nil
}

// RunSummary aggregates one run over its unmasked points. Extremes over an
// empty set are NaN.
type RunSummary struct {
	Run
	Points          int
	Wet             int
	MaxDepth        float64
	MeanDepth       float64
	MaxSpeed        float64
	EarliestArrival float64
}

// RunSummary computes the summary of run id.
func (a *Archive) RunSummary(id string) (RunSummary, error) {
	row := a.QueryRow(`
		SELECT run_id, fgno, COALESCE(label, ''), point_style, results_path, COALESCE(outdir, ''),
			num_columns, shape_rows, shape_cols, indexing, recorded_at
		FROM fgmax_runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunSummary{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to read fgmax run: %w", err)
	}

	sum := RunSummary{Run: run}
	var maxDepth, meanDepth, maxSpeed, arrival sql.NullFloat64
	err = a.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN masked = 0 THEN 1 ELSE 0 END), 0),
			MAX(h), AVG(h), MAX(s), MIN(arrival_time)
		FROM fgmax_points WHERE run_id = ?`, id).
		Scan(&sum.Points, &sum.Wet, &maxDepth, &meanDepth, &maxSpeed, &arrival)
	if err != nil {
		return RunSummary{}, fmt.Errorf("failed to summarise fgmax run: %w", err)
	}
	sum.MaxDepth = orNaN(maxDepth)
	sum.MeanDepth = orNaN(meanDepth)
	sum.MaxSpeed = orNaN(maxSpeed)
	sum.EarliestArrival = orNaN(arrival)
	return sum, nil
}

func orNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

// DeleteRun removes a run and its points.
func (a *Archive) DeleteRun(id string) error {
	res, err := a.Exec(`DELETE FROM fgmax_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete fgmax run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
