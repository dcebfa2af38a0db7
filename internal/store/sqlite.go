package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dgallion1/reportforge/internal/compose"
)

// SQLite is a persistent artifact registry backed by a local database file.
// It holds the artifacts uploaded through the service API.
type SQLite struct {
	db   *sql.DB
	path string
}

// OpenSQLite creates or opens the registry at path.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLite{db: db, path: path}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) initSchema() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		return err
	}
	schema := `
	CREATE TABLE IF NOT EXISTS table_artifacts (
		name       TEXT PRIMARY KEY,
		markup     TEXT NOT NULL,
		has_chart  INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chart_artifacts (
		name       TEXT PRIMARY KEY,
		image      TEXT NOT NULL,
		data       BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// PutTable stores or replaces a table artifact.
func (s *SQLite) PutTable(ctx context.Context, name string, a compose.TableArtifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO table_artifacts (name, markup, has_chart, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			markup = excluded.markup,
			has_chart = excluded.has_chart,
			updated_at = excluded.updated_at`,
		name, a.Markup, boolToInt(a.HasChart), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put table %q: %w", name, err)
	}
	return nil
}

// PutChart stores or replaces a chart artifact.
func (s *SQLite) PutChart(ctx context.Context, name string, a compose.ChartArtifact) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chart_artifacts (name, image, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			image = excluded.image,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		name, a.Image, a.Data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put chart %q: %w", name, err)
	}
	return nil
}

// FetchTable implements Source.
func (s *SQLite) FetchTable(ctx context.Context, name string) (compose.TableArtifact, error) {
	var a compose.TableArtifact
	var hasChart int
	err := s.db.QueryRowContext(ctx,
		`SELECT markup, has_chart FROM table_artifacts WHERE name = ?`, name).
		Scan(&a.Markup, &hasChart)
	if errors.Is(err, sql.ErrNoRows) {
		return compose.TableArtifact{}, &compose.NotFoundError{Kind: compose.KindTable, Name: name}
	}
	if err != nil {
		return compose.TableArtifact{}, fmt.Errorf("fetch table %q: %w", name, err)
	}
	a.HasChart = hasChart != 0
	return a, nil
}

// FetchChart implements Source.
func (s *SQLite) FetchChart(ctx context.Context, name string) (compose.ChartArtifact, error) {
	var a compose.ChartArtifact
	err := s.db.QueryRowContext(ctx,
		`SELECT image, data FROM chart_artifacts WHERE name = ?`, name).
		Scan(&a.Image, &a.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return compose.ChartArtifact{}, &compose.NotFoundError{Kind: compose.KindChart, Name: name}
	}
	if err != nil {
		return compose.ChartArtifact{}, fmt.Errorf("fetch chart %q: %w", name, err)
	}
	return a, nil
}

// DeleteTable removes a table artifact. Unknown names fail with NotFound.
func (s *SQLite) DeleteTable(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM table_artifacts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete table %q: %w", name, err)
	}
	return deletedOrNotFound(res, compose.KindTable, name)
}

// DeleteChart removes a chart artifact. Unknown names fail with NotFound.
func (s *SQLite) DeleteChart(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chart_artifacts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete chart %q: %w", name, err)
	}
	return deletedOrNotFound(res, compose.KindChart, name)
}

// List returns all registered artifacts sorted by kind then name.
func (s *SQLite) List(ctx context.Context) ([]ArtifactInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, has_chart, updated_at FROM table_artifacts`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var infos []ArtifactInfo
	for rows.Next() {
		var info ArtifactInfo
		var hasChart int
		var updated string
		if err := rows.Scan(&info.Name, &hasChart, &updated); err != nil {
			return nil, fmt.Errorf("scan table row: %w", err)
		}
		info.Kind = compose.KindTable
		info.HasChart = hasChart != 0
		info.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	chartRows, err := s.db.QueryContext(ctx,
		`SELECT name, updated_at FROM chart_artifacts`)
	if err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}
	defer chartRows.Close()

	for chartRows.Next() {
		var info ArtifactInfo
		var updated string
		if err := chartRows.Scan(&info.Name, &updated); err != nil {
			return nil, fmt.Errorf("scan chart row: %w", err)
		}
		info.Kind = compose.KindChart
		info.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
		infos = append(infos, info)
	}
	if err := chartRows.Err(); err != nil {
		return nil, fmt.Errorf("list charts: %w", err)
	}

	sortInfos(infos)
	return infos, nil
}

// Counts returns the number of stored tables and charts.
func (s *SQLite) Counts(ctx context.Context) (tables, charts int, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM table_artifacts`).Scan(&tables); err != nil {
		return 0, 0, fmt.Errorf("count tables: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chart_artifacts`).Scan(&charts); err != nil {
		return 0, 0, fmt.Errorf("count charts: %w", err)
	}
	return tables, charts, nil
}

func deletedOrNotFound(res sql.Result, kind compose.ArtifactKind, name string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &compose.NotFoundError{Kind: kind, Name: name}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
