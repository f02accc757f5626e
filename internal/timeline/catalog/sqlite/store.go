// Package sqlite provides a SQLite-backed timeline catalog.
//
// The compiler only writes the catalog. Overlay tooling reads it back through
// GetTimeline and ListTimelines to find compiled timelines by zone key.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/raidboss-timelines/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/catalog"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/catalog/sqlite/migrations"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
	_ "modernc.org/sqlite"
)

// Store persists catalog snapshots in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ catalog.Store = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite catalog and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// ReplaceSnapshot swaps the stored snapshot in one transaction.
func (s *Store) ReplaceSnapshot(ctx context.Context, snapshot catalog.Snapshot) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	compiledAt := snapshot.CompiledAt
	if compiledAt.IsZero() {
		compiledAt = time.Now()
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"timelines", "zone_names", "compile_runs"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for _, timeline := range snapshot.Timelines {
		zoneKey := strings.TrimSpace(timeline.ZoneKey)
		if zoneKey == "" {
			zoneKey = timeline.Zone.Key()
		}
		if zoneKey == "" {
			return fmt.Errorf("zone key is required for %s", timeline.Path)
		}
		zoneJSON, err := json.Marshal(timeline.Zone)
		if err != nil {
			return fmt.Errorf("encode zone %s: %w", zoneKey, err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO timelines (
			   zone_key,
			   zone_json,
			   path,
			   descriptor_path,
			   event_count,
			   sync_count
			 ) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(zone_key) DO UPDATE SET
			   zone_json = excluded.zone_json,
			   path = excluded.path,
			   descriptor_path = excluded.descriptor_path,
			   event_count = excluded.event_count,
			   sync_count = excluded.sync_count`,
			zoneKey,
			string(zoneJSON),
			timeline.Path,
			timeline.DescriptorPath,
			timeline.EventCount,
			timeline.SyncCount,
		); err != nil {
			return fmt.Errorf("insert timeline %s: %w", zoneKey, err)
		}
	}

	for _, name := range snapshot.ZoneNames {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO zone_names (zone_id, name) VALUES (?, ?)
			 ON CONFLICT(zone_id) DO UPDATE SET name = excluded.name`,
			int64(name.ID),
			name.Name,
		); err != nil {
			return fmt.Errorf("insert zone name %d: %w", name.ID, err)
		}
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO compile_runs (id, compiled_at, timeline_count) VALUES (1, ?, ?)`,
		toMillis(compiledAt),
		len(snapshot.Timelines),
	); err != nil {
		return fmt.Errorf("record compile run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// GetTimeline returns the timeline stored for zoneKey.
func (s *Store) GetTimeline(ctx context.Context, zoneKey string) (catalog.Timeline, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Timeline{}, err
	}
	if s == nil || s.sqlDB == nil {
		return catalog.Timeline{}, fmt.Errorf("storage is not configured")
	}
	zoneKey = strings.TrimSpace(zoneKey)
	if zoneKey == "" {
		return catalog.Timeline{}, fmt.Errorf("zone key is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT zone_key, zone_json, path, descriptor_path, event_count, sync_count
		 FROM timelines
		 WHERE zone_key = ?`,
		zoneKey,
	)
	timeline, err := scanTimeline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Timeline{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Timeline{}, fmt.Errorf("get timeline %s: %w", zoneKey, err)
	}
	return timeline, nil
}

// ListTimelines returns every stored timeline ordered by output path.
func (s *Store) ListTimelines(ctx context.Context) ([]catalog.Timeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT zone_key, zone_json, path, descriptor_path, event_count, sync_count
		 FROM timelines
		 ORDER BY path, zone_key`,
	)
	if err != nil {
		return nil, fmt.Errorf("list timelines: %w", err)
	}
	defer rows.Close()

	timelines := make([]catalog.Timeline, 0)
	for rows.Next() {
		timeline, err := scanTimeline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan timeline: %w", err)
		}
		timelines = append(timelines, timeline)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timelines: %w", err)
	}
	return timelines, nil
}

// ListZoneNames returns the stored name index ordered by zone id.
func (s *Store) ListZoneNames(ctx context.Context) ([]catalog.ZoneName, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT zone_id, name FROM zone_names ORDER BY zone_id`)
	if err != nil {
		return nil, fmt.Errorf("list zone names: %w", err)
	}
	defer rows.Close()

	names := make([]catalog.ZoneName, 0)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan zone name: %w", err)
		}
		names = append(names, catalog.ZoneName{ID: zone.ID(id), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zone names: %w", err)
	}
	return names, nil
}

// CompiledAt reports when the stored snapshot was written.
func (s *Store) CompiledAt(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	if s == nil || s.sqlDB == nil {
		return time.Time{}, fmt.Errorf("storage is not configured")
	}

	var compiledAt int64
	err := s.sqlDB.QueryRowContext(ctx, `SELECT compiled_at FROM compile_runs WHERE id = 1`).Scan(&compiledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, catalog.ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get compile run: %w", err)
	}
	return fromMillis(compiledAt), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTimeline(row rowScanner) (catalog.Timeline, error) {
	var (
		timeline catalog.Timeline
		zoneJSON string
	)
	if err := row.Scan(
		&timeline.ZoneKey,
		&zoneJSON,
		&timeline.Path,
		&timeline.DescriptorPath,
		&timeline.EventCount,
		&timeline.SyncCount,
	); err != nil {
		return catalog.Timeline{}, err
	}
	if err := json.Unmarshal([]byte(zoneJSON), &timeline.Zone); err != nil {
		return catalog.Timeline{}, fmt.Errorf("decode zone %s: %w", timeline.ZoneKey, err)
	}
	return timeline, nil
}
