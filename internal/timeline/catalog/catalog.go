// Package catalog defines the queryable snapshot of a compiler run: which
// compiled timeline serves each zone key and the canonical names of the zones
// those timelines reference.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
)

// ErrNotFound indicates a requested catalog record is missing.
var ErrNotFound = errors.New("record not found")

// Timeline describes one compiled timeline document.
type Timeline struct {
	ZoneKey string
	Zone    zone.Association
	// Path is slash-separated and relative to the output root.
	Path           string
	DescriptorPath string
	EventCount     int
	SyncCount      int
}

// ZoneName pairs a zone id with its canonical registry name.
type ZoneName struct {
	ID   zone.ID
	Name string
}

// Snapshot is the full result of one compiler run.
type Snapshot struct {
	Timelines  []Timeline
	ZoneNames  []ZoneName
	CompiledAt time.Time
}

// Store persists compiler snapshots.
type Store interface {
	// ReplaceSnapshot discards the previous snapshot and stores snapshot.
	ReplaceSnapshot(ctx context.Context, snapshot Snapshot) error
	GetTimeline(ctx context.Context, zoneKey string) (Timeline, error)
	ListTimelines(ctx context.Context) ([]Timeline, error)
	ListZoneNames(ctx context.Context) ([]ZoneName, error)
	// CompiledAt reports when the stored snapshot was produced.
	CompiledAt(ctx context.Context) (time.Time, error)
}
