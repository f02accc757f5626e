package timelinecompiler

import (
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/louisbranch/raidboss-timelines/internal/timeline/catalog"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
)

// ErrDuplicateZoneKey reports two descriptors compiled under one zone key
// while the fail policy is active.
var ErrDuplicateZoneKey = errors.New("duplicate zone key")

// ZoneIndex is the zone_files.json document.
type ZoneIndex struct {
	// ZoneFiles maps a zone key to a compiled path relative to the output root.
	ZoneFiles map[string]string `json:"zoneFiles"`
	// ZoneNames holds canonical names for every zone id a compiled timeline
	// referenced, excluding the match-all sentinel.
	ZoneNames map[zone.ID]string `json:"zoneNames"`
}

// buildIndex folds per-module results, in processing order, into the index.
// It must only run once every module was compiled.
func buildIndex(results []compiledTimeline, registry *zone.Registry, policy DuplicatePolicy, logger *log.Logger) (ZoneIndex, error) {
	index := ZoneIndex{
		ZoneFiles: make(map[string]string, len(results)),
		ZoneNames: map[zone.ID]string{},
	}
	seen := map[zone.ID]struct{}{}

	for _, result := range results {
		for _, id := range result.Zone.IDs() {
			seen[id] = struct{}{}
		}
		key := result.Zone.Key()
		if previous, ok := index.ZoneFiles[key]; ok && previous != result.Path {
			if policy == DuplicateFail {
				return ZoneIndex{}, fmt.Errorf("%w %s: %s and %s", ErrDuplicateZoneKey, key, previous, result.Path)
			}
			logger.Printf("warning: zone %s compiled twice; %s replaces %s", key, result.Path, previous)
		}
		index.ZoneFiles[key] = result.Path
	}

	for id := range seen {
		if id == zone.MatchAll {
			continue
		}
		if name, ok := registry.Name(id); ok {
			index.ZoneNames[id] = name
		}
	}
	return index, nil
}

// snapshot converts the folded index into catalog rows. Only the timeline
// that won each zone key is kept.
func (idx ZoneIndex) snapshot(results []compiledTimeline) catalog.Snapshot {
	var snap catalog.Snapshot
	for _, result := range results {
		key := result.Zone.Key()
		if idx.ZoneFiles[key] != result.Path {
			continue
		}
		snap.Timelines = append(snap.Timelines, catalog.Timeline{
			ZoneKey:        key,
			Zone:           result.Zone,
			Path:           result.Path,
			DescriptorPath: result.DescriptorPath,
			EventCount:     result.EventCount,
			SyncCount:      result.SyncCount,
		})
	}

	ids := make([]zone.ID, 0, len(idx.ZoneNames))
	for id := range idx.ZoneNames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		snap.ZoneNames = append(snap.ZoneNames, catalog.ZoneName{ID: id, Name: idx.ZoneNames[id]})
	}
	return snap
}
