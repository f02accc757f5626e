// Package timelinecompiler compiles descriptor modules and their timeline
// scripts into JSON timeline records plus a zone index.
package timelinecompiler

import (
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/louisbranch/raidboss-timelines/internal/platform/otel"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/catalog"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/catalog/sqlite"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/descriptor"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
	"go.opentelemetry.io/otel/attribute"
)

const tracerName = "github.com/louisbranch/raidboss-timelines/internal/tools/timelinecompiler"

// Run compiles every descriptor under the source root. Progress and warnings
// go to stderr; the summary goes to stdout.
func Run(ctx context.Context, cfg Config, stdout io.Writer, stderr io.Writer) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	roots, err := cfg.resolvePaths()
	if err != nil {
		return Stats{}, err
	}

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "timelinec.run")
	defer span.End()

	logger := log.New(stderr, "timelinec: ", 0)

	if err := resetOutput(roots.output, roots.source); err != nil {
		return Stats{}, err
	}

	registry, err := loadRegistry(roots.registry)
	if err != nil {
		return Stats{}, err
	}

	compiler := &moduleCompiler{
		sourceRoot: roots.source,
		outputRoot: roots.output,
		loader:     descriptor.NewLoader(registry),
		tracer:     tracer,
		logger:     logger,
		verbose:    cfg.Verbose,
	}
	compiler.debugf("zone registry: %d names", registry.Len())

	var (
		stats   Stats
		results []compiledTimeline
	)
	err = walkFiles(roots.source, func(path string) error {
		if !strings.HasSuffix(path, cfg.DescriptorExt) {
			return nil
		}
		stats.Descriptors++
		result, compiled, err := compiler.compileModule(ctx, path)
		if err != nil {
			return err
		}
		if !compiled {
			stats.Skipped++
			return nil
		}
		stats.Compiled++
		results = append(results, result)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return stats, fmt.Errorf("compile timelines: %w", err)
	}

	index, err := buildIndex(results, registry, cfg.DuplicatePolicy, logger)
	if err != nil {
		span.RecordError(err)
		return stats, err
	}

	artifacts := make([]string, 0, len(results)+1)
	for _, result := range results {
		artifacts = append(artifacts, result.Path)
	}
	if cfg.EmitZoneIndex {
		if err := writeJSON(filepath.Join(roots.output, zoneIndexFile), index); err != nil {
			return stats, err
		}
		artifacts = append(artifacts, zoneIndexFile)
	}

	if roots.catalog != "" {
		if err := saveCatalog(ctx, roots.catalog, index.snapshot(results)); err != nil {
			return stats, err
		}
	}

	span.SetAttributes(
		attribute.Int("timeline.descriptors", stats.Descriptors),
		attribute.Int("timeline.compiled", stats.Compiled),
	)

	sort.Strings(artifacts)
	artifacts = dedupe(artifacts)
	if err := writeSummary(stdout, roots.output, stats, artifacts); err != nil {
		return stats, fmt.Errorf("write summary: %w", err)
	}
	return stats, nil
}

func loadRegistry(path string) (*zone.Registry, error) {
	if path == "" {
		return zone.DefaultRegistry()
	}
	return zone.LoadRegistry(path)
}

func saveCatalog(ctx context.Context, path string, snapshot catalog.Snapshot) error {
	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer store.Close()

	snapshot.CompiledAt = time.Now().UTC()
	if err := store.ReplaceSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, value := range sorted {
		if i > 0 && value == sorted[i-1] {
			continue
		}
		out = append(out, value)
	}
	return out
}
