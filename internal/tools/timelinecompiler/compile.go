package timelinecompiler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/louisbranch/raidboss-timelines/internal/timeline/descriptor"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/parser"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/record"
	"github.com/louisbranch/raidboss-timelines/internal/timeline/zone"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// compiledTimeline is what one descriptor contributes to the zone index.
type compiledTimeline struct {
	Zone           zone.Association
	Path           string
	DescriptorPath string
	EventCount     int
	SyncCount      int
}

type moduleCompiler struct {
	sourceRoot string
	outputRoot string
	loader     *descriptor.Loader
	tracer     trace.Tracer
	logger     *log.Logger
	verbose    bool
}

// compileModule loads one descriptor and, when it names an existing timeline,
// writes the compiled record. The bool is false for skipped descriptors.
func (c *moduleCompiler) compileModule(ctx context.Context, descriptorPath string) (compiledTimeline, bool, error) {
	relDescriptor := c.relSource(descriptorPath)
	_, span := c.tracer.Start(ctx, "timelinec.compile_module",
		trace.WithAttributes(attribute.String("timeline.descriptor", relDescriptor)),
	)
	defer span.End()

	c.debugf("processing %s", relDescriptor)

	desc, err := c.loader.Load(descriptorPath)
	if err != nil {
		span.RecordError(err)
		return compiledTimeline{}, false, err
	}
	if !desc.HasTimeline() {
		c.debugf("skip %s: no timeline or zone", relDescriptor)
		return compiledTimeline{}, false, nil
	}

	timelinePath := desc.TimelinePath()
	raw, err := os.ReadFile(timelinePath)
	if errors.Is(err, fs.ErrNotExist) {
		c.debugf("skip %s: timeline %s not found", relDescriptor, desc.TimelineFile)
		return compiledTimeline{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return compiledTimeline{}, false, fmt.Errorf("read timeline %s: %w", c.relSource(timelinePath), err)
	}

	text, err := decodeTimeline(raw)
	if err != nil {
		return compiledTimeline{}, false, fmt.Errorf("decode timeline %s: %w", c.relSource(timelinePath), err)
	}
	doc, err := parser.Parse(text, parser.StaticInput())
	if err != nil {
		span.RecordError(err)
		return compiledTimeline{}, false, fmt.Errorf("parse timeline %s: %w", c.relSource(timelinePath), err)
	}
	for _, lineErr := range doc.Errors {
		c.logger.Printf("warning: %s: %v", c.relSource(timelinePath), lineErr)
	}

	target, rel, err := destination(c.sourceRoot, c.outputRoot, descriptorPath, desc.TimelineFile)
	if err != nil {
		return compiledTimeline{}, false, err
	}
	rec := record.Project(desc.Zone, doc)
	if err := writeJSON(target, rec); err != nil {
		span.RecordError(err)
		return compiledTimeline{}, false, err
	}

	span.SetAttributes(
		attribute.String("timeline.zone_key", desc.Zone.Key()),
		attribute.Int("timeline.events", len(rec.Events)),
	)
	return compiledTimeline{
		Zone:           desc.Zone,
		Path:           rel,
		DescriptorPath: relDescriptor,
		EventCount:     len(rec.Events),
		SyncCount:      rec.SyncCount(),
	}, true, nil
}

// decodeTimeline returns the script as NFC text, dropping a leading BOM.
func decodeTimeline(raw []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, _, err := transform.Bytes(decoder, raw)
	if err != nil {
		return "", err
	}
	return norm.NFC.String(string(decoded)), nil
}

func (c *moduleCompiler) relSource(path string) string {
	rel, err := filepath.Rel(c.sourceRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func (c *moduleCompiler) debugf(format string, args ...any) {
	if c.verbose {
		c.logger.Printf(format, args...)
	}
}
