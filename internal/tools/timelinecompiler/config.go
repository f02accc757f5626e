package timelinecompiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/louisbranch/raidboss-timelines/internal/platform/cmd"
)

// DuplicatePolicy decides what happens when two descriptors claim the same
// zone key.
type DuplicatePolicy string

const (
	// DuplicateWarn keeps the later descriptor's path and logs the override.
	DuplicateWarn DuplicatePolicy = "warn"
	// DuplicateFail aborts the run.
	DuplicateFail DuplicatePolicy = "fail"
)

// Config holds timeline compiler configuration.
type Config struct {
	SourceRoot       string          `env:"TIMELINE_SOURCE_ROOT" envDefault:"ui/raidboss/data"`
	OutputRoot       string          `env:"TIMELINE_OUTPUT_ROOT" envDefault:"dist/timeline_data"`
	ZoneRegistryPath string          `env:"TIMELINE_ZONE_REGISTRY"`
	DescriptorExt    string          `env:"TIMELINE_DESCRIPTOR_EXT" envDefault:".lua"`
	EmitZoneIndex    bool            `env:"TIMELINE_EMIT_ZONE_INDEX" envDefault:"true"`
	DuplicatePolicy  DuplicatePolicy `env:"TIMELINE_DUPLICATE_ZONE_POLICY" envDefault:"warn"`
	CatalogDBPath    string          `env:"TIMELINE_CATALOG_DB"`
	Verbose          bool            `env:"TIMELINE_VERBOSE" envDefault:"false"`
	// ModuleRoot anchors relative paths. Empty means the directory holding
	// go.mod above the working directory.
	ModuleRoot string `env:"TIMELINE_MODULE_ROOT"`
}

// ParseConfig loads Config from the environment.
func ParseConfig() (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the compiler cannot act on.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SourceRoot) == "" {
		return fmt.Errorf("source root is required")
	}
	if strings.TrimSpace(c.OutputRoot) == "" {
		return fmt.Errorf("output root is required")
	}
	if !strings.HasPrefix(c.DescriptorExt, ".") || len(c.DescriptorExt) < 2 {
		return fmt.Errorf("descriptor extension %q must start with a dot", c.DescriptorExt)
	}
	switch c.DuplicatePolicy {
	case DuplicateWarn, DuplicateFail:
	default:
		return fmt.Errorf("unknown duplicate zone policy %q", c.DuplicatePolicy)
	}
	return nil
}

// paths holds the absolute locations a run works on.
type paths struct {
	source   string
	output   string
	registry string
	catalog  string
}

func (c Config) resolvePaths() (paths, error) {
	root, err := resolveRoot(c.ModuleRoot)
	if err != nil {
		return paths{}, err
	}
	anchor := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" || filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Join(root, p)
	}
	resolved := paths{
		source: anchor(c.SourceRoot),
		output: anchor(c.OutputRoot),
	}
	if strings.TrimSpace(c.ZoneRegistryPath) != "" {
		resolved.registry = anchor(c.ZoneRegistryPath)
	}
	if strings.TrimSpace(c.CatalogDBPath) != "" {
		resolved.catalog = anchor(c.CatalogDBPath)
	}
	return resolved, nil
}

// resolveRoot chooses the directory relative paths are anchored to.
func resolveRoot(moduleRoot string) (string, error) {
	if strings.TrimSpace(moduleRoot) != "" {
		return filepath.Abs(moduleRoot)
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working dir: %w", err)
	}
	return findModuleRoot(wd)
}

// findModuleRoot walks upward to locate the directory holding go.mod.
func findModuleRoot(start string) (string, error) {
	dir := start
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("go.mod not found above %s", start)
}
