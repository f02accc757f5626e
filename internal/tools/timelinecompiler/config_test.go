package timelinecompiler

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"TIMELINE_SOURCE_ROOT",
		"TIMELINE_OUTPUT_ROOT",
		"TIMELINE_ZONE_REGISTRY",
		"TIMELINE_DESCRIPTOR_EXT",
		"TIMELINE_EMIT_ZONE_INDEX",
		"TIMELINE_DUPLICATE_ZONE_POLICY",
		"TIMELINE_CATALOG_DB",
		"TIMELINE_VERBOSE",
		"TIMELINE_MODULE_ROOT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	want := Config{
		SourceRoot:      "ui/raidboss/data",
		OutputRoot:      "dist/timeline_data",
		DescriptorExt:   ".lua",
		EmitZoneIndex:   true,
		DuplicatePolicy: DuplicateWarn,
	}
	if cfg != want {
		t.Fatalf("config = %+v, want %+v", cfg, want)
	}
}

func TestParseConfigReadsEnv(t *testing.T) {
	t.Setenv("TIMELINE_DUPLICATE_ZONE_POLICY", "fail")
	t.Setenv("TIMELINE_EMIT_ZONE_INDEX", "false")
	t.Setenv("TIMELINE_CATALOG_DB", "dist/catalog.db")

	cfg, err := ParseConfig()
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.DuplicatePolicy != DuplicateFail {
		t.Fatalf("policy = %q, want %q", cfg.DuplicatePolicy, DuplicateFail)
	}
	if cfg.EmitZoneIndex {
		t.Fatal("emit zone index = true, want false")
	}
	if cfg.CatalogDBPath != "dist/catalog.db" {
		t.Fatalf("catalog = %q", cfg.CatalogDBPath)
	}
}

func TestParseConfigRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("TIMELINE_DUPLICATE_ZONE_POLICY", "ignore")

	if _, err := ParseConfig(); err == nil {
		t.Fatal("expected unknown policy error")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{SourceRoot: "src", OutputRoot: "out", DescriptorExt: ".lua", DuplicatePolicy: DuplicateWarn}
	if err := valid.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	tests := map[string]func(*Config){
		"empty source":   func(c *Config) { c.SourceRoot = " " },
		"empty output":   func(c *Config) { c.OutputRoot = "" },
		"extension":      func(c *Config) { c.DescriptorExt = "lua" },
		"bare dot":       func(c *Config) { c.DescriptorExt = "." },
		"missing policy": func(c *Config) { c.DuplicatePolicy = "" },
	}
	for name, mutate := range tests {
		cfg := valid
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestResolvePathsAnchorsRelativeRoots(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	abs := filepath.Join(t.TempDir(), "registry.lua")
	cfg := Config{
		SourceRoot:       "data",
		OutputRoot:       "dist/out",
		ZoneRegistryPath: abs,
		CatalogDBPath:    "catalog.db",
		ModuleRoot:       root,
	}
	paths, err := cfg.resolvePaths()
	if err != nil {
		t.Fatalf("resolve paths: %v", err)
	}
	if paths.source != filepath.Join(root, "data") {
		t.Fatalf("source = %q", paths.source)
	}
	if paths.output != filepath.Join(root, "dist", "out") {
		t.Fatalf("output = %q", paths.output)
	}
	if paths.registry != abs {
		t.Fatalf("registry = %q, want %q", paths.registry, abs)
	}
	if paths.catalog != filepath.Join(root, "catalog.db") {
		t.Fatalf("catalog = %q", paths.catalog)
	}
}

func TestFindModuleRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/test\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := findModuleRoot(nested)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}
	if got != root {
		t.Fatalf("root = %q, want %q", got, root)
	}
}
