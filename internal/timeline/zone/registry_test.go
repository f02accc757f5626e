package zone

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Shopify/go-lua"
)

func TestDefaultRegistryLoads(t *testing.T) {
	t.Parallel()

	registry, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	id, ok := registry.Lookup("TheOmegaProtocolUltimate")
	if !ok || id != 1122 {
		t.Fatalf("lookup = %d, %v, want 1122, true", id, ok)
	}
	name, ok := registry.Name(1122)
	if !ok || name != "TheOmegaProtocolUltimate" {
		t.Fatalf("name = %q, %v", name, ok)
	}
	if _, ok := registry.Name(MatchAll); ok {
		t.Fatal("MatchAll must not have a canonical name")
	}
	if id, ok := registry.Lookup("MatchAll"); !ok || id != MatchAll {
		t.Fatalf("MatchAll lookup = %d, %v", id, ok)
	}
}

func TestNewRegistryPicksSmallestNameForSharedID(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(map[string]ID{"Zeta": 5, "Alpha": 5})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	name, _ := registry.Name(5)
	if name != "Alpha" {
		t.Fatalf("name = %q, want Alpha", name)
	}
}

func TestNewRegistryRejectsMovedSentinel(t *testing.T) {
	t.Parallel()

	if _, err := NewRegistry(map[string]ID{"MatchAll": 0}); err == nil {
		t.Fatal("expected sentinel validation error")
	}
}

func TestLoadRegistryFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "zones.lua")
	if err := os.WriteFile(path, []byte("return { Somewhere = 42 }\n"), 0o644); err != nil {
		t.Fatalf("write registry: %v", err)
	}
	registry, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	if id, ok := registry.Lookup("Somewhere"); !ok || id != 42 {
		t.Fatalf("lookup = %d, %v", id, ok)
	}
	if registry.Len() != 2 {
		t.Fatalf("len = %d, want 2 (entry plus MatchAll)", registry.Len())
	}
}

func TestParseRegistryRejectsInvalidChunks(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"syntax":      "return {",
		"not a table": "return 3",
		"fractional":  "return { Half = 1.5 }",
		"string id":   `return { Word = "12" }`,
		"runtime":     `error("boom")`,
	}
	for name, source := range tests {
		name, source := name, source
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseRegistry(name, source); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPushLuaTableExposesNames(t *testing.T) {
	t.Parallel()

	registry, err := NewRegistry(map[string]ID{"Somewhere": 42})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	state := lua.NewState()
	lua.OpenLibraries(state)
	registry.PushLuaTable(state)
	state.SetGlobal("ZoneId")

	if err := lua.DoString(state, "return ZoneId.Somewhere"); err != nil {
		t.Fatalf("do string: %v", err)
	}
	got, ok := state.ToInteger(-1)
	if !ok || got != 42 {
		t.Fatalf("ZoneId.Somewhere = %d, %v", got, ok)
	}
	state.Pop(1)
	if err := lua.DoString(state, "return ZoneId.MatchAll"); err != nil {
		t.Fatalf("do string: %v", err)
	}
	if got, _ := state.ToInteger(-1); got != int(MatchAll) {
		t.Fatalf("ZoneId.MatchAll = %d, want %d", got, MatchAll)
	}
	state.Pop(1)

	err = lua.DoString(state, "return ZoneId.Somewhre")
	if err == nil || !strings.Contains(err.Error(), "unknown zone Somewhre") {
		t.Fatalf("misspelt zone err = %v, want unknown zone", err)
	}
	state.SetTop(0)
	if err := lua.DoString(state, "ZoneId.Elsewhere = 7"); err == nil {
		t.Fatal("expected assignment to ZoneId to fail")
	}
	if !strings.Contains(embeddedRegistry, "MatchAll = -1") {
		t.Fatal("embedded registry must declare MatchAll")
	}
}
