package timelinecompiler

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCompiledName(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"t.txt":         "t.json",
		"p1s.txt":       "p1s.json",
		"sub/t.txt":     "sub/t.json",
		"noext":         "noext.json",
		"dir.v2/noext":  "dir.v2/noext.json",
		"already.json":  "already.json",
		"multi.dot.txt": "multi.dot.json",
	}
	for in, want := range tests {
		if got := compiledName(in); got != want {
			t.Fatalf("compiledName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDestinationMirrorsSourceLayout(t *testing.T) {
	t.Parallel()

	source := filepath.Join("/repo", "data")
	output := filepath.Join("/repo", "dist")
	target, rel, err := destination(source, output, filepath.Join(source, "06-ew", "raid", "p1s.lua"), "p1s.txt")
	if err != nil {
		t.Fatalf("destination: %v", err)
	}
	if want := filepath.Join(output, "06-ew", "raid", "p1s.json"); target != want {
		t.Fatalf("target = %q, want %q", target, want)
	}
	if rel != "06-ew/raid/p1s.json" {
		t.Fatalf("rel = %q, want %q", rel, "06-ew/raid/p1s.json")
	}
}

func TestDestinationRejectsEscape(t *testing.T) {
	t.Parallel()

	source := filepath.Join("/repo", "data")
	output := filepath.Join("/repo", "dist")
	if _, _, err := destination(source, output, filepath.Join(source, "m.lua"), "../../x.txt"); err == nil {
		t.Fatal("expected escape error")
	}
}

func TestCheckResettable(t *testing.T) {
	t.Parallel()

	source := filepath.Join("/repo", "data")
	tests := []struct {
		output string
		ok     bool
	}{
		{output: "", ok: false},
		{output: string(filepath.Separator), ok: false},
		{output: source, ok: false},
		{output: filepath.Join("/repo"), ok: false},
		{output: filepath.Join("/repo", "dist"), ok: true},
		{output: filepath.Join("/repo", "data-out"), ok: true},
		{output: filepath.Join(source, "dist"), ok: true},
	}
	for _, tt := range tests {
		err := checkResettable(tt.output, source)
		if (err == nil) != tt.ok {
			t.Fatalf("checkResettable(%q) err = %v, want ok %v", tt.output, err, tt.ok)
		}
	}
}

func TestResetOutputToleratesMissingTree(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := resetOutput(filepath.Join(dir, "missing"), filepath.Join(dir, "src")); err != nil {
		t.Fatalf("reset missing output: %v", err)
	}
}

func TestWriteJSONReplacesAtomically(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "nested", "doc.json")
	if err := writeJSON(target, map[string]int{"a": 1}); err != nil {
		t.Fatalf("write first: %v", err)
	}
	if err := writeJSON(target, map[string]int{"b": 2}); err != nil {
		t.Fatalf("write second: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != `{"b":2}` {
		t.Fatalf("content = %s, want %s", data, `{"b":2}`)
	}
	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWriteJSONLeavesNothingOnEncodeError(t *testing.T) {
	t.Parallel()

	target := filepath.Join(t.TempDir(), "doc.json")
	if err := writeJSON(target, map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("expected encode error")
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Fatalf("expected no file, stat err = %v", err)
	}
}
