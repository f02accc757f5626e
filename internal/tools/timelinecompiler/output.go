package timelinecompiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	compiledExt   = ".json"
	zoneIndexFile = "zone_files.json"
)

// resetOutput removes the output tree so no artifact from an earlier run
// survives. A missing tree is fine.
func resetOutput(outputRoot, sourceRoot string) error {
	if err := checkResettable(outputRoot, sourceRoot); err != nil {
		return err
	}
	if err := os.RemoveAll(outputRoot); err != nil {
		return fmt.Errorf("reset output root: %w", err)
	}
	return nil
}

func checkResettable(outputRoot, sourceRoot string) error {
	if strings.TrimSpace(outputRoot) == "" {
		return fmt.Errorf("refusing to reset empty output root")
	}
	out := filepath.Clean(outputRoot)
	if filepath.Dir(out) == out {
		return fmt.Errorf("refusing to reset filesystem root %s", out)
	}
	if within(filepath.Clean(sourceRoot), out) {
		return fmt.Errorf("refusing to reset %s: it contains the source root %s", out, sourceRoot)
	}
	return nil
}

// within reports whether target equals dir or lies below it.
func within(target, dir string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// destination mirrors a descriptor's position under the output root. It
// returns the absolute target and the slash-separated path relative to the
// output root.
func destination(sourceRoot, outputRoot, descriptorPath, timelineFile string) (string, string, error) {
	relDir, err := filepath.Rel(sourceRoot, filepath.Dir(descriptorPath))
	if err != nil {
		return "", "", fmt.Errorf("relative descriptor dir: %w", err)
	}
	target := filepath.Join(outputRoot, relDir, filepath.FromSlash(compiledName(timelineFile)))
	if !within(target, outputRoot) || target == filepath.Clean(outputRoot) {
		return "", "", fmt.Errorf("timeline %s of %s escapes the output root", timelineFile, descriptorPath)
	}
	rel, err := filepath.Rel(outputRoot, target)
	if err != nil {
		return "", "", fmt.Errorf("relative output path: %w", err)
	}
	return target, filepath.ToSlash(rel), nil
}

// compiledName swaps the script extension for the compiled one.
func compiledName(timelineFile string) string {
	return strings.TrimSuffix(timelineFile, path.Ext(timelineFile)) + compiledExt
}

// writeJSON marshals value and moves it into place in one rename, so target
// holds either the complete document or nothing.
func writeJSON(target string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(target), err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", filepath.Base(target), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", filepath.Base(target), err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", filepath.Base(target), err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", filepath.Base(target), err)
	}
	return nil
}
