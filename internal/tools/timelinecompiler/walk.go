package timelinecompiler

import (
	"io/fs"
	"path/filepath"
)

// walkFiles calls visit for every regular file below root, descending to any
// depth in lexical order. It returns only after the whole tree was visited or
// visit failed.
func walkFiles(root string, visit func(path string) error) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		return visit(path)
	})
}
