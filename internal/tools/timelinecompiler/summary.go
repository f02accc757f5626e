package timelinecompiler

import (
	"fmt"
	"io"
	"path"

	"github.com/disiqueira/gotree/v3"
)

// Stats counts what a run did with the descriptors it found.
type Stats struct {
	Descriptors int
	Compiled    int
	Skipped     int
}

// artifactTree renders written files as a directory tree.
type artifactTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

func newArtifactTree(rootLabel string) artifactTree {
	return artifactTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t artifactTree) dir(dirPath string) gotree.Tree {
	if dirPath == "." || dirPath == "" {
		return t.tree
	}
	node := t.dirs[dirPath]
	if node == nil {
		node = t.dir(path.Dir(dirPath)).Add(path.Base(dirPath))
		t.dirs[dirPath] = node
	}
	return node
}

// insert adds a slash-separated path relative to the root.
func (t artifactTree) insert(relPath string) {
	t.dir(path.Dir(relPath)).Add(path.Base(relPath))
}

func (t artifactTree) render() string {
	return t.tree.Print()
}

func writeSummary(out io.Writer, outputRoot string, stats Stats, artifacts []string) error {
	if _, err := fmt.Fprintf(out, "descriptors: %d, compiled: %d, skipped: %d\n", stats.Descriptors, stats.Compiled, stats.Skipped); err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return nil
	}
	tree := newArtifactTree(outputRoot)
	for _, artifact := range artifacts {
		tree.insert(artifact)
	}
	_, err := fmt.Fprintln(out, tree.render())
	return err
}
