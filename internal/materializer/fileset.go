package materializer

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
)

// FileSet maps project-relative, slash-separated paths to file contents.
type FileSet map[string][]byte

// Paths returns every path in lexical order.
func (fs FileSet) Paths() []string {
	paths := make([]string, 0, len(fs))
	for p := range fs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Digest returns a hex sha256 over the sorted paths and their contents.
func (fs FileSet) Digest() string {
	h := sha256.New()
	for _, p := range fs.Paths() {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write(fs[p])
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Size returns the total number of content bytes.
func (fs FileSet) Size() int {
	n := 0
	for _, content := range fs {
		n += len(content)
	}
	return n
}
