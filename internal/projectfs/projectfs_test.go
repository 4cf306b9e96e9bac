package projectfs

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/testingx"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func sampleFiles() map[string][]byte {
	return map[string][]byte{
		"package.json":                 []byte("{}\n"),
		"README.md":                    []byte("# demo\n"),
		"server/server.js":             []byte("// server\n"),
		"server/config/local.json":     []byte("{\"port\": 3000}\n"),
		"server/routers/index.js":      []byte("// routers\n"),
		"server/routers/health.js":     []byte("// health\n"),
		"server/services/index.js":     []byte("// services\n"),
		"public/index.html":            []byte("<h1>demo</h1>\n"),
		"test/test-server.js":          []byte("// test\n"),
		".gitignore":                   []byte("node_modules\n"),
		"server/api/openapi.yaml":      []byte("swagger: \"2.0\"\n"),
		"server/services/service-a.js": []byte("// a\n"),
	}
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	}))
	return n
}

// faultyFS wraps OSFS, failing renames onto one file name and tracking write concurrency.
type faultyFS struct {
	OSFS
	failRename string
	delay      time.Duration
	inflight   atomic.Int32
	peak       atomic.Int32
}

func (f *faultyFS) CreateTemp(dir, pattern string) (File, error) {
	n := f.inflight.Add(1)
	for {
		peak := f.peak.Load()
		if n <= peak || f.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	time.Sleep(f.delay)
	file, err := f.OSFS.CreateTemp(dir, pattern)
	if err != nil {
		f.inflight.Add(-1)
	}
	return file, err
}

func (f *faultyFS) Rename(oldpath, newpath string) error {
	defer f.inflight.Add(-1)
	if f.failRename != "" && filepath.Base(newpath) == f.failRename {
		return fmt.Errorf("injected rename failure")
	}
	return f.OSFS.Rename(oldpath, newpath)
}

func TestCommitWritesTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	files := sampleFiles()

	err := NewProjectFS(root).Commit(context.Background(), files, Options{})
	require.NoError(t, err)

	for rel, content := range files {
		got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		assert.Equal(t, content, got, rel)

		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		require.NoError(t, err)
		assert.Equal(t, FileMode, info.Mode().Perm(), rel)
	}
	assert.Equal(t, len(files), countFiles(t, root), "no temp files left behind")
}

func TestCommitBoundsConcurrency(t *testing.T) {
	root := t.TempDir()
	fsys := &faultyFS{delay: 5 * time.Millisecond}

	err := NewProjectFS(root, WithFS(fsys)).Commit(context.Background(), sampleFiles(), Options{Workers: 2})
	require.NoError(t, err)

	assert.LessOrEqual(t, fsys.peak.Load(), int32(2))
	assert.GreaterOrEqual(t, fsys.peak.Load(), int32(1))
}

func TestCommitRefusesExistingFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("mine\n"), 0o644))

	err := NewProjectFS(root).Commit(context.Background(), sampleFiles(), Options{})

	testingx.AssertError(t, err, errors.CodeWrite)
	assert.Equal(t, []errors.Detail{{Path: "README.md"}}, errors.DetailsOf(err))
	testingx.AssertFileContent(t, root, "README.md", "mine")
	assert.Equal(t, 1, countFiles(t, root))
}

func TestCommitOverwrite(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("mine\n"), 0o644))

	err := NewProjectFS(root).Commit(context.Background(), sampleFiles(), Options{Overwrite: true})
	require.NoError(t, err)

	testingx.AssertFileContent(t, root, "README.md", "# demo")
}

func TestCommitRejectsDirectoryTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "README.md"), 0o755))

	err := NewProjectFS(root).Commit(context.Background(), sampleFiles(), Options{Overwrite: true})

	testingx.AssertError(t, err, errors.CodeWrite)
}

func TestCommitRollsBackOnFailure(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "out")
	logger := testingx.NewMockLogger(t)
	fsys := &faultyFS{failRename: "health.js"}

	err := NewProjectFS(root, WithFS(fsys), WithLogger(logger)).
		Commit(context.Background(), sampleFiles(), Options{Workers: 3})

	testingx.AssertError(t, err, errors.CodeWrite)
	assert.Equal(t, []errors.Detail{{Path: "server/routers/health.js"}}, errors.DetailsOf(err))
	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr), "output directory created by the run is removed")
	assert.Equal(t, 0, countFiles(t, parent))
	logger.AssertLogged("INFO", "rolled back partial output")
}

func TestCommitRollbackKeepsPreexistingContent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "server"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "server", "notes.txt"), []byte("keep\n"), 0o644))
	fsys := &faultyFS{failRename: "index.html"}

	err := NewProjectFS(root, WithFS(fsys)).Commit(context.Background(), sampleFiles(), Options{})

	testingx.AssertError(t, err, errors.CodeWrite)
	testingx.AssertFile(t, root, "server/notes.txt")
	testingx.AssertNoFile(t, root, "public", "server/config", "package.json")
	assert.Equal(t, 1, countFiles(t, root))
}

func TestCommitRollbackRestoresOverwrittenFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("mine\n"), 0o644))
	fsys := &faultyFS{failRename: "test-server.js"}

	err := NewProjectFS(root, WithFS(fsys)).
		Commit(context.Background(), sampleFiles(), Options{Workers: 1, Overwrite: true})

	testingx.AssertError(t, err, errors.CodeWrite)
	got, readErr := os.ReadFile(filepath.Join(root, "README.md"))
	require.NoError(t, readErr)
	assert.Equal(t, "mine\n", string(got))
	assert.Equal(t, 1, countFiles(t, root))
}

func TestCommitOverwriteLeavesNoBackups(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("mine\n"), 0o644))

	err := NewProjectFS(root).Commit(context.Background(), sampleFiles(), Options{Overwrite: true})

	require.NoError(t, err)
	assert.Equal(t, len(sampleFiles()), countFiles(t, root))
}

func TestCommitCanceled(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewProjectFS(root).Commit(ctx, sampleFiles(), Options{})

	testingx.AssertError(t, err, errors.CodeCanceled)
	assert.ErrorIs(t, err, context.Canceled)
	_, statErr := os.Stat(root)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCommitRejectsInvalidPaths(t *testing.T) {
	tests := []string{"../escape.js", "/abs.js", "a/../b.js", "", "./x.js"}

	for _, rel := range tests {
		t.Run(rel, func(t *testing.T) {
			root := t.TempDir()
			err := NewProjectFS(root).Commit(context.Background(), map[string][]byte{rel: []byte("x")}, Options{})

			testingx.AssertError(t, err, errors.CodeWrite)
			assert.Equal(t, 0, countFiles(t, root))
		})
	}
}
