// Package projectfs commits a rendered file tree to disk as one transaction.
//
// Overview:
//   - Responsibility: Create the output tree, write files through a bounded pool, roll back on failure
//   - Key Types: ProjectFS (writer bound to a root directory), FS (injectable file system), Options
//   - Concurrency Model: Commit fans writes out over errgroup with SetLimit; directories are created up front
//   - Error Semantics: WRITE error naming the first failing path; CANCELED when ctx ends; rollback always runs
//   - Performance Notes: Temp file plus rename per file; directory creation is sequential
//
// Usage:
//
//	pfs := projectfs.NewProjectFS("./my-app")
//	err := pfs.Commit(ctx, files, projectfs.Options{Workers: 4})
package projectfs

import (
	"context"
	stderrors "errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"go.eggybyte.com/egg/expressgen/core/errors"
	"go.eggybyte.com/egg/expressgen/core/log"
)

// DefaultWorkers bounds concurrent file writes when Options.Workers is unset.
const DefaultWorkers = 4

// File and directory permissions of generated output.
const (
	FileMode fs.FileMode = 0o644
	DirMode  fs.FileMode = 0o755
)

// Options controls one commit.
type Options struct {
	Workers   int  // Concurrent writers; <= 0 means DefaultWorkers
	Overwrite bool // Replace existing files instead of refusing
}

// ProjectFS writes generated trees under a root directory.
//
// Concurrency:
//   - Safe for concurrent use on disjoint roots
type ProjectFS struct {
	rootDir string
	fs      FS
	logger  log.Logger
}

// Option configures a ProjectFS.
type Option func(*ProjectFS)

// WithFS replaces the operating-system file system.
func WithFS(fsys FS) Option {
	return func(p *ProjectFS) { p.fs = fsys }
}

// WithLogger sets the logger used for progress and rollback reports.
func WithLogger(logger log.Logger) Option {
	return func(p *ProjectFS) { p.logger = logger }
}

// NewProjectFS creates a writer rooted at rootDir.
//
// Parameters:
//   - rootDir: Output directory; created if missing
//   - opts: Optional file system and logger
//
// Returns:
//   - *ProjectFS: Writer instance
func NewProjectFS(rootDir string, opts ...Option) *ProjectFS {
	p := &ProjectFS{
		rootDir: rootDir,
		fs:      OSFS{},
		logger:  log.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RootDir returns the output directory.
func (p *ProjectFS) RootDir() string {
	return p.rootDir
}

// Commit writes every file or none of them.
//
// Parameters:
//   - ctx: Cancellation is checked before each file
//   - files: Slash-separated relative paths to content
//   - opts: Worker count and overwrite policy
//
// Returns:
//   - error: WRITE error naming the first failing path, or CANCELED; the tree is rolled back in both cases
//
// Concurrency:
//   - Writes run on at most opts.Workers goroutines; all have exited when Commit returns
//
// Performance:
//   - One temp file and one rename per file
func (p *ProjectFS) Commit(ctx context.Context, files map[string][]byte, opts Options) error {
	paths, err := p.plan(files)
	if err != nil {
		return err
	}
	if err := p.refuseExisting(paths, opts.Overwrite); err != nil {
		return err
	}

	tx := &transaction{fs: p.fs, logger: p.logger}

	if err := p.createDirs(tx, paths); err != nil {
		tx.rollback()
		return err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rel := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return p.writeFile(tx, rel, files[rel])
		})
	}
	err = g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		tx.rollback()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Wrap(errors.CodeCanceled, "projectfs.Commit", ctxErr)
		}
		return err
	}
	tx.discardBackups()

	p.logger.Debug("files committed",
		log.Str("dir", p.rootDir),
		log.Int("files", len(paths)),
		log.Int("dirs_created", len(tx.dirs)))
	return nil
}

// plan validates and sorts the relative paths.
func (p *ProjectFS) plan(files map[string][]byte) ([]string, error) {
	paths := make([]string, 0, len(files))
	for rel := range files {
		if rel == "" || strings.HasPrefix(rel, "/") || path.Clean(rel) != rel || rel == ".." || strings.HasPrefix(rel, "../") {
			return nil, errors.Build(errors.CodeWrite).
				WithOp("projectfs.Commit").
				WithMsgf("invalid output path %q", rel).
				WithPath(rel).
				Err()
		}
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	return paths, nil
}

func (p *ProjectFS) refuseExisting(paths []string, overwrite bool) error {
	for _, rel := range paths {
		info, err := p.fs.Stat(p.abs(rel))
		if err != nil {
			if stderrors.Is(err, fs.ErrNotExist) {
				continue
			}
			return writeError(rel, err, "cannot inspect %s", rel)
		}
		if info.IsDir() {
			return writeError(rel, nil, "%s exists and is a directory", rel)
		}
		if !overwrite {
			return writeError(rel, nil, "%s already exists; use --force to overwrite", rel)
		}
	}
	return nil
}

// createDirs creates the root and every parent directory, recording the ones it made.
func (p *ProjectFS) createDirs(tx *transaction, paths []string) error {
	needed := map[string]bool{".": true}
	for _, rel := range paths {
		for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
			needed[dir] = true
		}
	}
	dirs := make([]string, 0, len(needed))
	for dir := range needed {
		dirs = append(dirs, dir)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if di, dj := depth(dirs[i]), depth(dirs[j]); di != dj {
			return di < dj
		}
		return dirs[i] < dirs[j]
	})

	if err := p.mkdirAll(tx, p.rootDir); err != nil {
		return writeError(".", err, "cannot create output directory %s", p.rootDir)
	}
	for _, dir := range dirs {
		if dir == "." {
			continue
		}
		abs := p.abs(dir)
		info, err := p.fs.Stat(abs)
		switch {
		case err == nil && info.IsDir():
			continue
		case err == nil:
			return writeError(dir, nil, "%s exists and is not a directory", dir)
		case !stderrors.Is(err, fs.ErrNotExist):
			return writeError(dir, err, "cannot inspect %s", dir)
		}
		if err := p.fs.Mkdir(abs, DirMode); err != nil {
			return writeError(dir, err, "cannot create directory %s", dir)
		}
		tx.addDir(abs)
	}
	return nil
}

// mkdirAll creates dir and its missing ancestors, recording each one created.
func (p *ProjectFS) mkdirAll(tx *transaction, dir string) error {
	dir = filepath.Clean(dir)
	var missing []string
	for d := dir; ; d = filepath.Dir(d) {
		_, err := p.fs.Stat(d)
		if err == nil {
			break
		}
		if !stderrors.Is(err, fs.ErrNotExist) {
			return err
		}
		missing = append(missing, d)
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	for i := len(missing) - 1; i >= 0; i-- {
		if err := p.fs.Mkdir(missing[i], DirMode); err != nil {
			return err
		}
		tx.addDir(missing[i])
	}
	return nil
}

// writeFile writes content to a temp file beside the target and renames it into place.
func (p *ProjectFS) writeFile(tx *transaction, rel string, content []byte) error {
	target := p.abs(rel)

	tmp, err := p.fs.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return writeError(rel, err, "cannot create %s", rel)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = p.fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return writeError(rel, err, "cannot write %s", rel)
	}
	if err := tmp.Close(); err != nil {
		return writeError(rel, err, "cannot write %s", rel)
	}
	if err := p.fs.Chmod(tmpName, FileMode); err != nil {
		return writeError(rel, err, "cannot set mode of %s", rel)
	}
	backup, err := p.backup(target)
	if err != nil {
		return writeError(rel, err, "cannot back up %s", rel)
	}
	if err := p.fs.Rename(tmpName, target); err != nil {
		if backup != "" {
			_ = p.fs.Rename(backup, target)
		}
		return writeError(rel, err, "cannot write %s", rel)
	}
	committed = true
	tx.addFile(target, backup)
	p.logger.Debug("file written", log.Str("path", rel), log.Int("bytes", len(content)))
	return nil
}

// backup moves an existing target aside and returns where it went, or "" if
// there was nothing to keep.
func (p *ProjectFS) backup(target string) (string, error) {
	if _, err := p.fs.Stat(target); err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	f, err := p.fs.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".bak-*")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		_ = p.fs.Remove(name)
		return "", err
	}
	if err := p.fs.Rename(target, name); err != nil {
		_ = p.fs.Remove(name)
		return "", err
	}
	return name, nil
}

func (p *ProjectFS) abs(rel string) string {
	return filepath.Join(p.rootDir, filepath.FromSlash(rel))
}

func depth(rel string) int {
	if rel == "." {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

func writeError(rel string, err error, format string, args ...any) error {
	return errors.Build(errors.CodeWrite).
		WithOp("projectfs.Commit").
		WithErr(err).
		WithMsgf(format, args...).
		WithPath(rel).
		Err()
}

// transaction records what a commit created or replaced so it can be undone.
type transaction struct {
	fs     FS
	logger log.Logger

	mu    sync.Mutex
	files []written
	dirs  []string
}

// written is one committed file; backup holds the replaced original, if any.
type written struct {
	path   string
	backup string
}

func (tx *transaction) addFile(abs, backup string) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.files = append(tx.files, written{path: abs, backup: backup})
}

func (tx *transaction) addDir(abs string) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.dirs = append(tx.dirs, abs)
}

// rollback restores replaced files, removes created ones, then removes created
// directories deepest first. Best effort.
func (tx *transaction) rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	for _, f := range tx.files {
		if f.backup != "" {
			if err := tx.fs.Rename(f.backup, f.path); err != nil {
				tx.logger.Warn("rollback: cannot restore file", log.Str("path", f.path), log.Str("backup", f.backup), log.Str("error", err.Error()))
			}
			continue
		}
		if err := tx.fs.Remove(f.path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			tx.logger.Warn("rollback: cannot remove file", log.Str("path", f.path), log.Str("error", err.Error()))
		}
	}
	sort.SliceStable(tx.dirs, func(i, j int) bool {
		return strings.Count(tx.dirs[i], string(filepath.Separator)) > strings.Count(tx.dirs[j], string(filepath.Separator))
	})
	for _, d := range tx.dirs {
		if err := tx.fs.Remove(d); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			tx.logger.Warn("rollback: cannot remove directory", log.Str("path", d), log.Str("error", err.Error()))
		}
	}
	tx.logger.Info("rolled back partial output", log.Int("files", len(tx.files)), log.Int("dirs", len(tx.dirs)))
	tx.files, tx.dirs = nil, nil
}

// discardBackups drops the originals of replaced files once the commit has succeeded.
func (tx *transaction) discardBackups() {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	for _, f := range tx.files {
		if f.backup == "" {
			continue
		}
		if err := tx.fs.Remove(f.backup); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
			tx.logger.Warn("cannot remove backup", log.Str("path", f.backup), log.Str("error", err.Error()))
		}
	}
}
