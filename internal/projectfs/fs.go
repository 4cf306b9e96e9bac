package projectfs

import (
	"io"
	"io/fs"
	"os"
)

// File is a temp file opened for writing.
type File interface {
	io.Writer
	Name() string
	Close() error
}

// FS is the subset of file-system operations a commit performs.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	Mkdir(name string, perm fs.FileMode) error
	CreateTemp(dir, pattern string) (File, error)
	Chmod(name string, mode fs.FileMode) error
	Rename(oldpath, newpath string) error
	Remove(name string) error
}

// OSFS is the operating-system file system.
type OSFS struct{}

func (OSFS) Stat(name string) (fs.FileInfo, error)     { return os.Stat(name) }
func (OSFS) Mkdir(name string, perm fs.FileMode) error { return os.Mkdir(name, perm) }
func (OSFS) Chmod(name string, mode fs.FileMode) error { return os.Chmod(name, mode) }
func (OSFS) Rename(oldpath, newpath string) error      { return os.Rename(oldpath, newpath) }
func (OSFS) Remove(name string) error                  { return os.Remove(name) }

func (OSFS) CreateTemp(dir, pattern string) (File, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return f, nil
}
