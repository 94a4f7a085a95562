package zread

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/absfs/absfs"
)

// normalizePath removes leading slashes and cleans the path so absolute
// and relative names address the same entry.
func normalizePath(name string) string {
	name = filepath.Clean(name)
	name = strings.TrimPrefix(name, "/")
	name = strings.TrimPrefix(name, string(filepath.Separator))
	if name == "" {
		name = "."
	}
	return name
}

// MemFS is an in-memory FileSystem holding immutable file contents. It is
// meant for tests and examples; files are added with WriteFile and opened
// read-only.
type MemFS struct {
	mu    sync.RWMutex
	files map[string]*memEntry
}

type memEntry struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

// NewMemFS creates an empty in-memory file system.
func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string]*memEntry)}
}

// WriteFile stores a copy of data under name, replacing any previous
// content.
func (m *MemFS) WriteFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[normalizePath(name)] = &memEntry{
		data:    bytes.Clone(data),
		mode:    0444,
		modTime: time.Now(),
	}
}

// OpenFile opens name for reading. Any flag asking for write access fails
// with fs.ErrPermission.
func (m *MemFS) OpenFile(name string, flag int, perm fs.FileMode) (absfs.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0 {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := normalizePath(name)
	e, ok := m.files[key]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &memFile{name: key, entry: e, r: bytes.NewReader(e.data)}, nil
}

// Open is OpenFile(name, os.O_RDONLY, 0).
func (m *MemFS) Open(name string) (absfs.File, error) {
	return m.OpenFile(name, os.O_RDONLY, 0)
}

func (m *MemFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key := normalizePath(name)
	e, ok := m.files[key]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return e.info(key), nil
}

func (m *MemFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := normalizePath(name)
	if _, ok := m.files[key]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}
	delete(m.files, key)
	return nil
}

func (e *memEntry) info(name string) *memFileInfo {
	return &memFileInfo{
		name:    filepath.Base(name),
		size:    int64(len(e.data)),
		mode:    e.mode,
		modTime: e.modTime,
	}
}

// memFile is a read-only handle on a MemFS entry.
type memFile struct {
	name   string
	entry  *memEntry
	r      *bytes.Reader
	closed bool
}

func (f *memFile) Name() string { return f.name }

func (f *memFile) Read(p []byte) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.r.Read(p)
}

func (f *memFile) ReadAt(p []byte, off int64) (int, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.r.ReadAt(p, off)
}

func (f *memFile) Seek(offset int64, whence int) (int64, error) {
	if f.closed {
		return 0, fs.ErrClosed
	}
	return f.r.Seek(offset, whence)
}

func (f *memFile) Close() error {
	if f.closed {
		return fs.ErrClosed
	}
	f.closed = true
	return nil
}

func (f *memFile) Stat() (fs.FileInfo, error) { return f.entry.info(f.name), nil }

func (f *memFile) Sync() error { return nil }

func (f *memFile) Write(p []byte) (int, error) { return 0, f.readOnly("write") }

func (f *memFile) WriteAt(p []byte, off int64) (int, error) { return 0, f.readOnly("write") }

func (f *memFile) WriteString(s string) (int, error) { return 0, f.readOnly("write") }

func (f *memFile) Truncate(size int64) error { return f.readOnly("truncate") }

func (f *memFile) Readdir(n int) ([]os.FileInfo, error) { return nil, f.notDir() }

func (f *memFile) Readdirnames(n int) ([]string, error) { return nil, f.notDir() }

func (f *memFile) ReadDir(n int) ([]fs.DirEntry, error) { return nil, f.notDir() }

func (f *memFile) readOnly(op string) error {
	return &fs.PathError{Op: op, Path: f.name, Err: fs.ErrPermission}
}

func (f *memFile) notDir() error {
	return &fs.PathError{Op: "readdir", Path: f.name, Err: fs.ErrInvalid}
}

type memFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func (fi *memFileInfo) Name() string       { return fi.name }
func (fi *memFileInfo) Size() int64        { return fi.size }
func (fi *memFileInfo) Mode() fs.FileMode  { return fi.mode }
func (fi *memFileInfo) ModTime() time.Time { return fi.modTime }
func (fi *memFileInfo) IsDir() bool        { return fi.mode.IsDir() }
func (fi *memFileInfo) Sys() interface{}   { return nil }
