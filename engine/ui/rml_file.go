package ui

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"
)

// ErrUnknownFile is returned for file handles that are not open.
var ErrUnknownFile = errors.New("ui: unknown file handle")

// RmlFile implements FileInterface over an fs.FS. Files are read fully on Open, so
// seeking works for every file system.
type RmlFile struct {
	mu    *sync.Mutex
	fsys  fs.FS
	next  FileHandle
	files map[FileHandle]*bytes.Reader
}

var _ FileInterface = &RmlFile{}

// NewRmlFile creates a file interface serving fsys. Panics if fsys is nil.
//
// Parameters:
//   - fsys: the file system documents and resources are loaded from
//
// Returns:
//   - *RmlFile: the new file interface
func NewRmlFile(fsys fs.FS) *RmlFile {
	if fsys == nil {
		panic("ui: RmlFile requires a non-nil fs.FS")
	}
	return &RmlFile{
		mu:    &sync.Mutex{},
		fsys:  fsys,
		files: make(map[FileHandle]*bytes.Reader),
	}
}

// FS returns the served file system.
func (f *RmlFile) FS() fs.FS { return f.fsys }

// Open reads the whole file. Paths are slash separated; a leading slash is ignored.
func (f *RmlFile) Open(name string) (FileHandle, error) {
	clean := cleanPath(name)
	data, err := fs.ReadFile(f.fsys, clean)
	if err != nil {
		return 0, fmt.Errorf("ui: failed to open %s: %w", name, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.files[f.next] = bytes.NewReader(data)
	return f.next, nil
}

func (f *RmlFile) Close(file FileHandle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, file)
}

// Read fills buf from the current position. It returns io.EOF at the end of the file.
func (f *RmlFile) Read(file FileHandle, buf []byte) (int, error) {
	r, err := f.reader(file)
	if err != nil {
		return 0, err
	}
	return r.Read(buf)
}

// Seek moves the read position; whence is io.SeekStart, io.SeekCurrent or io.SeekEnd.
func (f *RmlFile) Seek(file FileHandle, offset int64, whence int) error {
	r, err := f.reader(file)
	if err != nil {
		return err
	}
	_, err = r.Seek(offset, whence)
	return err
}

func (f *RmlFile) Tell(file FileHandle) (int64, error) {
	r, err := f.reader(file)
	if err != nil {
		return 0, err
	}
	return r.Seek(0, io.SeekCurrent)
}

func (f *RmlFile) Length(file FileHandle) (int64, error) {
	r, err := f.reader(file)
	if err != nil {
		return 0, err
	}
	return r.Size(), nil
}

// NumOpen returns the number of open files.
func (f *RmlFile) NumOpen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

func (f *RmlFile) reader(file FileHandle) (*bytes.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.files[file]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFile, file)
	}
	return r, nil
}

func cleanPath(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Clean("/" + name)
	return strings.TrimPrefix(name, "/")
}
