// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// BackingReader is any byte source an Archive can be opened against: it
// must support both sequential reads and absolute seeks.
type BackingReader interface {
	io.Reader
	io.Seeker
}

// Duplicable is an optional capability: a backing reader that can hand out
// an independent handle with its own read cursor, positioned at the start
// of the same underlying bytes. File handles duplicate by reopening their
// path; in-memory buffers duplicate by sharing the (immutable) byte slice
// with a fresh cursor.
type Duplicable interface {
	Duplicate() (BackingReader, error)
}

// ThreadTransferable is an optional marker capability: a duplicated handle
// safe to hand to another goroutine for concurrent, independent use. Go has
// no compiler-enforced notion of single-threaded affinity the way the
// original implementation's executor does, so this is a plain capability
// tag rather than an enforced constraint; callers that honor it get
// genuinely concurrent reads via ReadOwned.
type ThreadTransferable interface {
	ThreadTransferable()
}

// FileBacking is a file-backed BackingReader. It remembers the path it was
// opened from so Duplicate can reopen an independent *os.File handle.
type FileBacking struct {
	f    *os.File
	path string
}

// OpenFileBacking opens path for reading as a file-backed archive source.
func OpenFileBacking(path string) (*FileBacking, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileBacking{f: f, path: path}, nil
}

func (fb *FileBacking) Read(p []byte) (int, error) { return fb.f.Read(p) }

func (fb *FileBacking) Seek(offset int64, whence int) (int64, error) {
	return fb.f.Seek(offset, whence)
}

// Duplicate reopens the backing file at its original path, returning an
// independent handle with its own cursor.
func (fb *FileBacking) Duplicate() (BackingReader, error) {
	return OpenFileBacking(fb.path)
}

// ThreadTransferable marks file handles as safe to move across goroutines:
// each duplicate owns a distinct OS file descriptor.
func (fb *FileBacking) ThreadTransferable() {}

// Close releases the underlying file descriptor.
func (fb *FileBacking) Close() error { return fb.f.Close() }

// Path returns the filesystem path this handle was opened from.
func (fb *FileBacking) Path() string { return fb.path }

// Rename moves the backing file to newPath via the OS rename syscall and
// updates the handle's remembered path so future Duplicate calls reopen at
// the new location.
func (fb *FileBacking) Rename(newPath string) error {
	if err := os.Rename(fb.path, newPath); err != nil {
		return fmt.Errorf("asar: rename backing file: %w", err)
	}
	fb.path = newPath
	return nil
}

// MemoryBacking is an in-memory BackingReader over an immutable byte slice.
type MemoryBacking struct {
	data []byte
	r    *bytes.Reader
}

// NewMemoryBacking wraps data as an archive source. data is not copied; the
// caller must not mutate it while the backing (or any duplicate) is in use.
func NewMemoryBacking(data []byte) *MemoryBacking {
	return &MemoryBacking{data: data, r: bytes.NewReader(data)}
}

func (m *MemoryBacking) Read(p []byte) (int, error) { return m.r.Read(p) }

func (m *MemoryBacking) Seek(offset int64, whence int) (int64, error) {
	return m.r.Seek(offset, whence)
}

// Duplicate returns a new MemoryBacking sharing the same underlying slice
// with an independent cursor.
func (m *MemoryBacking) Duplicate() (BackingReader, error) {
	return NewMemoryBacking(m.data), nil
}

// ThreadTransferable marks memory-backed duplicates as safe to move across
// goroutines: each duplicate has its own cursor over shared, immutable data.
func (m *MemoryBacking) ThreadTransferable() {}
