// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import (
	"fmt"
	"io"
)

// Archive is a parsed asar archive: a directory tree plus the backing
// reader its file entries' offsets are relative to.
type Archive struct {
	backing BackingReader
	base    int64
	root    DirectoryEntry
}

// Open parses an archive from backing: it reads the envelope (16-byte
// preamble plus header JSON) and leaves backing's cursor wherever that left
// it. backing is retained and used by Read; ReadOwned/ReadOwnedLocal
// instead duplicate it if it implements Duplicable.
func Open(backing BackingReader) (*Archive, error) {
	root, base, err := readEnvelope(backing)
	if err != nil {
		return nil, err
	}
	return &Archive{backing: backing, base: base, root: root}, nil
}

// OpenFile opens and parses the archive at path.
func OpenFile(path string) (*Archive, error) {
	fb, err := OpenFileBacking(path)
	if err != nil {
		return nil, err
	}
	a, err := Open(fb)
	if err != nil {
		_ = fb.Close()
		return nil, err
	}
	return a, nil
}

// OpenMemory parses an archive out of an in-memory byte slice. data is not
// copied; the caller must not mutate it while the Archive is in use.
func OpenMemory(data []byte) (*Archive, error) {
	return Open(NewMemoryBacking(data))
}

// Header returns the archive's root directory entry.
func (a *Archive) Header() *DirectoryEntry { return &a.root }

// Close releases the archive's backing reader, if it implements io.Closer.
func (a *Archive) Close() error {
	if c, ok := a.backing.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// resolve normalizes path and searches the header tree for it.
func (a *Archive) resolve(path string) (Entry, bool) {
	return a.root.Search(SplitPath(path))
}

// resolveFile resolves path to a file entry, translating directory hits and
// misses into the documented sentinel errors.
func (a *Archive) resolveFile(path string) (*FileEntry, int64, error) {
	entry, ok := a.resolve(path)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	fe, isFile := entry.AsFile()
	if !isFile {
		return nil, 0, fmt.Errorf("%w: %s", ErrNotAFile, path)
	}
	offset, ok := fe.Meta.Pos.Offset()
	if !ok {
		return nil, 0, fmt.Errorf("%w: %s", ErrUnpackedUnsupported, path)
	}
	return fe, a.base + int64(offset), nil
}

// Read opens the file at path as a sub-stream over the archive's shared
// backing reader. The returned File borrows that reader exclusively: it is
// not safe to use concurrently with another Read/ReadOwned* call against
// the same Archive, or with another still-open File obtained from Read.
// Calling Read again after an earlier one simply reseeks the shared cursor
// to the new file's own offset.
func (a *Archive) Read(path string) (*File, error) {
	fe, abs, err := a.resolveFile(path)
	if err != nil {
		return nil, err
	}
	if _, err := a.backing.Seek(abs, io.SeekStart); err != nil {
		return nil, err
	}
	return newFile(a.backing, abs, fe.Meta, nil), nil
}

// ReadOwnedLocal opens the file at path on a freshly duplicated backing
// handle, independent of the archive's shared cursor and of any other File
// in play. It requires the backing reader to implement Duplicable, but not
// ThreadTransferable: the returned File must stay on the goroutine that
// created it (or be synchronized externally).
func (a *Archive) ReadOwnedLocal(path string) (*File, error) {
	dup, ok := a.backing.(Duplicable)
	if !ok {
		return nil, ErrDuplicateUnsupported
	}
	return a.readDuplicated(path, dup)
}

// ReadOwned is like ReadOwnedLocal, but additionally requires the backing
// reader to implement ThreadTransferable, certifying that the duplicated
// handle is safe to hand to another goroutine.
func (a *Archive) ReadOwned(path string) (*File, error) {
	dup, ok := a.backing.(Duplicable)
	if !ok {
		return nil, ErrDuplicateUnsupported
	}
	if _, ok := a.backing.(ThreadTransferable); !ok {
		return nil, ErrTransferUnsupported
	}
	return a.readDuplicated(path, dup)
}

func (a *Archive) readDuplicated(path string, dup Duplicable) (*File, error) {
	fe, abs, err := a.resolveFile(path)
	if err != nil {
		return nil, err
	}

	handle, err := dup.Duplicate()
	if err != nil {
		return nil, err
	}
	if _, err := handle.Seek(abs, io.SeekStart); err != nil {
		if c, ok := handle.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}

	var closer func() error
	if c, ok := handle.(io.Closer); ok {
		closer = c.Close
	}
	return newFile(handle, abs, fe.Meta, closer), nil
}
