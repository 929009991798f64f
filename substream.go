// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import "io"

// File is a bounded, seekable window over a backing reader: the half-open
// byte range [absBase, absBase+size) of whatever stream backs it. It is the
// sub-stream handed out by Archive.Read/ReadOwned/ReadOwnedLocal.
//
// Seek translates every request into an absolute position on the backing
// reader and takes the backing seek's own return value as the source of
// truth for where the cursor ended up, exactly as the original
// implementation's AsyncSeek does for its relative/limit pair. A bare
// io.SectionReader does not do this: it clamps silently on every whence and
// never reports ErrInvalidInput, so it cannot serve as this component.
type File struct {
	backing BackingReader
	absBase int64
	size    uint64
	pos     uint64 // current read position, relative to absBase, in [0, size]
	meta    FileMetadata
	closer  func() error
}

// newFile constructs a File already positioned at the start of its window.
// The backing reader must already be seeked to absBase.
func newFile(backing BackingReader, absBase int64, meta FileMetadata, closer func() error) *File {
	return &File{backing: backing, absBase: absBase, size: meta.Size, meta: meta, closer: closer}
}

// Metadata returns the entry metadata this sub-stream was opened for.
func (f *File) Metadata() FileMetadata { return f.meta }

// Read reads from the current position, never crossing the window's end.
func (f *File) Read(p []byte) (int, error) {
	remaining := f.size - f.pos
	if remaining == 0 {
		return 0, io.EOF
	}
	if uint64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := f.backing.Read(p)
	f.pos += uint64(n)
	return n, err
}

// Seek repositions the read cursor, translating the requested offset and
// whence into an absolute position on the backing reader:
//
//   - io.SeekStart: negative offsets are invalid; positive offsets beyond
//     the window's size are clamped to its end.
//   - io.SeekEnd: a positive offset is clamped to the window's end; a
//     negative offset whose magnitude exceeds the window's size fails with
//     ErrInvalidInput.
//   - io.SeekCurrent: a positive offset is clamped to the window's end; a
//     negative offset that would move before position zero fails with
//     ErrInvalidInput.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var absolute int64

	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return int64(f.pos), ErrInvalidInput
		}
		target := uint64(offset)
		if target > f.size {
			target = f.size
		}
		absolute = f.absBase + int64(target)

	case io.SeekCurrent:
		if offset >= 0 {
			target := f.pos + uint64(offset)
			if target > f.size {
				target = f.size
			}
			absolute = f.absBase + int64(target)
		} else {
			back := uint64(-offset)
			if back > f.pos {
				return int64(f.pos), ErrInvalidInput
			}
			absolute = f.absBase + int64(f.pos-back)
		}

	case io.SeekEnd:
		if offset > 0 {
			absolute = f.absBase + int64(f.size)
		} else {
			back := uint64(-offset)
			if back > f.size {
				return int64(f.pos), ErrInvalidInput
			}
			absolute = f.absBase + int64(f.size-back)
		}

	default:
		return int64(f.pos), ErrInvalidInput
	}

	newAbs, err := f.backing.Seek(absolute, io.SeekStart)
	if err != nil {
		return int64(f.pos), err
	}

	f.pos = uint64(newAbs - f.absBase)
	return int64(f.pos), nil
}

// VerifyIntegrity checks the entry's content against its integrity record,
// if any, rewinding the cursor to the start of the window on every exit
// path regardless of outcome.
func (f *File) VerifyIntegrity() (bool, error) {
	if f.meta.Integrity == nil {
		return false, ErrNoIntegrityRecord
	}
	defer func() { _, _ = f.Seek(0, io.SeekStart) }()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return false, err
	}
	return verifyIntegrityBlocks(f, f.size, f.meta.Integrity)
}

// Close releases the underlying handle if this File owns one (as produced
// by Archive.ReadOwned/ReadOwnedLocal). Files returned by Archive.Read share
// the archive's backing reader and Close is a no-op.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	closer := f.closer
	f.closer = nil
	return closer()
}
