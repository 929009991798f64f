// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import "errors"

// Sentinel errors returned by this package. Wrap with fmt.Errorf("%w: ...")
// at call sites to attach context; callers should match with errors.Is.
var (
	// ErrInvalidData marks a malformed envelope or header: truncated
	// preamble, header JSON that doesn't parse, or a field combination the
	// format forbids (both "offset" and "unpacked", "unpacked": false alone,
	// a non-u64 offset string, a directory entry missing "files").
	ErrInvalidData = errors.New("asar: invalid archive data")

	// ErrNotFound is returned when a path does not resolve to any entry.
	ErrNotFound = errors.New("asar: entry not found")

	// ErrNotAFile is returned when an operation requiring a file entry
	// resolves to a directory instead.
	ErrNotAFile = errors.New("asar: entry is a directory")

	// ErrUnpackedUnsupported is returned when a read is attempted against a
	// file entry whose position is "unpacked": retrieving unpacked content
	// is outside this package's archive-reading responsibility.
	ErrUnpackedUnsupported = errors.New("asar: unpacked file is currently not supported")

	// ErrDuplicateUnsupported is returned by ReadOwned/ReadOwnedLocal when
	// the backing reader does not implement Duplicable.
	ErrDuplicateUnsupported = errors.New("asar: backing reader does not support duplication")

	// ErrTransferUnsupported is returned by ReadOwned when the backing
	// reader is Duplicable but not ThreadTransferable.
	ErrTransferUnsupported = errors.New("asar: backing reader's duplicate handle is not thread-transferable")

	// ErrInvalidInput is returned by File.Seek for a negative From-Start
	// offset, a From-End offset whose magnitude exceeds the entry size, or
	// a From-Current offset that would move before position zero.
	ErrInvalidInput = errors.New("asar: seek would move outside the entry")

	// ErrNoIntegrityRecord is returned by File.VerifyIntegrity when the
	// entry carries no integrity metadata to check against.
	ErrNoIntegrityRecord = errors.New("asar: entry has no integrity record")

	// ErrShortPayload is returned by Writer.Write when a queued
	// payload reader produced fewer bytes than the size it was added with.
	ErrShortPayload = errors.New("asar: payload shorter than declared size")
)
