// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// preambleSize is the fixed 16-byte pickle-style length-prefix block at the
// start of every archive: four little-endian u32 words, the last of which
// (at byte offset 12) is the header JSON's byte length.
const preambleSize = 16

// alignPad returns the number of zero bytes needed to round n up to a
// 4-byte boundary.
func alignPad(n uint32) uint32 {
	return (4 - n%4) % 4
}

// readEnvelope seeks to the header-length word, reads the header JSON that
// follows it, and returns the header and the byte offset where the payload
// region begins (16 + header length + alignment padding).
func readEnvelope(r io.ReadSeeker) (DirectoryEntry, int64, error) {
	if _, err := r.Seek(12, io.SeekStart); err != nil {
		return DirectoryEntry{}, 0, err
	}

	var lenWord [4]byte
	if _, err := io.ReadFull(r, lenWord[:]); err != nil {
		return DirectoryEntry{}, 0, fmt.Errorf("%w: truncated envelope: %v", ErrInvalidData, err)
	}
	headerLen := binary.LittleEndian.Uint32(lenWord[:])

	headerBytes := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return DirectoryEntry{}, 0, fmt.Errorf("%w: truncated header: %v", ErrInvalidData, err)
	}

	var root DirectoryEntry
	if err := json.Unmarshal(headerBytes, &root); err != nil {
		if errors.Is(err, ErrInvalidData) {
			return DirectoryEntry{}, 0, err
		}
		return DirectoryEntry{}, 0, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	base := int64(preambleSize) + int64(headerLen) + int64(alignPad(headerLen))
	return root, base, nil
}

// writeEnvelope writes the 16-byte preamble, the header JSON, and its
// alignment padding to dest, returning the total number of bytes written
// (the payload region's starting offset within the stream).
func writeEnvelope(dest io.Writer, root DirectoryEntry) (int64, error) {
	headerBytes, err := json.Marshal(root)
	if err != nil {
		return 0, err
	}

	headerLen := uint32(len(headerBytes))
	pad := alignPad(headerLen)

	var words [preambleSize]byte
	binary.LittleEndian.PutUint32(words[0:4], 4)
	binary.LittleEndian.PutUint32(words[4:8], headerLen+pad+8)
	binary.LittleEndian.PutUint32(words[8:12], headerLen+pad+4)
	binary.LittleEndian.PutUint32(words[12:16], headerLen)

	if _, err := dest.Write(words[:]); err != nil {
		return 0, err
	}
	if _, err := dest.Write(headerBytes); err != nil {
		return 0, err
	}
	if pad > 0 {
		if _, err := dest.Write(make([]byte, pad)); err != nil {
			return 0, err
		}
	}

	return int64(preambleSize) + int64(headerLen) + int64(pad), nil
}
