// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// DefaultBlockSize is the block size used by ComputeIntegrity when the
// caller doesn't request a specific one.
const DefaultBlockSize uint32 = 4 * 1024 * 1024

// ComputeIntegrity seeks r to its start and reads it to EOF, hashing it in
// blockSize chunks, and returns the resulting Integrity record. r is left
// positioned at the start on return. A zero blockSize selects
// DefaultBlockSize. Empty content still yields a single block, the SHA-256
// of zero bytes, matching what a reader must accept on the parse side.
func ComputeIntegrity(r io.ReadSeeker, blockSize uint32) (*Integrity, error) {
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	whole := sha256.New()
	buf := make([]byte, blockSize)
	var blocks []string

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			sum := sha256.Sum256(buf[:n])
			blocks = append(blocks, hex.EncodeToString(sum[:]))
			whole.Write(buf[:n])
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, err
		}
	}

	if len(blocks) == 0 {
		empty := sha256.Sum256(nil)
		blocks = append(blocks, hex.EncodeToString(empty[:]))
	}

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	return &Integrity{
		Algorithm: "SHA256",
		Hash:      hex.EncodeToString(whole.Sum(nil)),
		BlockSize: blockSize,
		Blocks:    blocks,
	}, nil
}

// readFullOrEOF reads up to len(buf) bytes from r, stopping early only at
// EOF, and guards against a misbehaving reader that returns (0, nil)
// forever.
func readFullOrEOF(r io.Reader, buf []byte) (int, error) {
	total := 0
	emptyReads := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if n == 0 {
			emptyReads++
			if emptyReads > 100 {
				return total, io.ErrNoProgress
			}
		} else {
			emptyReads = 0
		}
		if err != nil {
			if err == io.EOF {
				return total, nil
			}
			return total, err
		}
	}
	return total, nil
}

// verifyIntegrityBlocks checks r, expected to be exactly size bytes
// starting at the current position, against integrity: each declared block
// hash must match the corresponding chunk of r, the total bytes read must
// equal size, and the whole-content hash must match integrity.Hash.
func verifyIntegrityBlocks(r io.Reader, size uint64, integrity *Integrity) (bool, error) {
	whole := sha256.New()
	buf := make([]byte, integrity.BlockSize)
	var totalRead uint64

	for i, want := range integrity.Blocks {
		n, err := readFullOrEOF(r, buf)
		if err != nil {
			return false, err
		}
		// An empty file may carry one block, the hash of zero bytes.
		if n == 0 && !(size == 0 && i == 0) {
			return false, nil
		}
		sum := sha256.Sum256(buf[:n])
		whole.Write(buf[:n])
		totalRead += uint64(n)
		if hex.EncodeToString(sum[:]) != want {
			return false, nil
		}
	}

	if totalRead != size {
		return false, nil
	}
	return hex.EncodeToString(whole.Sum(nil)) == integrity.Hash, nil
}
