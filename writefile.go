// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// tempPublishName derives a sibling temp-file name for destPath, suffixed
// with a random UUID so concurrent publishes to the same destination never
// collide.
func tempPublishName(destPath string) string {
	return destPath + ".tmp-" + uuid.NewString()
}

// WriteFile renders w to a temp file next to destPath and atomically
// renames it into place, so readers never observe a partially written
// archive at destPath.
func WriteFile(destPath string, w *Writer) error {
	tmp := tempPublishName(destPath)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("asar: create temp archive: %w", err)
	}

	writeErr := w.Write(f)
	closeErr := f.Close()
	if writeErr != nil {
		_ = os.Remove(tmp)
		return writeErr
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return closeErr
	}

	if err := os.Rename(tmp, destPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("asar: publish archive: %w", err)
	}
	return nil
}

// PackDirToFile packs srcDir and atomically publishes the result to
// destPath, the same way WriteFile does for an already-built Writer.
func PackDirToFile(ctx context.Context, srcDir, destPath string, opts PackDirOptions) (*PackResult, error) {
	tmp := tempPublishName(destPath)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("asar: create temp archive: %w", err)
	}

	res, packErr := PackDir(ctx, srcDir, f, opts)
	closeErr := f.Close()
	if packErr != nil {
		_ = os.Remove(tmp)
		return nil, packErr
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return nil, closeErr
	}

	if err := os.Rename(tmp, destPath); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("asar: publish archive: %w", err)
	}
	return res, nil
}
