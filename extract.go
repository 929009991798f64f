// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ExtractOptions controls Archive.Extract.
type ExtractOptions struct {
	// Concurrency bounds how many files are copied to disk at once. Zero
	// selects runtime.GOMAXPROCS(0). Concurrency above 1 only actually
	// parallelizes when the archive's backing reader is Duplicable; with a
	// non-duplicable backing, files are copied one at a time regardless.
	Concurrency int

	// FileMode is the permission bits given to extracted files.
	FileMode os.FileMode

	// DirMode is the permission bits given to created directories.
	DirMode os.FileMode
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	if o.FileMode == 0 {
		o.FileMode = 0o644
	}
	if o.DirMode == 0 {
		o.DirMode = 0o755
	}
	return o
}

// extractTask is a single file entry queued for content copy, with the
// filesystem destination it resolved to during the tree walk.
type extractTask struct {
	destPath string
	entry    *FileEntry
}

type extractDir struct {
	node    *DirectoryEntry
	relPath string
}

// Extract materializes the archive under destDir: directories are created
// first, depth-first via an explicit work stack (not recursion, so
// extremely deep trees can't exhaust the goroutine stack), then file
// content is copied, optionally fanned out across a bounded worker pool
// when the backing reader supports duplication. Unpacked file entries are
// skipped: retrieving their content is not this package's responsibility.
func (a *Archive) Extract(ctx context.Context, destDir string, opts ExtractOptions) error {
	opts = opts.withDefaults()

	if err := os.MkdirAll(destDir, opts.DirMode); err != nil {
		return err
	}

	var tasks []extractTask
	stack := []extractDir{{node: &a.root, relPath: ""}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, child := range cur.node.Children() {
			relPath := child.Name
			if cur.relPath != "" {
				relPath = cur.relPath + "/" + child.Name
			}
			destPath := filepath.Join(destDir, filepath.FromSlash(relPath))

			switch {
			case child.Entry.IsDir():
				if err := os.MkdirAll(destPath, opts.DirMode); err != nil {
					return err
				}
				dirEntry, _ := child.Entry.AsDir()
				stack = append(stack, extractDir{node: dirEntry, relPath: relPath})
			case child.Entry.IsFile():
				fe, _ := child.Entry.AsFile()
				if fe.Meta.Pos.IsUnpacked() {
					continue
				}
				tasks = append(tasks, extractTask{destPath: destPath, entry: fe})
			}
		}
	}

	if _, ok := a.backing.(Duplicable); ok {
		return a.extractConcurrent(ctx, tasks, opts)
	}
	return a.extractSequential(tasks, opts)
}

func (a *Archive) extractSequential(tasks []extractTask, opts ExtractOptions) error {
	for _, t := range tasks {
		abs := a.base + mustOffset(t.entry)
		if _, err := a.backing.Seek(abs, io.SeekStart); err != nil {
			return err
		}
		f := newFile(a.backing, abs, t.entry.Meta, nil)
		if err := copyToFile(t.destPath, f, opts.FileMode); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) extractConcurrent(ctx context.Context, tasks []extractTask, opts ExtractOptions) error {
	dup := a.backing.(Duplicable)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, t := range tasks {
		t := t
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			handle, err := dup.Duplicate()
			if err != nil {
				return err
			}
			defer func() {
				if c, ok := handle.(io.Closer); ok {
					_ = c.Close()
				}
			}()

			abs := a.base + mustOffset(t.entry)
			if _, err := handle.Seek(abs, io.SeekStart); err != nil {
				return err
			}
			f := newFile(handle, abs, t.entry.Meta, nil)
			return copyToFile(t.destPath, f, opts.FileMode)
		})
	}

	return g.Wait()
}

func mustOffset(fe *FileEntry) int64 {
	offset, _ := fe.Meta.Pos.Offset()
	return int64(offset)
}

func copyToFile(destPath string, src *File, mode os.FileMode) error {
	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	_, copyErr := io.Copy(out, src)
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("asar: extract %s: %w", destPath, copyErr)
	}
	return closeErr
}
