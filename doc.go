// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

/*
Package asar reads and writes asar archives: a single-file container format
(the format Electron apps ship their bundled source in) made of a 16-byte
length-prefixed preamble, a UTF-8 JSON header describing a directory tree,
and a concatenated region of file payloads the header's entries point into
by offset.

# Reading

Open an archive and read a file out of it:

	a, err := asar.OpenFile("app.asar")
	if err != nil {
	    return err
	}
	defer a.Close()

	f, err := a.Read("package.json")
	if err != nil {
	    return err
	}
	defer f.Close()
	data, err := io.ReadAll(f)

Read borrows the archive's single backing reader; to read multiple files
concurrently, use ReadOwned (or ReadOwnedLocal, if the handle won't cross a
goroutine boundary) instead, which duplicates the backing reader so each
File gets an independent cursor:

	f, err := a.ReadOwned("lib/index.js")

Both calls fail with ErrDuplicateUnsupported if the backing reader can't be
duplicated (an io.ReadSeeker built directly from a network stream, say,
rather than OpenFile/OpenMemory).

Extract an entire archive to a directory:

	err := a.Extract(ctx, "out/", asar.ExtractOptions{})

# Writing

Build an archive incrementally and write it out:

	w := asar.NewWriter()
	w.Add("package.json", strings.NewReader(`{"name":"demo"}`), 15)
	w.AddEmptyFolder("node_modules")
	if err := w.AddSizedWithIntegrity("lib/index.js", srcFile); err != nil {
	    return err
	}
	if err := w.Write(out); err != nil {
	    return err
	}

Or pack a directory tree directly:

	res, err := asar.PackDir(ctx, "my-app/", out, asar.PackDirOptions{
	    IgnoreGlobs:      []string{"*.log"},
	    RespectGitignore: true,
	    WithIntegrity:    true,
	})

WriteFile and PackDirToFile wrap Write and PackDir to publish atomically: the
archive is written to a temp file next to the destination and renamed into
place, so a reader never observes a partially written file.

# Integrity

File entries may carry a per-block SHA-256 digest. AddSizedWithIntegrity and
PackDirOptions.WithIntegrity compute it on write; File.VerifyIntegrity checks
it on read.
*/
package asar
