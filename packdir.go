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
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"github.com/woozymasta/pathrules"
	"golang.org/x/sync/errgroup"
)

// PackDirOptions configures PackDir.
type PackDirOptions struct {
	// IgnoreGlobs are doublestar patterns (matched against the archive
	// path, "/"-separated and relative to the packed root) excluded from
	// the archive entirely.
	IgnoreGlobs []string

	// RespectGitignore, when true, additionally excludes paths matched by
	// a .gitignore file at the root of the packed directory.
	RespectGitignore bool

	// Unpack selects paths stored as metadata-only "unpacked" entries
	// instead of having their content embedded in the payload region.
	Unpack               []pathrules.Rule
	UnpackMatcherOptions pathrules.MatcherOptions

	// WithIntegrity computes and attaches a SHA-256 integrity record to
	// every packed (non-unpacked) file.
	WithIntegrity bool

	// Concurrency bounds how many files are stat'd concurrently during the
	// directory walk. Zero selects runtime.GOMAXPROCS(0). The final write
	// itself is always sequential: Writer assigns offsets in the order
	// entries are added, so content is read back in that same order.
	Concurrency int
}

func (o PackDirOptions) withDefaults() PackDirOptions {
	if o.Concurrency <= 0 {
		o.Concurrency = runtime.GOMAXPROCS(0)
	}
	return o
}

// PackResult summarizes a completed PackDir/PackDirToFile run.
type PackResult struct {
	Entries  int
	DataSize int64
}

// packCandidate is one filesystem entry discovered by the directory walk,
// not yet stat'd.
type packCandidate struct {
	relPath  string
	absPath  string
	unpacked bool
}

// packCandidateInfo is a packCandidate with its stat result attached.
type packCandidateInfo struct {
	candidate packCandidate
	size      int64
}

// unpackMatcher wraps a pathrules.Matcher, reusing the teacher's
// compile-once/match-many shape for a different decision (embed vs.
// unpack, rather than embed vs. compress).
type unpackMatcher struct {
	matcher *pathrules.Matcher
}

func newUnpackMatcher(rules []pathrules.Rule, opts pathrules.MatcherOptions) (*unpackMatcher, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	m, err := pathrules.NewMatcher(rules, opts)
	if err != nil {
		return nil, fmt.Errorf("asar: compile unpack rules: %w", err)
	}
	return &unpackMatcher{matcher: m}, nil
}

func (u *unpackMatcher) Match(relPath string) bool {
	if u == nil || u.matcher == nil {
		return false
	}
	return u.matcher.Included(relPath, false)
}

// gitignoreMatcher checks paths against a single root-level .gitignore.
// Nested, per-directory .gitignore inheritance is out of scope: the common
// case of one ignore file at the packed root covers most real trees
// without carrying the full layered-matcher machinery.
type gitignoreMatcher struct {
	gi *ignore.GitIgnore
}

func newGitignoreMatcher(root string, enabled bool) (*gitignoreMatcher, error) {
	if !enabled {
		return &gitignoreMatcher{}, nil
	}
	p := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(p); err != nil {
		if os.IsNotExist(err) {
			return &gitignoreMatcher{}, nil
		}
		return nil, err
	}
	compiled, err := ignore.CompileIgnoreFile(p)
	if err != nil {
		return nil, fmt.Errorf("asar: compile .gitignore: %w", err)
	}
	return &gitignoreMatcher{gi: compiled}, nil
}

func (g *gitignoreMatcher) isIgnored(relPath string) bool {
	if g == nil || g.gi == nil {
		return false
	}
	return g.gi.MatchesPath(relPath)
}

func matchesAnyGlob(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// pendingDir is a directory queued for the walk's explicit stack, avoiding
// unbounded recursion on deep trees.
type pendingDir struct {
	abs string
	rel string
}

// walkPackCandidates walks root depth-first using an explicit stack,
// skipping symlinks, ignored paths, and collecting every regular file as a
// packCandidate in a deterministic (lexical, per-directory) order.
func walkPackCandidates(root string, opts PackDirOptions, unpack *unpackMatcher, gi *gitignoreMatcher) ([]packCandidate, error) {
	var out []packCandidate
	stack := []pendingDir{{abs: root, rel: ""}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(cur.abs)
		if err != nil {
			return nil, err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

		var dirs []pendingDir
		for _, e := range entries {
			if e.Type()&os.ModeSymlink != 0 {
				continue
			}

			absChild := filepath.Join(cur.abs, e.Name())
			relChild := e.Name()
			if cur.rel != "" {
				relChild = cur.rel + "/" + e.Name()
			}

			if matchesAnyGlob(opts.IgnoreGlobs, relChild) || gi.isIgnored(relChild) {
				continue
			}

			if e.IsDir() {
				dirs = append(dirs, pendingDir{abs: absChild, rel: relChild})
				continue
			}

			out = append(out, packCandidate{
				relPath:  relChild,
				absPath:  absChild,
				unpacked: unpack.Match(relChild),
			})
		}
		// Push in reverse so subdirectories are popped in lexical order.
		for i := len(dirs) - 1; i >= 0; i-- {
			stack = append(stack, dirs[i])
		}
	}

	return out, nil
}

// statPackCandidatesConcurrently stats every candidate, fanned out over a
// bounded errgroup.Group, preserving the walk's original order in the
// result slice.
func statPackCandidatesConcurrently(ctx context.Context, candidates []packCandidate, concurrency int) ([]packCandidateInfo, error) {
	infos := make([]packCandidateInfo, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			fi, err := os.Lstat(c.absPath)
			if err != nil {
				return fmt.Errorf("asar: stat %s: %w", c.relPath, err)
			}
			infos[i] = packCandidateInfo{candidate: c, size: fi.Size()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

// PackDir walks srcDir and writes it as an asar archive to dest. The
// directory walk is sequential and metadata stat'ing is concurrent; the
// entries themselves are always added to the Writer, and their content read,
// in the walk's deterministic order, since offsets must be assigned in a
// single, reproducible sequence.
func PackDir(ctx context.Context, srcDir string, dest io.Writer, opts PackDirOptions) (*PackResult, error) {
	opts = opts.withDefaults()

	root, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	unpack, err := newUnpackMatcher(opts.Unpack, opts.UnpackMatcherOptions)
	if err != nil {
		return nil, err
	}
	gi, err := newGitignoreMatcher(root, opts.RespectGitignore)
	if err != nil {
		return nil, err
	}

	candidates, err := walkPackCandidates(root, opts, unpack, gi)
	if err != nil {
		return nil, err
	}
	infos, err := statPackCandidatesConcurrently(ctx, candidates, opts.Concurrency)
	if err != nil {
		return nil, err
	}

	w := NewWriter()
	var dataSize int64

	// Every packed file's handle must stay open until Write drains its
	// queued content, so they're all closed together at the end rather than
	// immediately after each Add* call.
	var openFiles []*os.File
	defer func() {
		for _, f := range openFiles {
			_ = f.Close()
		}
	}()

	for _, info := range infos {
		if info.candidate.unpacked {
			w.AddUnpacked(info.candidate.relPath, uint64(info.size))
			continue
		}

		f, err := os.Open(info.candidate.absPath)
		if err != nil {
			return nil, err
		}
		openFiles = append(openFiles, f)

		var addErr error
		if opts.WithIntegrity {
			addErr = w.AddSizedWithIntegrity(info.candidate.relPath, f)
		} else {
			addErr = w.AddSized(info.candidate.relPath, f)
		}
		if addErr != nil {
			return nil, addErr
		}
		dataSize += info.size
	}

	if err := w.Write(dest); err != nil {
		return nil, err
	}
	return &PackResult{Entries: len(infos), DataSize: dataSize}, nil
}
