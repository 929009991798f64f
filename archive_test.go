package asar

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func buildTestArchive(t *testing.T) []byte {
	t.Helper()
	w := NewWriter()
	w.Add("a.txt", bytes.NewReader([]byte("hello")), 5)
	w.Add("dir/b.txt", bytes.NewReader([]byte("world!")), 6)
	w.AddEmptyFolder("dir/empty")
	w.AddUnpacked("external.bin", 1024)

	var buf bytes.Buffer
	if err := w.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestOpenMemory_ReadFile(t *testing.T) {
	data := buildTestArchive(t)
	a, err := OpenMemory(data)
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}

	f, err := a.Read("dir/b.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "world!" {
		t.Fatalf("got %q, want world!", got)
	}
}

func TestOpenMemory_NotFound(t *testing.T) {
	a, err := OpenMemory(buildTestArchive(t))
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if _, err := a.Read("nope.txt"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestOpenMemory_NotAFile(t *testing.T) {
	a, err := OpenMemory(buildTestArchive(t))
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if _, err := a.Read("dir"); !errors.Is(err, ErrNotAFile) {
		t.Fatalf("err = %v, want ErrNotAFile", err)
	}
}

func TestOpenMemory_UnpackedUnsupported(t *testing.T) {
	a, err := OpenMemory(buildTestArchive(t))
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if _, err := a.Read("external.bin"); !errors.Is(err, ErrUnpackedUnsupported) {
		t.Fatalf("err = %v, want ErrUnpackedUnsupported", err)
	}
}

func TestArchive_ReadOwned_IndependentCursors(t *testing.T) {
	a, err := OpenMemory(buildTestArchive(t))
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}

	f1, err := a.ReadOwned("a.txt")
	if err != nil {
		t.Fatalf("ReadOwned: %v", err)
	}
	f2, err := a.ReadOwned("dir/b.txt")
	if err != nil {
		t.Fatalf("ReadOwned: %v", err)
	}

	buf1 := make([]byte, 2)
	if _, err := io.ReadFull(f1, buf1); err != nil {
		t.Fatalf("ReadFull f1: %v", err)
	}
	got2, err := io.ReadAll(f2)
	if err != nil {
		t.Fatalf("ReadAll f2: %v", err)
	}
	if string(got2) != "world!" {
		t.Fatalf("f2 = %q, want world! (independent cursor corrupted by f1 reads)", got2)
	}
	rest1, err := io.ReadAll(f1)
	if err != nil {
		t.Fatalf("ReadAll rest of f1: %v", err)
	}
	if string(buf1)+string(rest1) != "hello" {
		t.Fatalf("f1 = %q, want hello", string(buf1)+string(rest1))
	}
}

func TestOpenFile_ReadOwned(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.asar")
	if err := os.WriteFile(path, buildTestArchive(t), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer a.Close()

	f, err := a.ReadOwned("a.txt")
	if err != nil {
		t.Fatalf("ReadOwned: %v", err)
	}
	defer f.Close()

	got, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want hello", got)
	}
}

func TestArchive_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.asar")
	if err := os.WriteFile(path, buildTestArchive(t), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	a, err := OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer a.Close()

	out := filepath.Join(dir, "out")
	if err := a.Extract(context.Background(), out, ExtractOptions{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, "dir", "b.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "world!" {
		t.Fatalf("got %q, want world!", got)
	}

	if fi, err := os.Stat(filepath.Join(out, "dir", "empty")); err != nil || !fi.IsDir() {
		t.Fatalf("expected dir/empty to exist as a directory: %v", err)
	}

	if _, err := os.Stat(filepath.Join(out, "external.bin")); !os.IsNotExist(err) {
		t.Fatalf("expected unpacked entry to be skipped during extract, err=%v", err)
	}
}
