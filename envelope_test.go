package asar

import (
	"bytes"
	"testing"
)

func TestWriteEnvelope_Alignment(t *testing.T) {
	var root DirectoryEntry
	root.Set("a.txt", Entry{File: &FileEntry{Meta: FileMetadata{Pos: OffsetPosition(0), Size: 3}}})

	var buf bytes.Buffer
	base, err := writeEnvelope(&buf, root)
	if err != nil {
		t.Fatalf("writeEnvelope: %v", err)
	}

	if base%4 != 0 {
		t.Fatalf("payload base %d is not 4-byte aligned", base)
	}
	if int64(buf.Len()) != base {
		t.Fatalf("buf.Len() = %d, want %d (header alone, no payload written)", buf.Len(), base)
	}
}

func TestEnvelope_RoundTrip(t *testing.T) {
	var root DirectoryEntry
	root.Set("a.txt", Entry{File: &FileEntry{Meta: FileMetadata{Pos: OffsetPosition(0), Size: 3}}})
	root.Set("dir", Entry{Dir: &DirectoryEntry{}})

	var buf bytes.Buffer
	if _, err := writeEnvelope(&buf, root); err != nil {
		t.Fatalf("writeEnvelope: %v", err)
	}
	buf.WriteString("xyz") // payload bytes for a.txt

	r := bytes.NewReader(buf.Bytes())
	gotRoot, base, err := readEnvelope(r)
	if err != nil {
		t.Fatalf("readEnvelope: %v", err)
	}

	entry, ok := gotRoot.Search([]string{"a.txt"})
	if !ok {
		t.Fatal("expected a.txt in round-tripped header")
	}
	fe, _ := entry.AsFile()
	if fe.Meta.Size != 3 {
		t.Fatalf("size = %d, want 3", fe.Meta.Size)
	}

	payload := make([]byte, 3)
	if _, err := r.ReadAt(payload, base); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(payload) != "xyz" {
		t.Fatalf("payload = %q, want %q", payload, "xyz")
	}
}

func TestReadEnvelope_TruncatedHeader(t *testing.T) {
	var root DirectoryEntry
	var buf bytes.Buffer
	if _, err := writeEnvelope(&buf, root); err != nil {
		t.Fatalf("writeEnvelope: %v", err)
	}

	truncated := buf.Bytes()[:preambleSize+1]
	_, _, err := readEnvelope(bytes.NewReader(truncated))
	if err == nil {
		t.Fatal("expected an error for a truncated header")
	}
}
