package asar

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestFileEntry_RoundTrip(t *testing.T) {
	fe := FileEntry{Meta: FileMetadata{Pos: OffsetPosition(42), Size: 7, Executable: true}}
	data, err := json.Marshal(fe)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got FileEntry
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if off, ok := got.Meta.Pos.Offset(); !ok || off != 42 {
		t.Fatalf("offset = %d, %v, want 42, true", off, ok)
	}
	if got.Meta.Size != 7 || !got.Meta.Executable {
		t.Fatalf("got %+v", got.Meta)
	}
}

func TestFileEntry_OffsetIsString(t *testing.T) {
	fe := FileEntry{Meta: FileMetadata{Pos: OffsetPosition(42), Size: 7}}
	data, err := json.Marshal(fe)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	var offsetRaw string
	if err := json.Unmarshal(raw["offset"], &offsetRaw); err != nil {
		t.Fatalf("offset field is not a JSON string: %v", err)
	}
	if offsetRaw != "42" {
		t.Fatalf("offset = %q, want \"42\"", offsetRaw)
	}
}

func TestFileEntry_UnpackedOmitsOffset(t *testing.T) {
	fe := FileEntry{Meta: FileMetadata{Pos: UnpackedPosition(), Size: 3}}
	data, err := json.Marshal(fe)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	if _, ok := raw["offset"]; ok {
		t.Fatal("unpacked entry should not carry an offset field")
	}
	if _, ok := raw["unpacked"]; !ok {
		t.Fatal("unpacked entry should carry an unpacked field")
	}
}

func TestFileEntry_BothOffsetAndUnpackedIsError(t *testing.T) {
	var fe FileEntry
	err := json.Unmarshal([]byte(`{"offset":"0","unpacked":true,"size":0}`), &fe)
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}

func TestFileEntry_UnpackedFalseAloneIsError(t *testing.T) {
	var fe FileEntry
	err := json.Unmarshal([]byte(`{"unpacked":false,"size":0}`), &fe)
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}

func TestFileEntry_MissingPositionIsError(t *testing.T) {
	var fe FileEntry
	err := json.Unmarshal([]byte(`{"size":0}`), &fe)
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}

func TestFileEntry_InvalidOffsetString(t *testing.T) {
	var fe FileEntry
	err := json.Unmarshal([]byte(`{"offset":"not-a-number","size":0}`), &fe)
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}

func TestDirectoryEntry_PreservesInsertionOrder(t *testing.T) {
	var root DirectoryEntry
	root.Set("zebra", Entry{File: &FileEntry{Meta: FileMetadata{Pos: OffsetPosition(0), Size: 1}}})
	root.Set("apple", Entry{File: &FileEntry{Meta: FileMetadata{Pos: OffsetPosition(1), Size: 1}}})
	root.Set("mango", Entry{File: &FileEntry{Meta: FileMetadata{Pos: OffsetPosition(2), Size: 1}}})

	data, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded DirectoryEntry
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	children := decoded.Children()
	want := []string{"zebra", "apple", "mango"}
	if len(children) != len(want) {
		t.Fatalf("len(children) = %d, want %d", len(children), len(want))
	}
	for i, name := range want {
		if children[i].Name != name {
			t.Errorf("children[%d].Name = %q, want %q", i, children[i].Name, name)
		}
	}
}

func TestDirectoryEntry_MissingFilesIsError(t *testing.T) {
	var dir DirectoryEntry
	err := json.Unmarshal([]byte(`{}`), &dir)
	if !errors.Is(err, ErrInvalidData) {
		t.Fatalf("err = %v, want ErrInvalidData", err)
	}
}

func TestDirectoryEntry_Search(t *testing.T) {
	var sub DirectoryEntry
	sub.Set("b.txt", Entry{File: &FileEntry{Meta: FileMetadata{Pos: OffsetPosition(10), Size: 5}}})

	var root DirectoryEntry
	root.Set("sub", Entry{Dir: &sub})
	root.Set("a.txt", Entry{File: &FileEntry{Meta: FileMetadata{Pos: OffsetPosition(0), Size: 10}}})

	if _, ok := root.Search(nil); !ok {
		t.Fatal("empty segment list should resolve to the directory itself")
	}

	entry, ok := root.Search([]string{"sub", "b.txt"})
	if !ok {
		t.Fatal("expected to find sub/b.txt")
	}
	fe, isFile := entry.AsFile()
	if !isFile || fe.Meta.Size != 5 {
		t.Fatalf("got %+v", entry)
	}

	if _, ok := root.Search([]string{"a.txt", "anything"}); ok {
		t.Fatal("descending through a file should fail")
	}

	if _, ok := root.Search([]string{"missing"}); ok {
		t.Fatal("expected miss for unknown path")
	}
}

func TestEntry_DiscriminatesOnFilesKey(t *testing.T) {
	var e Entry
	if err := json.Unmarshal([]byte(`{"files":{}}`), &e); err != nil {
		t.Fatalf("Unmarshal directory: %v", err)
	}
	if !e.IsDir() {
		t.Fatal("expected a directory entry")
	}

	if err := json.Unmarshal([]byte(`{"size":0,"offset":"0"}`), &e); err != nil {
		t.Fatalf("Unmarshal file: %v", err)
	}
	if !e.IsFile() {
		t.Fatal("expected a file entry")
	}
}
