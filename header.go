// SPDX-License-Identifier: MIT
// Source: github.com/hack3ric/hive-asar

package asar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FilePosition marks where a file entry's content lives: either a byte
// offset into the concatenated payload region, or "unpacked" (stored outside
// the archive entirely, at a path the archive does not record).
type FilePosition struct {
	unpacked bool
	offset   uint64
}

// OffsetPosition builds a FilePosition pointing at the given payload offset.
func OffsetPosition(offset uint64) FilePosition {
	return FilePosition{offset: offset}
}

// UnpackedPosition builds a FilePosition for an unpacked entry.
func UnpackedPosition() FilePosition {
	return FilePosition{unpacked: true}
}

// IsUnpacked reports whether the position refers to unpacked content.
func (p FilePosition) IsUnpacked() bool { return p.unpacked }

// Offset returns the payload offset and true, or (0, false) if unpacked.
func (p FilePosition) Offset() (uint64, bool) {
	if p.unpacked {
		return 0, false
	}
	return p.offset, true
}

// Integrity records a per-block SHA-256 digest of a file's content, used to
// detect truncation or corruption of the payload region independent of
// filesystem-level checksums.
type Integrity struct {
	Algorithm string   `json:"algorithm"`
	Hash      string   `json:"hash"`
	BlockSize uint32   `json:"blockSize"`
	Blocks    []string `json:"blocks"`
}

// FileMetadata describes a file entry: where its content lives, how big it
// is, whether it carries the executable bit, and an optional integrity
// record.
type FileMetadata struct {
	Pos        FilePosition
	Size       uint64
	Executable bool
	Integrity  *Integrity
}

// FileEntry is a directory child describing a single file.
type FileEntry struct {
	Meta FileMetadata
}

// fileEntryWire mirrors the on-disk JSON shape of a file entry, where the
// position is carried as either an "offset" string or an "unpacked" bool.
type fileEntryWire struct {
	Offset     *string    `json:"offset,omitempty"`
	Unpacked   *bool      `json:"unpacked,omitempty"`
	Size       uint64     `json:"size"`
	Executable bool       `json:"executable,omitempty"`
	Integrity  *Integrity `json:"integrity,omitempty"`
}

// MarshalJSON renders the file entry in the flat shape asar readers expect:
// no "file" wrapper key, offset carried as a decimal string.
func (fe FileEntry) MarshalJSON() ([]byte, error) {
	wire := fileEntryWire{
		Size:       fe.Meta.Size,
		Executable: fe.Meta.Executable,
		Integrity:  fe.Meta.Integrity,
	}
	if fe.Meta.Pos.unpacked {
		t := true
		wire.Unpacked = &t
	} else {
		s := strconv.FormatUint(fe.Meta.Pos.offset, 10)
		wire.Offset = &s
	}
	return json.Marshal(wire)
}

// UnmarshalJSON parses a file entry, enforcing the position field rules:
// offset and unpacked are mutually exclusive, "unpacked": false alone is
// invalid, and one of the two must be present.
func (fe *FileEntry) UnmarshalJSON(data []byte) error {
	var wire fileEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	hasOffset := wire.Offset != nil
	hasUnpacked := wire.Unpacked != nil

	switch {
	case hasOffset && hasUnpacked:
		return fmt.Errorf("%w: got both 'unpacked' and 'offset'", ErrInvalidData)
	case hasUnpacked && !*wire.Unpacked:
		return fmt.Errorf(`%w: "unpacked": false alone is invalid`, ErrInvalidData)
	case hasUnpacked:
		fe.Meta.Pos = UnpackedPosition()
	case hasOffset:
		v, err := strconv.ParseUint(*wire.Offset, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: offset %q is not a valid u64 string", ErrInvalidData, *wire.Offset)
		}
		fe.Meta.Pos = OffsetPosition(v)
	default:
		return fmt.Errorf("%w: file entry missing 'offset' or 'unpacked'", ErrInvalidData)
	}

	fe.Meta.Size = wire.Size
	fe.Meta.Executable = wire.Executable
	fe.Meta.Integrity = wire.Integrity
	return nil
}

// dirChild is one name/entry pair in a DirectoryEntry's insertion order.
type dirChild struct {
	name  string
	entry Entry
}

// DirectoryEntry is a directory's children, kept in insertion order. A Go
// map loses that order on every JSON round-trip (encoding/json re-sorts map
// keys), so children are held as an ordered slice of pairs instead, mirroring
// the teacher's own ordered key/value pair list for its header table.
type DirectoryEntry struct {
	children []dirChild
}

// Get looks up a direct child by name.
func (d *DirectoryEntry) Get(name string) (Entry, bool) {
	for _, c := range d.children {
		if c.name == name {
			return c.entry, true
		}
	}
	return Entry{}, false
}

// Set inserts or replaces a direct child, preserving its original position
// on replacement and appending on first insertion.
func (d *DirectoryEntry) Set(name string, entry Entry) {
	for i, c := range d.children {
		if c.name == name {
			d.children[i].entry = entry
			return
		}
	}
	d.children = append(d.children, dirChild{name: name, entry: entry})
}

// DirChild is an exported view of one directory child, returned by Children.
type DirChild struct {
	Name  string
	Entry Entry
}

// Children returns the directory's direct children in insertion order.
func (d *DirectoryEntry) Children() []DirChild {
	out := make([]DirChild, len(d.children))
	for i, c := range d.children {
		out[i] = DirChild{Name: c.name, Entry: c.entry}
	}
	return out
}

// Search resolves a normalized segment path against the directory tree,
// descending one segment at a time. Every intermediate segment must name a
// directory; the terminal segment may name either a file or a directory. An
// empty segment list resolves to the directory itself.
func (d *DirectoryEntry) Search(segments []string) (Entry, bool) {
	if len(segments) == 0 {
		return Entry{Dir: d}, true
	}
	child, ok := d.Get(segments[0])
	if !ok {
		return Entry{}, false
	}
	if len(segments) == 1 {
		return child, true
	}
	if child.Dir == nil {
		return Entry{}, false
	}
	return child.Dir.Search(segments[1:])
}

// Entry is a tagged union over a directory's possible children: exactly one
// of File or Dir is set. The JSON form is untagged, discriminated on the
// wire by the presence of a "files" key.
type Entry struct {
	File *FileEntry
	Dir  *DirectoryEntry
}

// IsFile reports whether the entry is a file.
func (e Entry) IsFile() bool { return e.File != nil }

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Dir != nil }

// AsFile returns the entry's FileEntry, or (nil, false) if it is a directory.
func (e Entry) AsFile() (*FileEntry, bool) { return e.File, e.File != nil }

// AsDir returns the entry's DirectoryEntry, or (nil, false) if it is a file.
func (e Entry) AsDir() (*DirectoryEntry, bool) { return e.Dir, e.Dir != nil }

// MarshalJSON renders directories as {"files": {...}} and files as their
// flattened metadata object, matching FileEntry.MarshalJSON exactly.
func (e Entry) MarshalJSON() ([]byte, error) {
	switch {
	case e.Dir != nil:
		return e.Dir.MarshalJSON()
	case e.File != nil:
		return e.File.MarshalJSON()
	default:
		return nil, fmt.Errorf("%w: empty entry", ErrInvalidData)
	}
}

// UnmarshalJSON discriminates directory from file by probing for a "files"
// key before committing to either shape.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	if _, ok := probe["files"]; ok {
		var dir DirectoryEntry
		if err := dir.UnmarshalJSON(data); err != nil {
			return err
		}
		e.Dir = &dir
		e.File = nil
		return nil
	}

	var fe FileEntry
	if err := fe.UnmarshalJSON(data); err != nil {
		return err
	}
	e.File = &fe
	e.Dir = nil
	return nil
}

// MarshalJSON renders {"files": {name: entry, ...}} with children in their
// original insertion order. encoding/json always sorts map keys, so the
// object body is assembled directly rather than going through a map.
func (d DirectoryEntry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"files":{`)
	for i, c := range d.children {
		if i > 0 {
			buf.WriteByte(',')
		}
		nameJSON, err := json.Marshal(c.name)
		if err != nil {
			return nil, err
		}
		buf.Write(nameJSON)
		buf.WriteByte(':')
		entryJSON, err := c.entry.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(entryJSON)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// rawPair is one still-encoded key/value from a JSON object, in source
// order.
type rawPair struct {
	key string
	raw json.RawMessage
}

// decodeOrderedObject walks a JSON object with json.Decoder's token stream,
// which yields object keys in on-the-wire order, unlike unmarshaling into a
// map. This is the standard library idiom for order-preserving JSON object
// decoding; no library in the example corpus offers an ordered-map JSON type,
// so this is implemented directly against encoding/json.
func decodeOrderedObject(data []byte) ([]rawPair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidData)
	}

	var pairs []rawPair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("%w: expected a string key", ErrInvalidData)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		pairs = append(pairs, rawPair{key: key, raw: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return pairs, nil
}

// UnmarshalJSON parses {"files": {...}}, preserving the children's original
// key order.
func (d *DirectoryEntry) UnmarshalJSON(data []byte) error {
	var wire struct {
		Files json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if wire.Files == nil {
		return fmt.Errorf("%w: directory entry missing 'files'", ErrInvalidData)
	}

	pairs, err := decodeOrderedObject(wire.Files)
	if err != nil {
		return err
	}

	children := make([]dirChild, 0, len(pairs))
	for _, p := range pairs {
		var child Entry
		if err := json.Unmarshal(p.raw, &child); err != nil {
			return err
		}
		children = append(children, dirChild{name: p.key, entry: child})
	}
	d.children = children
	return nil
}
