package fat

import (
	"bytes"
	"encoding/binary"
	"time"
)

// recordSize is the wire size of a single FAT directory record. 64 such
// records fill one 4096-byte logical page (a FAT block).
const recordSize = 64

// EntriesPerBlock is the number of FAT records packed into one FAT block.
const EntriesPerBlock = 4096 / recordSize

// EntryType identifies what a FAT record describes.
type EntryType uint8

const (
	// Vacant marks an unused slot. Vacant entries terminate a folder
	// listing at the slot they occupy.
	Vacant EntryType = 0x00
	// Folder marks a record whose PageIndex names another FAT block.
	Folder EntryType = 0x10
	// File marks a record whose PageIndex names the first page of an
	// unstructured byte run of length Size.
	File EntryType = 0x80
)

// filetimeEpochOffset is the number of 100ns ticks between the Windows
// FILETIME epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
const filetimeEpochOffset = 116444736000000000

// Record is the 64-byte on-disk FAT directory record, decoded verbatim
// from a FAT block with no interpretation beyond byte layout.
type Record struct {
	Flags     uint32
	Name      [32]byte
	Type      EntryType
	PageIndex uint32
	Size      uint32
	TimeStamp uint64 // Windows FILETIME: 100ns ticks since 1601-01-01 UTC
	Unknown   uint64
}

// decodeRecord parses one 64-byte slice of a FAT block into a Record.
func decodeRecord(b []byte) Record {
	var r Record
	r.Flags = binary.LittleEndian.Uint32(b[0:4])
	copy(r.Name[:], b[4:36])
	// b[36], b[37] are padding; b[38] is Type; b[39] is padding.
	r.Type = EntryType(b[38])
	r.PageIndex = binary.LittleEndian.Uint32(b[40:44])
	r.Size = binary.LittleEndian.Uint32(b[44:48])
	r.TimeStamp = binary.LittleEndian.Uint64(b[48:56])
	r.Unknown = binary.LittleEndian.Uint64(b[56:64])
	return r
}

// Entry is a cheap, detached snapshot of a FAT record. It does not borrow
// from the container once constructed; dropping it has no effect on the
// open container.
type Entry struct {
	record Record
	name   string
}

func newEntry(r Record) Entry {
	name := r.Name[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return Entry{record: r, name: string(name)}
}

// Name returns the entry's NUL-terminated name, decoded as ASCII.
func (e Entry) Name() string {
	return e.name
}

// Type reports whether the entry is a folder, a file, or vacant.
func (e Entry) Type() EntryType {
	return e.record.Type
}

// PageIndex returns the logical-stream page index of the entry's first
// page: for a folder, the FAT block it continues into; for a file, the
// first page of its byte run.
func (e Entry) PageIndex() uint32 {
	return e.record.PageIndex
}

// Size returns the file size in bytes. Meaningful only when Type is File.
func (e Entry) Size() uint32 {
	return e.record.Size
}

// Flags returns the entry's opaque flags field, preserved as read but
// given no documented meaning by the format.
func (e Entry) Flags() uint32 {
	return e.record.Flags
}

// TimeStamp converts the record's Windows FILETIME into a time.Time in
// UTC.
func (e Entry) TimeStamp() time.Time {
	ticks := e.record.TimeStamp
	if ticks < filetimeEpochOffset {
		return time.Unix(0, 0).UTC()
	}
	unixTicks := ticks - filetimeEpochOffset
	return time.Unix(0, int64(unixTicks)*100).UTC()
}
