// Package page reads individual 4096-byte pages from a SAI container's
// backing file and decrypts them, distinguishing table pages from data
// pages and validating every page's checksum. It has no cache of its own;
// caching belongs to the stream package, which is the only caller that
// needs to fetch the same page twice.
package page

import (
	"encoding/binary"
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/DINKIN/libsai/cipher"
)

// packageName is used for debug and error messages.
const packageName = "page"

// Size is the fixed page size in bytes.
const Size = cipher.PageSize

// EntriesPerTable is the number of (checksum, flags) entries a table page
// holds: entry 0 is the table's own self-descriptor, and entry k describes
// the data page k pages after the table page.
const EntriesPerTable = 512

// Span is the number of data pages a single table page covers before the
// next table page punctuates the file.
const Span = EntriesPerTable - 1

// Page is one decrypted, checksum-verified 4096-byte page.
type Page [Size]byte

// Entry is one (checksum, flags) pair recorded for a data page inside its
// owning table page.
type Entry struct {
	Checksum uint32
	Flags    uint32
}

// IsTablePage reports whether the page at index is a table page: table
// pages occur at every index that is a multiple of EntriesPerTable.
func IsTablePage(index uint32) bool {
	return index%EntriesPerTable == 0
}

// OwningTable returns the index of the table page that describes the data
// page at index.
func OwningTable(index uint32) uint32 {
	return index - index%EntriesPerTable
}

// Store reads and decrypts pages from a backing file by index.
type Store struct {
	r   io.ReaderAt
	key *cipher.Key
}

// NewStore returns a Store reading pages from r and decrypting them with
// key.
func NewStore(r io.ReaderAt, key *cipher.Key) *Store {
	return &Store{r: r, key: key}
}

// Fetch reads and decrypts the page at index, verifying its checksum.
// Table pages are checked against their own self-descriptor; data pages
// are checked against the checksum recorded for them in their owning
// table page (which this incurs a second page read to obtain).
func (s *Store) Fetch(index uint32) (*Page, error) {
	if IsTablePage(index) {
		p, _, err := s.FetchTable(index)
		return p, err
	}
	return s.FetchData(index)
}

// FetchTable reads, decrypts and verifies the table page at index,
// returning it along with its decoded entries.
func (s *Store) FetchTable(index uint32) (*Page, [EntriesPerTable]Entry, error) {
	var entries [EntriesPerTable]Entry

	p, err := s.readRaw(index)
	if err != nil {
		return nil, entries, err
	}

	cipher.DecryptTable((*[Size]byte)(p), s.key, index)

	selfChecksum := binary.LittleEndian.Uint32(p[0:4])
	if cipher.ChecksumTable((*[Size]byte)(p)) != selfChecksum {
		log.Printf("ERROR: %s/FetchTable: self-checksum mismatch for table page %d", packageName, index)
		return nil, entries, errors.WithStack(&CorruptTable{Index: index})
	}

	for i := 0; i < EntriesPerTable; i++ {
		off := i * 8
		entries[i] = Entry{
			Checksum: binary.LittleEndian.Uint32(p[off : off+4]),
			Flags:    binary.LittleEndian.Uint32(p[off+4 : off+8]),
		}
	}

	return p, entries, nil
}

// FetchData reads, decrypts and verifies the data page at index, looking
// up its expected checksum in the owning table page.
func (s *Store) FetchData(index uint32) (*Page, error) {
	tableIndex := OwningTable(index)
	_, entries, err := s.FetchTable(tableIndex)
	if err != nil {
		log.Printf("ERROR: %s/FetchData: table %d for data page %d: %v", packageName, tableIndex, index, err)
		return nil, errors.Wrapf(err, "reading table owning data page %d", index)
	}
	entryIdx := index - tableIndex
	return s.FetchDataChecksum(index, entries[entryIdx].Checksum)
}

// FetchDataChecksum reads, decrypts and verifies the data page at index
// against an already-known expected checksum, skipping the owning-table
// lookup FetchData would otherwise perform. Callers that already hold
// the owning table's entries (such as stream's table cache) should
// prefer this to avoid re-fetching the table page on every call.
func (s *Store) FetchDataChecksum(index uint32, expected uint32) (*Page, error) {
	p, err := s.readRaw(index)
	if err != nil {
		return nil, err
	}

	cipher.DecryptData((*[Size]byte)(p), s.key, expected)

	if cipher.Checksum((*[Size]byte)(p)) != expected {
		log.Printf("ERROR: %s/FetchDataChecksum: checksum mismatch for data page %d", packageName, index)
		return nil, errors.WithStack(&CorruptPage{Index: index})
	}

	return p, nil
}

// readRaw reads the raw, still-encrypted bytes of the page at index.
func (s *Store) readRaw(index uint32) (*Page, error) {
	var p Page
	n, err := s.r.ReadAt(p[:], int64(index)*Size)
	if n == Size {
		return &p, nil
	}
	if err == io.EOF || err == nil {
		log.Printf("ERROR: %s/readRaw: truncated read for page %d", packageName, index)
		return nil, errors.WithStack(Truncated)
	}
	log.Printf("ERROR: %s/readRaw: %v", packageName, err)
	return nil, errors.Wrapf(err, "reading page %d", index)
}
