// Package stream presents the decrypted logical byte stream of a SAI
// container's data pages as a seekable, random-access byte source. It is a
// plain struct implementing Read/Seek/ReadAt by hand — not a subclass of a
// buffered stream type — holding one cached table page and one cached data
// page, matching the single-file-owns-two-caches model the container
// itself describes.
package stream

import (
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/DINKIN/libsai/page"
)

// packageName is used for debug and error messages.
const packageName = "stream"

// Stream is a seekable byte source over a container's logical stream (the
// concatenation of all data pages, as if table pages were absent). It is
// stateful — position plus two single-slot caches — and is not safe for
// concurrent use; callers needing parallel access should open independent
// Streams over the same backing file.
type Stream struct {
	store *page.Store
	pos   int64
	size  int64 // logical stream length in bytes, or -1 if unknown

	dataCache      *page.Page
	dataCacheIndex uint32
	dataCacheValid bool

	tableCache      [page.EntriesPerTable]page.Entry
	tableCacheIndex uint32
	tableCacheValid bool
}

// New returns a Stream reading the logical stream behind store. size is
// the logical stream's length in bytes (data_page_count * page.Size); pass
// -1 if unknown, which disables the end-of-stream short-read behavior in
// favor of always attempting to read the requested length.
func New(store *page.Store, size int64) *Stream {
	return &Stream{store: store, size: size}
}

// phys maps a logical data-page index to its physical page index,
// inserting a table page every 511 data pages (page.Span).
func phys(dataPage uint64) uint64 {
	return 1 + dataPage + dataPage/uint64(page.Span)
}

// Tell returns the current logical read/seek position.
func (s *Stream) Tell() int64 {
	return s.pos
}

// Seek implements io.Seeker. Seeking past the end of the stream is
// permitted; subsequent reads return 0 until the position is moved back in
// range.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = s.pos + offset
	case io.SeekEnd:
		if s.size < 0 {
			log.Printf("ERROR: %s/Seek: SeekEnd requires a known stream size", packageName)
			return s.pos, errors.New("stream: SeekEnd requires a known stream size")
		}
		newPos = s.size + offset
	default:
		log.Printf("ERROR: %s/Seek: invalid whence %d", packageName, whence)
		return s.pos, errors.Errorf("stream: invalid whence %d", whence)
	}
	if newPos < 0 {
		log.Printf("ERROR: %s/Seek: negative position", packageName)
		return s.pos, errors.New("stream: negative position")
	}
	s.pos = newPos
	return s.pos, nil
}

// Read implements io.Reader, reading from and advancing the current
// position.
func (s *Stream) Read(buf []byte) (int, error) {
	n, err := s.ReadAt(buf, s.pos)
	s.pos += int64(n)
	if n == 0 && err == nil && len(buf) > 0 {
		return 0, io.EOF
	}
	return n, err
}

// ReadAt reads up to len(buf) bytes starting at logical offset off. It
// does not move the stream's current position. It returns fewer bytes
// than requested only at end-of-stream (when the stream's size is known);
// the stream's position is left unchanged on verification failure.
func (s *Stream) ReadAt(buf []byte, off int64) (int, error) {
	if off < 0 {
		log.Printf("ERROR: %s/ReadAt: negative offset %d", packageName, off)
		return 0, errors.New("stream: negative offset")
	}
	if s.size >= 0 && off >= s.size {
		return 0, nil
	}

	want := len(buf)
	if s.size >= 0 {
		remaining := s.size - off
		if int64(want) > remaining {
			want = int(remaining)
		}
	}

	total := 0
	for total < want {
		logicalOff := off + int64(total)
		dataPageIdx := uint64(logicalOff) / page.Size
		inPage := int(uint64(logicalOff) % page.Size)

		dp, err := s.fetchData(uint32(phys(dataPageIdx)))
		if err != nil {
			return total, err
		}

		n := copy(buf[total:want], dp[inPage:])
		total += n
	}
	return total, nil
}

// fetchData returns the decrypted, verified data page at physical index,
// serving it from the one-slot data cache when possible. A cache miss
// also ensures the owning table page is cached (or verified fresh).
func (s *Stream) fetchData(physIndex uint32) (*page.Page, error) {
	if s.dataCacheValid && s.dataCacheIndex == physIndex {
		return s.dataCache, nil
	}

	tableIndex := page.OwningTable(physIndex)
	entries, err := s.fetchTableEntries(tableIndex)
	if err != nil {
		log.Printf("ERROR: %s/fetchData: table %d for data page %d: %v", packageName, tableIndex, physIndex, err)
		return nil, errors.Wrapf(err, "reading logical offset backed by data page %d", physIndex)
	}
	entryIdx := physIndex - tableIndex

	dp, err := s.store.FetchDataChecksum(physIndex, entries[entryIdx].Checksum)
	if err != nil {
		log.Printf("ERROR: %s/fetchData: %v", packageName, err)
		return nil, err
	}

	s.dataCache = dp
	s.dataCacheIndex = physIndex
	s.dataCacheValid = true
	return dp, nil
}

// fetchTableEntries returns the decoded entries of the table page at
// tableIndex, serving it from the one-slot table cache when possible.
func (s *Stream) fetchTableEntries(tableIndex uint32) ([page.EntriesPerTable]page.Entry, error) {
	if s.tableCacheValid && s.tableCacheIndex == tableIndex {
		return s.tableCache, nil
	}

	_, entries, err := s.store.FetchTable(tableIndex)
	if err != nil {
		log.Printf("ERROR: %s/fetchTableEntries: table %d: %v", packageName, tableIndex, err)
		return entries, err
	}

	s.tableCache = entries
	s.tableCacheIndex = tableIndex
	s.tableCacheValid = true
	return entries, nil
}
