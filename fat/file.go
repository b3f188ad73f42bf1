package fat

import (
	"io"
	"log"

	"github.com/DINKIN/libsai/stream"
)

// File is a read cursor bound to a file entry's byte run in the logical
// stream. Unlike the teacher's mutex-guarded file handle, File carries no
// lock: a container and everything opened from it is used from a single
// goroutine at a time, like the Stream it reads through.
type File struct {
	s      *stream.Stream
	entry  Entry
	base   int64 // logical-stream byte offset of the file's first page
	cursor int64
}

// newFile returns a File positioned at offset 0 within entry's byte run.
// entry.Type() must be File.
func newFile(s *stream.Stream, entry Entry) *File {
	return &File{
		s:     s,
		entry: entry,
		base:  int64(entry.PageIndex()) * 4096,
	}
}

// Entry returns the FAT entry this file was opened from.
func (f *File) Entry() Entry {
	return f.entry
}

// Tell returns the current read position, in 0..Size().
func (f *File) Tell() int64 {
	return f.cursor
}

// Size returns the file's size in bytes, as recorded in its FAT entry.
func (f *File) Size() int64 {
	return int64(f.entry.Size())
}

// Seek implements io.Seeker. The resulting position is clamped to
// Size(); a subsequent Read at Size() returns io.EOF.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.cursor + offset
	case io.SeekEnd:
		newPos = f.Size() + offset
	default:
		log.Printf("ERROR: %s/File.Seek: invalid whence %d", packageName, whence)
		return f.cursor, errInvalidWhence
	}
	if newPos < 0 {
		log.Printf("ERROR: %s/File.Seek: negative position", packageName)
		return f.cursor, errNegativePosition
	}
	if newPos > f.Size() {
		newPos = f.Size()
	}
	f.cursor = newPos
	return f.cursor, nil
}

// Read implements io.Reader. Reads are clamped so that cursor+length
// never exceeds Size(); Read returns io.EOF once the cursor reaches the
// end of the file's byte run.
func (f *File) Read(buf []byte) (int, error) {
	remaining := f.Size() - f.cursor
	if remaining <= 0 {
		return 0, io.EOF
	}

	want := buf
	if int64(len(want)) > remaining {
		want = want[:remaining]
	}

	n, err := f.s.ReadAt(want, f.base+f.cursor)
	f.cursor += int64(n)
	if err != nil {
		log.Printf("ERROR: %s/File.Read: %v", packageName, err)
	}
	return n, err
}
