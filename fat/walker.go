// Package fat interprets the logical stream's FAT blocks as a directory
// tree: path resolution, depth-first traversal, and a File view bound to
// a read cursor. It knows nothing about encryption or checksums — it
// reads through a *stream.Stream, which already presents decrypted,
// verified bytes.
package fat

import (
	"log"
	"strings"

	"github.com/pkg/errors"

	"github.com/DINKIN/libsai/stream"
)

// packageName is used for debug and error messages.
const packageName = "fat"

// rootPageIndex is the logical-stream page holding the root FAT block.
const rootPageIndex = 0

// Visitor receives callbacks during a depth-first directory traversal.
// Each method returns false to request early termination; once any
// method returns false, no further callbacks are made and Visit returns
// immediately.
type Visitor interface {
	VisitFolderBegin(Entry) bool
	VisitFolderEnd(Entry) bool
	VisitFile(Entry) bool
}

// Walker resolves paths and walks the directory tree described by a
// container's FAT blocks.
type Walker struct {
	s *stream.Stream
}

// NewWalker returns a Walker reading FAT blocks from s.
func NewWalker(s *stream.Stream) *Walker {
	return &Walker{s: s}
}

// readBlock reads and decodes the FAT block (64 records) at the given
// logical-stream page index. Decoding stops at the first vacant record,
// per the format's listing-termination rule.
func (w *Walker) readBlock(pageIndex uint32) ([]Entry, error) {
	buf := make([]byte, EntriesPerBlock*recordSize)
	off := int64(pageIndex) * int64(EntriesPerBlock*recordSize)
	if _, err := w.s.ReadAt(buf, off); err != nil {
		log.Printf("ERROR: %s/readBlock: FAT block at page %d: %v", packageName, pageIndex, err)
		return nil, errors.Wrapf(err, "reading FAT block at page %d", pageIndex)
	}

	entries := make([]Entry, 0, EntriesPerBlock)
	for i := 0; i < EntriesPerBlock; i++ {
		rec := decodeRecord(buf[i*recordSize : (i+1)*recordSize])
		if rec.Type == Vacant {
			break
		}
		entries = append(entries, newEntry(rec))
	}
	return entries, nil
}

// Resolve looks up path (segments separated by "/") starting from the
// root FAT block. Every non-terminal segment must name a folder; the
// final segment must name a file.
func (w *Walker) Resolve(path string) (Entry, error) {
	segments := splitPath(path)
	if len(segments) == 0 {
		log.Printf("ERROR: %s/Resolve: empty path", packageName)
		return Entry{}, errors.WithStack(&PathNotFound{Path: path})
	}

	pageIndex := uint32(rootPageIndex)
	for i, seg := range segments {
		entries, err := w.readBlock(pageIndex)
		if err != nil {
			return Entry{}, err
		}

		entry, ok := findByName(entries, seg)
		if !ok {
			log.Printf("ERROR: %s/Resolve: path not found: %q", packageName, path)
			return Entry{}, errors.WithStack(&PathNotFound{Path: path})
		}

		last := i == len(segments)-1
		if last {
			if entry.Type() != File {
				log.Printf("ERROR: %s/Resolve: %q is a folder, not a file", packageName, path)
				return Entry{}, errors.WithStack(&NotAFile{Path: path})
			}
			return entry, nil
		}
		if entry.Type() != Folder {
			log.Printf("ERROR: %s/Resolve: %q is a file, not a folder", packageName, path)
			return Entry{}, errors.WithStack(&NotAFolder{Path: path})
		}
		pageIndex = entry.PageIndex()
	}

	log.Printf("ERROR: %s/Resolve: path not found: %q", packageName, path)
	return Entry{}, errors.WithStack(&PathNotFound{Path: path})
}

// Open resolves path to a file entry and returns a File view bound to
// that entry's byte run.
func (w *Walker) Open(path string) (*File, error) {
	entry, err := w.Resolve(path)
	if err != nil {
		return nil, err
	}
	return newFile(w.s, entry), nil
}

// Visit walks the directory tree depth-first starting at the root FAT
// block, calling back into v for every folder and file encountered.
func (w *Walker) Visit(v Visitor) error {
	_, err := w.visitBlock(rootPageIndex, v)
	return err
}

// visitBlock visits every entry in the FAT block at pageIndex, recursing
// into folders. It returns continue=false once the caller should stop
// issuing further callbacks at any level.
func (w *Walker) visitBlock(pageIndex uint32, v Visitor) (bool, error) {
	entries, err := w.readBlock(pageIndex)
	if err != nil {
		return false, err
	}

	for _, entry := range entries {
		switch entry.Type() {
		case Folder:
			if !v.VisitFolderBegin(entry) {
				return false, nil
			}
			cont, err := w.visitBlock(entry.PageIndex(), v)
			if err != nil {
				return false, err
			}
			if !cont {
				return false, nil
			}
			if !v.VisitFolderEnd(entry) {
				return false, nil
			}
		case File:
			if !v.VisitFile(entry) {
				return false, nil
			}
		}
	}
	return true, nil
}

func findByName(entries []Entry, name string) (Entry, bool) {
	for _, e := range entries {
		if e.Name() == name {
			return e, true
		}
	}
	return Entry{}, false
}

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
