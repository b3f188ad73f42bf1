// Package sai implements read-only access to the SAI container format:
// the encrypted, paged virtual filesystem used by SystemMax PaintTool
// Sai to store a document's layers, thumbnail, and metadata in a single
// file. The format is opened once and read from; nothing in this package
// writes to a container.
package sai

import (
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/DINKIN/libsai/cipher"
	"github.com/DINKIN/libsai/fat"
	"github.com/DINKIN/libsai/page"
	"github.com/DINKIN/libsai/stream"
)

// packageName is used for debug and error messages.
const packageName = "sai"

// tablePeriod mirrors page.EntriesPerTable: a table page occurs at every
// multiple of this many physical pages.
const tablePeriod = page.EntriesPerTable

// Container is an opened, read-only handle on a SAI container file. It
// owns the backing file descriptor, the selected cipher key, and the
// paged stream's two caches for as long as it is open.
type Container struct {
	file   *os.File
	stream *stream.Stream
	walker *fat.Walker
}

type openOptions struct {
	key cipher.Key
}

// Option configures Open.
type Option func(*openOptions)

// WithKey selects the cipher key used to decrypt the container. The
// default, if no WithKey option is given, is cipher.User.
func WithKey(key cipher.Key) Option {
	return func(o *openOptions) {
		o.key = key
	}
}

// Open opens the container file at path read-only, selecting a cipher
// key (cipher.User by default) and preparing its paged stream and FAT
// walker. The returned Container owns the file handle until Close.
func Open(path string, opts ...Option) (*Container, error) {
	o := openOptions{key: cipher.User}
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("ERROR: %s/Open: %s: not found", packageName, path)
			return nil, errors.WithStack(&NotFound{Path: path})
		}
		log.Printf("ERROR: %s/Open: %s: %v", packageName, path, err)
		return nil, errors.Wrapf(err, "opening %s", path)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		log.Printf("ERROR: %s/Open: %s: %v", packageName, path, err)
		return nil, errors.Wrapf(err, "statting %s", path)
	}

	totalPages := info.Size() / page.Size
	dataPageCount := totalPages - tableCount(totalPages)
	size := dataPageCount * page.Size

	store := page.NewStore(f, &o.key)
	s := stream.New(store, size)
	w := fat.NewWalker(s)

	return &Container{file: f, stream: s, walker: w}, nil
}

// tableCount returns the number of table pages among the first
// totalPages physical pages (those at index 0, tablePeriod,
// 2*tablePeriod, ...).
func tableCount(totalPages int64) int64 {
	if totalPages <= 0 {
		return 0
	}
	return (totalPages-1)/tablePeriod + 1
}

// Close releases the backing file handle. The Container and everything
// opened from it (entries, files) must not be used afterward.
func (c *Container) Close() error {
	return c.file.Close()
}

// Exists reports whether path resolves to a file entry. It never
// returns an error: a corrupt or unresolvable path is reported as not
// existing.
func (c *Container) Exists(path string) bool {
	_, ok, err := c.Entry(path)
	return err == nil && ok
}

// Entry resolves path to a file entry. ok is false and err is nil when
// the path simply does not exist (missing segment, or a folder where a
// file was expected, or vice versa); err is non-nil only when the
// container itself could not be read (CorruptPage, CorruptTable).
func (c *Container) Entry(path string) (fat.Entry, bool, error) {
	e, err := c.walker.Resolve(path)
	if err == nil {
		return e, true, nil
	}

	var pnf *fat.PathNotFound
	var naf *fat.NotAFile
	var nad *fat.NotAFolder
	if errors.As(err, &pnf) || errors.As(err, &naf) || errors.As(err, &nad) {
		return fat.Entry{}, false, nil
	}
	log.Printf("ERROR: %s/Entry: %s: %v", packageName, path, err)
	return fat.Entry{}, false, err
}

// ReadAt reads up to len(buf) bytes from the container's logical stream
// starting at offset, independent of the directory tree.
func (c *Container) ReadAt(buf []byte, offset int64) (int, error) {
	return c.stream.ReadAt(buf, offset)
}

// Visit walks the container's directory tree depth-first, invoking v's
// callbacks for every folder and file.
func (c *Container) Visit(v fat.Visitor) error {
	return c.walker.Visit(v)
}

// Open resolves path to a file entry and returns a read cursor over its
// contents.
func (c *Container) Open(path string) (*fat.File, error) {
	return c.walker.Open(path)
}
