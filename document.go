package sai

import (
	"encoding/binary"
	"io"
	"log"

	"github.com/pkg/errors"

	"github.com/DINKIN/libsai/fat"
)

const thumbnailPath = "thumbnail"

var thumbnailMagic = [4]byte{'B', 'M', '3', '2'}

// Document is a Container with the thumbnail reader layered on top. It
// is the entry point most callers want; Container remains available for
// callers that only need directory and byte-level access.
type Document struct {
	*Container
}

// OpenDocument opens path as a Document.
func OpenDocument(path string, opts ...Option) (*Document, error) {
	c, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	return &Document{Container: c}, nil
}

// Thumbnail reads and decodes the container's "thumbnail" entry: a
// 4-byte "BM32" magic, little-endian width and height, followed by
// width*height*4 bytes of BGRA pixel data. It returns the pixels
// converted to RGBA.
func (d *Document) Thumbnail() (width, height uint32, pixels []byte, err error) {
	f, err := d.Container.Open(thumbnailPath)
	if err != nil {
		var pnf *fat.PathNotFound
		var naf *fat.NotAFile
		if errors.As(err, &pnf) || errors.As(err, &naf) {
			log.Printf("ERROR: %s/Thumbnail: %q not found", packageName, thumbnailPath)
			return 0, 0, nil, errors.WithStack(&BadThumbnail{Reason: "thumbnail entry not found"})
		}
		log.Printf("ERROR: %s/Thumbnail: %v", packageName, err)
		return 0, 0, nil, err
	}

	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Printf("ERROR: %s/Thumbnail: truncated header: %v", packageName, err)
		return 0, 0, nil, errors.WithStack(&BadThumbnail{Reason: "truncated header"})
	}

	var magic [4]byte
	copy(magic[:], header[0:4])
	if magic != thumbnailMagic {
		log.Printf("ERROR: %s/Thumbnail: bad magic %v", packageName, magic)
		return 0, 0, nil, errors.WithStack(&BadThumbnail{Reason: "bad magic"})
	}

	width = binary.LittleEndian.Uint32(header[4:8])
	height = binary.LittleEndian.Uint32(header[8:12])

	pixelLen := int64(width) * int64(height) * 4
	bgra := make([]byte, pixelLen)
	if _, err := io.ReadFull(f, bgra); err != nil {
		log.Printf("ERROR: %s/Thumbnail: truncated pixel data: %v", packageName, err)
		return 0, 0, nil, errors.WithStack(&BadThumbnail{Reason: "truncated pixel data"})
	}

	for i := 0; i+3 < len(bgra); i += 4 {
		bgra[i], bgra[i+2] = bgra[i+2], bgra[i]
	}

	return width, height, bgra, nil
}
