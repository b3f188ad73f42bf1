package sai

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DINKIN/libsai/cipher"
	"github.com/DINKIN/libsai/fat"
	"github.com/DINKIN/libsai/page"
)

func buildThumbnailPayload(width, height uint32, bgra []byte) []byte {
	payload := make([]byte, 12+len(bgra))
	copy(payload[0:4], thumbnailMagic[:])
	binary.LittleEndian.PutUint32(payload[4:8], width)
	binary.LittleEndian.PutUint32(payload[8:12], height)
	copy(payload[12:], bgra)
	return payload
}

func sampleDocumentPath(t *testing.T, key *cipher.Key) (path string, width, height uint32) {
	width, height = 2, 1
	bgra := []byte{
		0x10, 0x20, 0x30, 0xFF, // pixel 0: B=0x10 G=0x20 R=0x30 A=0xFF
		0x40, 0x50, 0x60, 0xFF, // pixel 1
	}
	payload := buildThumbnailPayload(width, height, bgra)

	root := encodeFATBlock(
		fat.Record{Name: nameField32("thumbnail"), Type: fat.File, PageIndex: 1, Size: uint32(len(payload))},
	)
	thumbPage := make([]byte, page.Size)
	copy(thumbPage, payload)

	path = writeContainer(t, key, [][]byte{root, thumbPage})
	return path, width, height
}

func TestThumbnailDecodesBGRAToRGBA(t *testing.T) {
	key := cipher.User
	path, width, height := sampleDocumentPath(t, &key)

	d, err := OpenDocument(path)
	require.NoError(t, err)
	defer d.Close()

	w, h, pixels, err := d.Thumbnail()
	require.NoError(t, err)
	require.Equal(t, width, w)
	require.Equal(t, height, h)
	require.Equal(t, []byte{
		0x30, 0x20, 0x10, 0xFF,
		0x60, 0x50, 0x40, 0xFF,
	}, pixels)
}

func TestThumbnailMissingYieldsBadThumbnail(t *testing.T) {
	key := cipher.User
	root := encodeFATBlock() // no entries at all
	path := writeContainer(t, &key, [][]byte{root})

	d, err := OpenDocument(path)
	require.NoError(t, err)
	defer d.Close()

	_, _, _, err = d.Thumbnail()
	require.Error(t, err)
	var bt *BadThumbnail
	require.ErrorAs(t, err, &bt)
}

func TestThumbnailBadMagicYieldsBadThumbnail(t *testing.T) {
	key := cipher.User
	payload := make([]byte, 12)
	copy(payload, "NOPE")

	root := encodeFATBlock(
		fat.Record{Name: nameField32("thumbnail"), Type: fat.File, PageIndex: 1, Size: uint32(len(payload))},
	)
	thumbPage := make([]byte, page.Size)
	copy(thumbPage, payload)

	path := writeContainer(t, &key, [][]byte{root, thumbPage})

	d, err := OpenDocument(path)
	require.NoError(t, err)
	defer d.Close()

	_, _, _, err = d.Thumbnail()
	require.Error(t, err)
	var bt *BadThumbnail
	require.ErrorAs(t, err, &bt)
}
