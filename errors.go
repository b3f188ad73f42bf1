package sai

import "fmt"

// NotFound is returned by Open when the backing file does not exist.
type NotFound struct {
	Path string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("sai: container not found: %s", e.Path)
}

// BadThumbnail is returned by Document.Thumbnail when the "thumbnail"
// entry is absent, too short, or its magic does not match "BM32".
type BadThumbnail struct {
	Reason string
}

func (e *BadThumbnail) Error() string {
	return fmt.Sprintf("sai: bad thumbnail: %s", e.Reason)
}
