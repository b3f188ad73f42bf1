package page

import "fmt"

// Truncated is returned when a page read stops short of a full page: the
// backing file ends before the requested page does.
var Truncated = fmt.Errorf("page: truncated read")

// CorruptPage reports that a data page's checksum, recomputed after
// decryption, did not match the checksum recorded for it in its owning
// table page. This also fires when the wrong cipher key is used, since the
// checksum will not match either way.
type CorruptPage struct {
	Index uint32
}

func (e *CorruptPage) Error() string {
	return fmt.Sprintf("page: data page %d failed checksum verification", e.Index)
}

// CorruptTable reports that a table page's self-descriptor checksum did
// not match the checksum recomputed over the table page itself.
type CorruptTable struct {
	Index uint32
}

func (e *CorruptTable) Error() string {
	return fmt.Sprintf("page: table page %d failed self-checksum verification", e.Index)
}
