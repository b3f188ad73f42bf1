package fat

import "fmt"

var (
	errInvalidWhence    = fmt.Errorf("fat: invalid whence")
	errNegativePosition = fmt.Errorf("fat: negative seek position")
)

// PathNotFound is returned by Walker.Resolve when no entry matches the
// requested path.
type PathNotFound struct {
	Path string
}

func (e *PathNotFound) Error() string {
	return fmt.Sprintf("fat: path not found: %q", e.Path)
}

// NotAFile is returned when Resolve reaches the last path segment and
// finds a folder instead of a file.
type NotAFile struct {
	Path string
}

func (e *NotAFile) Error() string {
	return fmt.Sprintf("fat: %q is a folder, not a file", e.Path)
}

// NotAFolder is returned when Resolve needs to descend through a
// non-terminal path segment and finds a file instead of a folder.
type NotAFolder struct {
	Path string
}

func (e *NotAFolder) Error() string {
	return fmt.Sprintf("fat: %q is a file, not a folder", e.Path)
}
