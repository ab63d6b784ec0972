package filestore

import "fmt"

// ErrPathOutsideRoot implements "error", for the description see Error.
type ErrPathOutsideRoot struct {
	Path string
}

func (err ErrPathOutsideRoot) Error() string {
	return fmt.Sprintf("path '%s' points outside of the storage root", err.Path)
}
