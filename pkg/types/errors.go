package types

import (
	"fmt"
)

// ErrMalformedExtent means a user-supplied extent string could not be
// parsed into four numeric bounds.
type ErrMalformedExtent struct {
	Raw         string
	Description string
	Err         error
}

func (err ErrMalformedExtent) Error() string {
	if err.Err != nil {
		return fmt.Sprintf("unable to parse extent '%s': %v", err.Raw, err.Err)
	}
	return fmt.Sprintf("unable to parse extent '%s': %s", err.Raw, err.Description)
}

func (err ErrMalformedExtent) Unwrap() error {
	return err.Err
}
