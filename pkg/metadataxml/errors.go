package metadataxml

import (
	"fmt"
)

// ErrParseDocument implements "error", for the description see Error.
type ErrParseDocument struct {
	Err error
}

func (err ErrParseDocument) Error() string {
	return fmt.Sprintf("unable to parse the metadata document: %v", err.Err)
}

func (err ErrParseDocument) Unwrap() error {
	return err.Err
}

// ErrSerializeDocument implements "error", for the description see Error.
type ErrSerializeDocument struct {
	Err error
}

func (err ErrSerializeDocument) Error() string {
	return fmt.Sprintf("unable to serialize the metadata document: %v", err.Err)
}

func (err ErrSerializeDocument) Unwrap() error {
	return err.Err
}

// ErrNoSupplementalInfo implements "error", for the description see Error.
type ErrNoSupplementalInfo struct{}

func (err ErrNoSupplementalInfo) Error() string {
	return "the metadata document has no gmd:supplementalInformation section"
}
