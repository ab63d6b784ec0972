package controller

import (
	"fmt"
)

// ErrResolveLayer implements "error", for the description see Error.
type ErrResolveLayer struct {
	LayerID int64
	Err     error
}

func (err ErrResolveLayer) Error() string {
	return fmt.Sprintf("unable to resolve an address of layer %d: %v", err.LayerID, err.Err)
}

func (err ErrResolveLayer) Unwrap() error {
	return err.Err
}

// ErrSubmitChain implements "error", for the description see Error.
type ErrSubmitChain struct {
	Err error
}

func (err ErrSubmitChain) Error() string {
	return fmt.Sprintf("unable to submit the task chain: %v", err.Err)
}

func (err ErrSubmitChain) Unwrap() error {
	return err.Err
}

// ErrFetchImpact implements "error", for the description see Error.
type ErrFetchImpact struct {
	URL string
	Err error
}

func (err ErrFetchImpact) Error() string {
	return fmt.Sprintf("unable to fetch the impact artifact '%s': %v", err.URL, err.Err)
}

func (err ErrFetchImpact) Unwrap() error {
	return err.Err
}

// ErrInspectImpact implements "error", for the description see Error.
type ErrInspectImpact struct {
	Path string
	Err  error
}

func (err ErrInspectImpact) Error() string {
	return fmt.Sprintf("unable to inspect the impact artifact '%s': %v", err.Path, err.Err)
}

func (err ErrInspectImpact) Unwrap() error {
	return err.Err
}

// ErrWriteSink implements "error", for the description see Error.
type ErrWriteSink struct {
	// Sink names the metadata mirror which refused the write: "catalog",
	// "sidecar" or "mirror".
	Sink string

	Err error
}

func (err ErrWriteSink) Error() string {
	return fmt.Sprintf("unable to write the reconciled metadata to the %s sink: %v", err.Sink, err.Err)
}

func (err ErrWriteSink) Unwrap() error {
	return err.Err
}
