package artifact

import (
	"fmt"
)

// ErrParseURL implements "error", for the description see Error.
type ErrParseURL struct {
	Err error
	URL string
}

func (err ErrParseURL) Error() string {
	return fmt.Sprintf("unable to parse '%s' as URL: %v", err.URL, err.Err)
}

func (err ErrParseURL) Unwrap() error {
	return err.Err
}

// ErrUnknownScheme implements "error", for the description see Error.
type ErrUnknownScheme struct {
	URL string
}

func (err ErrUnknownScheme) Error() string {
	return fmt.Sprintf("unknown scheme in URL '%s'", err.URL)
}

// ErrHTTPMakeRequest implements "error", for the description see Error.
type ErrHTTPMakeRequest struct {
	Err error
	URL string
}

func (err ErrHTTPMakeRequest) Error() string {
	return fmt.Sprintf("unable to make an HTTP request to '%s': %v", err.URL, err.Err)
}

func (err ErrHTTPMakeRequest) Unwrap() error {
	return err.Err
}

// ErrHTTPGet implements "error", for the description see Error.
type ErrHTTPGet struct {
	Err error
	URL string
}

func (err ErrHTTPGet) Error() string {
	return fmt.Sprintf("unable to GET a HTTP resource '%s': %v",
		err.URL, err.Err)
}

func (err ErrHTTPGet) Unwrap() error {
	return err.Err
}

// ErrHTTPGetBody implements "error", for the description see Error.
type ErrHTTPGetBody struct {
	Err error
	URL string
}

func (err ErrHTTPGetBody) Error() string {
	return fmt.Sprintf("unable to read body of HTTP GET-resource '%s': %v",
		err.URL, err.Err)
}

func (err ErrHTTPGetBody) Unwrap() error {
	return err.Err
}

// ErrScratchDir implements "error", for the description see Error.
type ErrScratchDir struct {
	Err error
}

func (err ErrScratchDir) Error() string {
	return fmt.Sprintf("unable to prepare a scratch directory: %v", err.Err)
}

func (err ErrScratchDir) Unwrap() error {
	return err.Err
}

// ErrExtract implements "error", for the description see Error.
type ErrExtract struct {
	Path string
	Err  error
}

func (err ErrExtract) Error() string {
	return fmt.Sprintf("unable to extract archive '%s': %v", err.Path, err.Err)
}

func (err ErrExtract) Unwrap() error {
	return err.Err
}
