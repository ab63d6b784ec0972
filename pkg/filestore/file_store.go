package filestore

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// FileStore is the media storage shared between the coordinator and the
// analysis runners: layer payloads, their metadata sidecars and the
// produced reports live here, addressed by slash-separated relative paths.
type FileStore interface {
	io.Closer

	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, blob []byte) error
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)

	// List returns the names of the files in the given directory
	// (without the directory prefix).
	List(ctx context.Context, dir string) ([]string, error)

	// Abs resolves a relative path into the local filesystem path the
	// analysis runners address the file by.
	Abs(path string) (string, error)
}

// New dispatches a FileStore implementation by the URL scheme.
func New(urlString string) (FileStore, error) {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL '%s': %w", urlString, err)
	}
	switch parsedURL.Scheme {
	case "fs":
		rootDir := parsedURL.Path
		return newFS(rootDir)
	default:
		return nil, fmt.Errorf("unknown scheme '%s'", parsedURL.Scheme)
	}
}
