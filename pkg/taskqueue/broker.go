package taskqueue

import (
	"context"
	"fmt"
	"io"
	"net/url"
)

// Broker is the message transport of the task queue: a set of named FIFO
// queues. Pop returns ErrEmptyQueue when there is nothing to deliver (the
// consumer decides how to back off).
type Broker interface {
	io.Closer

	Push(ctx context.Context, queue string, message []byte) error
	Pop(ctx context.Context, queue string) ([]byte, error)
}

// NewBroker dispatches a broker implementation by the URL scheme.
//
// Supported schemes:
//   - "redis://" (see: https://redis.io/) is the production transport;
//   - "mem://" is an in-process transport for tests and single-binary runs.
func NewBroker(urlString string) (Broker, error) {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL '%s': %w", urlString, err)
	}
	switch parsedURL.Scheme {
	case "redis", "rediss":
		return newRedisBroker(urlString)
	case "mem":
		return newMemoryBroker(), nil
	default:
		return nil, ErrUnknownScheme{URL: urlString}
	}
}
