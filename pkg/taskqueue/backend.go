package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/vasuse7en/geosafe/pkg/types"
)

// TaskRecord is the state of a single task invocation as recorded by the
// worker and polled by the submitter.
type TaskRecord struct {
	TaskID    types.TaskID    `json:"task_id"`
	State     types.TaskState `json:"state"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Backend stores task state records. A record which was never written (or
// already expired) is reported with ErrStateNotFound; the poller treats it
// as PENDING.
type Backend interface {
	io.Closer

	SetState(ctx context.Context, record TaskRecord) error
	State(ctx context.Context, taskID types.TaskID) (TaskRecord, error)
}

// NewBackend dispatches a backend implementation by the URL scheme, the
// same way NewBroker does.
func NewBackend(urlString string) (Backend, error) {
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse URL '%s': %w", urlString, err)
	}
	switch parsedURL.Scheme {
	case "redis", "rediss":
		return newRedisBackend(urlString)
	case "mem":
		return newMemoryBackend(), nil
	default:
		return nil, ErrUnknownScheme{URL: urlString}
	}
}
