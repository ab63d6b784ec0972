package taskqueue

import (
	"fmt"
	"time"

	"github.com/vasuse7en/geosafe/pkg/types"
)

// ErrEmptyQueue implements "error", for the description see Error.
type ErrEmptyQueue struct {
	Queue string
}

func (err ErrEmptyQueue) Error() string {
	return fmt.Sprintf("queue '%s' is empty", err.Queue)
}

// ErrUnknownScheme implements "error", for the description see Error.
type ErrUnknownScheme struct {
	URL string
}

func (err ErrUnknownScheme) Error() string {
	return fmt.Sprintf("unknown scheme in URL '%s'", err.URL)
}

// ErrStateNotFound implements "error", for the description see Error.
type ErrStateNotFound struct {
	TaskID types.TaskID
}

func (err ErrStateNotFound) Error() string {
	return fmt.Sprintf("no state is recorded for task '%s'", err.TaskID)
}

// ErrTaskNotRegistered implements "error", for the description see Error.
type ErrTaskNotRegistered struct {
	Task string
}

func (err ErrTaskNotRegistered) Error() string {
	return fmt.Sprintf("no handler is registered for task '%s'", err.Task)
}

// ErrEmptyChain implements "error", for the description see Error.
type ErrEmptyChain struct{}

func (err ErrEmptyChain) Error() string {
	return "a chain requires at least one signature"
}

// ErrRetry is returned by a task handler to request a re-delivery of the
// same message after a delay. The worker converts it into a RETRY state
// and re-enqueues the message, unless the retry ceiling is reached.
type ErrRetry struct {
	After time.Duration
	Err   error
}

func (err ErrRetry) Error() string {
	return fmt.Sprintf("task requested a retry in %s: %v", err.After, err.Err)
}

func (err ErrRetry) Unwrap() error {
	return err.Err
}
