package taskqueue

import (
	"context"
	"errors"
	"time"

	"github.com/vasuse7en/geosafe/pkg/types"
)

// AsyncResult is a handle to poll the outcome of a submitted invocation.
//
// For a chain the handle points at the tail, and Parent leads back towards
// the head, so a caller may pick the stage it actually cares about.
type AsyncResult struct {
	TaskID types.TaskID
	Parent *AsyncResult
	client *Client
}

// State reports the current state of the task. A task nobody recorded
// anything about yet is reported as PENDING.
func (result *AsyncResult) State(ctx context.Context) (types.TaskState, error) {
	record, err := result.Record(ctx)
	if err != nil {
		if errors.As(err, &ErrStateNotFound{}) {
			return types.TaskStatePending, nil
		}
		return types.TaskStateUndefined, err
	}
	return record.State, nil
}

// Record returns the raw state record. In contrast with State it does not
// mask an absent record (returns ErrStateNotFound instead).
func (result *AsyncResult) Record(ctx context.Context) (TaskRecord, error) {
	if cached, ok := result.client.terminalStates.Get(result.TaskID); ok {
		return cached.(TaskRecord), nil
	}
	record, err := result.client.Backend.State(ctx, result.TaskID)
	if err != nil {
		return TaskRecord{}, err
	}
	if record.State.IsTerminal() {
		result.client.terminalStates.Add(result.TaskID, record)
	}
	return record, nil
}

// Wait polls the task state each pollInterval until the task reaches a
// terminal state or ctx is canceled.
func (result *AsyncResult) Wait(ctx context.Context, pollInterval time.Duration) (TaskRecord, error) {
	for {
		record, err := result.Record(ctx)
		switch {
		case err == nil && record.State.IsTerminal():
			return record, nil
		case err != nil && !errors.As(err, &ErrStateNotFound{}):
			return TaskRecord{}, err
		}
		select {
		case <-ctx.Done():
			return TaskRecord{}, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
