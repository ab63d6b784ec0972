package types

import (
	"database/sql/driver"
	"fmt"
)

// TaskState is the execution state of an asynchronous task (and of the
// Analysis record the task drives).
type TaskState uint

const (
	TaskStateUndefined = TaskState(iota)
	TaskStatePending
	TaskStateRunning
	TaskStateRetry
	TaskStateSuccess
	TaskStateFailure

	EndOfTaskState
)

func (s TaskState) String() string {
	switch s {
	case TaskStateUndefined:
		return "NULL"
	case TaskStatePending:
		return "PENDING"
	case TaskStateRunning:
		return "RUNNING"
	case TaskStateRetry:
		return "RETRY"
	case TaskStateSuccess:
		return "SUCCESS"
	case TaskStateFailure:
		return "FAILURE"
	default:
		return fmt.Sprintf("unknown_state_%d", uint(s))
	}
}

// IsTerminal reports whether no further state transition is possible.
func (s TaskState) IsTerminal() bool {
	return s == TaskStateSuccess || s == TaskStateFailure
}

// ParseTaskState maps the wire/DB representation back to a TaskState.
func ParseTaskState(src string) (TaskState, error) {
	for candidate := TaskStateUndefined + 1; candidate < EndOfTaskState; candidate++ {
		if src == candidate.String() {
			return candidate, nil
		}
	}
	return TaskStateUndefined, fmt.Errorf("unknown task state: '%s'", src)
}

// MarshalText serializes the state for JSON-encoded backend records.
func (s TaskState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText deserializes the state from JSON-encoded backend records.
func (s *TaskState) UnmarshalText(b []byte) error {
	parsed, err := ParseTaskState(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value converts the value to be stored in DB. The undefined state is
// stored as NULL.
func (s TaskState) Value() (driver.Value, error) {
	if s == TaskStateUndefined {
		return nil, nil
	}
	if s >= EndOfTaskState {
		return nil, fmt.Errorf("unexpected value: %s", s.String())
	}

	return s.String(), nil
}

// Scan converts DB's value to the TaskState.
func (s *TaskState) Scan(srcI interface{}) error {
	var src string
	switch v := srcI.(type) {
	case nil:
		*s = TaskStateUndefined
		return nil
	case []byte:
		src = string(v)
	case string:
		src = v
	default:
		return fmt.Errorf("expected []byte or string, received %T", srcI)
	}

	parsed, err := ParseTaskState(src)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
