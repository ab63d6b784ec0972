package types

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// TaskID is an unique identifier of a single asynchronous task submitted
// to a queue. It doubles as the tracking handle callers poll for status.
type TaskID uuid.UUID

// NewTaskID generates a new random TaskID.
func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

// NewTaskIDFromBytes constructs a TaskID given its binary representation.
func NewTaskIDFromBytes(b []byte) (TaskID, error) {
	v, err := uuid.FromBytes(b)
	if err != nil {
		return TaskID{}, err
	}
	return TaskID(v), nil
}

// ParseTaskID parses an UUID string as TaskID.
func ParseTaskID(s string) (TaskID, error) {
	taskID, err := uuid.Parse(s)
	if err != nil {
		return TaskID{}, fmt.Errorf("unable to parse '%s' as UUID: %w", s, err)
	}
	return TaskID(taskID), nil
}

// IsZero reports whether the TaskID is the zero (never assigned) value.
func (taskID TaskID) IsZero() bool {
	return taskID == TaskID{}
}

// String implements fmt.Stringer
func (taskID TaskID) String() string {
	return uuid.UUID(taskID).String()
}

// MarshalText serializes the TaskID for JSON-encoded task messages.
func (taskID TaskID) MarshalText() ([]byte, error) {
	return []byte(taskID.String()), nil
}

// UnmarshalText deserializes the TaskID from JSON-encoded task messages.
func (taskID *TaskID) UnmarshalText(b []byte) error {
	parsed, err := ParseTaskID(string(b))
	if err != nil {
		return err
	}
	*taskID = parsed
	return nil
}

// Value converts the value to be stored in DB.
func (taskID TaskID) Value() (driver.Value, error) {
	emptyTaskID := TaskID{}
	if bytes.Equal(taskID[:], emptyTaskID[:]) {
		return nil, nil
	}
	return taskID.String(), nil
}

// Scan converts DB's value to TaskID. Both the textual and the raw
// 16-bytes representations are accepted; NULL scans into the zero value.
func (taskID *TaskID) Scan(srcI interface{}) error {
	var src []byte
	switch v := srcI.(type) {
	case nil:
		*taskID = TaskID{}
		return nil
	case []byte:
		src = v
	case string:
		src = []byte(v)
	default:
		return fmt.Errorf("expected []byte or string, received %T", srcI)
	}

	if len(src) == len(*taskID) {
		copy((*taskID)[:], src)
		return nil
	}

	parsed, err := ParseTaskID(string(src))
	if err != nil {
		return err
	}
	*taskID = parsed
	return nil
}
