package taskqueue

import (
	"context"
	"sync"

	"github.com/vasuse7en/geosafe/pkg/types"
)

type memoryBackend struct {
	locker  sync.RWMutex
	records map[types.TaskID]TaskRecord
}

var _ Backend = (*memoryBackend)(nil)

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		records: map[types.TaskID]TaskRecord{},
	}
}

func (backend *memoryBackend) SetState(ctx context.Context, record TaskRecord) error {
	backend.locker.Lock()
	defer backend.locker.Unlock()
	backend.records[record.TaskID] = record
	return nil
}

func (backend *memoryBackend) State(ctx context.Context, taskID types.TaskID) (TaskRecord, error) {
	backend.locker.RLock()
	defer backend.locker.RUnlock()
	record, ok := backend.records[taskID]
	if !ok {
		return TaskRecord{}, ErrStateNotFound{TaskID: taskID}
	}
	return record, nil
}

func (backend *memoryBackend) Close() error {
	return nil
}
