package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis"

	"github.com/vasuse7en/geosafe/pkg/types"
)

const (
	// stateKeyPrefix namespaces the task state records.
	stateKeyPrefix = "geosafe:task:"

	// defaultStateTTL caps how long a task state record outlives the
	// task. Pollers are expected to collect results well within a day.
	defaultStateTTL = 24 * time.Hour
)

type redisBackend struct {
	db       *redis.Client
	stateTTL time.Duration
}

var _ Backend = (*redisBackend)(nil)

func newRedisBackend(urlString string) (*redisBackend, error) {
	opts, err := redis.ParseURL(urlString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis URL '%s': %w", urlString, err)
	}
	db := redis.NewClient(opts)
	if err := db.Ping().Err(); err != nil {
		return nil, fmt.Errorf("unable to ping the redis server '%s': %w", opts.Addr, err)
	}
	return &redisBackend{
		db:       db,
		stateTTL: defaultStateTTL,
	}, nil
}

func (backend *redisBackend) SetState(ctx context.Context, record TaskRecord) error {
	serialized, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("unable to serialize the state record of task '%s': %w", record.TaskID, err)
	}
	if err := backend.db.Set(stateKeyPrefix+record.TaskID.String(), serialized, backend.stateTTL).Err(); err != nil {
		return fmt.Errorf("unable to store the state record of task '%s': %w", record.TaskID, err)
	}
	return nil
}

func (backend *redisBackend) State(ctx context.Context, taskID types.TaskID) (TaskRecord, error) {
	serialized, err := backend.db.Get(stateKeyPrefix + taskID.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return TaskRecord{}, ErrStateNotFound{TaskID: taskID}
		}
		return TaskRecord{}, fmt.Errorf("unable to fetch the state record of task '%s': %w", taskID, err)
	}
	var record TaskRecord
	if err := json.Unmarshal(serialized, &record); err != nil {
		return TaskRecord{}, fmt.Errorf("unable to unserialize the state record of task '%s': %w", taskID, err)
	}
	return record, nil
}

func (backend *redisBackend) Close() error {
	return backend.db.Close()
}
