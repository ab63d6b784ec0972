package taskqueue

import (
	"context"
	"fmt"

	"github.com/go-redis/redis"
)

// queueKeyPrefix namespaces the queue lists, so that an unrelated user of
// the same redis database does not collide with us.
const queueKeyPrefix = "geosafe:queue:"

type redisBroker struct {
	db *redis.Client
}

var _ Broker = (*redisBroker)(nil)

func newRedisBroker(urlString string) (*redisBroker, error) {
	opts, err := redis.ParseURL(urlString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis URL '%s': %w", urlString, err)
	}
	db := redis.NewClient(opts)
	if err := db.Ping().Err(); err != nil {
		return nil, fmt.Errorf("unable to ping the redis server '%s': %w", opts.Addr, err)
	}
	return &redisBroker{db: db}, nil
}

func (broker *redisBroker) Push(ctx context.Context, queue string, message []byte) error {
	if err := broker.db.LPush(queueKeyPrefix+queue, message).Err(); err != nil {
		return fmt.Errorf("unable to push a message to queue '%s': %w", queue, err)
	}
	return nil
}

func (broker *redisBroker) Pop(ctx context.Context, queue string) ([]byte, error) {
	message, err := broker.db.RPop(queueKeyPrefix + queue).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrEmptyQueue{Queue: queue}
		}
		return nil, fmt.Errorf("unable to pop a message from queue '%s': %w", queue, err)
	}
	return message, nil
}

func (broker *redisBroker) Close() error {
	return broker.db.Close()
}
