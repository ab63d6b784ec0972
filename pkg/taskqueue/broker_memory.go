package taskqueue

import (
	"context"
	"sync"
)

// memoryBroker is an in-process Broker used by tests and by single-binary
// deployments which do not need a shared transport.
type memoryBroker struct {
	locker sync.Mutex
	queues map[string][][]byte
}

var _ Broker = (*memoryBroker)(nil)

func newMemoryBroker() *memoryBroker {
	return &memoryBroker{
		queues: map[string][][]byte{},
	}
}

func (broker *memoryBroker) Push(ctx context.Context, queue string, message []byte) error {
	broker.locker.Lock()
	defer broker.locker.Unlock()
	messageCopy := make([]byte, len(message))
	copy(messageCopy, message)
	broker.queues[queue] = append(broker.queues[queue], messageCopy)
	return nil
}

func (broker *memoryBroker) Pop(ctx context.Context, queue string) ([]byte, error) {
	broker.locker.Lock()
	defer broker.locker.Unlock()
	messages := broker.queues[queue]
	if len(messages) == 0 {
		return nil, ErrEmptyQueue{Queue: queue}
	}
	message := messages[0]
	broker.queues[queue] = messages[1:]
	return message, nil
}

func (broker *memoryBroker) Close() error {
	return nil
}
