package taskqueue

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis"
	"github.com/stretchr/testify/require"
)

func TestNewBroker(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		broker, err := NewBroker("mem://")
		require.NoError(t, err)
		require.IsType(t, (*memoryBroker)(nil), broker)
		require.NoError(t, broker.Close())
	})

	t.Run("unknown_scheme", func(t *testing.T) {
		_, err := NewBroker("carrier-pigeon://coop0")
		require.True(t, errors.As(err, &ErrUnknownScheme{}))
	})
}

func testBrokerFIFO(t *testing.T, broker Broker) {
	ctx := context.Background()

	_, err := broker.Pop(ctx, "analysis")
	require.True(t, errors.As(err, &ErrEmptyQueue{}))

	require.NoError(t, broker.Push(ctx, "analysis", []byte("first")))
	require.NoError(t, broker.Push(ctx, "analysis", []byte("second")))
	require.NoError(t, broker.Push(ctx, "metadata", []byte("other")))

	message, err := broker.Pop(ctx, "analysis")
	require.NoError(t, err)
	require.Equal(t, []byte("first"), message)

	message, err = broker.Pop(ctx, "analysis")
	require.NoError(t, err)
	require.Equal(t, []byte("second"), message)

	_, err = broker.Pop(ctx, "analysis")
	require.True(t, errors.As(err, &ErrEmptyQueue{}))

	message, err = broker.Pop(ctx, "metadata")
	require.NoError(t, err)
	require.Equal(t, []byte("other"), message)
}

func TestMemoryBrokerFIFO(t *testing.T) {
	broker := newMemoryBroker()
	defer broker.Close()
	testBrokerFIFO(t, broker)
}

func TestRedisBrokerFIFO(t *testing.T) {
	redisSrv, err := miniredis.Run()
	require.NoError(t, err)
	defer redisSrv.Close()

	broker, err := NewBroker("redis://" + redisSrv.Addr())
	require.NoError(t, err)
	defer broker.Close()

	testBrokerFIFO(t, broker)
}
