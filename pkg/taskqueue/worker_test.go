package taskqueue

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/types"
)

const testWaitPollInterval = 10 * time.Millisecond

func newTestWorker(t *testing.T) (*Worker, *Client, context.Context) {
	broker := newMemoryBroker()
	backend := newMemoryBackend()

	worker := NewWorker(broker, backend, "analysis", "metadata")
	worker.PollInterval = time.Millisecond

	ctx, cancelFn := context.WithTimeout(context.Background(), 30*time.Second)
	serveCtx, stopServing := context.WithCancel(ctx)
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- worker.Serve(serveCtx)
	}()
	t.Cleanup(func() {
		stopServing()
		require.NoError(t, <-serveDone)
		cancelFn()
	})

	client, err := NewClient(broker, backend)
	require.NoError(t, err)
	return worker, client, ctx
}

func TestWorkerExecutesTask(t *testing.T) {
	worker, client, ctx := newTestWorker(t)

	worker.Register("test.echo", func(ctx context.Context, inv *Invocation) (any, error) {
		var input string
		if err := inv.DecodeArgs(&input); err != nil {
			return nil, err
		}
		return input, nil
	})

	sig, err := NewSignature("test.echo", "analysis", []any{"hello"})
	require.NoError(t, err)
	result, err := client.Enqueue(ctx, sig)
	require.NoError(t, err)

	record, err := result.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateSuccess, record.State)
	require.JSONEq(t, `"hello"`, string(record.Result))
}

func TestWorkerHandlerSeesItsTaskID(t *testing.T) {
	worker, client, ctx := newTestWorker(t)

	worker.Register("test.introspect", func(ctx context.Context, inv *Invocation) (any, error) {
		return inv.TaskID.String(), nil
	})

	sig, err := NewSignature("test.introspect", "analysis", nil)
	require.NoError(t, err)
	result, err := client.Enqueue(ctx, sig)
	require.NoError(t, err)

	record, err := result.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateSuccess, record.State)
	require.JSONEq(t, fmt.Sprintf("%q", sig.TaskID.String()), string(record.Result))
}

func TestWorkerChainPrependsResults(t *testing.T) {
	worker, client, ctx := newTestWorker(t)

	worker.Register("test.produce", func(ctx context.Context, inv *Invocation) (any, error) {
		return 7, nil
	})
	worker.Register("test.consume", func(ctx context.Context, inv *Invocation) (any, error) {
		var produced, own int
		if err := inv.DecodeArgs(&produced, &own); err != nil {
			return nil, err
		}
		return produced + own, nil
	})

	produceSig, err := NewSignature("test.produce", "analysis", nil)
	require.NoError(t, err)
	consumeSig, err := NewSignature("test.consume", "metadata", []any{5})
	require.NoError(t, err)

	result, err := client.EnqueueChain(ctx, produceSig, consumeSig)
	require.NoError(t, err)

	record, err := result.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateSuccess, record.State)
	require.JSONEq(t, `12`, string(record.Result))

	headRecord, err := result.Parent.Record(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateSuccess, headRecord.State)
	require.JSONEq(t, `7`, string(headRecord.Result))
}

func TestWorkerRetriesUntilCeiling(t *testing.T) {
	worker, client, ctx := newTestWorker(t)

	var calls uint32
	worker.Register("test.flaky", func(ctx context.Context, inv *Invocation) (any, error) {
		atomic.AddUint32(&calls, 1)
		return nil, ErrRetry{
			After: time.Millisecond,
			Err:   fmt.Errorf("still locked"),
		}
	})

	sig, err := NewSignature("test.flaky", "analysis", nil, WithMaxRetries(2))
	require.NoError(t, err)
	result, err := client.Enqueue(ctx, sig)
	require.NoError(t, err)

	record, err := result.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateFailure, record.State)
	require.Contains(t, record.Error, "still locked")
	require.EqualValues(t, 3, atomic.LoadUint32(&calls))
}

func TestWorkerTimeLimit(t *testing.T) {
	worker, client, ctx := newTestWorker(t)

	worker.Register("test.slow", func(ctx context.Context, inv *Invocation) (any, error) {
		select {
		case <-time.After(time.Hour):
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	sig, err := NewSignature("test.slow", "analysis", nil, WithTimeLimit(50*time.Millisecond))
	require.NoError(t, err)
	result, err := client.Enqueue(ctx, sig)
	require.NoError(t, err)

	record, err := result.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateFailure, record.State)
	require.Contains(t, record.Error, "time limit")
}

func TestWorkerUnregisteredTask(t *testing.T) {
	_, client, ctx := newTestWorker(t)

	sig, err := NewSignature("test.never_heard_of_it", "analysis", nil)
	require.NoError(t, err)
	result, err := client.Enqueue(ctx, sig)
	require.NoError(t, err)

	record, err := result.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateFailure, record.State)
	require.Contains(t, record.Error, "no handler")
}

func TestWorkerPanicIsAFailure(t *testing.T) {
	worker, client, ctx := newTestWorker(t)

	worker.Register("test.grenade", func(ctx context.Context, inv *Invocation) (any, error) {
		panic("pulled the pin")
	})

	sig, err := NewSignature("test.grenade", "analysis", nil)
	require.NoError(t, err)
	result, err := client.Enqueue(ctx, sig)
	require.NoError(t, err)

	record, err := result.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateFailure, record.State)
}

func TestWorkerFailureSkipsCallbacks(t *testing.T) {
	worker, client, ctx := newTestWorker(t)

	worker.Register("test.doomed", func(ctx context.Context, inv *Invocation) (any, error) {
		return nil, fmt.Errorf("no luck")
	})
	worker.Register("test.callback", func(ctx context.Context, inv *Invocation) (any, error) {
		return "should never run", nil
	})

	doomedSig, err := NewSignature("test.doomed", "analysis", nil)
	require.NoError(t, err)
	callbackSig, err := NewSignature("test.callback", "metadata", nil)
	require.NoError(t, err)

	result, err := client.EnqueueChain(ctx, doomedSig, callbackSig)
	require.NoError(t, err)

	headRecord, err := result.Parent.Wait(ctx, testWaitPollInterval)
	require.NoError(t, err)
	require.Equal(t, types.TaskStateFailure, headRecord.State)

	// The callback is never submitted, so it stays PENDING forever.
	time.Sleep(50 * time.Millisecond)
	state, err := result.State(ctx)
	require.NoError(t, err)
	require.Equal(t, types.TaskStatePending, state)
}
