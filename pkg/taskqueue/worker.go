// Copyright 2023 Meta Platforms, Inc. and affiliates.
//
// Redistribution and use in source and binary forms, with or without modification, are permitted provided that the following conditions are met:
//
// 1. Redistributions of source code must retain the above copyright notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright notice, this list of conditions and the following disclaimer in the documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its contributors may be used to endorse or promote products derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.
package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"
	"golang.org/x/sync/errgroup"

	"github.com/vasuse7en/geosafe/pkg/types"
)

// DefaultPollInterval is how long a consumer sleeps after finding all of
// its queues empty.
const DefaultPollInterval = time.Second

// Handler executes one task invocation. The Invocation carries the task
// ID, the attempt counter and the JSON-encoded positional arguments (see
// Invocation.DecodeArgs). The returned value is serialized to JSON,
// recorded as the task result and, when callbacks follow, is prepended to
// the arguments of the next stage.
type Handler func(ctx context.Context, inv *Invocation) (any, error)

// Worker consumes queues from a Broker, executes registered handlers and
// records the outcomes into a Backend.
type Worker struct {
	Broker       Broker
	Backend      Backend
	Queues       []string
	Concurrency  uint
	PollInterval time.Duration

	handlersLocker sync.RWMutex
	handlers       map[string]Handler

	// delayedWG tracks the re-deliveries scheduled for the future, so
	// that Serve does not return while a retry push is still pending.
	delayedWG sync.WaitGroup
}

// NewWorker constructs a Worker consuming the given queues (earlier queues
// have priority when several are non-empty).
func NewWorker(broker Broker, backend Backend, queues ...string) *Worker {
	return &Worker{
		Broker:       broker,
		Backend:      backend,
		Queues:       queues,
		Concurrency:  1,
		PollInterval: DefaultPollInterval,
		handlers:     map[string]Handler{},
	}
}

// Register binds a handler to a task name. Re-registering a name replaces
// the previous handler.
func (worker *Worker) Register(task string, handler Handler) {
	worker.handlersLocker.Lock()
	defer worker.handlersLocker.Unlock()
	worker.handlers[task] = handler
}

func (worker *Worker) handler(task string) Handler {
	worker.handlersLocker.RLock()
	defer worker.handlersLocker.RUnlock()
	return worker.handlers[task]
}

// Serve consumes the queues until ctx is canceled. A canceled context is a
// normal shutdown, not an error.
func (worker *Worker) Serve(ctx context.Context) error {
	concurrency := worker.Concurrency
	if concurrency == 0 {
		concurrency = 1
	}

	logger.FromCtx(ctx).Debugf("serving queues %v with concurrency %d", worker.Queues, concurrency)

	group, groupCtx := errgroup.WithContext(ctx)
	for i := uint(0); i < concurrency; i++ {
		consumerID := i
		group.Go(func() error {
			return worker.consumeLoop(beltctx.WithField(groupCtx, "consumerID", consumerID))
		})
	}
	err := group.Wait()
	worker.delayedWG.Wait()
	return err
}

func (worker *Worker) consumeLoop(ctx context.Context) error {
	log := logger.FromCtx(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		processedAny := false
		for _, queue := range worker.Queues {
			message, err := worker.Broker.Pop(ctx, queue)
			if err != nil {
				if !errors.As(err, &ErrEmptyQueue{}) {
					log.Errorf("unable to pop a message from queue '%s': %v", queue, err)
				}
				continue
			}
			processedAny = true
			worker.processMessage(beltctx.WithField(ctx, "queue", queue), message)
		}

		if processedAny {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(worker.PollInterval):
		}
	}
}

func (worker *Worker) processMessage(ctx context.Context, message []byte) {
	inv, err := decodeInvocation(message)
	if err != nil {
		logger.FromCtx(ctx).Errorf("dropping an unparsable message: %v", err)
		return
	}
	ctx = beltctx.WithField(ctx, "taskID", inv.TaskID)
	ctx = beltctx.WithField(ctx, "task", inv.Task)
	worker.execute(ctx, inv)
}

func (worker *Worker) execute(ctx context.Context, inv Invocation) {
	log := logger.FromCtx(ctx)

	handler := worker.handler(inv.Task)
	if handler == nil {
		err := ErrTaskNotRegistered{Task: inv.Task}
		log.Errorf("%v", err)
		worker.setState(ctx, inv, types.TaskStateFailure, nil, err)
		return
	}

	worker.setState(ctx, inv, types.TaskStateRunning, nil, nil)
	log.Debugf("executing (attempt #%d)", inv.Attempt+1)

	result, err := worker.runHandler(ctx, inv, handler)

	var retryErr ErrRetry
	switch {
	case err == nil:
		serializedResult, serializationErr := json.Marshal(result)
		if serializationErr != nil {
			err := fmt.Errorf("unable to serialize the result %#+v: %w", result, serializationErr)
			log.Errorf("%v", err)
			worker.setState(ctx, inv, types.TaskStateFailure, nil, err)
			return
		}
		worker.setState(ctx, inv, types.TaskStateSuccess, serializedResult, nil)
		worker.submitCallbacks(ctx, inv, serializedResult)
	case errors.As(err, &retryErr):
		if inv.Attempt >= inv.MaxRetries {
			err := fmt.Errorf("giving up after %d attempts: %w", inv.Attempt+1, retryErr.Err)
			log.Errorf("%v", err)
			worker.setState(ctx, inv, types.TaskStateFailure, nil, err)
			return
		}
		worker.requeueLater(ctx, inv, retryErr)
	default:
		log.Errorf("the task failed: %v", err)
		worker.setState(ctx, inv, types.TaskStateFailure, nil, err)
	}
}

func (worker *Worker) runHandler(ctx context.Context, inv Invocation, handler Handler) (any, error) {
	if inv.TimeLimit <= 0 {
		return worker.callHandler(ctx, inv, handler)
	}

	ctx, cancelFn := context.WithTimeout(ctx, inv.TimeLimit)
	defer cancelFn()

	type outcome struct {
		result any
		err    error
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		result, err := worker.callHandler(ctx, inv, handler)
		outcomeCh <- outcome{result: result, err: err}
	}()

	select {
	case out := <-outcomeCh:
		return out.result, out.err
	case <-ctx.Done():
		// The handler goroutine is expected to honor the context and
		// bail out on its own soon.
		return nil, fmt.Errorf("the task exceeded its time limit of %s: %w", inv.TimeLimit, ctx.Err())
	}
}

func (worker *Worker) callHandler(ctx context.Context, inv Invocation, handler Handler) (result any, err error) {
	defer func() {
		if newErr := errmon.ObserveRecoverCtx(ctx, recover()).AsError(); newErr != nil {
			result, err = nil, newErr
		}
	}()
	return handler(ctx, &inv)
}

func (worker *Worker) requeueLater(ctx context.Context, inv Invocation, retryErr ErrRetry) {
	log := logger.FromCtx(ctx)

	delay := retryErr.After
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	worker.setState(ctx, inv, types.TaskStateRetry, nil, retryErr.Err)

	inv.Attempt++
	message, err := encodeInvocation(inv)
	if err != nil {
		log.Errorf("%v", err)
		worker.setState(ctx, inv, types.TaskStateFailure, nil, err)
		return
	}

	log.Debugf("scheduling the re-delivery #%d in %s: %v", inv.Attempt, delay, retryErr.Err)
	worker.delayedWG.Add(1)
	go func() {
		defer worker.delayedWG.Done()
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// Push right away instead of dropping the message.
		}
		if err := worker.Broker.Push(context.Background(), inv.Queue, message); err != nil {
			log.Errorf("unable to re-enqueue %#v: %v", inv.Signature, err)
			worker.setState(ctx, inv, types.TaskStateFailure, nil, err)
		}
	}()
}

func (worker *Worker) submitCallbacks(ctx context.Context, inv Invocation, serializedResult json.RawMessage) {
	if len(inv.Callbacks) == 0 {
		return
	}

	next := Invocation{
		Signature: inv.Callbacks[0],
		Callbacks: inv.Callbacks[1:],
	}
	next.Args = append([]json.RawMessage{serializedResult}, next.Args...)

	message, err := encodeInvocation(next)
	if err != nil {
		logger.FromCtx(ctx).Errorf("%v", err)
		worker.setState(ctx, next, types.TaskStateFailure, nil, err)
		return
	}
	if err := worker.Broker.Push(ctx, next.Queue, message); err != nil {
		logger.FromCtx(ctx).Errorf("unable to submit the callback %#v: %v", next.Signature, err)
		worker.setState(ctx, next, types.TaskStateFailure, nil, err)
	}
}

func (worker *Worker) setState(
	ctx context.Context,
	inv Invocation,
	state types.TaskState,
	serializedResult json.RawMessage,
	taskErr error,
) {
	record := TaskRecord{
		TaskID:    inv.TaskID,
		State:     state,
		Result:    serializedResult,
		UpdatedAt: time.Now(),
	}
	if taskErr != nil {
		record.Error = taskErr.Error()
	}
	if err := worker.Backend.SetState(ctx, record); err != nil {
		logger.FromCtx(ctx).Errorf("unable to record state %s of task '%s': %v", state, inv.TaskID, err)
	}
}
