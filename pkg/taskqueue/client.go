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
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vasuse7en/geosafe/pkg/types"
)

// terminalStatesCacheSize caps the amount of memoized terminal task
// records; a terminal record never changes, so repeated polls of the same
// handle do not need to reach the backend again.
const terminalStatesCacheSize = 1024

// Client submits task invocations to a Broker and hands out AsyncResult
// handles backed by a Backend.
type Client struct {
	Broker  Broker
	Backend Backend

	terminalStates *lru.TwoQueueCache
}

// NewClient combines a broker and a backend into a submitter.
func NewClient(broker Broker, backend Backend) (*Client, error) {
	terminalStates, err := lru.New2Q(terminalStatesCacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create the terminal states cache: %w", err)
	}
	return &Client{
		Broker:         broker,
		Backend:        backend,
		terminalStates: terminalStates,
	}, nil
}

// Enqueue submits a single invocation.
func (client *Client) Enqueue(ctx context.Context, sig Signature) (*AsyncResult, error) {
	return client.EnqueueChain(ctx, sig)
}

// EnqueueChain submits the first signature with the rest attached as
// callbacks: each stage's JSON result is prepended to the arguments of the
// next stage. The returned handle points at the tail of the chain and its
// Parent chain leads back to the head.
func (client *Client) EnqueueChain(ctx context.Context, sigs ...Signature) (*AsyncResult, error) {
	if len(sigs) == 0 {
		return nil, ErrEmptyChain{}
	}

	message, err := encodeInvocation(Invocation{
		Signature: sigs[0],
		Callbacks: sigs[1:],
	})
	if err != nil {
		return nil, err
	}

	// The PENDING marks go in before the push, so a quick worker cannot
	// be outrun (a RUNNING record must never be downgraded).
	for _, sig := range sigs {
		if err := client.Backend.SetState(ctx, TaskRecord{
			TaskID:    sig.TaskID,
			State:     types.TaskStatePending,
			UpdatedAt: time.Now(),
		}); err != nil {
			return nil, fmt.Errorf("unable to mark %#v as pending: %w", sig, err)
		}
	}

	if err := client.Broker.Push(ctx, sigs[0].Queue, message); err != nil {
		return nil, fmt.Errorf("unable to submit %#v: %w", sigs[0], err)
	}

	var result *AsyncResult
	for _, sig := range sigs {
		result = &AsyncResult{
			TaskID: sig.TaskID,
			Parent: result,
			client: client,
		}
	}
	return result, nil
}

// Result returns a polling handle for an already submitted task (for
// example when only its ID survived a restart).
func (client *Client) Result(taskID types.TaskID) *AsyncResult {
	return &AsyncResult{
		TaskID: taskID,
		client: client,
	}
}
