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
	"encoding/json"
	"fmt"
	"time"

	"github.com/vasuse7en/geosafe/pkg/types"
)

const (
	// DefaultMaxRetries is the retry ceiling applied to a Signature
	// unless overridden with WithMaxRetries.
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the re-delivery delay applied when a handler
	// returns an ErrRetry without an explicit After value.
	DefaultRetryDelay = 3 * time.Minute
)

// Signature is a single task invocation request: which task to run, on
// which queue, with which arguments. The TaskID is generated upfront, so
// the submitter holds a handle to poll the task state before the message
// is even picked up.
type Signature struct {
	// TaskID is the unique ID of this invocation.
	TaskID types.TaskID `json:"task_id"`

	// Task is the registered name of the task, e.g. "geosafe.set_layer_purpose".
	Task string `json:"task"`

	// Queue is the name of the queue the message is routed to.
	Queue string `json:"queue"`

	// Args are the positional arguments, each encoded as JSON.
	Args []json.RawMessage `json:"args"`

	// MaxRetries caps how many times a handler may request a retry.
	MaxRetries uint `json:"max_retries"`

	// TimeLimit is the wall-clock budget of a single run. Zero means
	// no limit.
	TimeLimit time.Duration `json:"time_limit,omitempty"`
}

// SignatureOption modifies a Signature during NewSignature.
type SignatureOption func(*Signature)

// WithMaxRetries overrides DefaultMaxRetries.
func WithMaxRetries(maxRetries uint) SignatureOption {
	return func(sig *Signature) {
		sig.MaxRetries = maxRetries
	}
}

// WithTimeLimit sets the wall-clock budget of a single run.
func WithTimeLimit(timeLimit time.Duration) SignatureOption {
	return func(sig *Signature) {
		sig.TimeLimit = timeLimit
	}
}

// NewSignature constructs a Signature for task `task` on queue `queue`
// with positional arguments `args` (each is serialized to JSON right away).
func NewSignature(task string, queue string, args []any, opts ...SignatureOption) (Signature, error) {
	sig := Signature{
		TaskID:     types.NewTaskID(),
		Task:       task,
		Queue:      queue,
		MaxRetries: DefaultMaxRetries,
	}
	for _, arg := range args {
		serialized, err := json.Marshal(arg)
		if err != nil {
			return Signature{}, fmt.Errorf("unable to serialize argument %#+v of task '%s': %w", arg, task, err)
		}
		sig.Args = append(sig.Args, serialized)
	}
	for _, opt := range opts {
		opt(&sig)
	}
	return sig, nil
}

// GoString implements fmt.GoStringer.
func (sig Signature) GoString() string {
	return fmt.Sprintf("%s[%s]", sig.Task, sig.TaskID)
}
