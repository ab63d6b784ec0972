package taskqueue

import (
	"encoding/json"
	"fmt"
)

// Invocation is the wire envelope of a queued message: the Signature to
// execute, the attempt counter (how many deliveries already happened) and
// the callbacks to submit with the result of this invocation prepended to
// their arguments (the chain semantics).
type Invocation struct {
	Signature

	// Attempt is zero on the first delivery and is incremented by the
	// worker on each retry re-enqueue.
	Attempt uint `json:"attempt"`

	// Callbacks are submitted in order after a successful run; the JSON
	// result of this invocation becomes the leading argument of the
	// first callback.
	Callbacks []Signature `json:"callbacks,omitempty"`
}

func encodeInvocation(inv Invocation) ([]byte, error) {
	serialized, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize the invocation of %#v: %w", inv.Signature, err)
	}
	return serialized, nil
}

func decodeInvocation(message []byte) (Invocation, error) {
	var inv Invocation
	if err := json.Unmarshal(message, &inv); err != nil {
		return Invocation{}, fmt.Errorf("unable to unserialize a queued message of length %d: %w", len(message), err)
	}
	return inv, nil
}

// DecodeArgs unserializes the positional arguments of the invocation into
// the passed pointers. Extra arguments are left undecoded; a missing
// argument is an error.
func (inv *Invocation) DecodeArgs(outPtrs ...any) error {
	return DecodeArgs(inv.Args, outPtrs...)
}

// DecodeArgs unserializes JSON-encoded positional arguments into the
// passed pointers, see Invocation.DecodeArgs.
func DecodeArgs(args []json.RawMessage, outPtrs ...any) error {
	if len(args) < len(outPtrs) {
		return fmt.Errorf("expected at least %d arguments, but received %d", len(outPtrs), len(args))
	}
	for idx, outPtr := range outPtrs {
		if err := json.Unmarshal(args[idx], outPtr); err != nil {
			return fmt.Errorf("unable to unserialize argument #%d '%s': %w", idx, args[idx], err)
		}
	}
	return nil
}
