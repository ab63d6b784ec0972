package besteffort

import (
	"github.com/hashicorp/go-multierror"
)

// Result separates the failure of a primary operation from failures of
// its best-effort side channels (mirror writes, scratch-file removals).
//
// A side-channel failure never fails the primary path: the caller is
// expected to log/observe Side() and propagate only Primary().
type Result struct {
	primary error
	side    *multierror.Error
}

// FailWith marks the primary operation as failed. The first primary
// failure wins; subsequent ones are demoted to the side channel.
func (r *Result) FailWith(err error) {
	if err == nil {
		return
	}
	if r.primary != nil {
		r.Observe(err)
		return
	}
	r.primary = err
}

// Observe records a side-channel failure. Nil is ignored, so removal
// loops may call it unconditionally.
func (r *Result) Observe(err error) {
	if err == nil {
		return
	}
	r.side = multierror.Append(r.side, err)
}

// Primary returns the primary failure, if any.
func (r *Result) Primary() error {
	return r.primary
}

// Side returns all collected side-channel failures as a single error,
// or nil if there were none.
func (r *Result) Side() error {
	return r.side.ErrorOrNil()
}

// Succeeded reports whether the primary operation completed.
func (r *Result) Succeeded() bool {
	return r.primary == nil
}
