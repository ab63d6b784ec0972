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

package controller

import (
	"context"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/vasuse7en/geosafe/pkg/artifact"
	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/lockmap"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
)

type noCopy sync.Locker

// Controller implements the high-level logic of the impact-analysis
// coordination service.
type Controller struct {
	noCopy noCopy

	Context       context.Context
	ContextCancel context.CancelFunc

	Catalog  *catalog.Catalog
	Queue    *taskqueue.Client
	Resolver *artifact.Resolver
	Fetcher  *artifact.Fetcher

	// AnalysisTimeLimit is the wall-clock budget of one compute stage.
	AnalysisTimeLimit time.Duration

	// MetadataFixLock serializes metadata reconciliations per layer.
	MetadataFixLock *lockmap.LockMap

	activeGoroutinesWG sync.WaitGroup
}

// New returns an instance of Controller.
//
// A positive sweepInterval starts the retention sweeper loop; zero leaves
// sweeping to explicitly submitted tasks.
func New(
	ctx context.Context,
	cat *catalog.Catalog,
	queue *taskqueue.Client,
	resolver *artifact.Resolver,
	fetcher *artifact.Fetcher,
	analysisTimeLimit time.Duration,
	sweepInterval time.Duration,
) *Controller {
	ctx = beltctx.WithField(ctx, "module", "controller")

	ctrl := &Controller{
		Catalog:  cat,
		Queue:    queue,
		Resolver: resolver,
		Fetcher:  fetcher,

		AnalysisTimeLimit: analysisTimeLimit,
		MetadataFixLock:   lockmap.NewLockMap(),
	}
	ctrl.Context, ctrl.ContextCancel = context.WithCancel(ctx)

	cat.OnLayerSaved(ctrl.onLayerSaved)

	if sweepInterval > 0 {
		ctrl.launchAsync(ctrl.Context, func(ctx context.Context) {
			ctrl.sweepLoop(ctx, sweepInterval)
		})
	}
	return ctrl
}

func (ctrl *Controller) sweepLoop(ctx context.Context, sweepInterval time.Duration) {
	sweepTicker := time.NewTicker(sweepInterval)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweepTicker.C:
			if err := ctrl.CleanImpactResult(ctx); err != nil {
				logger.FromCtx(ctx).Errorf("the retention sweep failed: %v", err)
			}
		}
	}
}

// onLayerSaved submits the metadata follow-ups of a saved layer: the
// keyword pipeline and the XML reconciliation.
func (ctrl *Controller) onLayerSaved(ctx context.Context, layer *catalog.Layer) {
	log := logger.FromCtx(ctx)
	for _, task := range []string{TaskCreateMetadataObject, TaskFixMetadata} {
		sig, err := taskqueue.NewSignature(task, QueueGeoSAFE, []any{layer.ID})
		if err != nil {
			log.Errorf("unable to build the %s invocation for layer %d: %v", task, layer.ID, err)
			continue
		}
		if _, err := ctrl.Queue.Enqueue(ctx, sig); err != nil {
			log.Errorf("unable to submit %s for layer %d: %v", task, layer.ID, err)
		}
	}
}

// Close stops the Controller and blocks until all goroutines from launchAsync
// rejoin.
//
// Invariants:
//  1. Close will wait for goroutines to rejoin before invalidating any state
//  2. After Close has been called, launchAsync will fail with context.Canceled
//  3. Goroutines MUST NOT call Close
//  4. Goroutines MUST return promptly when their context is cancelled
func (ctrl *Controller) Close() error {
	ctrl.ContextCancel()
	ctrl.activeGoroutinesWG.Wait()
	return nil
}

// launchAsync starts the given function in the background. The context passed
// to the function will be cancelled with the call to ctrl.Close(). If the
// controller has already received a call to Close, then this function will
// return the cancellation error (in this case most likely context.Canceled).
//
// Goroutines launched this way MUST NOT call Controller.Close, because it would
// DEADLOCK. See Close for other invariants.
func (ctrl *Controller) launchAsync(ctx context.Context, f func(ctx context.Context)) error {
	// Need to do this first to prevent another thread entering Close() between
	// the `if` and the `go` from returning.
	ctrl.activeGoroutinesWG.Add(1)
	if ctx.Err() != nil {
		ctrl.activeGoroutinesWG.Done()
		return ctx.Err()
	}

	// If another thread calls Close before this goroutine starts, the latter
	// will spin up with an already cancelled context and return promptly, but
	// the Close thread will still wait for it.
	go func() {
		defer ctrl.activeGoroutinesWG.Done()
		f(ctx)
	}()

	return nil
}
