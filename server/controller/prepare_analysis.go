package controller

import (
	"context"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/vasuse7en/geosafe/pkg/headless"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/pkg/types"
)

// PrepareAnalysis submits the two-stage chain of one analysis: the compute
// stage on the headless queue, then the ingestion stage on the local queue.
//
// The returned handle tracks the compute stage, not the chain tail: the
// compute stage is the one bounded by the time limit and therefore the one
// worth polling. The ingestion stage reports its progress through the
// analysis row itself.
func (ctrl *Controller) PrepareAnalysis(ctx context.Context, analysisID int64) (*taskqueue.AsyncResult, error) {
	ctx = beltctx.WithField(ctx, "analysisID", analysisID)
	log := logger.FromCtx(ctx)

	analysis, err := ctrl.Catalog.Analysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}

	hazardAddress, err := ctrl.layerAddress(ctx, analysis.HazardLayerID)
	if err != nil {
		return nil, err
	}
	exposureAddress, err := ctrl.layerAddress(ctx, analysis.ExposureLayerID)
	if err != nil {
		return nil, err
	}

	var extent *types.Extent
	if analysis.Extent.Valid && analysis.Extent.String != "" {
		parsedExtent, err := types.ParseExtent(analysis.Extent.String)
		if err != nil {
			return nil, err
		}
		extent = &parsedExtent
	}

	computeSig, err := headless.RunAnalysisSignature(
		hazardAddress,
		exposureAddress,
		analysis.ImpactFunctionID,
		extent,
		true,  // generate the PDF reports
		false, // do not archive the impact on the worker side
		taskqueue.WithTimeLimit(ctrl.AnalysisTimeLimit),
	)
	if err != nil {
		return nil, ErrSubmitChain{Err: err}
	}
	ingestSig, err := taskqueue.NewSignature(TaskProcessImpactResult, QueueGeoSAFE, []any{analysisID})
	if err != nil {
		return nil, ErrSubmitChain{Err: err}
	}

	// The compute task ID is pre-generated, so the row can be stamped
	// before the message is even submitted: a poller never observes an
	// analysis pointing at a task the queue does not know about.
	analysis.TaskID = computeSig.TaskID
	analysis.TaskState = types.TaskStatePending
	analysis.StartTime = time.Now()
	if err := ctrl.Catalog.UpdateAnalysis(ctx, analysis); err != nil {
		return nil, err
	}

	chainTail, err := ctrl.Queue.EnqueueChain(ctx, computeSig, ingestSig)
	if err != nil {
		return nil, ErrSubmitChain{Err: err}
	}
	log.Infof("submitted the analysis chain: compute %s, ingestion %s", computeSig.TaskID, ingestSig.TaskID)

	return chainTail.Parent, nil
}

func (ctrl *Controller) layerAddress(ctx context.Context, layerID int64) (string, error) {
	layer, err := ctrl.Catalog.Layer(ctx, layerID)
	if err != nil {
		return "", ErrResolveLayer{LayerID: layerID, Err: err}
	}
	address, err := ctrl.Resolver.LayerAddress(layer)
	if err != nil {
		return "", ErrResolveLayer{LayerID: layerID, Err: err}
	}
	return address, nil
}
