package controller

import (
	"context"
	"encoding/json"

	"github.com/vasuse7en/geosafe/pkg/taskqueue"
)

// QueueGeoSAFE is the local processing queue: every task the coordinator
// executes itself is routed here.
const QueueGeoSAFE = "geosafe"

// Names of the coordinator's own tasks.
const (
	TaskCreateMetadataObject = "geosafe.create_metadata_object"
	TaskSetLayerPurpose      = "geosafe.set_layer_purpose"
	TaskProcessImpactResult  = "geosafe.process_impact_result"
	TaskFixMetadata          = "geosafe.inasafe_metadata_fix"
	TaskCleanImpactResult    = "geosafe.clean_impact_result"
)

// RegisterTaskHandlers binds the coordinator's task implementations to the
// worker. The handlers only decode the wire arguments; the semantics live
// in the Controller methods.
func (ctrl *Controller) RegisterTaskHandlers(worker *taskqueue.Worker) {
	worker.Register(TaskCreateMetadataObject, func(ctx context.Context, inv *taskqueue.Invocation) (any, error) {
		var layerID int64
		if err := inv.DecodeArgs(&layerID); err != nil {
			return nil, err
		}
		return ctrl.CreateMetadataObject(ctx, layerID)
	})

	worker.Register(TaskSetLayerPurpose, func(ctx context.Context, inv *taskqueue.Invocation) (any, error) {
		// The keyword map is prepended by the chain from the preceding
		// read-keywords stage.
		var keywordsJSON json.RawMessage
		var layerID int64
		if err := inv.DecodeArgs(&keywordsJSON, &layerID); err != nil {
			return nil, err
		}
		if err := ctrl.SetLayerPurpose(ctx, keywordsJSON, layerID); err != nil {
			return nil, err
		}
		return true, nil
	})

	worker.Register(TaskProcessImpactResult, func(ctx context.Context, inv *taskqueue.Invocation) (any, error) {
		// The impact artifact URL is prepended by the chain from the
		// compute stage.
		var impactURL string
		var analysisID int64
		if err := inv.DecodeArgs(&impactURL, &analysisID); err != nil {
			return nil, err
		}
		return ctrl.ProcessImpactResult(ctx, inv.TaskID, impactURL, analysisID)
	})

	worker.Register(TaskFixMetadata, func(ctx context.Context, inv *taskqueue.Invocation) (any, error) {
		var layerID int64
		if err := inv.DecodeArgs(&layerID); err != nil {
			return nil, err
		}
		// Reconciliation is best-effort: failures are observed inside.
		ctrl.FixMetadata(ctx, layerID)
		return true, nil
	})

	worker.Register(TaskCleanImpactResult, func(ctx context.Context, inv *taskqueue.Invocation) (any, error) {
		if err := ctrl.CleanImpactResult(ctx); err != nil {
			return nil, err
		}
		return true, nil
	})
}
