package controller

import (
	"context"

	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/types"
)

// CleanImpactResult is the retention sweep: it deletes every analysis not
// marked for keeping (together with its stored reports), and then drops
// the metadata records of impact layers no surviving analysis points at.
//
// The impact layers themselves are never touched here, only their metadata
// records: an orphaned dataset may still be referenced from outside the
// coordinator.
//
// Per-record failures are logged and skipped, the sweep runs periodically
// and picks the leftovers up on the next round.
func (ctrl *Controller) CleanImpactResult(ctx context.Context) error {
	log := logger.FromCtx(ctx)

	keep := false
	disposable, err := ctrl.Catalog.FindAnalyses(ctx, catalog.FindAnalysesFilter{Keep: &keep})
	if err != nil {
		return err
	}
	var removedAnalyses int
	for _, analysis := range disposable {
		if err := ctrl.Catalog.DeleteAnalysis(ctx, analysis); err != nil {
			log.Warnf("unable to delete analysis %d: %v", analysis.ID, err)
			continue
		}
		removedAnalyses++
	}

	purpose := types.LayerPurposeImpact
	impactMetadata, err := ctrl.Catalog.FindMetadata(ctx, catalog.FindMetadataFilter{LayerPurpose: &purpose})
	if err != nil {
		return err
	}
	var removedMetadata int
	for _, meta := range impactMetadata {
		layerID := meta.LayerID
		survivors, err := ctrl.Catalog.FindAnalyses(ctx, catalog.FindAnalysesFilter{ImpactLayerID: &layerID})
		if err != nil {
			log.Warnf("unable to look up the analyses of impact layer %d: %v", layerID, err)
			continue
		}
		if len(survivors) != 0 {
			continue
		}
		if err := ctrl.Catalog.DeleteMetadataByLayer(ctx, layerID); err != nil {
			log.Warnf("unable to delete the metadata record of impact layer %d: %v", layerID, err)
			continue
		}
		removedMetadata++
	}

	if removedAnalyses != 0 || removedMetadata != 0 {
		log.Infof("the retention sweep removed %d analyses and %d orphaned impact metadata records",
			removedAnalyses, removedMetadata)
	}
	return nil
}
