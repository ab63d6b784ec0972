package controller

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/tidwall/gjson"

	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/headless"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
)

// The layer row and the keyword lookup task are created by different
// parties, so the task may win the race and find no row yet.
const layerNotFoundRetryDelay = 5 * time.Second

// keywordNames lists the keywords requested from the headless worker:
// the purpose of the layer plus the category keyed by each possible
// purpose value.
var keywordNames = []string{"layer_purpose", "hazard", "exposure"}

// CreateMetadataObject submits the keyword lookup chain of one layer: the
// headless worker reads the keywords out of the layer's metadata document
// and the result lands in SetLayerPurpose.
//
// The returned flag tells whether the lookup was submitted: a layer whose
// dataset did not arrive yet has no metadata document to read, so the
// lookup is skipped until the next save fires the hook again.
func (ctrl *Controller) CreateMetadataObject(ctx context.Context, layerID int64) (bool, error) {
	ctx = beltctx.WithField(ctx, "layerID", layerID)
	log := logger.FromCtx(ctx)

	layer, err := ctrl.Catalog.Layer(ctx, layerID)
	if err != nil {
		var notFound catalog.ErrNotFound
		if errors.As(err, &notFound) {
			return false, taskqueue.ErrRetry{After: layerNotFoundRetryDelay, Err: err}
		}
		return false, err
	}
	if !layer.FullyInitialized() {
		log.Debugf("the dataset of layer %d did not arrive yet, skipping the keyword lookup", layerID)
		return true, nil
	}

	metadataAddress, err := ctrl.metadataAddress(layer)
	if err != nil {
		return false, ErrResolveLayer{LayerID: layerID, Err: err}
	}

	readSig, err := headless.ReadKeywordsSignature(metadataAddress, keywordNames)
	if err != nil {
		return false, ErrSubmitChain{Err: err}
	}
	applySig, err := taskqueue.NewSignature(TaskSetLayerPurpose, QueueGeoSAFE, []any{layerID})
	if err != nil {
		return false, ErrSubmitChain{Err: err}
	}
	if _, err := ctrl.Queue.EnqueueChain(ctx, readSig, applySig); err != nil {
		return false, ErrSubmitChain{Err: err}
	}
	log.Debugf("submitted the keyword lookup of layer %d (%s)", layerID, metadataAddress)
	return true, nil
}

// metadataAddress returns the address the headless worker should read the
// layer's metadata document from. A layer proxied from a remote service
// has no sidecar on the shared volume, so it is always served through the
// public endpoint.
func (ctrl *Controller) metadataAddress(layer *catalog.Layer) (string, error) {
	if ctrl.Resolver.DirectLayerAccess() && !layer.RemoteService.Valid {
		return ctrl.Resolver.MetadataAddress(layer)
	}
	return ctrl.Resolver.LayerMetadataURL(layer.ID), nil
}

// SetLayerPurpose stores the keywords reported by the headless worker into
// the layer's metadata record: the purpose of the layer, and the category
// the document keys by that purpose ("hazard": "flood", ...).
func (ctrl *Controller) SetLayerPurpose(ctx context.Context, keywordsJSON json.RawMessage, layerID int64) error {
	ctx = beltctx.WithField(ctx, "layerID", layerID)
	log := logger.FromCtx(ctx)

	metadata, err := ctrl.Catalog.GetOrCreateMetadata(ctx, layerID)
	if err != nil {
		return err
	}

	metadata.LayerPurpose = gjson.GetBytes(keywordsJSON, "layer_purpose").String()
	metadata.Category = ""
	if metadata.LayerPurpose != "" {
		metadata.Category = gjson.GetBytes(keywordsJSON, metadata.LayerPurpose).String()
	}
	if err := ctrl.Catalog.UpdateMetadata(ctx, metadata); err != nil {
		return err
	}
	log.Infof("layer %d is a '%s' layer (category '%s')", layerID, metadata.LayerPurpose, metadata.Category)
	return nil
}
