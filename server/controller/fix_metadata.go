package controller

import (
	"context"
	"os"
	"path/filepath"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/experimental/errmon"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/vasuse7en/geosafe/pkg/besteffort"
	"github.com/vasuse7en/geosafe/pkg/metadataxml"
)

// FixMetadata reconciles the metadata copies of one layer: the keyword
// blocks authored by the analysis tooling live in the sidecar document,
// the catalog generates its own document without them, and this operation
// grafts the blocks into the catalog document and pushes the merged result
// back into every copy.
//
// The catalog column is the primary sink. The sidecar, the worker-side
// mirror and the keyword cache only have to converge eventually, so their
// failures are reported through the side channel of the result and never
// fail the reconciliation.
func (ctrl *Controller) FixMetadata(ctx context.Context, layerID int64) *besteffort.Result {
	result := &besteffort.Result{}
	ctx = beltctx.WithField(ctx, "layerID", layerID)
	log := logger.FromCtx(ctx)

	// Saves and reconciliations of the same layer may race, writes of
	// different copies must not interleave.
	unlocker := ctrl.MetadataFixLock.Lock(layerID)
	defer unlocker.Unlock()

	layer, err := ctrl.Catalog.Layer(ctx, layerID)
	if err != nil {
		log.Debugf("unable to load layer %d: %v", layerID, err)
		result.FailWith(err)
		return result
	}
	if !layer.FullyInitialized() {
		log.Debugf("the dataset of layer %d did not arrive yet, nothing to reconcile", layerID)
		return result
	}

	sidecarPath := ctrl.Resolver.MetadataPath(layer)
	sidecarBlob, err := ctrl.Catalog.LayerFileBytes(ctx, sidecarPath)
	if err != nil {
		log.Debugf("unable to read the metadata sidecar of layer %d: %v", layerID, err)
		result.FailWith(err)
		return result
	}
	sidecarDoc, err := metadataxml.Parse(sidecarBlob)
	if err != nil {
		log.Debugf("unable to parse the metadata sidecar of layer %d: %v", layerID, err)
		result.FailWith(err)
		return result
	}
	blocks := metadataxml.ExtractKeywordBlocks(sidecarDoc)
	if blocks.Empty() {
		log.Debugf("the metadata sidecar of layer %d carries no keyword blocks, nothing to reconcile", layerID)
		return result
	}

	catalogDoc, err := metadataxml.Parse([]byte(layer.MetadataXML))
	if err != nil {
		log.Debugf("unable to parse the catalog metadata of layer %d: %v", layerID, err)
		result.FailWith(err)
		return result
	}
	if err := metadataxml.Reconcile(catalogDoc, blocks); err != nil {
		log.Debugf("unable to reconcile the metadata of layer %d: %v", layerID, err)
		result.FailWith(err)
		return result
	}
	reconciled, err := metadataxml.Serialize(catalogDoc)
	if err != nil {
		result.FailWith(err)
		return result
	}

	layer.MetadataXML = string(reconciled)
	if err := ctrl.Catalog.UpdateLayer(ctx, layer); err != nil {
		result.FailWith(ErrWriteSink{Sink: "catalog", Err: err})
	}
	if err := ctrl.Catalog.PutLayerFileBytes(ctx, sidecarPath, reconciled); err != nil {
		result.Observe(ErrWriteSink{Sink: "sidecar", Err: err})
	}
	if mirrorPath := ctrl.Resolver.MirrorPath(layer); mirrorPath != "" {
		if err := writeMirror(mirrorPath, reconciled); err != nil {
			result.Observe(ErrWriteSink{Sink: "mirror", Err: err})
		}
	}
	result.Observe(ctrl.cacheKeywords(ctx, layerID, blocks))

	if err := result.Side(); err != nil {
		log.Warnf("the metadata reconciliation of layer %d left copies behind: %v", layerID, err)
		errmon.ObserveErrorCtx(ctx, err)
	}
	return result
}

// cacheKeywords stores the extracted keyword blocks into the metadata
// record, where operators can search them without parsing full documents.
func (ctrl *Controller) cacheKeywords(ctx context.Context, layerID int64, blocks metadataxml.KeywordBlocks) error {
	keywordsXML, err := blocks.KeywordsXML()
	if err != nil {
		return err
	}
	metadata, err := ctrl.Catalog.GetOrCreateMetadata(ctx, layerID)
	if err != nil {
		return err
	}
	metadata.KeywordsXML = keywordsXML
	return ctrl.Catalog.UpdateMetadata(ctx, metadata)
}

func writeMirror(mirrorPath string, blob []byte) error {
	if err := os.MkdirAll(filepath.Dir(mirrorPath), 0750); err != nil {
		return err
	}
	return os.WriteFile(mirrorPath, blob, 0640)
}
