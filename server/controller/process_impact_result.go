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
	"database/sql"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/beltctx"
	"github.com/facebookincubator/go-belt/tool/logger"

	"github.com/vasuse7en/geosafe/pkg/artifact"
	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/types"
)

// ProcessImpactResult ingests the artifact produced by a finished compute
// stage: it fetches the artifact, registers the spatial file found inside
// as the impact layer of the analysis, attaches the generated PDF reports
// and marks the analysis succeeded.
//
// The returned flag tells whether an impact layer was found. An artifact
// without any ingestible spatial file is not an error: the compute stage
// may legitimately produce nothing (for example when the hazard does not
// intersect the exposure), so the analysis is simply left in its current
// state for the operator to look at.
func (ctrl *Controller) ProcessImpactResult(ctx context.Context, trackingID types.TaskID, impactURL string, analysisID int64) (bool, error) {
	ctx = beltctx.WithField(ctx, "analysisID", analysisID)
	log := logger.FromCtx(ctx)

	analysis, err := ctrl.Catalog.Analysis(ctx, analysisID)
	if err != nil {
		return false, err
	}

	// Hand the tracking over from the compute stage to this one before
	// any I/O, so a crash mid-ingestion leaves the row pointing at the
	// task that actually failed.
	if err := ctrl.Catalog.SetAnalysisTask(ctx, analysisID, trackingID, types.TaskStateRunning); err != nil {
		return false, err
	}
	analysis.TaskID = trackingID
	analysis.TaskState = types.TaskStateRunning

	localURL, err := ctrl.Resolver.RewriteImpactURL(impactURL)
	if err != nil {
		return false, ErrFetchImpact{URL: impactURL, Err: err}
	}
	artifactPath, err := ctrl.Fetcher.Fetch(ctx, localURL, true)
	if err != nil {
		return false, ErrFetchImpact{URL: impactURL, Err: err}
	}

	bundle, err := artifact.OpenBundle(artifactPath)
	if err != nil {
		return false, ErrInspectImpact{Path: artifactPath, Err: err}
	}
	defer bundle.Cleanup(ctx)

	fileName, found := bundle.Candidate()
	if !found {
		log.Infof("no impact layer found in %s", impactURL)
		return false, nil
	}

	if err := ctrl.processImpactLayer(ctx, analysis, bundle.Dir, fileName); err != nil {
		return false, err
	}
	return true, nil
}

// processImpactLayer registers the impact dataset in the catalog, wires it
// to the analysis and retires the impact layer of a previous run.
func (ctrl *Controller) processImpactLayer(
	ctx context.Context,
	analysis *catalog.Analysis,
	dir string,
	fileName string,
) error {
	log := logger.FromCtx(ctx)

	layer, err := ctrl.Catalog.SaveLayerFile(ctx, dir, fileName, true)
	if err != nil {
		return err
	}

	title, err := ctrl.impactTitle(ctx, analysis)
	if err != nil {
		return err
	}
	layer.Title = title
	layer.AnonView = true
	layer.AnonDownload = true
	if err := ctrl.Catalog.UpdateLayer(ctx, layer); err != nil {
		return err
	}

	reportBase := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	if err := ctrl.attachReport(ctx, analysis, dir, reportBase+".pdf", reportMap); err != nil {
		return err
	}
	if err := ctrl.attachReport(ctx, analysis, dir, reportBase+"_table.pdf", reportTable); err != nil {
		return err
	}

	var priorImpactID int64
	if analysis.ImpactLayerID.Valid {
		priorImpactID = analysis.ImpactLayerID.Int64
	}

	analysis.ImpactLayerID = sql.NullInt64{Int64: layer.ID, Valid: true}
	analysis.TaskState = types.TaskStateSuccess
	analysis.EndTime = sql.NullTime{Time: time.Now(), Valid: true}
	if err := ctrl.Catalog.UpdateAnalysis(ctx, analysis); err != nil {
		return err
	}
	log.Infof("analysis succeeded, the impact is layer %d ('%s')", layer.ID, layer.Title)

	// An overwriting save may hand back the very row the previous run
	// produced (the layer name is derived from the file name), in which
	// case there is nothing to retire.
	if priorImpactID != 0 && priorImpactID != layer.ID {
		ctrl.retireLayer(ctx, priorImpactID)
	}
	return nil
}

// impactTitle returns the display title for the impact layer: the title
// requested by the user, or one generated from the input layer titles.
func (ctrl *Controller) impactTitle(ctx context.Context, analysis *catalog.Analysis) (string, error) {
	if analysis.UserTitle.Valid && analysis.UserTitle.String != "" {
		return analysis.UserTitle.String, nil
	}
	hazard, err := ctrl.Catalog.Layer(ctx, analysis.HazardLayerID)
	if err != nil {
		return "", ErrResolveLayer{LayerID: analysis.HazardLayerID, Err: err}
	}
	exposure, err := ctrl.Catalog.Layer(ctx, analysis.ExposureLayerID)
	if err != nil {
		return "", ErrResolveLayer{LayerID: analysis.ExposureLayerID, Err: err}
	}
	return fmt.Sprintf("Impact of %s on %s", hazard.Title, exposure.Title), nil
}

type reportKind int

const (
	reportMap = reportKind(iota)
	reportTable
)

// attachReport saves one generated PDF report into the file store and
// points the analysis at it. A report the compute stage did not produce is
// skipped silently; a report of a previous run is deleted once replaced.
func (ctrl *Controller) attachReport(
	ctx context.Context,
	analysis *catalog.Analysis,
	dir string,
	fileName string,
	kind reportKind,
) error {
	log := logger.FromCtx(ctx)

	blob, err := os.ReadFile(filepath.Join(dir, fileName))
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return ErrInspectImpact{Path: filepath.Join(dir, fileName), Err: err}
	}

	reportPath := path.Join("reports", strconv.FormatInt(analysis.ID, 10), path.Base(fileName))
	if err := ctrl.Catalog.PutLayerFileBytes(ctx, reportPath, blob); err != nil {
		return err
	}

	var priorPath string
	switch kind {
	case reportMap:
		if analysis.ReportMap.Valid {
			priorPath = analysis.ReportMap.String
		}
		if err := ctrl.Catalog.AttachReportMap(ctx, analysis.ID, reportPath); err != nil {
			return err
		}
		analysis.ReportMap = sql.NullString{String: reportPath, Valid: true}
	case reportTable:
		if analysis.ReportTable.Valid {
			priorPath = analysis.ReportTable.String
		}
		if err := ctrl.Catalog.AttachReportTable(ctx, analysis.ID, reportPath); err != nil {
			return err
		}
		analysis.ReportTable = sql.NullString{String: reportPath, Valid: true}
	}

	if priorPath != "" && priorPath != reportPath {
		if err := ctrl.Catalog.FileStore.Delete(ctx, priorPath); err != nil {
			log.Warnf("unable to delete the superseded report '%s': %v", priorPath, err)
		}
	}
	return nil
}

// retireLayer deletes the impact layer of a previous run of the analysis.
// The new impact is already wired in, so a failure here only leaks the old
// dataset and is not worth failing the ingestion for.
func (ctrl *Controller) retireLayer(ctx context.Context, layerID int64) {
	log := logger.FromCtx(ctx)

	layer, err := ctrl.Catalog.Layer(ctx, layerID)
	if err != nil {
		log.Warnf("unable to load the superseded impact layer %d: %v", layerID, err)
		return
	}
	if err := ctrl.Catalog.DeleteLayer(ctx, layer); err != nil {
		log.Warnf("unable to delete the superseded impact layer %d: %v", layerID, err)
	}
}
