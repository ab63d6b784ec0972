package controller

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/catalog"
	"github.com/vasuse7en/geosafe/pkg/headless"
	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/pkg/types"
)

func newTestAnalysis(t *testing.T, env *testEnv, hazard, exposure *catalog.Layer) *catalog.Analysis {
	analysis := &catalog.Analysis{
		HazardLayerID:    hazard.ID,
		ExposureLayerID:  exposure.ID,
		ImpactFunctionID: "FloodRasterBuildingFunction",
		Extent:           sql.NullString{String: "106.7,-6.4,107.0,-6.1", Valid: true},
	}
	require.NoError(t, env.Catalog.CreateAnalysis(env.Ctx, analysis))
	return analysis
}

func TestPrepareAnalysis(t *testing.T) {
	env := newTestEnv(t)

	hazard := env.saveTestLayer(t, "flood.shp", nil)
	exposure := env.saveTestLayer(t, "buildings.shp", nil)
	analysis := newTestAnalysis(t, env, hazard, exposure)

	result, err := env.Controller.PrepareAnalysis(env.Ctx, analysis.ID)
	require.NoError(t, err)
	require.NotNil(t, result)

	inv := env.popInvocation(t, headless.QueueAnalysis)
	require.Equal(t, headless.TaskRunAnalysis, inv.Task)
	require.Equal(t, headless.QueueAnalysis, inv.Queue)
	require.Equal(t, env.Controller.AnalysisTimeLimit, inv.TimeLimit)

	var (
		hazardAddress    string
		exposureAddress  string
		impactFunctionID string
		extent           *types.Extent
		generateReport   bool
		archiveImpact    bool
	)
	require.NoError(t, inv.DecodeArgs(
		&hazardAddress, &exposureAddress, &impactFunctionID,
		&extent, &generateReport, &archiveImpact,
	))
	require.Equal(t, fmt.Sprintf("https://geosafe.test/layers/%d/download", hazard.ID), hazardAddress)
	require.Equal(t, fmt.Sprintf("https://geosafe.test/layers/%d/download", exposure.ID), exposureAddress)
	require.Equal(t, "FloodRasterBuildingFunction", impactFunctionID)
	require.NotNil(t, extent)
	require.Equal(t, types.Extent{106.7, -6.4, 107.0, -6.1}, *extent)
	require.True(t, generateReport)
	require.False(t, archiveImpact)

	// the ingestion stage rides along as the chain callback
	require.Len(t, inv.Callbacks, 1)
	ingest := inv.Callbacks[0]
	require.Equal(t, TaskProcessImpactResult, ingest.Task)
	require.Equal(t, QueueGeoSAFE, ingest.Queue)
	var callbackAnalysisID int64
	require.NoError(t, taskqueue.DecodeArgs(ingest.Args, &callbackAnalysisID))
	require.Equal(t, analysis.ID, callbackAnalysisID)

	// the row is stamped with the compute stage before anything runs
	stamped, err := env.Catalog.Analysis(env.Ctx, analysis.ID)
	require.NoError(t, err)
	require.Equal(t, inv.TaskID, stamped.TaskID)
	require.Equal(t, types.TaskStatePending, stamped.TaskState)
	require.False(t, stamped.StartTime.IsZero())

	// the returned handle tracks the compute stage, not the chain tail
	require.Equal(t, inv.TaskID, result.TaskID)
}

func TestPrepareAnalysisDirectAccess(t *testing.T) {
	env := newTestEnv(t)
	env.Resolver.WorkerStoreDir = "/mnt/geosafe-store"

	hazard := env.saveTestLayer(t, "flood.shp", nil)
	exposure := env.saveTestLayer(t, "buildings.shp", nil)
	analysis := newTestAnalysis(t, env, hazard, exposure)

	_, err := env.Controller.PrepareAnalysis(env.Ctx, analysis.ID)
	require.NoError(t, err)

	inv := env.popInvocation(t, headless.QueueAnalysis)
	var hazardAddress, exposureAddress string
	require.NoError(t, inv.DecodeArgs(&hazardAddress, &exposureAddress))
	require.Equal(t, "file:///mnt/geosafe-store/layers/flood.shp", hazardAddress)
	require.Equal(t, "file:///mnt/geosafe-store/layers/buildings.shp", exposureAddress)
}

func TestPrepareAnalysisWithoutExtent(t *testing.T) {
	env := newTestEnv(t)

	hazard := env.saveTestLayer(t, "flood.shp", nil)
	exposure := env.saveTestLayer(t, "buildings.shp", nil)
	analysis := newTestAnalysis(t, env, hazard, exposure)
	analysis.Extent = sql.NullString{}
	require.NoError(t, env.Catalog.UpdateAnalysis(env.Ctx, analysis))

	_, err := env.Controller.PrepareAnalysis(env.Ctx, analysis.ID)
	require.NoError(t, err)

	inv := env.popInvocation(t, headless.QueueAnalysis)
	var hazardAddress, exposureAddress, impactFunctionID string
	var extent *types.Extent
	require.NoError(t, inv.DecodeArgs(&hazardAddress, &exposureAddress, &impactFunctionID, &extent))
	require.Nil(t, extent, "the worker derives the extent when none was requested")
}

func TestPrepareAnalysisMalformedExtent(t *testing.T) {
	env := newTestEnv(t)

	hazard := env.saveTestLayer(t, "flood.shp", nil)
	exposure := env.saveTestLayer(t, "buildings.shp", nil)
	analysis := newTestAnalysis(t, env, hazard, exposure)
	analysis.Extent = sql.NullString{String: "not-an-extent", Valid: true}
	require.NoError(t, env.Catalog.UpdateAnalysis(env.Ctx, analysis))

	_, err := env.Controller.PrepareAnalysis(env.Ctx, analysis.ID)
	require.Error(t, err)
	require.True(t, errors.As(err, &types.ErrMalformedExtent{}))

	// nothing was submitted and the row was not stamped
	env.requireQueueEmpty(t, headless.QueueAnalysis)
	unchanged, err := env.Catalog.Analysis(env.Ctx, analysis.ID)
	require.NoError(t, err)
	require.True(t, unchanged.TaskID.IsZero())
	require.Equal(t, types.TaskStateUndefined, unchanged.TaskState)
}

func TestPrepareAnalysisUnknownAnalysis(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.Controller.PrepareAnalysis(env.Ctx, 12345)
	require.Error(t, err)
	require.True(t, errors.As(err, &catalog.ErrNotFound{}))
}

func TestPrepareAnalysisPrematureLayer(t *testing.T) {
	env := newTestEnv(t)

	hazard := &catalog.Layer{Name: "flood", Title: "flood"}
	require.NoError(t, env.Catalog.CreateLayer(env.Ctx, hazard))
	exposure := env.saveTestLayer(t, "buildings.shp", nil)
	analysis := newTestAnalysis(t, env, hazard, exposure)

	_, err := env.Controller.PrepareAnalysis(env.Ctx, analysis.ID)
	require.Error(t, err)

	var resolveErr ErrResolveLayer
	require.True(t, errors.As(err, &resolveErr))
	require.Equal(t, hazard.ID, resolveErr.LayerID)
	env.requireQueueEmpty(t, headless.QueueAnalysis)
}

func TestPrepareAnalysisStampSurvivesSlowWorker(t *testing.T) {
	env := newTestEnv(t)

	hazard := env.saveTestLayer(t, "flood.shp", nil)
	exposure := env.saveTestLayer(t, "buildings.shp", nil)
	analysis := newTestAnalysis(t, env, hazard, exposure)

	result, err := env.Controller.PrepareAnalysis(env.Ctx, analysis.ID)
	require.NoError(t, err)

	// even before any worker picks the message up, the handle already
	// resolves to a pending record
	record, err := result.Record(env.Ctx)
	require.NoError(t, err)
	require.Equal(t, types.TaskStatePending, record.State)
	require.False(t, record.UpdatedAt.IsZero())
}
