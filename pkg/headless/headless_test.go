package headless

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/taskqueue"
	"github.com/vasuse7en/geosafe/pkg/types"
)

func TestRunAnalysisSignature(t *testing.T) {
	extent := types.Extent{106.6, -6.5, 107.1, -6.0}
	sig, err := RunAnalysisSignature(
		"file:///mnt/layers/flood.shp",
		"file:///mnt/layers/buildings.shp",
		"FloodRasterBuildingFunction",
		&extent,
		true,
		false,
		taskqueue.WithTimeLimit(10*time.Minute),
	)
	require.NoError(t, err)
	require.Equal(t, TaskRunAnalysis, sig.Task)
	require.Equal(t, QueueAnalysis, sig.Queue)
	require.Equal(t, 10*time.Minute, sig.TimeLimit)
	require.False(t, sig.TaskID.IsZero())

	var hazard, exposure, function string
	var decodedExtent *types.Extent
	var generateReport, archiveImpact bool
	require.NoError(t, taskqueue.DecodeArgs(
		sig.Args, &hazard, &exposure, &function, &decodedExtent, &generateReport, &archiveImpact))
	require.Equal(t, "file:///mnt/layers/flood.shp", hazard)
	require.Equal(t, "file:///mnt/layers/buildings.shp", exposure)
	require.Equal(t, "FloodRasterBuildingFunction", function)
	require.Equal(t, &extent, decodedExtent)
	require.True(t, generateReport)
	require.False(t, archiveImpact)
}

func TestRunAnalysisSignatureWithoutExtent(t *testing.T) {
	sig, err := RunAnalysisSignature(
		"https://geosafe.example.com/layers/1/download",
		"https://geosafe.example.com/layers/2/download",
		"AshRasterPlacesFunction",
		nil,
		true,
		false,
	)
	require.NoError(t, err)

	var hazard, exposure, function string
	var decodedExtent *types.Extent
	require.NoError(t, taskqueue.DecodeArgs(sig.Args, &hazard, &exposure, &function, &decodedExtent))
	require.Nil(t, decodedExtent)
}

func TestReadKeywordsSignature(t *testing.T) {
	sig, err := ReadKeywordsSignature(
		"https://geosafe.example.com/layers/7/metadata.xml",
		[]string{"layer_purpose", "hazard", "exposure"},
	)
	require.NoError(t, err)
	require.Equal(t, TaskReadKeywords, sig.Task)
	require.Equal(t, QueueMetadata, sig.Queue)

	var address string
	var keywords []string
	require.NoError(t, taskqueue.DecodeArgs(sig.Args, &address, &keywords))
	require.Equal(t, "https://geosafe.example.com/layers/7/metadata.xml", address)
	require.Equal(t, []string{"layer_purpose", "hazard", "exposure"}, keywords)
}
