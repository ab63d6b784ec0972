package artifact

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type zipMember struct {
	name    string
	content string
}

func writeZip(t *testing.T, zipPath string, members []zipMember) {
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	zipWriter := zip.NewWriter(f)
	for _, member := range members {
		w, err := zipWriter.Create(member.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(member.content))
		require.NoError(t, err)
	}
	require.NoError(t, zipWriter.Close())
	require.NoError(t, f.Close())
}

func TestOpenBundleArchive(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "impact.Zip") // the extension check is case-insensitive
	writeZip(t, zipPath, []zipMember{
		{"impact.qml", "<style/>"},
		{"impact.tif", "raster"},
		{"impact.shp", "vector"},
		{"impact.xml", "<qgis/>"},
	})

	bundle, err := OpenBundle(zipPath)
	require.NoError(t, err)
	require.True(t, bundle.IsArchive)
	require.Equal(t, []string{"impact.qml", "impact.tif", "impact.shp", "impact.xml"}, bundle.Members)

	for _, member := range bundle.Members {
		_, err := os.Stat(filepath.Join(dir, member))
		require.NoError(t, err, member)
	}

	// the first spatial member in stored order wins, .shp never gets a look
	candidate, ok := bundle.Candidate()
	require.True(t, ok)
	require.Equal(t, "impact.tif", candidate)

	bundle.Cleanup(context.Background())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestOpenBundleArchiveNoCandidate(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "impact.zip")
	writeZip(t, zipPath, []zipMember{
		{"impact.qml", "<style/>"},
		{"impact.json", "{}"},
	})

	bundle, err := OpenBundle(zipPath)
	require.NoError(t, err)

	_, ok := bundle.Candidate()
	require.False(t, ok)
}

func TestOpenBundleArchiveRefusesEscapingMembers(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "impact.zip")
	writeZip(t, zipPath, []zipMember{
		{"../escaped.tif", "raster"},
	})

	_, err := OpenBundle(zipPath)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(filepath.Dir(dir), "escaped.tif"))
	require.True(t, os.IsNotExist(statErr))
}

func TestBareBundle(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"impact_summary.tif":     "raster",
		"impact_summary.xml":     "<qgis/>",
		"impact_summary.tif.aux": "aux",
		"unrelated.txt":          "left behind",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0640))
	}

	bundle, err := OpenBundle(filepath.Join(dir, "impact_summary.tif"))
	require.NoError(t, err)
	require.False(t, bundle.IsArchive)

	candidate, ok := bundle.Candidate()
	require.True(t, ok)
	require.Equal(t, "impact_summary.tif", candidate)

	// cleanup removes the candidate's companion group, nothing else
	bundle.Cleanup(context.Background())
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "unrelated.txt", entries[0].Name())
}
