package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vasuse7en/geosafe/pkg/catalog"
)

// a sidecar document as the analysis tooling writes it, keyword blocks
// included
const testSidecarXML = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd" xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:supplementalInformation>
    <gco:CharacterString>impact summary</gco:CharacterString>
    <inasafe>
      <layer_purpose>impact</layer_purpose>
    </inasafe>
    <inasafe_provenance>
      <hazard_layer>flood_20230501</hazard_layer>
    </inasafe_provenance>
  </gmd:supplementalInformation>
</gmd:MD_Metadata>`

// the catalog generates its documents without the keyword blocks
const testCatalogXML = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd" xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:supplementalInformation>
    <gco:CharacterString>catalog summary</gco:CharacterString>
  </gmd:supplementalInformation>
</gmd:MD_Metadata>`

const testPlainSidecarXML = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd" xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:supplementalInformation>
    <gco:CharacterString>nothing authored here</gco:CharacterString>
  </gmd:supplementalInformation>
</gmd:MD_Metadata>`

func TestFixMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.Resolver.MirrorStoreDir = t.TempDir()

	layer := env.saveTestLayer(t, "flood.shp", map[string]string{"flood.xml": testSidecarXML})
	layer.MetadataXML = testCatalogXML
	require.NoError(t, env.Catalog.UpdateLayer(env.Ctx, layer))

	result := env.Controller.FixMetadata(env.Ctx, layer.ID)
	require.NoError(t, result.Primary())
	require.NoError(t, result.Side())
	require.True(t, result.Succeeded())

	updated, err := env.Catalog.Layer(env.Ctx, layer.ID)
	require.NoError(t, err)
	require.Contains(t, updated.MetadataXML, "<inasafe>")
	require.Contains(t, updated.MetadataXML, "<inasafe_provenance>")
	require.Contains(t, updated.MetadataXML, "catalog summary")

	// every copy holds the identical bytes
	sidecar, err := env.Catalog.LayerFileBytes(env.Ctx, "layers/flood.xml")
	require.NoError(t, err)
	require.Equal(t, updated.MetadataXML, string(sidecar))

	mirror, err := os.ReadFile(filepath.Join(env.Resolver.MirrorStoreDir, "layers", "flood.xml"))
	require.NoError(t, err)
	require.Equal(t, updated.MetadataXML, string(mirror))

	// the keyword blocks are cached into the searchable record
	meta, err := env.Catalog.MetadataByLayer(env.Ctx, layer.ID)
	require.NoError(t, err)
	require.Contains(t, meta.KeywordsXML, "<inasafe>")
	require.Contains(t, meta.KeywordsXML, "<inasafe_provenance>")

	// a second run reproduces the bytes instead of growing the document
	require.True(t, env.Controller.FixMetadata(env.Ctx, layer.ID).Succeeded())
	again, err := env.Catalog.Layer(env.Ctx, layer.ID)
	require.NoError(t, err)
	require.Equal(t, updated.MetadataXML, again.MetadataXML)
	sidecarAgain, err := env.Catalog.LayerFileBytes(env.Ctx, "layers/flood.xml")
	require.NoError(t, err)
	require.Equal(t, string(sidecar), string(sidecarAgain))
}

func TestFixMetadataWithoutKeywordBlocks(t *testing.T) {
	env := newTestEnv(t)

	layer := env.saveTestLayer(t, "flood.shp", map[string]string{"flood.xml": testPlainSidecarXML})

	// no keyword blocks to graft: a successful no-op
	result := env.Controller.FixMetadata(env.Ctx, layer.ID)
	require.True(t, result.Succeeded())

	updated, err := env.Catalog.Layer(env.Ctx, layer.ID)
	require.NoError(t, err)
	require.Empty(t, updated.MetadataXML)
}

func TestFixMetadataWithoutSidecar(t *testing.T) {
	env := newTestEnv(t)

	layer := env.saveTestLayer(t, "flood.shp", nil)

	result := env.Controller.FixMetadata(env.Ctx, layer.ID)
	require.Error(t, result.Primary())
}

func TestFixMetadataPrematureLayer(t *testing.T) {
	env := newTestEnv(t)

	layer := &catalog.Layer{Name: "pending", Title: "pending"}
	require.NoError(t, env.Catalog.CreateLayer(env.Ctx, layer))

	// no dataset, nothing to reconcile
	require.True(t, env.Controller.FixMetadata(env.Ctx, layer.ID).Succeeded())
}
