package metadataxml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sidecarXML = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd" xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:fileIdentifier>
    <gco:CharacterString>8c7e2f5c-3b7e-4a2e-9f5d-2b1a6c0d4e8f</gco:CharacterString>
  </gmd:fileIdentifier>
  <gmd:supplementalInformation>
    <gco:CharacterString>impact summary</gco:CharacterString>
    <inasafe>
      <layer_purpose>impact</layer_purpose>
      <provenance>flood on buildings</provenance>
    </inasafe>
    <inasafe_provenance>
      <hazard_layer>flood_20230501</hazard_layer>
      <exposure_layer>buildings</exposure_layer>
    </inasafe_provenance>
  </gmd:supplementalInformation>
</gmd:MD_Metadata>`

const catalogXML = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd" xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:supplementalInformation>
    <inasafe>
      <layer_purpose>stale</layer_purpose>
    </inasafe>
  </gmd:supplementalInformation>
</gmd:MD_Metadata>`

const hazardSidecarXML = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd" xmlns:gco="http://www.isotc211.org/2005/gco">
  <gmd:supplementalInformation>
    <gco:CharacterString/>
    <inasafe>
      <layer_purpose>hazard</layer_purpose>
      <hazard>flood</hazard>
    </inasafe>
  </gmd:supplementalInformation>
</gmd:MD_Metadata>`

func elementNames(t *testing.T, raw []byte) []string {
	t.Helper()
	doc, err := Parse(raw)
	require.NoError(t, err)
	supInfo := doc.FindElement("//gmd:supplementalInformation")
	require.NotNil(t, supInfo)
	names := []string{}
	for _, el := range supInfo.ChildElements() {
		names = append(names, el.FullTag())
	}
	return names
}

func TestExtractKeywordBlocks(t *testing.T) {
	doc, err := Parse([]byte(sidecarXML))
	require.NoError(t, err)

	blocks := ExtractKeywordBlocks(doc)
	require.False(t, blocks.Empty())
	require.NotNil(t, blocks.Keywords)
	require.NotNil(t, blocks.Provenance)
	require.Equal(t, "impact", blocks.Keywords.SelectElement("layer_purpose").Text())
	require.Equal(t, "flood_20230501", blocks.Provenance.SelectElement("hazard_layer").Text())
}

func TestExtractKeywordBlocksAbsent(t *testing.T) {
	t.Run("no_keywords", func(t *testing.T) {
		doc, err := Parse([]byte(`<gmd:MD_Metadata xmlns:gmd="x"><gmd:supplementalInformation/></gmd:MD_Metadata>`))
		require.NoError(t, err)
		blocks := ExtractKeywordBlocks(doc)
		require.True(t, blocks.Empty())

		keywordsXML, err := blocks.KeywordsXML()
		require.NoError(t, err)
		require.Empty(t, keywordsXML)
	})

	t.Run("no_section", func(t *testing.T) {
		doc, err := Parse([]byte(`<gmd:MD_Metadata xmlns:gmd="x"/>`))
		require.NoError(t, err)
		require.True(t, ExtractKeywordBlocks(doc).Empty())
	})
}

func TestReconcile(t *testing.T) {
	sidecarDoc, err := Parse([]byte(sidecarXML))
	require.NoError(t, err)
	blocks := ExtractKeywordBlocks(sidecarDoc)

	catalogDoc, err := Parse([]byte(catalogXML))
	require.NoError(t, err)
	require.NoError(t, Reconcile(catalogDoc, blocks))

	serialized, err := Serialize(catalogDoc)
	require.NoError(t, err)

	// The character string is prepended, the provenance lands before the
	// keywords, the stale keywords copy is gone.
	require.Equal(t,
		[]string{"gco:CharacterString", "inasafe_provenance", "inasafe"},
		elementNames(t, serialized))

	reparsed, err := Parse(serialized)
	require.NoError(t, err)
	grafted := ExtractKeywordBlocks(reparsed)
	require.Equal(t, "impact", grafted.Keywords.SelectElement("layer_purpose").Text())
	require.Equal(t, "buildings", grafted.Provenance.SelectElement("exposure_layer").Text())

	// The source document stays intact.
	require.False(t, ExtractKeywordBlocks(sidecarDoc).Empty())
}

func TestReconcileWithoutProvenance(t *testing.T) {
	sidecarDoc, err := Parse([]byte(hazardSidecarXML))
	require.NoError(t, err)
	blocks := ExtractKeywordBlocks(sidecarDoc)
	require.Nil(t, blocks.Provenance)

	catalogDoc, err := Parse([]byte(catalogXML))
	require.NoError(t, err)
	require.NoError(t, Reconcile(catalogDoc, blocks))

	serialized, err := Serialize(catalogDoc)
	require.NoError(t, err)
	require.Equal(t,
		[]string{"gco:CharacterString", "inasafe"},
		elementNames(t, serialized))
}

func TestReconcileKeepsExistingCharacterString(t *testing.T) {
	sidecarDoc, err := Parse([]byte(sidecarXML))
	require.NoError(t, err)
	blocks := ExtractKeywordBlocks(sidecarDoc)

	// The sidecar itself already has a filled character string.
	targetDoc, err := Parse([]byte(sidecarXML))
	require.NoError(t, err)
	require.NoError(t, Reconcile(targetDoc, blocks))

	serialized, err := Serialize(targetDoc)
	require.NoError(t, err)
	require.Equal(t,
		[]string{"gco:CharacterString", "inasafe_provenance", "inasafe"},
		elementNames(t, serialized))

	reparsed, err := Parse(serialized)
	require.NoError(t, err)
	supInfo := reparsed.FindElement("//gmd:supplementalInformation")
	require.Equal(t, "impact summary", supInfo.SelectElement("gco:CharacterString").Text())
}

func TestReconcileIdempotent(t *testing.T) {
	sidecarDoc, err := Parse([]byte(sidecarXML))
	require.NoError(t, err)
	blocks := ExtractKeywordBlocks(sidecarDoc)

	catalogDoc, err := Parse([]byte(catalogXML))
	require.NoError(t, err)
	require.NoError(t, Reconcile(catalogDoc, blocks))
	first, err := Serialize(catalogDoc)
	require.NoError(t, err)

	secondDoc, err := Parse(first)
	require.NoError(t, err)
	require.NoError(t, Reconcile(secondDoc, blocks))
	second, err := Serialize(secondDoc)
	require.NoError(t, err)

	require.Equal(t, string(first), string(second))
}

func TestReconcileNoSupplementalInfo(t *testing.T) {
	sidecarDoc, err := Parse([]byte(sidecarXML))
	require.NoError(t, err)
	blocks := ExtractKeywordBlocks(sidecarDoc)

	catalogDoc, err := Parse([]byte(`<gmd:MD_Metadata xmlns:gmd="x"><gmd:identificationInfo/></gmd:MD_Metadata>`))
	require.NoError(t, err)
	err = Reconcile(catalogDoc, blocks)
	require.ErrorAs(t, err, &ErrNoSupplementalInfo{})
}

func TestReconcileEmptyBlocksIsNoOp(t *testing.T) {
	catalogDoc, err := Parse([]byte(catalogXML))
	require.NoError(t, err)
	before, err := Serialize(catalogDoc)
	require.NoError(t, err)

	require.NoError(t, Reconcile(catalogDoc, KeywordBlocks{}))
	after, err := Serialize(catalogDoc)
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))
}

func TestKeywordsXML(t *testing.T) {
	sidecarDoc, err := Parse([]byte(sidecarXML))
	require.NoError(t, err)
	blocks := ExtractKeywordBlocks(sidecarDoc)

	keywordsXML, err := blocks.KeywordsXML()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(keywordsXML, "<inasafe>"))
	require.True(t, strings.HasSuffix(keywordsXML, "</inasafe_provenance>"))
	require.Contains(t, keywordsXML, "</inasafe>\n<inasafe_provenance>")
	require.Contains(t, keywordsXML, "<layer_purpose>impact</layer_purpose>")
}

func TestKeywordsXMLWithoutProvenance(t *testing.T) {
	sidecarDoc, err := Parse([]byte(hazardSidecarXML))
	require.NoError(t, err)
	blocks := ExtractKeywordBlocks(sidecarDoc)

	keywordsXML, err := blocks.KeywordsXML()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(keywordsXML, "<inasafe>"))
	require.True(t, strings.HasSuffix(keywordsXML, "</inasafe>"))
	require.NotContains(t, keywordsXML, "<inasafe_provenance")
	require.Contains(t, keywordsXML, "<hazard>flood</hazard>")
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "<unclosed", "plain text"} {
		_, err := Parse([]byte(raw))
		require.ErrorAs(t, err, &ErrParseDocument{}, "input: %q", raw)
	}
}
