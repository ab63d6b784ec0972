// Package metadataxml reconciles the InaSAFE keyword blocks of a layer's
// ISO 19115 metadata documents. The compute worker writes the blocks into
// the sidecar XML file under a schema-violating location, and the catalog's
// cached document misses them entirely; this package grafts the blocks into
// the cached document at the positions the downstream consumers expect.
package metadataxml

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// supplementalInfoPath locates the section carrying the InaSAFE blocks.
// The prefix is matched literally; the catalog's document producers always
// bind the ISO 19115 namespace to "gmd".
const supplementalInfoPath = "//gmd:supplementalInformation"

const (
	charStringTag = "gco:CharacterString"

	// KeywordsTag is the tag of the InaSAFE keywords block.
	KeywordsTag = "inasafe"

	// ProvenanceTag is the tag of the analysis provenance block. It is
	// present on impact layers only.
	ProvenanceTag = "inasafe_provenance"
)

// Parse parses a complete metadata document.
func Parse(raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, ErrParseDocument{Err: err}
	}
	if doc.Root() == nil {
		return nil, ErrParseDocument{Err: errors.New("no root element")}
	}
	return doc, nil
}

// KeywordBlocks are the InaSAFE fragments of a metadata document.
type KeywordBlocks struct {
	// Keywords is the "inasafe" block.
	Keywords *etree.Element

	// Provenance is the "inasafe_provenance" block, nil for anything but
	// impact layers.
	Provenance *etree.Element
}

// Empty reports whether the document carried no InaSAFE keywords at all.
func (blocks KeywordBlocks) Empty() bool {
	return blocks.Keywords == nil
}

// KeywordsXML serializes the blocks into the form the catalog caches in
// the Metadata record: the keywords block, then the provenance block on
// the next line when present.
func (blocks KeywordBlocks) KeywordsXML() (string, error) {
	if blocks.Empty() {
		return "", nil
	}

	fragments := []string{}
	for _, el := range []*etree.Element{blocks.Keywords, blocks.Provenance} {
		if el == nil {
			continue
		}
		serialized, err := serializeFragment(el)
		if err != nil {
			return "", err
		}
		fragments = append(fragments, serialized)
	}
	return strings.Join(fragments, "\n"), nil
}

// ExtractKeywordBlocks locates the InaSAFE fragments of a parsed document.
// A document without a supplemental-information section or without the
// keywords block yields an Empty result, not an error.
func ExtractKeywordBlocks(doc *etree.Document) KeywordBlocks {
	supInfo := doc.FindElement(supplementalInfoPath)
	if supInfo == nil {
		return KeywordBlocks{}
	}
	return KeywordBlocks{
		Keywords:   supInfo.SelectElement(KeywordsTag),
		Provenance: supInfo.SelectElement(ProvenanceTag),
	}
}

// Reconcile grafts copies of the blocks into doc's supplemental-information
// section, replacing any stale copies:
//
//   - a gco:CharacterString first child is ensured (some producers omit it
//     and position-sensitive consumers then misread the section),
//   - the keywords block goes to element position 1, right after the
//     character string,
//   - the provenance block, when present, goes to element position 1 too,
//     landing before the keywords block.
//
// Running Reconcile again with the same blocks reproduces the same
// document.
func Reconcile(doc *etree.Document, blocks KeywordBlocks) error {
	if blocks.Empty() {
		return nil
	}

	supInfo := doc.FindElement(supplementalInfoPath)
	if supInfo == nil {
		return ErrNoSupplementalInfo{}
	}

	if supInfo.SelectElement(charStringTag) == nil {
		insertChildAt(supInfo, 0, etree.NewElement(charStringTag))
	}

	if stale := supInfo.SelectElement(KeywordsTag); stale != nil {
		supInfo.RemoveChild(stale)
	}
	insertChildAt(supInfo, 1, blocks.Keywords.Copy())

	if blocks.Provenance != nil {
		if stale := supInfo.SelectElement(ProvenanceTag); stale != nil {
			supInfo.RemoveChild(stale)
		}
		insertChildAt(supInfo, 1, blocks.Provenance.Copy())
	}
	return nil
}

// Serialize renders the document. The output parses back into the same
// document, so repeated reconcile-serialize cycles are byte-stable.
func Serialize(doc *etree.Document) ([]byte, error) {
	serialized, err := doc.WriteToBytes()
	if err != nil {
		return nil, ErrSerializeDocument{Err: err}
	}
	return serialized, nil
}

// insertChildAt inserts child at the given position among the parent's
// child *elements*. etree's own InsertChildAt counts every token including
// the whitespace between tags, which makes it unusable for
// position-sensitive schemas.
func insertChildAt(parent *etree.Element, elementIndex int, child *etree.Element) {
	seen := 0
	for tokenIndex, token := range parent.Child {
		if _, ok := token.(*etree.Element); !ok {
			continue
		}
		if seen == elementIndex {
			parent.InsertChildAt(tokenIndex, child)
			return
		}
		seen++
	}
	parent.AddChild(child)
}

func serializeFragment(el *etree.Element) (string, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	serialized, err := doc.WriteToString()
	if err != nil {
		return "", ErrSerializeDocument{Err: err}
	}
	return serialized, nil
}
