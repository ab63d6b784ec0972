package types

// Values of the "layer_purpose" keyword assigned by the analysis worker
// and cached on Metadata records.
const (
	LayerPurposeHazard   = "hazard"
	LayerPurposeExposure = "exposure"
	LayerPurposeImpact   = "impact"
)
