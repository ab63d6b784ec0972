package types

import (
	"strconv"
	"strings"
)

// Extent is a rectangular geographic boundary, ordered
// min-X, min-Y, max-X, max-Y (in the CRS units of the analyzed layers).
type Extent [4]float64

// ParseExtent parses a user-supplied comma-separated list of exactly
// four numeric bounds. Any other input fails with ErrMalformedExtent.
func ParseExtent(raw string) (Extent, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return Extent{}, ErrMalformedExtent{Raw: raw, Description: "expected 4 comma-separated bounds"}
	}

	var extent Extent
	for idx, part := range parts {
		bound, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Extent{}, ErrMalformedExtent{Raw: raw, Err: err}
		}
		extent[idx] = bound
	}
	return extent, nil
}

// String implements fmt.Stringer. The output round-trips through
// ParseExtent.
func (e Extent) String() string {
	parts := make([]string, 0, len(e))
	for _, bound := range e {
		parts = append(parts, strconv.FormatFloat(bound, 'f', -1, 64))
	}
	return strings.Join(parts, ",")
}
