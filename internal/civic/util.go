package civic

import "strconv"

// trimFloat renders a coordinate without trailing zeros so the value
// compares identically regardless of which backend round-tripped it.
func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
