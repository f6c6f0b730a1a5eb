package feed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/civicpie/wardsync/internal/civic"
)

// LoadNeighborhoods reads the curated ward-to-neighborhoods map. The feed
// does not publish neighborhoods, so this file is maintained by hand and
// revised when ward boundaries change. Wards absent from the file simply
// get no neighborhoods; out-of-range keys are rejected because they
// indicate a stale or mistyped edit.
func LoadNeighborhoods(path string) (map[int][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read neighborhoods file: %w", err)
	}
	return ParseNeighborhoods(data)
}

// ParseNeighborhoods decodes the YAML ward map.
func ParseNeighborhoods(data []byte) (map[int][]string, error) {
	var raw map[int][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse neighborhoods: %w", err)
	}
	for ward := range raw {
		if !civic.ValidWard(ward) {
			return nil, fmt.Errorf("parse neighborhoods: ward %d out of range", ward)
		}
	}
	return raw, nil
}
