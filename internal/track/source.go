package track

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirSource loads persisted device tracks from a directory of per-device
// GeoJSON files, as written by the aggregator.
type DirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// LoadTrack reads and decodes the device's track file. A missing file is
// an error; the caller treats it as the recoverable "no data" state.
func (s *DirSource) LoadTrack(deviceID string) (*FeatureCollection, error) {
	// Device IDs come from external input; never let them escape the dir.
	name := filepath.Base(strings.TrimSpace(deviceID))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, fmt.Errorf("invalid device id %q", deviceID)
	}
	path := filepath.Join(s.dir, name+".json")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track for %s: %w", name, err)
	}
	var fc FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to decode track for %s: %w", name, err)
	}
	return &fc, nil
}
