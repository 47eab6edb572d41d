package aggregate

import (
	"strconv"

	"hoardermap/internal/geo"
	"hoardermap/internal/track"
)

// TrackPoint is one reconstructed history point: position, canonical
// instant, and the full merged state observed at that moment.
type TrackPoint struct {
	Pos   geo.Point
	At    track.Instant
	State track.AuxState
}

// ExtractPoint pulls a TrackPoint out of a merged full state. Returns
// ok=false when the location block, either coordinate, or the device
// event timestamp is missing or unparseable; such states contribute no
// point.
func ExtractPoint(state map[string]any) (TrackPoint, bool) {
	loc, ok := state["location"].(map[string]any)
	if !ok {
		return TrackPoint{}, false
	}
	lat, ok := coordinate(loc["latitude"])
	if !ok {
		return TrackPoint{}, false
	}
	lon, ok := coordinate(loc["longitude"])
	if !ok {
		return TrackPoint{}, false
	}

	diagnostics, ok := state["diagnostics"].(map[string]any)
	if !ok {
		return TrackPoint{}, false
	}
	timestamps, ok := diagnostics["timestamps"].(map[string]any)
	if !ok {
		return TrackPoint{}, false
	}
	raw, ok := timestamps["device_event_timestamp_utc"].(string)
	if !ok {
		return TrackPoint{}, false
	}
	at, ok := track.ParseInstant(raw)
	if !ok {
		return TrackPoint{}, false
	}

	return TrackPoint{
		Pos:   geo.Point{Lat: lat, Lon: lon},
		At:    at,
		State: track.AuxState(state),
	}, true
}

// coordinate accepts the processor's numeric-string coordinates as well
// as plain JSON numbers.
func coordinate(v any) (float64, bool) {
	switch val := v.(type) {
	case string:
		f, err := strconv.ParseFloat(val, 64)
		return f, err == nil
	case float64:
		return val, true
	}
	return 0, false
}
