package aggregate

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge(t *testing.T) {
	t.Parallel()

	t.Run("nested maps merge key by key", func(t *testing.T) {
		dst := map[string]any{
			"power":   map[string]any{"battery_percent": 80.0, "charging": false},
			"network": map[string]any{"type": "lte"},
		}
		src := map[string]any{
			"power": map[string]any{"battery_percent": 75.0},
		}

		merged := DeepMerge(src, dst)

		want := map[string]any{
			"power":   map[string]any{"battery_percent": 75.0, "charging": false},
			"network": map[string]any{"type": "lte"},
		}
		if diff := cmp.Diff(want, merged); diff != "" {
			t.Errorf("merged state mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("scalar overrides map", func(t *testing.T) {
		dst := map[string]any{"power": map[string]any{"battery_percent": 80.0}}
		merged := DeepMerge(map[string]any{"power": "off"}, dst)
		assert.Equal(t, "off", merged["power"])
	})

	t.Run("nil destination", func(t *testing.T) {
		merged := DeepMerge(map[string]any{"a": 1.0}, nil)
		assert.Equal(t, 1.0, merged["a"])
	})
}

func TestMergeState(t *testing.T) {
	t.Parallel()

	last := map[string]any{
		"location":    map[string]any{"latitude": "52.1", "longitude": "4.3"},
		"diagnostics": map[string]any{"timestamps": map[string]any{"device_event_timestamp_utc": "2024-03-05T10:00:00Z"}},
	}

	merged := MergeState(last,
		map[string]any{"location": map[string]any{"latitude": "52.2"}},
		map[string]any{"timestamps": map[string]any{"device_event_timestamp_utc": "2024-03-05T10:01:00Z"}},
	)

	loc := merged["location"].(map[string]any)
	assert.Equal(t, "52.2", loc["latitude"])
	assert.Equal(t, "4.3", loc["longitude"])

	// Diagnostics replace wholesale rather than merging.
	diag := merged["diagnostics"].(map[string]any)
	ts := diag["timestamps"].(map[string]any)
	assert.Equal(t, "2024-03-05T10:01:00Z", ts["device_event_timestamp_utc"])

	// The previous state is left untouched.
	prevLoc := last["location"].(map[string]any)
	assert.Equal(t, "52.1", prevLoc["latitude"])
}

func TestExtractPoint(t *testing.T) {
	t.Parallel()

	fullState := func() map[string]any {
		return map[string]any{
			"location": map[string]any{"latitude": "52.37", "longitude": "4.89"},
			"diagnostics": map[string]any{
				"timestamps": map[string]any{"device_event_timestamp_utc": "2024-03-05T10:00:00Z"},
			},
		}
	}

	t.Run("string coordinates", func(t *testing.T) {
		point, ok := ExtractPoint(fullState())
		require.True(t, ok)
		assert.InDelta(t, 52.37, point.Pos.Lat, 1e-9)
		assert.InDelta(t, 4.89, point.Pos.Lon, 1e-9)
		assert.Equal(t, "2024-03-05T10:00:00Z", point.At.Canonical())
	})

	t.Run("numeric coordinates", func(t *testing.T) {
		state := fullState()
		state["location"] = map[string]any{"latitude": 52.37, "longitude": 4.89}
		point, ok := ExtractPoint(state)
		require.True(t, ok)
		assert.InDelta(t, 52.37, point.Pos.Lat, 1e-9)
	})

	t.Run("missing location", func(t *testing.T) {
		state := fullState()
		delete(state, "location")
		_, ok := ExtractPoint(state)
		assert.False(t, ok)
	})

	t.Run("unparseable coordinate", func(t *testing.T) {
		state := fullState()
		state["location"].(map[string]any)["latitude"] = "north-ish"
		_, ok := ExtractPoint(state)
		assert.False(t, ok)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		state := fullState()
		delete(state, "diagnostics")
		_, ok := ExtractPoint(state)
		assert.False(t, ok)
	})
}
