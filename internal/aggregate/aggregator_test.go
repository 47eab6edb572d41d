package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoardermap/internal/db"
	"hoardermap/internal/processor"
	"hoardermap/internal/track"
)

// fakeClient serves canned devices and history pages keyed by the exact
// URL the aggregator requests.
type fakeClient struct {
	devices []processor.Device
	pages   map[string]*processor.HistoryPage
}

func (f *fakeClient) Devices(ctx context.Context) ([]processor.Device, error) {
	return f.devices, nil
}

func (f *fakeClient) Latest(ctx context.Context, deviceID string) (*processor.LatestRecord, error) {
	return nil, fmt.Errorf("not served by this fake")
}

func (f *fakeClient) HistoryPage(ctx context.Context, pageURL string) (*processor.HistoryPage, error) {
	page, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("unexpected history page %q", pageURL)
	}
	return page, nil
}

// historyRecord builds one delta that moves the device and bumps the
// event timestamp.
func historyRecord(lat, lon, at string) processor.HistoryRecord {
	return processor.HistoryRecord{
		Changes: map[string]any{
			"location": map[string]any{"latitude": lat, "longitude": lon},
		},
		Diagnostics: map[string]any{
			"timestamps": map[string]any{"device_event_timestamp_utc": at},
		},
	}
}

func TestAggregatorRun(t *testing.T) {
	dataDir := t.TempDir()
	chartsDir := t.TempDir()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer database.Close()

	// Two pages, newest first within and across pages; replayed deltas
	// walk the device north between 10:00 and 10:02.
	client := &fakeClient{
		devices: []processor.Device{{
			DeviceID:   "tracker-1",
			DeviceName: "Van",
			Links:      processor.DeviceLinks{History: "data/history/tracker-1"},
		}},
		pages: map[string]*processor.HistoryPage{
			"data/history/tracker-1?limit=2": {
				Data: []processor.HistoryRecord{
					historyRecord("52.0030", "4.0000", "2024-03-05T10:02:00Z"),
					historyRecord("52.0020", "4.0000", "2024-03-05T10:01:20Z"),
				},
				Navigation: processor.Navigation{NextPage: "data/history/tracker-1?page=2"},
			},
			"data/history/tracker-1?page=2": {
				Data: []processor.HistoryRecord{
					historyRecord("52.0010", "4.0002", "2024-03-05T10:00:40Z"),
					historyRecord("52.0000", "4.0000", "2024-03-05T10:00:00Z"),
				},
			},
		},
	}

	agg := &Aggregator{
		Proc:      client,
		DB:        database,
		DataDir:   dataDir,
		ChartsDir: chartsDir,
		Pipeline:  Pipeline{MaxJumpMeters: 5000, Epsilon: 0.00008, ChaikinIterations: 1},
		PageLimit: 2,
	}
	require.NoError(t, agg.Run(context.Background()))

	// The track file is a loadable feature collection covering the walk.
	payload, err := os.ReadFile(filepath.Join(dataDir, "tracker-1.json"))
	require.NoError(t, err)
	var collection track.FeatureCollection
	require.NoError(t, json.Unmarshal(payload, &collection))
	require.Len(t, collection.Features, 1)

	trk, states := track.Load(&collection)
	require.NotEmpty(t, trk.Samples)
	assert.Equal(t, "2024-03-05T10:00:00Z", trk.Samples[0].At.Canonical())
	last, ok := trk.Last()
	require.True(t, ok)
	assert.Equal(t, "2024-03-05T10:02:00Z", last.At.Canonical())
	assert.Equal(t, len(trk.Samples), states.Len())

	// One run row with the device registered.
	devices, err := database.Devices()
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "Van", devices[0].DeviceName)

	runs, err := database.RecentRuns(10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(4), runs[0].PointCount)
	assert.Equal(t, int64(1), runs[0].SegmentCount)
	assert.Greater(t, runs[0].DistanceM, 300.0)

	// Chart written alongside.
	chart, err := os.ReadFile(filepath.Join(chartsDir, "tracker-1.html"))
	require.NoError(t, err)
	assert.Contains(t, string(chart), "echarts")
}

func TestAggregatorKeepsPartialHistory(t *testing.T) {
	dataDir := t.TempDir()

	// The second page is never served; the fake errors on unknown URLs.
	client := &fakeClient{
		devices: []processor.Device{{
			DeviceID: "tracker-1",
			Links:    processor.DeviceLinks{History: "data/history/tracker-1"},
		}},
		pages: map[string]*processor.HistoryPage{
			"data/history/tracker-1?limit=500": {
				Data: []processor.HistoryRecord{
					historyRecord("52.0020", "4.0000", "2024-03-05T10:01:00Z"),
					historyRecord("52.0010", "4.0002", "2024-03-05T10:00:30Z"),
					historyRecord("52.0000", "4.0000", "2024-03-05T10:00:00Z"),
				},
				Navigation: processor.Navigation{NextPage: "data/history/tracker-1?page=2"},
			},
		},
	}

	agg := &Aggregator{
		Proc:      client,
		DataDir:   dataDir,
		Pipeline:  Pipeline{MaxJumpMeters: 5000, Epsilon: 0.00008, ChaikinIterations: 1},
		PageLimit: 500,
	}
	require.NoError(t, agg.Run(context.Background()))

	// The pages fetched before the failure still produce a track.
	payload, err := os.ReadFile(filepath.Join(dataDir, "tracker-1.json"))
	require.NoError(t, err)
	var collection track.FeatureCollection
	require.NoError(t, json.Unmarshal(payload, &collection))
	require.Len(t, collection.Features, 1)

	trk, _ := track.Load(&collection)
	require.NotEmpty(t, trk.Samples)
	assert.Equal(t, "2024-03-05T10:00:00Z", trk.Samples[0].At.Canonical())
}

func TestAggregatorWritesEmptyTrack(t *testing.T) {
	dataDir := t.TempDir()

	client := &fakeClient{
		devices: []processor.Device{{
			DeviceID: "tracker-2",
			Links:    processor.DeviceLinks{History: "data/history/tracker-2"},
		}},
		pages: map[string]*processor.HistoryPage{
			"data/history/tracker-2?limit=500": {},
		},
	}

	agg := &Aggregator{
		Proc:      client,
		DataDir:   dataDir,
		Pipeline:  Pipeline{MaxJumpMeters: 5000, Epsilon: 0.00008, ChaikinIterations: 4},
		PageLimit: 500,
	}
	require.NoError(t, agg.Run(context.Background()))

	payload, err := os.ReadFile(filepath.Join(dataDir, "tracker-2.json"))
	require.NoError(t, err)
	var collection track.FeatureCollection
	require.NoError(t, json.Unmarshal(payload, &collection))
	assert.Equal(t, "FeatureCollection", collection.Type)
	assert.Empty(t, collection.Features)
}

func TestWithLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "data/history/x?limit=500", withLimit("data/history/x", 500))
	assert.Equal(t, "data/history/x?page=2&limit=500", withLimit("data/history/x?page=2", 500))
	assert.Equal(t, "data/history/x", withLimit("data/history/x", 0))
}
