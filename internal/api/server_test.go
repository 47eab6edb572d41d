package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoardermap/internal/db"
	"hoardermap/internal/engine"
	"hoardermap/internal/httputil"
	"hoardermap/internal/processor"
	"hoardermap/internal/testutil"
	"hoardermap/internal/timeutil"
	"hoardermap/internal/track"
	"hoardermap/internal/units"
)

const testTrackJSON = `{
	"type": "FeatureCollection",
	"features": [{
		"type": "Feature",
		"geometry": {"type": "LineString", "coordinates": [[4.0, 52.0], [4.001, 52.001], [4.002, 52.002]]},
		"properties": {
			"time": ["2024-03-05T10:00:00Z", "2024-03-05T10:00:30Z", "2024-03-05T10:01:00Z"],
			"states": [
				{"power": {"battery_percent": 80}},
				{"power": {"battery_percent": 79}},
				{"power": {"battery_percent": 78}}
			]
		}
	}]
}`

// newTestServer wires a server over a mock processor transport, a
// temp-dir track source, and a fresh sqlite registry.
func newTestServer(t *testing.T, mock *httputil.MockHTTPClient) (*Server, *db.DB, string) {
	t.Helper()

	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "tracker-1.json"), []byte(testTrackJSON), 0o644))

	database, err := db.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	proc := processor.New("http://processor.local", mock)
	session := engine.NewSession(proc, track.NewDirSource(dataDir), engine.NewMemorySurface(),
		timeutil.NewMockClock(time.Date(2024, 3, 5, 10, 2, 30, 0, time.UTC)), engine.SessionConfig{})
	t.Cleanup(session.Dispose)

	return NewServer(proc, session, database, dataDir, units.KMPH), database, dataDir
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := testutil.NewTestRecorder()
	s.ServeMux().ServeHTTP(rec, req)
	return rec
}

func TestListDevices(t *testing.T) {
	t.Run("proxies the processor list", func(t *testing.T) {
		mock := httputil.NewMockHTTPClient()
		mock.AddResponse(http.StatusOK, `[{"device_id": "tracker-1", "device_name": "Van"}]`)
		server, _, _ := newTestServer(t, mock)

		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/devices"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var devices []processor.Device
		testutil.DecodeJSONBody(t, rec, &devices)
		require.Len(t, devices, 1)
		assert.Equal(t, "tracker-1", devices[0].DeviceID)
	})

	t.Run("falls back to the registry when the processor is down", func(t *testing.T) {
		mock := httputil.NewMockHTTPClient()
		mock.AddErrorResponse(fmt.Errorf("connection refused"))
		server, database, _ := newTestServer(t, mock)
		require.NoError(t, database.UpsertDevice("tracker-9", "Spare", time.Now()))

		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/devices"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var devices []processor.Device
		testutil.DecodeJSONBody(t, rec, &devices)
		require.Len(t, devices, 1)
		assert.Equal(t, "tracker-9", devices[0].DeviceID)
	})

	t.Run("rejects POST", func(t *testing.T) {
		server, _, _ := newTestServer(t, httputil.NewMockHTTPClient())
		rec := serve(server, testutil.NewTestRequest(http.MethodPost, "/api/devices"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
	})
}

func TestShowLatest(t *testing.T) {
	t.Run("returns the processor record", func(t *testing.T) {
		mock := httputil.NewMockHTTPClient()
		mock.AddResponse(http.StatusOK, `{
			"diagnostics": {"timestamps": {"device_event_timestamp_utc": "2024-03-05T10:02:00Z"}},
			"location": {"latitude": "52.01", "longitude": "4.01"}
		}`)
		server, _, _ := newTestServer(t, mock)

		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/latest/tracker-1"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var record processor.LatestRecord
		testutil.DecodeJSONBody(t, rec, &record)
		assert.Equal(t, "52.01", record.Location.Latitude)
	})

	t.Run("503 when the processor is unreachable", func(t *testing.T) {
		mock := httputil.NewMockHTTPClient()
		mock.AddErrorResponse(fmt.Errorf("connection refused"))
		server, _, _ := newTestServer(t, mock)

		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/latest/tracker-1"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusServiceUnavailable)

		var body map[string]string
		testutil.DecodeJSONBody(t, rec, &body)
		assert.Contains(t, body["error"], "failed to fetch")
	})

	t.Run("rejects empty and nested ids", func(t *testing.T) {
		server, _, _ := newTestServer(t, httputil.NewMockHTTPClient())
		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/latest/a/b"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	})
}

func TestSessionEndpoints(t *testing.T) {
	server, _, _ := newTestServer(t, httputil.NewMockHTTPClient())

	// Selecting a device with track data seeds the session.
	rec := serve(server, testutil.NewTestRequest(http.MethodPost, "/api/session/select?device=tracker-1"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	rec = serve(server, testutil.NewTestRequest(http.MethodGet, "/api/session"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body struct {
		Session engine.Snapshot `json:"session"`
		Units   string          `json:"units"`
	}
	testutil.DecodeJSONBody(t, rec, &body)
	assert.Equal(t, engine.StatePolling, body.Session.State)
	assert.Equal(t, "tracker-1", body.Session.DeviceID)
	assert.Equal(t, "2024-03-05T10:01:00Z", body.Session.CurrentTime)
	assert.Equal(t, units.KMPH, body.Units)

	// Unknown devices stay recoverable.
	rec = serve(server, testutil.NewTestRequest(http.MethodPost, "/api/session/select?device=nope"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	// Clearing stops the session.
	rec = serve(server, testutil.NewTestRequest(http.MethodPost, "/api/session/clear"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	rec = serve(server, testutil.NewTestRequest(http.MethodGet, "/api/session"))
	testutil.DecodeJSONBody(t, rec, &body)
	assert.Equal(t, engine.StateStopped, body.Session.State)
}

func TestScrub(t *testing.T) {
	server, _, _ := newTestServer(t, httputil.NewMockHTTPClient())
	rec := serve(server, testutil.NewTestRequest(http.MethodPost, "/api/session/select?device=tracker-1"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	t.Run("resolves a recorded instant", func(t *testing.T) {
		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/scrub?t=2024-03-05T10:00:30Z"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

		var body struct {
			Instant string         `json:"instant"`
			State   track.AuxState `json:"state"`
		}
		testutil.DecodeJSONBody(t, rec, &body)
		assert.Equal(t, "2024-03-05T10:00:30Z", body.Instant)
		power := body.State["power"].(map[string]any)
		assert.Equal(t, 79.0, power["battery_percent"])
	})

	t.Run("alias spellings of the same instant resolve", func(t *testing.T) {
		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/scrub?t=05.03.2024+10:00:30+UTC"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	})

	t.Run("404 between samples", func(t *testing.T) {
		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/scrub?t=2024-03-05T10:00:31Z"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
	})

	t.Run("400 on garbage", func(t *testing.T) {
		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/scrub?t=whenever"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	})

	t.Run("400 without a timestamp", func(t *testing.T) {
		rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/scrub"))
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
	})
}

func TestShowConfig(t *testing.T) {
	server, _, _ := newTestServer(t, httputil.NewMockHTTPClient())
	rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/api/config"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var body map[string]any
	testutil.DecodeJSONBody(t, rec, &body)
	assert.Equal(t, units.KMPH, body["units"])
}

func TestStaticData(t *testing.T) {
	server, _, _ := newTestServer(t, httputil.NewMockHTTPClient())
	rec := serve(server, testutil.NewTestRequest(http.MethodGet, "/data/tracker-1.json"))
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var fc track.FeatureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Len(t, fc.Features, 1)
}
