package aggregate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hoardermap/internal/db"
	"hoardermap/internal/processor"
	"hoardermap/internal/track"
)

// Aggregator rebuilds track files for every known device.
type Aggregator struct {
	Proc      processor.Client
	DB        *db.DB
	DataDir   string
	ChartsDir string
	Pipeline  Pipeline
	PageLimit int
}

// Run performs one aggregation pass over all devices. Devices are
// processed concurrently; a failing device is logged and skipped.
func (a *Aggregator) Run(ctx context.Context) error {
	devices, err := a.Proc.Devices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	log.Printf("aggregating %d devices", len(devices))

	var wg sync.WaitGroup
	for _, device := range devices {
		wg.Add(1)
		go func(device processor.Device) {
			defer wg.Done()
			if err := a.processDevice(ctx, device); err != nil {
				log.Printf("device %s: aggregation failed: %v", device.DeviceID, err)
			}
		}(device)
	}
	wg.Wait()
	return nil
}

func (a *Aggregator) processDevice(ctx context.Context, device processor.Device) error {
	started := time.Now()

	points, err := a.collectHistory(ctx, device)
	if err != nil {
		return err
	}

	features := a.Pipeline.Features(points)
	if err := a.writeTrack(device.DeviceID, features); err != nil {
		return err
	}

	if a.ChartsDir != "" && len(points) > 0 {
		if err := a.writeChart(device.DeviceID, points); err != nil {
			log.Printf("device %s: chart render failed: %v", device.DeviceID, err)
		}
	}

	if a.DB != nil {
		if err := a.DB.UpsertDevice(device.DeviceID, device.DeviceName, time.Now()); err != nil {
			return err
		}
		stats := ComputeSpeedStats(points)
		if err := a.DB.RecordRun(db.Run{
			RunID:        uuid.New().String(),
			DeviceID:     device.DeviceID,
			PointCount:   int64(len(points)),
			SegmentCount: int64(len(features)),
			DistanceM:    stats.Distance,
			MeanSpeedMPS: stats.MeanMPS,
			MaxSpeedMPS:  stats.MaxMPS,
			Duration:     time.Since(started),
		}); err != nil {
			return err
		}
	}

	log.Printf("device %s: %d points, %d segments in %s", device.DeviceID, len(points), len(features), time.Since(started).Round(time.Millisecond))
	return nil
}

// collectHistory walks the device's paginated delta history and replays
// it oldest-first into a point sequence. Records without a usable
// position or timestamp are skipped. A fetch failure mid-pagination
// stops the walk but keeps the pages already collected, so a flaky
// processor degrades the track instead of blanking it.
func (a *Aggregator) collectHistory(ctx context.Context, device processor.Device) ([]TrackPoint, error) {
	if device.Links.History == "" {
		return nil, fmt.Errorf("device %s has no history link", device.DeviceID)
	}

	var records []processor.HistoryRecord
	pageURL := withLimit(device.Links.History, a.PageLimit)
	for pageURL != "" {
		page, err := a.Proc.HistoryPage(ctx, pageURL)
		if err != nil {
			log.Printf("device %s: history page fetch failed, keeping %d records: %v", device.DeviceID, len(records), err)
			break
		}
		records = append(records, page.Data...)
		pageURL = page.Navigation.NextPage
	}

	// Pages arrive newest-first; replay deltas from the oldest record.
	state := track.AuxState{}
	points := make([]TrackPoint, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		state = MergeState(state, records[i].Changes, records[i].Diagnostics)
		if point, ok := ExtractPoint(state); ok {
			points = append(points, point)
		}
	}
	return points, nil
}

func (a *Aggregator) writeTrack(deviceID string, features []track.Feature) error {
	collection := track.FeatureCollection{Type: "FeatureCollection", Features: features}
	if collection.Features == nil {
		collection.Features = []track.Feature{}
	}
	payload, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("failed to encode track: %w", err)
	}

	if err := os.MkdirAll(a.DataDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(a.DataDir, filepath.Base(deviceID)+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write track file: %w", err)
	}
	return nil
}

func (a *Aggregator) writeChart(deviceID string, points []TrackPoint) error {
	if err := os.MkdirAll(a.ChartsDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(a.ChartsDir, filepath.Base(deviceID)+".html")
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return RenderProfileChart(f, deviceID, points)
}

func withLimit(historyURL string, limit int) string {
	if limit <= 0 {
		return historyURL
	}
	sep := "?"
	if strings.Contains(historyURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%slimit=%d", historyURL, sep, limit)
}
