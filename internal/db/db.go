// Package db is the sqlite layer for the device registry and the
// aggregation run log.
package db

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS devices (
			device_id         TEXT PRIMARY KEY,
			device_name       TEXT,
			last_seen         TIMESTAMP,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS aggregation_runs (
			run_id            TEXT,
			device_id         TEXT,
			point_count       BIGINT,
			segment_count     BIGINT,
			distance_meters   DOUBLE,
			mean_speed_mps    DOUBLE,
			max_speed_mps     DOUBLE,
			duration_ms       BIGINT,
			timestamp         TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY(device_id) REFERENCES devices(device_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Device is one entry of the local device registry. The registry is the
// fallback device list when the processor is unreachable.
type Device struct {
	DeviceID   string
	DeviceName string
	LastSeen   time.Time
}

func (db *DB) UpsertDevice(deviceID, deviceName string, seen time.Time) error {
	_, err := db.Exec(`
		INSERT INTO devices (device_id, device_name, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(device_id) DO UPDATE SET device_name = excluded.device_name, last_seen = excluded.last_seen
	`, deviceID, deviceName, seen.UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert device %s: %w", deviceID, err)
	}
	return nil
}

func (db *DB) Devices() ([]Device, error) {
	rows, err := db.Query("SELECT device_id, device_name, last_seen FROM devices ORDER BY device_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		var d Device
		if err := rows.Scan(&d.DeviceID, &d.DeviceName, &d.LastSeen); err != nil {
			return nil, err
		}
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return devices, nil
}

// Run summarizes one aggregation pass over a single device.
type Run struct {
	RunID        string
	DeviceID     string
	PointCount   int64
	SegmentCount int64
	DistanceM    float64
	MeanSpeedMPS float64
	MaxSpeedMPS  float64
	Duration     time.Duration
}

func (db *DB) RecordRun(run Run) error {
	_, err := db.Exec(`
		INSERT INTO aggregation_runs
			(run_id, device_id, point_count, segment_count, distance_meters, mean_speed_mps, max_speed_mps, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunID, run.DeviceID, run.PointCount, run.SegmentCount, run.DistanceM, run.MeanSpeedMPS, run.MaxSpeedMPS, run.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to record run for %s: %w", run.DeviceID, err)
	}
	return nil
}

func (db *DB) RecentRuns(limit int) ([]Run, error) {
	rows, err := db.Query(`
		SELECT run_id, device_id, point_count, segment_count, distance_meters, mean_speed_mps, max_speed_mps, duration_ms
		FROM aggregation_runs ORDER BY timestamp DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMs int64
		if err := rows.Scan(&r.RunID, &r.DeviceID, &r.PointCount, &r.SegmentCount, &r.DistanceM, &r.MeanSpeedMPS, &r.MaxSpeedMPS, &durationMs); err != nil {
			return nil, err
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}
