// Package processor is the HTTP client for the upstream processor
// service: device list, latest live sample, and paginated delta history.
package processor

import (
	"strconv"

	"hoardermap/internal/geo"
	"hoardermap/internal/track"
)

// Device is one entry of the processor's device list.
type Device struct {
	DeviceID   string      `json:"device_id"`
	DeviceName string      `json:"device_name,omitempty"`
	Links      DeviceLinks `json:"links,omitempty"`
}

// DeviceLinks carries the navigation links the processor attaches to a
// device record.
type DeviceLinks struct {
	History string `json:"history,omitempty"`
}

// LatestRecord is the processor's most recent full state for a device.
// Latitude and longitude arrive as numeric strings; power, network and
// environment are forwarded verbatim as auxiliary state.
type LatestRecord struct {
	Diagnostics Diagnostics    `json:"diagnostics"`
	Location    Location       `json:"location"`
	Identity    map[string]any `json:"identity,omitempty"`
	Power       map[string]any `json:"power,omitempty"`
	Network     map[string]any `json:"network,omitempty"`
	Environment map[string]any `json:"environment,omitempty"`
}

// Diagnostics holds the device-reported timestamp block.
type Diagnostics struct {
	Timestamps Timestamps `json:"timestamps"`
}

// Timestamps carries the device event time as raw text.
type Timestamps struct {
	DeviceEventTimestampUTC string `json:"device_event_timestamp_utc"`
}

// Location carries coordinates as the processor sends them: strings
// holding decimal degrees.
type Location struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
}

// Sample converts the record into an engine sample. Returns ok=false when
// the timestamp or either coordinate is unparseable; the caller discards
// the record without mutating state.
func (r *LatestRecord) Sample() (track.Sample, bool) {
	if r == nil {
		return track.Sample{}, false
	}
	at, ok := track.ParseInstant(r.Diagnostics.Timestamps.DeviceEventTimestampUTC)
	if !ok {
		return track.Sample{}, false
	}
	lat, err := strconv.ParseFloat(r.Location.Latitude, 64)
	if err != nil {
		return track.Sample{}, false
	}
	lon, err := strconv.ParseFloat(r.Location.Longitude, 64)
	if err != nil {
		return track.Sample{}, false
	}

	aux := track.AuxState{}
	if r.Identity != nil {
		aux["identity"] = r.Identity
	}
	if r.Power != nil {
		aux["power"] = r.Power
	}
	if r.Network != nil {
		aux["network"] = r.Network
	}
	if r.Environment != nil {
		aux["environment"] = r.Environment
	}

	return track.Sample{
		At:  at,
		Pos: geo.Point{Lat: lat, Lon: lon},
		Aux: aux,
	}, true
}

// HistoryRecord is one delta entry of the paginated device history. The
// processor sends sparse change sets; diagnostics, when present, replace
// the previous diagnostics wholesale.
type HistoryRecord struct {
	Changes     map[string]any `json:"changes"`
	Diagnostics map[string]any `json:"diagnostics,omitempty"`
}

// HistoryPage is one page of history records, newest first, with a link
// to the next page.
type HistoryPage struct {
	Data       []HistoryRecord `json:"data"`
	Navigation Navigation      `json:"navigation"`
}

// Navigation carries pagination links.
type Navigation struct {
	NextPage string `json:"next_page,omitempty"`
}
