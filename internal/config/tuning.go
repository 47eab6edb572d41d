// Package config holds the JSON tuning configuration for the trajectory
// engine and the aggregator. Fields are pointer-typed so a partial config
// file can override only what it names; getters apply the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Tuning defaults. These are the values the engine runs with when no
// config file is given.
const (
	DefaultMaxSpeedMPS       = 250.0 // generous upper bound, about airliner cruise
	DefaultMinSpeedCheckGap  = 0.1   // seconds; below this the speed check is skipped
	DefaultPollInterval      = 5 * time.Second
	DefaultSplineSteps       = 10
	DefaultMaxJumpKm         = 5.0
	DefaultRDPEpsilon        = 0.00008
	DefaultChaikinIterations = 4
	DefaultHistoryPageLimit  = 500
)

// Style describes how one trail segment is rendered.
type Style struct {
	Color   string  `json:"color"`
	Weight  float64 `json:"weight"`
	Opacity float64 `json:"opacity"`
}

// DefaultLiveStyles is the vivid-to-dim gradient applied to live trail
// segments, newest first.
var DefaultLiveStyles = []Style{
	{Color: "#ff3b30", Weight: 5, Opacity: 1.0},
	{Color: "#ff6e40", Weight: 4, Opacity: 0.85},
	{Color: "#ff9e80", Weight: 4, Opacity: 0.7},
	{Color: "#ffccbc", Weight: 3, Opacity: 0.55},
}

// DefaultHistoricalStyle is the single style of the permanent track.
var DefaultHistoricalStyle = Style{Color: "#3388ff", Weight: 3, Opacity: 0.6}

// TuningConfig is the root configuration for tuning parameters. All
// fields are optional; nil means "use the default".
type TuningConfig struct {
	// Engine params
	MaxSpeedMPS             *float64 `json:"max_speed_mps,omitempty"`
	MinSpeedCheckGapSeconds *float64 `json:"min_speed_check_gap_seconds,omitempty"`
	PollInterval            *string  `json:"poll_interval,omitempty"` // duration string like "5s"
	SplineSteps             *int     `json:"spline_steps,omitempty"`
	LiveStyles              []Style  `json:"live_styles,omitempty"`
	HistoricalStyle         *Style   `json:"historical_style,omitempty"`

	// Aggregator params
	MaxJumpKm         *float64 `json:"max_jump_km,omitempty"`
	RDPEpsilon        *float64 `json:"rdp_epsilon,omitempty"`
	ChaikinIterations *int     `json:"chaikin_iterations,omitempty"`
	HistoryPageLimit  *int     `json:"history_page_limit,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset, i.e.
// one that resolves every getter to its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. Fields omitted
// from the file retain their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// GetMaxSpeedMPS returns the jump-classification speed threshold.
func (c *TuningConfig) GetMaxSpeedMPS() float64 {
	if c != nil && c.MaxSpeedMPS != nil && *c.MaxSpeedMPS > 0 {
		return *c.MaxSpeedMPS
	}
	return DefaultMaxSpeedMPS
}

// GetMinSpeedCheckGapSeconds returns the elapsed time below which the
// speed check is skipped.
func (c *TuningConfig) GetMinSpeedCheckGapSeconds() float64 {
	if c != nil && c.MinSpeedCheckGapSeconds != nil && *c.MinSpeedCheckGapSeconds >= 0 {
		return *c.MinSpeedCheckGapSeconds
	}
	return DefaultMinSpeedCheckGap
}

// GetPollInterval returns the live polling cadence. Invalid duration
// strings fall back to the default.
func (c *TuningConfig) GetPollInterval() time.Duration {
	if c != nil && c.PollInterval != nil {
		if d, err := time.ParseDuration(*c.PollInterval); err == nil && d > 0 {
			return d
		}
	}
	return DefaultPollInterval
}

// GetSplineSteps returns the number of Catmull-Rom sampling steps.
func (c *TuningConfig) GetSplineSteps() int {
	if c != nil && c.SplineSteps != nil && *c.SplineSteps > 0 {
		return *c.SplineSteps
	}
	return DefaultSplineSteps
}

// GetLiveStyles returns the live trail style gradient, newest first.
func (c *TuningConfig) GetLiveStyles() []Style {
	if c != nil && len(c.LiveStyles) > 0 {
		return c.LiveStyles
	}
	return DefaultLiveStyles
}

// GetHistoricalStyle returns the permanent-track style.
func (c *TuningConfig) GetHistoricalStyle() Style {
	if c != nil && c.HistoricalStyle != nil {
		return *c.HistoricalStyle
	}
	return DefaultHistoricalStyle
}

// GetMaxJumpKm returns the aggregator's track-splitting distance.
func (c *TuningConfig) GetMaxJumpKm() float64 {
	if c != nil && c.MaxJumpKm != nil && *c.MaxJumpKm > 0 {
		return *c.MaxJumpKm
	}
	return DefaultMaxJumpKm
}

// GetRDPEpsilon returns the simplification tolerance in degrees.
func (c *TuningConfig) GetRDPEpsilon() float64 {
	if c != nil && c.RDPEpsilon != nil && *c.RDPEpsilon > 0 {
		return *c.RDPEpsilon
	}
	return DefaultRDPEpsilon
}

// GetChaikinIterations returns the smoothing iteration count.
func (c *TuningConfig) GetChaikinIterations() int {
	if c != nil && c.ChaikinIterations != nil && *c.ChaikinIterations >= 0 {
		return *c.ChaikinIterations
	}
	return DefaultChaikinIterations
}

// GetHistoryPageLimit returns the page size for history fetches.
func (c *TuningConfig) GetHistoryPageLimit() int {
	if c != nil && c.HistoryPageLimit != nil && *c.HistoryPageLimit > 0 {
		return *c.HistoryPageLimit
	}
	return DefaultHistoryPageLimit
}
