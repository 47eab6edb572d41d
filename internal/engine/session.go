package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"hoardermap/internal/config"
	"hoardermap/internal/geo"
	"hoardermap/internal/processor"
	"hoardermap/internal/timeutil"
	"hoardermap/internal/track"
)

// SessionState is the ingestion loop's lifecycle state.
type SessionState string

const (
	// StateIdle means no device is selected.
	StateIdle SessionState = "idle"
	// StateSeeded means a track is loaded and the buffer seeded, but no
	// live tick has run yet.
	StateSeeded SessionState = "seeded"
	// StatePolling means periodic ticks are active.
	StatePolling SessionState = "polling"
	// StateStopped means the session was explicitly cancelled by a
	// device switch or clear.
	StateStopped SessionState = "stopped"
)

// TrackSource loads the persisted historical track for a device.
type TrackSource interface {
	LoadTrack(deviceID string) (*track.FeatureCollection, error)
}

// SessionConfig carries the engine tuning knobs.
type SessionConfig struct {
	MaxSpeedMPS     float64
	MinGapSeconds   float64
	PollInterval    time.Duration
	SplineSteps     int
	LiveStyles      []config.Style
	HistoricalStyle config.Style
}

// SessionConfigFromTuning resolves a SessionConfig from a loaded tuning
// config.
func SessionConfigFromTuning(cfg *config.TuningConfig) SessionConfig {
	return SessionConfig{
		MaxSpeedMPS:     cfg.GetMaxSpeedMPS(),
		MinGapSeconds:   cfg.GetMinSpeedCheckGapSeconds(),
		PollInterval:    cfg.GetPollInterval(),
		SplineSteps:     cfg.GetSplineSteps(),
		LiveStyles:      cfg.GetLiveStyles(),
		HistoricalStyle: cfg.GetHistoricalStyle(),
	}
}

// Session owns all mutable live-trajectory state for the currently
// selected device: the interpolation buffer, the live trail, the
// time-indexed state store, and the current-instant pointer. All of it is
// mutated only under the session lock, by the load path and the tick
// handler.
//
// Ticks are serialized against resets with a per-session token: each tick
// captures the token before its fetch and re-checks it under the lock
// before applying the result. A device switch or clear rotates the token
// first, so a late-arriving fetch result is detected as stale and
// dropped, never merged into the new session.
type Session struct {
	clock   timeutil.Clock
	proc    processor.Client
	source  TrackSource
	surface RenderSurface
	cfg     SessionConfig

	mu       sync.Mutex
	state    SessionState
	deviceID string
	token    uuid.UUID
	detector AnomalyDetector

	current  track.Instant
	last     track.Sample
	haveLast bool
	speedMPS float64

	buf   *InterpolationBuffer
	trail *TrailManager
	store *track.StateStore

	ticker timeutil.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewSession creates an idle session. A nil clock uses the real one.
func NewSession(proc processor.Client, source TrackSource, surface RenderSurface, clock timeutil.Clock, cfg SessionConfig) *Session {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = config.DefaultPollInterval
	}
	if cfg.SplineSteps <= 0 {
		cfg.SplineSteps = config.DefaultSplineSteps
	}
	if len(cfg.LiveStyles) == 0 {
		cfg.LiveStyles = config.DefaultLiveStyles
	}
	if cfg.MaxSpeedMPS <= 0 {
		cfg.MaxSpeedMPS = config.DefaultMaxSpeedMPS
	}
	return &Session{
		clock:   clock,
		proc:    proc,
		source:  source,
		surface: surface,
		cfg:     cfg,
		state:   StateIdle,
		token:   uuid.New(),
		detector: AnomalyDetector{
			MaxSpeedMPS:   cfg.MaxSpeedMPS,
			MinGapSeconds: cfg.MinGapSeconds,
		},
		buf:   NewInterpolationBuffer(),
		trail: NewTrailManager(cfg.LiveStyles, cfg.HistoricalStyle, surface),
		store: track.NewStateStore(),
	}
}

// Select switches the session to a device: it synchronously stops any
// active polling, discards all session state, loads the device's
// historical track, seeds the buffer from the last known point, and
// starts the poll ticker.
func (s *Session) Select(deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.surface.Clear()

	if deviceID == "" {
		s.state = StateIdle
		return nil
	}
	fc, err := s.source.LoadTrack(deviceID)
	if err != nil {
		// Recoverable: the session stays empty, the display shows "no
		// data", and no polling starts.
		s.state = StateIdle
		return fmt.Errorf("no track data for %s: %w", deviceID, err)
	}
	s.deviceID = deviceID

	trk, store := track.Load(fc)
	s.store = store

	for _, line := range trk.Lines {
		s.surface.AddSegment(Segment{
			ID:     uuid.NewString(),
			Points: line,
			Style:  s.cfg.HistoricalStyle,
		})
	}

	if last, ok := trk.Last(); ok {
		s.buf.Push(last.Pos)
		s.current = last.At
		s.last = last
		s.haveLast = true
		s.surface.UpsertMarker(last.Pos)
	}
	s.state = StateSeeded

	s.startPollingLocked()
	return nil
}

// Clear stops polling and discards all live state. The session moves to
// Stopped; already-rendered segments stay on the surface as historical.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.state = StateStopped
}

// Dispose tears the session down for process shutdown.
func (s *Session) Dispose() {
	s.Clear()
	s.wg.Wait()
}

// startPollingLocked starts the ticker and the tick pump. Caller holds
// the lock.
func (s *Session) startPollingLocked() {
	s.ticker = s.clock.NewTicker(s.cfg.PollInterval)
	s.done = make(chan struct{})
	s.state = StatePolling

	token := s.token
	ticker := s.ticker
	done := s.done
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-done:
				return
			case <-ticker.C():
				s.tick(token)
			}
		}
	}()
}

// stopLocked synchronously stops the ticker, rotates the session token so
// in-flight fetch results are dropped, and resets all live state. Caller
// holds the lock.
func (s *Session) stopLocked() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
	if s.done != nil {
		close(s.done)
		s.done = nil
	}
	s.token = uuid.New()
	s.trail.Reset()
	s.buf.Reset()
	s.store = track.NewStateStore()
	s.current = track.Instant{}
	s.last = track.Sample{}
	s.haveLast = false
	s.speedMPS = 0
	s.deviceID = ""
}

// tick runs one ingestion attempt. The fetch happens outside the lock;
// the token comparison afterwards decides whether the result still
// belongs to the live session.
func (s *Session) tick(token uuid.UUID) {
	s.mu.Lock()
	if s.token != token || s.state != StatePolling {
		s.mu.Unlock()
		return
	}
	deviceID := s.deviceID
	s.mu.Unlock()

	record, err := s.proc.Latest(context.Background(), deviceID)
	if err != nil {
		// Poll failures skip the tick; the next cycle retries.
		log.Printf("engine: poll for %s failed: %v", deviceID, err)
		return
	}
	sample, ok := record.Sample()
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != token || s.state != StatePolling {
		// A reset or device switch happened while the fetch was in
		// flight; discard the late result.
		return
	}
	s.applyLocked(sample)
}

// applyLocked runs one accepted-candidate pass: newer-than check, anomaly
// classification, buffer/trail update, current-instant advance, marker.
func (s *Session) applyLocked(sample track.Sample) {
	if !s.current.IsZero() && !sample.At.After(s.current) {
		return
	}

	if s.detector.Classify(s.last, s.haveLast, sample) == ClassJump {
		log.Printf("engine: jump detected for %s at %s; resetting live trail", s.deviceID, sample.At)
		s.resetLiveLocked()
	} else if s.haveLast {
		elapsed := sample.At.Sub(s.last.At).Seconds()
		if elapsed > 0 {
			s.speedMPS = geo.ImpliedSpeedMPS(s.last.Pos, sample.Pos, elapsed)
		}
	}

	prev := s.last
	hadPrev := s.haveLast && s.buf.Len() > 0

	s.buf.Push(sample.Pos)

	if s.buf.Full() {
		pts := s.buf.Points()
		// The straight segment previously drawn between these two fixes
		// is superseded by the smoothed curve.
		s.trail.DiscardNewest()
		curve := geo.CatmullRomSegment(pts[0], pts[1], pts[2], pts[3], s.cfg.SplineSteps)
		s.trail.Prepend(curve)
		s.trail.Prepend([]geo.Point{pts[2], pts[3]})
	} else if hadPrev {
		s.trail.Prepend([]geo.Point{prev.Pos, sample.Pos})
	}

	s.current = sample.At
	s.last = sample
	s.haveLast = true
	s.surface.UpsertMarker(sample.Pos)
}

// resetLiveLocked demotes the live trail and empties the buffer; the
// jump candidate afterwards reseeds an otherwise empty live state.
func (s *Session) resetLiveLocked() {
	s.trail.Reset()
	s.buf.Reset()
	s.haveLast = false
	s.speedMPS = 0
}

// Scrub looks up the auxiliary state recorded at exactly the queried
// instant along the loaded historical track.
func (s *Session) Scrub(at track.Instant) (track.AuxState, bool) {
	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	// The store is immutable once built; reads need no lock.
	return store.Lookup(at)
}

// Snapshot is the engine view the API serves to the render surface's
// remote half.
type Snapshot struct {
	State         SessionState   `json:"state"`
	DeviceID      string         `json:"device_id,omitempty"`
	CurrentTime   string         `json:"current_instant,omitempty"`
	Marker        *geo.Point     `json:"marker,omitempty"`
	SpeedMPS      float64        `json:"speed,omitempty"`
	LiveSegments  []Segment      `json:"live_segments"`
	LatestAux     track.AuxState `json:"latest_aux,omitempty"`
	TrackInstants int            `json:"track_instants"`
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:         s.state,
		DeviceID:      s.deviceID,
		LiveSegments:  s.trail.LiveSegments(),
		TrackInstants: s.store.Len(),
		SpeedMPS:      s.speedMPS,
	}
	if !s.current.IsZero() {
		snap.CurrentTime = s.current.Canonical()
	}
	if s.haveLast {
		pos := s.last.Pos
		snap.Marker = &pos
		snap.LatestAux = s.last.Aux
	}
	return snap
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
