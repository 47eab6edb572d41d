package engine

import (
	"github.com/google/uuid"

	"hoardermap/internal/config"
	"hoardermap/internal/geo"
)

// Segment is one rendered polyline of the trajectory.
type Segment struct {
	ID     string       `json:"id"`
	Points []geo.Point  `json:"points"`
	Style  config.Style `json:"style"`
}

// RenderSurface is the out-of-scope map collaborator. It receives segment
// add/remove/restyle calls, point-marker upserts, and a full wipe on
// device switch; the engine never reads it back.
type RenderSurface interface {
	AddSegment(seg Segment)
	RestyleSegment(id string, style config.Style)
	RemoveSegment(id string)
	UpsertMarker(p geo.Point)
	Clear()
}

// TrailManager owns the ordered, newest-first list of live trail
// segments. It ages them through the configured style gradient and
// demotes the oldest to the historical style when the list overflows.
// Demoted segments stay on the render surface as part of the permanent
// track; they just stop being tracked as live.
//
// Not safe for concurrent use; the owning session serializes access.
type TrailManager struct {
	styles     []config.Style
	historical config.Style
	surface    RenderSurface
	live       []*Segment // newest first
}

// NewTrailManager creates a manager for the given style gradient
// (newest first) and historical style.
func NewTrailManager(styles []config.Style, historical config.Style, surface RenderSurface) *TrailManager {
	if len(styles) == 0 {
		styles = config.DefaultLiveStyles
	}
	return &TrailManager{
		styles:     styles,
		historical: historical,
		surface:    surface,
	}
}

// maxLive is the live-list cap: one segment per configured style plus the
// in-between curve that shares the dimmest style.
func (m *TrailManager) maxLive() int { return len(m.styles) + 1 }

func (m *TrailManager) styleFor(index int) config.Style {
	if index >= len(m.styles) {
		return m.styles[len(m.styles)-1]
	}
	return m.styles[index]
}

// Prepend adds a new newest segment, demotes any overflow, and reassigns
// styles by position. Returns the new segment's ID.
func (m *TrailManager) Prepend(points []geo.Point) string {
	seg := &Segment{
		ID:     uuid.NewString(),
		Points: points,
		Style:  m.styleFor(0),
	}
	m.live = append([]*Segment{seg}, m.live...)
	m.surface.AddSegment(*seg)

	for len(m.live) > m.maxLive() {
		oldest := m.live[len(m.live)-1]
		m.live = m.live[:len(m.live)-1]
		oldest.Style = m.historical
		m.surface.RestyleSegment(oldest.ID, m.historical)
	}

	m.restyle()
	return seg.ID
}

// DiscardNewest removes the newest live segment from both the list and
// the render surface. Used when the straight in-between segment is
// superseded by its smoothed curve.
func (m *TrailManager) DiscardNewest() {
	if len(m.live) == 0 {
		return
	}
	newest := m.live[0]
	m.live = m.live[1:]
	m.surface.RemoveSegment(newest.ID)
}

// Reset restyles every tracked live segment to the historical style and
// clears the list. The segments remain on the render surface as part of
// the permanent track.
func (m *TrailManager) Reset() {
	for _, seg := range m.live {
		seg.Style = m.historical
		m.surface.RestyleSegment(seg.ID, m.historical)
	}
	m.live = nil
}

// LiveCount returns the number of currently tracked live segments.
func (m *TrailManager) LiveCount() int { return len(m.live) }

// LiveSegments returns a snapshot of the live segments, newest first.
func (m *TrailManager) LiveSegments() []Segment {
	out := make([]Segment, len(m.live))
	for i, seg := range m.live {
		out[i] = *seg
	}
	return out
}

// restyle reassigns styles by list position: index 0 is the most vivid;
// positions past the gradient reuse the dimmest style.
func (m *TrailManager) restyle() {
	for i, seg := range m.live {
		style := m.styleFor(i)
		if seg.Style != style {
			seg.Style = style
			m.surface.RestyleSegment(seg.ID, style)
		}
	}
}
