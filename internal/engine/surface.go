package engine

import (
	"sync"

	"hoardermap/internal/config"
	"hoardermap/internal/geo"
)

// MemorySurface is a RenderSurface that keeps the rendered segments and
// marker in memory. The API serves it to the browser, which applies the
// same add/restyle/remove operations to the map; tests use it to observe
// engine output.
type MemorySurface struct {
	mu       sync.Mutex
	order    []string
	segments map[string]Segment
	marker   geo.Point
	hasMark  bool
}

var _ RenderSurface = (*MemorySurface)(nil)

// NewMemorySurface returns an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{segments: make(map[string]Segment)}
}

// AddSegment records a new segment.
func (s *MemorySurface) AddSegment(seg Segment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.segments[seg.ID]; !exists {
		s.order = append(s.order, seg.ID)
	}
	s.segments[seg.ID] = seg
}

// RestyleSegment updates a segment's style in place.
func (s *MemorySurface) RestyleSegment(id string, style config.Style) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seg, ok := s.segments[id]; ok {
		seg.Style = style
		s.segments[id] = seg
	}
}

// RemoveSegment drops a segment entirely.
func (s *MemorySurface) RemoveSegment(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.segments[id]; !ok {
		return
	}
	delete(s.segments, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// UpsertMarker moves the live point marker.
func (s *MemorySurface) UpsertMarker(p geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marker = p
	s.hasMark = true
}

// Clear wipes the surface; used on device switch.
func (s *MemorySurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.segments = make(map[string]Segment)
	s.hasMark = false
}

// Segments returns all rendered segments in insertion order.
func (s *MemorySurface) Segments() []Segment {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Segment, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.segments[id])
	}
	return out
}

// Marker returns the live marker position, if one has been set.
func (s *MemorySurface) Marker() (geo.Point, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.marker, s.hasMark
}
