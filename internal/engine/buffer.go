package engine

import "hoardermap/internal/geo"

// bufferCapacity is the minimum basis for cubic spline interpolation.
const bufferCapacity = 4

// InterpolationBuffer holds the most recently accepted live positions,
// oldest first, capped at four. Pushing a fifth position evicts the
// oldest.
type InterpolationBuffer struct {
	points []geo.Point
}

// NewInterpolationBuffer returns an empty buffer.
func NewInterpolationBuffer() *InterpolationBuffer {
	return &InterpolationBuffer{points: make([]geo.Point, 0, bufferCapacity)}
}

// Push appends a position, evicting the oldest when the buffer is full.
func (b *InterpolationBuffer) Push(p geo.Point) {
	if len(b.points) == bufferCapacity {
		copy(b.points, b.points[1:])
		b.points[bufferCapacity-1] = p
		return
	}
	b.points = append(b.points, p)
}

// Len returns the number of buffered positions.
func (b *InterpolationBuffer) Len() int { return len(b.points) }

// Full reports whether the buffer holds the complete spline basis.
func (b *InterpolationBuffer) Full() bool { return len(b.points) == bufferCapacity }

// Points returns a copy of the buffered positions, oldest first.
func (b *InterpolationBuffer) Points() []geo.Point {
	out := make([]geo.Point, len(b.points))
	copy(out, b.points)
	return out
}

// Reset empties the buffer.
func (b *InterpolationBuffer) Reset() {
	b.points = b.points[:0]
}
