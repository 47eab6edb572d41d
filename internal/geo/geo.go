// Package geo provides the geometric primitives used by the trajectory
// engine: great-circle distance, implied speed, planar perpendicular
// distance for simplification, and Catmull-Rom curve sampling.
package geo

import "math"

// EarthRadiusMeters is the mean earth radius used for haversine distance.
const EarthRadiusMeters = 6371000.0

// Point is a position on the earth in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Haversine returns the great-circle distance between a and b in meters.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

// ImpliedSpeedMPS returns the speed in m/s implied by covering the
// great-circle distance between a and b in elapsedSeconds. Returns +Inf
// for a non-positive elapsed time.
func ImpliedSpeedMPS(a, b Point, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return math.Inf(1)
	}
	return Haversine(a, b) / elapsedSeconds
}

// PerpendicularDistance returns the planar (degree-space) distance from pt
// to the line through start and end. Degenerate lines yield zero, which
// keeps simplification conservative.
func PerpendicularDistance(pt, start, end Point) float64 {
	dLat := end.Lat - start.Lat
	dLon := end.Lon - start.Lon
	denom := math.Sqrt(dLat*dLat + dLon*dLon)
	if denom == 0 {
		return 0
	}
	num := math.Abs(dLat*pt.Lon - dLon*pt.Lat + end.Lon*start.Lat - end.Lat*start.Lon)
	return num / denom
}

// catmullRom evaluates the uniform Catmull-Rom basis for one axis at t in
// [0,1], interpolating between p1 and p2 with p0 and p3 as tangent support.
func catmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * (2*p1 +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// CatmullRomSegment samples the Catmull-Rom curve between p1 and p2 at
// steps equal parameter increments, returning steps+1 points. The first
// returned point is exactly p1 (t=0) and the last exactly p2 (t=1).
func CatmullRomSegment(p0, p1, p2, p3 Point, steps int) []Point {
	if steps < 1 {
		steps = 1
	}
	out := make([]Point, 0, steps+1)
	out = append(out, p1)
	for i := 1; i < steps; i++ {
		t := float64(i) / float64(steps)
		out = append(out, Point{
			Lat: catmullRom(p0.Lat, p1.Lat, p2.Lat, p3.Lat, t),
			Lon: catmullRom(p0.Lon, p1.Lon, p2.Lon, p3.Lon, t),
		})
	}
	out = append(out, p2)
	return out
}
