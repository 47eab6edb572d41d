package track

import (
	"log"

	"hoardermap/internal/geo"
)

// Sample is one observation of the tracked object, historical or live.
type Sample struct {
	At  Instant
	Pos geo.Point
	Aux AuxState
}

// Track is one device's flattened, chronologically-ordered history.
// Lines holds the per-line-string polylines that survived validation, in
// source order, for rendering the permanent track.
type Track struct {
	Samples []Sample
	Lines   [][]geo.Point
}

// Last returns the chronologically-last sample, used to seed the live
// buffer and the last-known instant.
func (t *Track) Last() (Sample, bool) {
	if t == nil || len(t.Samples) == 0 {
		return Sample{}, false
	}
	return t.Samples[len(t.Samples)-1], true
}

// Load flattens a persisted FeatureCollection into an ordered Track and
// builds the time-indexed state store keyed by each vertex's canonical
// instant text.
//
// A line-string whose coordinate, time, and state arrays disagree in
// length is malformed: it contributes no points, but does not abort the
// rest of the track. Vertices with unparseable timestamps or short
// coordinate tuples are skipped individually.
func Load(fc *FeatureCollection) (*Track, *StateStore) {
	trk := &Track{}
	store := NewStateStore()
	if fc == nil {
		return trk, store
	}
	for i, f := range fc.Features {
		coords := f.Geometry.Coordinates
		times := f.Properties.Time
		states := f.Properties.States
		if len(times) != len(coords) || (len(states) > 0 && len(states) != len(coords)) {
			log.Printf("track: skipping malformed line-string %d: %d coords, %d times, %d states",
				i, len(coords), len(times), len(states))
			continue
		}
		var line []geo.Point
		for j, c := range coords {
			if len(c) < 2 {
				continue
			}
			at, ok := ParseInstant(times[j])
			if !ok {
				continue
			}
			var aux AuxState
			if j < len(states) {
				aux = states[j]
			}
			pos := geo.Point{Lat: c[1], Lon: c[0]}
			trk.Samples = append(trk.Samples, Sample{At: at, Pos: pos, Aux: aux})
			line = append(line, pos)
			store.Add(at, aux)
		}
		if len(line) > 0 {
			trk.Lines = append(trk.Lines, line)
		}
	}
	return trk, store
}
