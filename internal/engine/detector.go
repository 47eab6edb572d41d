// Package engine implements the live-trajectory reconstruction engine:
// anomaly classification, the sliding interpolation buffer, the aging
// trail of live segments, and the polling session that orchestrates them.
package engine

import (
	"hoardermap/internal/geo"
	"hoardermap/internal/track"
)

// Classification is the outcome of screening a candidate sample.
type Classification int

const (
	// ClassAccept means the candidate is plausible and enters the buffer.
	ClassAccept Classification = iota
	// ClassJump means the candidate is physically implausible given the
	// elapsed time and distance from the last accepted sample. A jump
	// resets live state; the candidate then reseeds the buffer.
	ClassJump
)

func (c Classification) String() string {
	if c == ClassJump {
		return "jump"
	}
	return "accept"
}

// AnomalyDetector classifies candidate samples by implied speed.
type AnomalyDetector struct {
	// MaxSpeedMPS is the implied-speed threshold above which a candidate
	// is a jump.
	MaxSpeedMPS float64

	// MinGapSeconds is the elapsed time at or below which the speed check
	// is skipped. Near-simultaneous samples would otherwise blow up the
	// division.
	MinGapSeconds float64
}

// Classify screens candidate against the previous accepted sample. With
// no previous sample every candidate is accepted.
func (d AnomalyDetector) Classify(prev track.Sample, havePrev bool, candidate track.Sample) Classification {
	if !havePrev {
		return ClassAccept
	}
	elapsed := candidate.At.Sub(prev.At).Seconds()
	if elapsed <= d.MinGapSeconds {
		return ClassAccept
	}
	if geo.ImpliedSpeedMPS(prev.Pos, candidate.Pos, elapsed) > d.MaxSpeedMPS {
		return ClassJump
	}
	return ClassAccept
}
