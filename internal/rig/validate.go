package rig

import "github.com/golang/geo/r3"

// DefaultTolerance is the baseline tolerance used when the caller has no
// stricter requirement.
const DefaultTolerance = 1e-3

// Alignment reports how the realized stereo baseline compares to the
// configured one. A mismatch is an expected, recoverable condition (an
// ancestor transform can scale or rotate the rig), so it is returned as data
// rather than an error; the correction policy is the caller's decision.
type Alignment struct {
	OK        bool
	MeasuredM float64
	DeltaM    float64
}

// VerifyBaseline measures the distance between the two camera world positions
// and compares it to the configured baseline within tolM. A non-positive tolM
// falls back to DefaultTolerance.
func VerifyBaseline(leftWorld, rightWorld r3.Vector, expectedM, tolM float64) Alignment {
	if tolM <= 0 {
		tolM = DefaultTolerance
	}
	measured := rightWorld.Sub(leftWorld).Norm()
	delta := measured - expectedM
	if delta < 0 {
		delta = -delta
	}
	return Alignment{
		OK:        delta <= tolM,
		MeasuredM: measured,
		DeltaM:    delta,
	}
}
