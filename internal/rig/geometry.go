// Package rig computes stereo camera rig geometry: intrinsics derived from a
// desired field of view, symmetric baseline placement, catenary wire sampling
// and expected-disparity guidance. All functions are pure; applying the
// results to a scene graph is the caller's job.
package rig

import (
	"math"

	"github.com/golang/geo/r3"
)

const metersToMM = 1000.0

// FocalLength computes the physical focal length in meters for a sensor of
// widthPx pixels with the given pixel pitch, so that the horizontal field of
// view equals hfovDeg.
func FocalLength(widthPx int, hfovDeg, pitchM float64) (float64, error) {
	if widthPx <= 0 {
		return 0, configErr("image_width", float64(widthPx), "must be positive")
	}
	if hfovDeg <= 0 || hfovDeg >= 180 {
		return 0, configErr("hfov_deg", hfovDeg, "must be in (0, 180)")
	}
	if pitchM <= 0 {
		return 0, configErr("pixel_pitch", pitchM, "must be positive")
	}
	halfAngle := hfovDeg / 2 * math.Pi / 180
	focalPx := float64(widthPx) / 2 / math.Tan(halfAngle)
	return focalPx * pitchM, nil
}

// StereoOffsets returns the left and right camera offsets along the baseline
// axis, mirror-symmetric about the rig origin. A zero baseline is degenerate
// but legal: both cameras coincide.
func StereoOffsets(baselineM float64) (left, right float64, err error) {
	if baselineM < 0 {
		return 0, 0, configErr("baseline", baselineM, "must be non-negative")
	}
	return -baselineM / 2, baselineM / 2, nil
}

// SensorAperture returns the physical sensor dimensions in millimeters for
// the given image resolution and pixel pitch.
func SensorAperture(widthPx, heightPx int, pitchM float64) (hMM, vMM float64, err error) {
	if widthPx <= 0 {
		return 0, 0, configErr("image_width", float64(widthPx), "must be positive")
	}
	if heightPx <= 0 {
		return 0, 0, configErr("image_height", float64(heightPx), "must be positive")
	}
	if pitchM <= 0 {
		return 0, 0, configErr("pixel_pitch", pitchM, "must be positive")
	}
	return float64(widthPx) * pitchM * metersToMM, float64(heightPx) * pitchM * metersToMM, nil
}

// SampleCatenary samples a sagging wire across a horizontal span centered on
// x=0. The sag is the parabolic approximation of a catenary: points follow
// z = baseHeightM + sag*x^2 with y fixed at 0. At least two samples are
// required for a curve.
func SampleCatenary(spanM float64, numPoints int, baseHeightM, sag float64) ([]r3.Vector, error) {
	if numPoints < 2 {
		return nil, configErr("num_points", float64(numPoints), "a curve needs at least two samples")
	}
	if spanM <= 0 {
		return nil, configErr("span", spanM, "must be positive")
	}
	points := make([]r3.Vector, numPoints)
	step := spanM / float64(numPoints-1)
	for i := range points {
		x := -spanM/2 + float64(i)*step
		points[i] = r3.Vector{X: x, Y: 0, Z: baseHeightM + sag*x*x}
	}
	return points, nil
}

// ExpectedDisparity returns the horizontal pixel disparity of a point at the
// given distance for a rig with the given focal length (in pixels) and
// baseline. Used for operator guidance when tuning a stereo matcher.
func ExpectedDisparity(focalPx, baselineM, distanceM float64) (float64, error) {
	if distanceM <= 0 {
		return 0, configErr("distance", distanceM, "must be positive")
	}
	if focalPx <= 0 {
		return 0, configErr("focal_px", focalPx, "must be positive")
	}
	if baselineM < 0 {
		return 0, configErr("baseline", baselineM, "must be non-negative")
	}
	return focalPx * baselineM / distanceM, nil
}

// DisparityRange returns the [min, max] disparity window covering the working
// depth range [nearM, farM], widened by caller-supplied pixel margins. The
// margins are an operator tuning knob, not a derived quantity.
func DisparityRange(focalPx, baselineM, nearM, farM, marginLow, marginHigh float64) (min, max float64, err error) {
	if farM < nearM {
		return 0, 0, configErr("far", farM, "working range far must be >= near")
	}
	dFar, err := ExpectedDisparity(focalPx, baselineM, farM)
	if err != nil {
		return 0, 0, err
	}
	dNear, err := ExpectedDisparity(focalPx, baselineM, nearM)
	if err != nil {
		return 0, 0, err
	}
	min = dFar - marginLow
	if min < 0 {
		min = 0
	}
	return min, dNear + marginHigh, nil
}
