package rig

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func approx(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestStereoOffsetsSymmetry(t *testing.T) {
	for _, baseline := range []float64{0, 0.06, 0.12, 0.5, 2.0} {
		left, right, err := StereoOffsets(baseline)
		if err != nil {
			t.Fatalf("StereoOffsets(%g) failed: %v", baseline, err)
		}
		if !approx(left+right, 0, 1e-12) {
			t.Errorf("baseline %g: offsets %g and %g do not sum to zero", baseline, left, right)
		}
		if !approx(right-left, baseline, 1e-12) {
			t.Errorf("baseline %g: offset separation %g", baseline, right-left)
		}
	}
}

func TestStereoOffsetsNegativeBaseline(t *testing.T) {
	if _, _, err := StereoOffsets(-0.1); err == nil {
		t.Error("expected error for negative baseline")
	}
}

func TestFocalLengthReference(t *testing.T) {
	// 1920px at 90 deg HFOV with a 3.6um pitch: fx = 960px, f = 3.456mm.
	f, err := FocalLength(1920, 90, 3.6e-6)
	if err != nil {
		t.Fatalf("FocalLength failed: %v", err)
	}
	if !approx(f, 960*3.6e-6, 1e-9) {
		t.Errorf("focal length = %g m, want %g m", f, 960*3.6e-6)
	}
}

func TestFocalLengthMonotonic(t *testing.T) {
	// Increasing in image width.
	prev := 0.0
	for _, w := range []int{640, 1280, 1920, 3840} {
		f, err := FocalLength(w, 90, 3.6e-6)
		if err != nil {
			t.Fatalf("FocalLength(%d) failed: %v", w, err)
		}
		if f <= prev {
			t.Errorf("focal length not increasing in width: f(%d)=%g, previous %g", w, f, prev)
		}
		prev = f
	}

	// Decreasing in HFOV.
	prev = math.Inf(1)
	for _, hfov := range []float64{30, 60, 90, 120, 170} {
		f, err := FocalLength(1920, hfov, 3.6e-6)
		if err != nil {
			t.Fatalf("FocalLength(hfov=%g) failed: %v", hfov, err)
		}
		if f >= prev {
			t.Errorf("focal length not decreasing in hfov: f(%g)=%g, previous %g", hfov, f, prev)
		}
		prev = f
	}
}

func TestFocalLengthDomainErrors(t *testing.T) {
	cases := []struct {
		name  string
		width int
		hfov  float64
		pitch float64
	}{
		{"zero width", 0, 90, 3.6e-6},
		{"negative width", -10, 90, 3.6e-6},
		{"hfov zero", 1920, 0, 3.6e-6},
		{"hfov 180", 1920, 180, 3.6e-6},
		{"hfov negative", 1920, -45, 3.6e-6},
		{"zero pitch", 1920, 90, 0},
	}
	for _, tc := range cases {
		if _, err := FocalLength(tc.width, tc.hfov, tc.pitch); err == nil {
			t.Errorf("%s: expected ConfigurationError", tc.name)
		}
	}
}

func TestSensorAperture(t *testing.T) {
	h, v, err := SensorAperture(1920, 1080, 3.6e-6)
	if err != nil {
		t.Fatalf("SensorAperture failed: %v", err)
	}
	if !approx(h, 6.912, 1e-3) {
		t.Errorf("horizontal aperture = %g mm, want 6.912 mm", h)
	}
	if !approx(v, 3.888, 1e-3) {
		t.Errorf("vertical aperture = %g mm, want 3.888 mm", v)
	}
}

func TestSampleCatenary(t *testing.T) {
	points, err := SampleCatenary(6.0, 21, 1.8, 0.02)
	if err != nil {
		t.Fatalf("SampleCatenary failed: %v", err)
	}
	if len(points) != 21 {
		t.Fatalf("expected 21 points, got %d", len(points))
	}
	if !approx(points[0].X, -3.0, 1e-9) {
		t.Errorf("first point x = %g, want -3.0", points[0].X)
	}
	if !approx(points[10].X, 0, 1e-9) || !approx(points[10].Z, 1.8, 1e-9) {
		t.Errorf("midpoint = (%g, %g), want (0, 1.8)", points[10].X, points[10].Z)
	}
	if !approx(points[20].X, 3.0, 1e-9) || !approx(points[20].Z, 1.98, 1e-9) {
		t.Errorf("last point = (%g, %g), want (3.0, 1.98)", points[20].X, points[20].Z)
	}
	for i, p := range points {
		if p.Y != 0 {
			t.Errorf("point %d has y = %g, want 0", i, p.Y)
		}
	}
}

func TestSampleCatenaryTooFewPoints(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		if _, err := SampleCatenary(6.0, n, 1.8, 0.02); err == nil {
			t.Errorf("expected error for %d samples", n)
		}
	}
}

func TestExpectedDisparity(t *testing.T) {
	d1, err := ExpectedDisparity(973.1, 0.12, 1.0)
	if err != nil {
		t.Fatalf("ExpectedDisparity failed: %v", err)
	}
	if !approx(d1, 116.8, 0.1) {
		t.Errorf("disparity at 1m = %g px, want ~116.8 px", d1)
	}

	d2, err := ExpectedDisparity(973.1, 0.12, 2.0)
	if err != nil {
		t.Fatalf("ExpectedDisparity failed: %v", err)
	}
	if !approx(d2, 58.4, 0.1) {
		t.Errorf("disparity at 2m = %g px, want ~58.4 px", d2)
	}
	if !approx(d1/d2, 2.0, 1e-9) {
		t.Errorf("disparity should halve with doubled distance, ratio = %g", d1/d2)
	}

	if _, err := ExpectedDisparity(973.1, 0.12, 0); err == nil {
		t.Error("expected error for zero distance")
	}
}

func TestDisparityRange(t *testing.T) {
	min, max, err := DisparityRange(960, 0.12, 1.0, 2.0, 10, 20)
	if err != nil {
		t.Fatalf("DisparityRange failed: %v", err)
	}
	if !approx(min, 960*0.12/2.0-10, 1e-9) {
		t.Errorf("range min = %g", min)
	}
	if !approx(max, 960*0.12/1.0+20, 1e-9) {
		t.Errorf("range max = %g", max)
	}

	// A huge margin must not push the window below zero.
	min, _, err = DisparityRange(960, 0.12, 1.0, 2.0, 1e6, 0)
	if err != nil {
		t.Fatalf("DisparityRange failed: %v", err)
	}
	if min != 0 {
		t.Errorf("range min clamped to %g, want 0", min)
	}
}

func TestVerifyBaseline(t *testing.T) {
	left := r3.Vector{X: -0.06}
	right := r3.Vector{X: 0.06}
	res := VerifyBaseline(left, right, 0.12, 0)
	if !res.OK {
		t.Errorf("expected ok, got delta %g", res.DeltaM)
	}
	if !approx(res.MeasuredM, 0.12, 1e-9) {
		t.Errorf("measured baseline = %g, want 0.12", res.MeasuredM)
	}

	// A scale-corrupted rig: ancestor transform stretched the offsets.
	res = VerifyBaseline(r3.Vector{X: -0.5}, r3.Vector{X: 0.5}, 0.12, 0)
	if res.OK {
		t.Error("expected mismatch for corrupted rig")
	}
	if !approx(res.DeltaM, 0.88, 1e-9) {
		t.Errorf("delta = %g, want 0.88", res.DeltaM)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		BaselineM:   0.12,
		StandoffM:   1.5,
		ImageWidth:  1920,
		ImageHeight: 1080,
		HFOVDeg:     90,
		PixelPitchM: 3.6e-6,
		NearClipM:   0.1,
		FarClipM:    100,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	mutate := []func(*Config){
		func(c *Config) { c.BaselineM = 0 },
		func(c *Config) { c.StandoffM = -1 },
		func(c *Config) { c.ImageWidth = 0 },
		func(c *Config) { c.ImageHeight = -1080 },
		func(c *Config) { c.HFOVDeg = 180 },
		func(c *Config) { c.PixelPitchM = 0 },
		func(c *Config) { c.NearClipM = 0 },
		func(c *Config) { c.FarClipM = 0.05 },
	}
	for i, m := range mutate {
		c := valid
		m(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("mutation %d: expected validation error", i)
		}
	}
}

func TestConfigDerived(t *testing.T) {
	c := Config{
		BaselineM:   0.12,
		StandoffM:   1.5,
		ImageWidth:  1920,
		ImageHeight: 1080,
		HFOVDeg:     90,
		PixelPitchM: 3.6e-6,
		NearClipM:   0.1,
		FarClipM:    100,
	}
	mm, err := c.FocalLengthMM()
	if err != nil {
		t.Fatalf("FocalLengthMM failed: %v", err)
	}
	if !approx(mm, 3.456, 1e-6) {
		t.Errorf("focal length = %g mm, want 3.456 mm", mm)
	}
	px, err := c.FocalLengthPx()
	if err != nil {
		t.Fatalf("FocalLengthPx failed: %v", err)
	}
	if !approx(px, 960, 1e-6) {
		t.Errorf("focal length = %g px, want 960 px", px)
	}
}
