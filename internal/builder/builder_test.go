package builder

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"

	"github.com/ivlev/stereorig/internal/rig"
)

func testConfig() rig.Config {
	return rig.Config{
		BaselineM:   0.12,
		StandoffM:   1.5,
		ImageWidth:  1920,
		ImageHeight: 1080,
		HFOVDeg:     90,
		PixelPitchM: 3.6e-6,
		NearClipM:   0.1,
		FarClipM:    100,
	}
}

func TestBuildPrims(t *testing.T) {
	g, err := Build(testConfig(), DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, path := range []string{
		PantographPath, RigPath, LeftCameraPath, RightCameraPath,
		GroundPath, DomeLightPath, WirePath,
	} {
		if _, ok := g.Node(path); !ok {
			t.Errorf("missing prim %s", path)
		}
	}
}

func TestBuildCameraAttributes(t *testing.T) {
	g, err := Build(testConfig(), DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	for _, path := range []string{LeftCameraPath, RightCameraPath} {
		cam, err := g.Require(path)
		if err != nil {
			t.Fatalf("camera missing: %v", err)
		}
		if f, _ := cam.Float("focalLength"); math.Abs(f-3.456) > 1e-6 {
			t.Errorf("%s focal length = %g mm, want 3.456 mm", path, f)
		}
		if h, _ := cam.Float("horizontalAperture"); math.Abs(h-6.912) > 1e-3 {
			t.Errorf("%s horizontal aperture = %g mm", path, h)
		}
		if v, _ := cam.Float("verticalAperture"); math.Abs(v-3.888) > 1e-3 {
			t.Errorf("%s vertical aperture = %g mm", path, v)
		}
		near, far, ok := cam.Float2("clippingRange")
		if !ok || near != 0.1 || far != 100 {
			t.Errorf("%s clipping range = %g, %g", path, near, far)
		}
	}
}

func TestBuildStereoSymmetry(t *testing.T) {
	g, err := Build(testConfig(), DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	left, _ := g.Require(LeftCameraPath)
	right, _ := g.Require(RightCameraPath)
	lt, _ := left.Translate()
	rt, _ := right.Translate()
	if lt.X != -rt.X || lt.X >= 0 {
		t.Errorf("camera offsets not mirror-symmetric: %g vs %g", lt.X, rt.X)
	}

	lp, err := g.WorldPosition(LeftCameraPath)
	if err != nil {
		t.Fatalf("WorldPosition failed: %v", err)
	}
	rp, _ := g.WorldPosition(RightCameraPath)
	res := rig.VerifyBaseline(lp, rp, 0.12, 0)
	if !res.OK {
		t.Errorf("realized baseline = %g m, delta %g m", res.MeasuredM, res.DeltaM)
	}
	if math.Abs(lp.Y+1.5) > 1e-9 || math.Abs(lp.Z-1.5) > 1e-9 {
		t.Errorf("left camera world = %v, want y=-1.5 z=1.5", lp)
	}
}

func TestBuildWire(t *testing.T) {
	g, err := Build(testConfig(), DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wire, _ := g.Require(WirePath)
	points, ok := wire.PointsAttr("points")
	if !ok || len(points) != 21 {
		t.Fatalf("wire points = %d, want 21", len(points))
	}
	if math.Abs(points[10].Z-1.8) > 1e-9 {
		t.Errorf("wire midpoint z = %g, want 1.8", points[10].Z)
	}
	widths, ok := wire.FloatArray("widths")
	if !ok || len(widths) != 21 {
		t.Fatalf("wire widths = %d, want 21", len(widths))
	}
	for _, w := range widths {
		if w != 0.012 {
			t.Errorf("wire width = %g, want 0.012", w)
		}
	}
	if basis, _ := wire.Token("basis"); basis != "bspline" {
		t.Errorf("wire basis = %q", basis)
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.BaselineM = -1
	if _, err := Build(cfg, DefaultOptions()); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestBuildPantographPlacement(t *testing.T) {
	g, err := Build(testConfig(), DefaultOptions())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	pos, err := g.WorldPosition(PantographPath)
	if err != nil {
		t.Fatalf("WorldPosition failed: %v", err)
	}
	// Rotation is applied before the lift, so the lift stays vertical.
	if !vecApprox(pos, r3.Vector{Z: 1.5}, 1e-9) {
		t.Errorf("pantograph world = %v, want (0,0,1.5)", pos)
	}
}

func vecApprox(a, b r3.Vector, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}
