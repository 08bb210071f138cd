// Package builder assembles the pantograph stereo-capture scene: the target
// model, a symmetric stereo camera rig aimed at it, a ground plane, a dome
// light and the sagging catenary wire above the contact head.
package builder

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ivlev/stereorig/internal/rig"
	"github.com/ivlev/stereorig/internal/scene"
)

// Prim paths shared by the scene builder and the capture tooling.
const (
	PantographPath  = "/World/Pantograph"
	RigPath         = "/World/StereoCameraRig"
	LeftCameraPath  = "/World/StereoCameraRig/LeftCamera"
	RightCameraPath = "/World/StereoCameraRig/RightCamera"
	GroundPath      = "/World/Ground"
	DomeLightPath   = "/World/DomeLight"
	WirePath        = "/World/CatenaryWire"
)

// Options control the parts of the scene that are not stereo rig geometry.
type Options struct {
	// PantographReference is the external asset the pantograph prim points at.
	PantographReference string
	// PantographLiftM raises the model so the contact head sits at working
	// height.
	PantographLiftM float64
	// PantographExtent is the model's placeholder bounding size used when the
	// referenced asset is not resolvable.
	PantographExtent r3.Vector

	GroundExtentM float64
	DomeIntensity float64

	WireSpanM       float64
	WireSamples     int
	WireBaseHeightM float64
	WireSag         float64
	WireWidthM      float64
}

// DefaultOptions mirrors the reference pantograph setup: contact head at
// 1.5m, wire 0.3m above it sagging gently across a 6m span, 12mm wire.
func DefaultOptions() Options {
	return Options{
		PantographReference: "poly_converted.usd",
		PantographLiftM:     1.5,
		PantographExtent:    r3.Vector{X: 1.2, Y: 0.5, Z: 0.8},
		GroundExtentM:       10,
		DomeIntensity:       1000,
		WireSpanM:           6.0,
		WireSamples:         21,
		WireBaseHeightM:     1.8,
		WireSag:             0.02,
		WireWidthM:          0.012,
	}
}

// Build computes the rig geometry and assembles the scene graph. The two
// camera poses are always mirror-symmetric about the rig origin along its
// local X axis.
func Build(cfg rig.Config, opts Options) (*scene.Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	focalMM, err := cfg.FocalLengthMM()
	if err != nil {
		return nil, err
	}
	apertureH, apertureV, err := cfg.Aperture()
	if err != nil {
		return nil, err
	}
	leftOffset, rightOffset, err := cfg.Offsets()
	if err != nil {
		return nil, err
	}

	g := scene.New()

	// Target model: the source asset is Y-up, the stage is Z-up, so stand it
	// upright and lift the contact head to working height.
	panto, err := g.Define(PantographPath, scene.KindXform)
	if err != nil {
		return nil, err
	}
	panto.SetRotateXYZ(r3.Vector{X: 90})
	panto.SetTranslate(r3.Vector{Z: opts.PantographLiftM})
	panto.Reference = opts.PantographReference
	panto.SetPoints("extent", []r3.Vector{
		{X: -opts.PantographExtent.X / 2, Y: -opts.PantographExtent.Y / 2, Z: -opts.PantographExtent.Z / 2},
		{X: opts.PantographExtent.X / 2, Y: opts.PantographExtent.Y / 2, Z: opts.PantographExtent.Z / 2},
	})

	// Stereo rig: rotated to look toward +Y, standing off from the target at
	// contact-head height.
	rigNode, err := g.Define(RigPath, scene.KindXform)
	if err != nil {
		return nil, err
	}
	rigNode.SetRotateXYZ(r3.Vector{X: 90})
	rigNode.SetTranslate(r3.Vector{Y: -cfg.StandoffM, Z: opts.PantographLiftM})

	for _, cam := range []struct {
		path   string
		offset float64
	}{
		{LeftCameraPath, leftOffset},
		{RightCameraPath, rightOffset},
	} {
		node, err := g.Define(cam.path, scene.KindCamera)
		if err != nil {
			return nil, err
		}
		node.SetTranslate(r3.Vector{X: cam.offset})
		node.SetFloat("focalLength", focalMM)
		node.SetFloat("horizontalAperture", apertureH)
		node.SetFloat("verticalAperture", apertureV)
		node.SetFloat2("clippingRange", cfg.NearClipM, cfg.FarClipM)
	}

	// Ground plane at z=0.
	e := opts.GroundExtentM
	ground, err := g.Define(GroundPath, scene.KindMesh)
	if err != nil {
		return nil, err
	}
	ground.SetPoints("points", []r3.Vector{
		{X: -e, Y: -e}, {X: e, Y: -e}, {X: e, Y: e}, {X: -e, Y: e},
	})
	ground.SetFloatArray("faceVertexCounts", []float64{4})
	ground.SetFloatArray("faceVertexIndices", []float64{0, 1, 2, 3})
	ground.SetPoints("normals", []r3.Vector{{Z: 1}})

	dome, err := g.Define(DomeLightPath, scene.KindDomeLight)
	if err != nil {
		return nil, err
	}
	dome.SetFloat("inputs:intensity", opts.DomeIntensity)

	points, err := rig.SampleCatenary(opts.WireSpanM, opts.WireSamples, opts.WireBaseHeightM, opts.WireSag)
	if err != nil {
		return nil, errors.Wrap(err, "sample catenary wire")
	}
	wire, err := g.Define(WirePath, scene.KindBasisCurves)
	if err != nil {
		return nil, err
	}
	wire.SetPoints("points", points)
	wire.SetFloatArray("curveVertexCounts", []float64{float64(len(points))})
	wire.SetToken("type", "cubic")
	wire.SetToken("basis", "bspline")
	widths := make([]float64, len(points))
	for i := range widths {
		widths[i] = opts.WireWidthM
	}
	wire.SetFloatArray("widths", widths)

	return g, nil
}
