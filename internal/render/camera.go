package render

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/ivlev/stereorig/internal/scene"
)

// cameraView is a camera node resolved into world-space viewing geometry and
// pixel intrinsics.
type cameraView struct {
	position r3.Vector
	right    r3.Vector
	up       r3.Vector
	forward  r3.Vector

	fx, fy float64
	cx, cy float64

	near, far float64

	width, height int
}

// newCameraView resolves a render product against the scene graph. The
// camera prim carries physical intrinsics (focal length and apertures in
// millimeters); pixel focal lengths follow from the product resolution.
func newCameraView(g *scene.Graph, p Product) (*cameraView, error) {
	node, err := g.Require(p.CameraPath)
	if err != nil {
		return nil, err
	}
	if node.Kind != scene.KindCamera {
		return nil, errors.Errorf("prim %s is a %s, not a Camera", p.CameraPath, node.Kind)
	}
	if p.Width <= 0 || p.Height <= 0 {
		return nil, errors.Errorf("render product %s has invalid resolution %dx%d", p.CameraPath, p.Width, p.Height)
	}

	focal, ok := node.Float("focalLength")
	if !ok || focal <= 0 {
		return nil, errors.Errorf("camera %s has no focal length", p.CameraPath)
	}
	aperH, ok := node.Float("horizontalAperture")
	if !ok || aperH <= 0 {
		return nil, errors.Errorf("camera %s has no horizontal aperture", p.CameraPath)
	}
	aperV, ok := node.Float("verticalAperture")
	if !ok || aperV <= 0 {
		return nil, errors.Errorf("camera %s has no vertical aperture", p.CameraPath)
	}
	near, far, ok := node.Float2("clippingRange")
	if !ok {
		near, far = 0.01, 1e6
	}

	m, err := g.WorldTransform(p.CameraPath)
	if err != nil {
		return nil, err
	}

	// The camera looks down its local -Z with +Y up.
	return &cameraView{
		position: scene.TransformPoint(m, r3.Vector{}),
		right:    scene.TransformDirection(m, r3.Vector{X: 1}),
		up:       scene.TransformDirection(m, r3.Vector{Y: 1}),
		forward:  scene.TransformDirection(m, r3.Vector{Z: -1}),
		fx:       focal / aperH * float64(p.Width),
		fy:       focal / aperV * float64(p.Height),
		cx:       float64(p.Width) / 2,
		cy:       float64(p.Height) / 2,
		near:     near,
		far:      far,
		width:    p.Width,
		height:   p.Height,
	}, nil
}

// rayThrough returns the unnormalized world-space direction through the
// center of pixel (u, v). Its component along the view axis is exactly 1, so
// the ray parameter t equals camera-space depth.
func (v *cameraView) rayThrough(u, vpx float64) r3.Vector {
	dx := (u + 0.5 - v.cx) / v.fx
	dy := (v.cy - (vpx + 0.5)) / v.fy
	return v.right.Mul(dx).Add(v.up.Mul(dy)).Add(v.forward)
}

// project maps a world point to pixel coordinates and camera-space depth.
// Points behind the camera have depth <= 0.
func (v *cameraView) project(p r3.Vector) (u, vpx, depth float64) {
	d := p.Sub(v.position)
	depth = d.Dot(v.forward)
	if depth <= 0 {
		return 0, 0, depth
	}
	u = v.cx + v.fx*d.Dot(v.right)/depth - 0.5
	vpx = v.cy - v.fy*d.Dot(v.up)/depth - 0.5
	return u, vpx, depth
}
