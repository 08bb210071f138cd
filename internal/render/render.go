// Package render defines the capture/render service contract: render
// products bound to scene cameras, a renderer advanced one synchronous step
// at a time, and the per-channel frame outputs a dataset writer consumes. The
// synthetic renderer in this package is the repo's reference implementation
// of that contract.
package render

import (
	"context"
	"image"
)

// Product is a render-product handle: one camera's configured output stream.
type Product struct {
	CameraPath string
	Width      int
	Height     int
}

// BackgroundLabel is the semantic label index 0, assigned to pixels no
// labeled prim covers.
const BackgroundLabel = "BACKGROUND"

// Frame is the output of one render step for one product. Depth is distance
// to camera in meters, +Inf where nothing was hit. Semantic holds an index
// into Labels per pixel.
type Frame struct {
	Product  Product
	RGB      *image.RGBA
	Depth    []float32
	Semantic []uint16
	Labels   []string
}

// Renderer advances the render pipeline by exactly one step per call,
// synchronously: Step returns only after every attached product's frame is
// complete.
type Renderer interface {
	Attach(products []Product) error
	Step(ctx context.Context) ([]Frame, error)
	Close() error
}
