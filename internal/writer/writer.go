// Package writer persists capture frames to a dataset directory: color as
// PNG, distance-to-camera as PFM float maps, semantic segmentation as
// palette-colored PNG plus a label table, and a manifest describing the
// session. Writers are obtained from a registry by name, configured with an
// output directory and a set of enabled channels, then attached to render
// products.
package writer

import (
	"github.com/pkg/errors"

	"github.com/ivlev/stereorig/internal/render"
)

// Channels selects which ground-truth outputs a writer produces.
type Channels struct {
	RGB                  bool
	DistanceToCamera     bool
	SemanticSegmentation bool
}

// AllChannels enables every output.
func AllChannels() Channels {
	return Channels{RGB: true, DistanceToCamera: true, SemanticSegmentation: true}
}

func (c Channels) names() []string {
	var out []string
	if c.RGB {
		out = append(out, "rgb")
	}
	if c.DistanceToCamera {
		out = append(out, "distance_to_camera")
	}
	if c.SemanticSegmentation {
		out = append(out, "semantic_segmentation")
	}
	return out
}

// Options tune writer behavior beyond channel selection.
type Options struct {
	// PreviewWidth, when positive, also writes downscaled previews of the
	// color and segmentation outputs.
	PreviewWidth int
}

// Writer is a dataset writer: initialized once, attached to render products,
// fed one frame set per capture step, and closed to flush the manifest.
type Writer interface {
	Initialize(outputDir string, ch Channels, opts Options) error
	Attach(products []render.Product) error
	Write(frameIndex int, frames []render.Frame) error
	Close() error
}

// Registry resolves writer implementations by name.
type Registry struct {
	factories map[string]func() Writer
}

// NewRegistry returns a registry with the built-in writers registered.
func NewRegistry() *Registry {
	r := &Registry{factories: map[string]func() Writer{}}
	r.Register(BasicWriterName, func() Writer { return &Basic{} })
	return r
}

// Register adds a writer factory under a name, overwriting any previous one.
func (r *Registry) Register(name string, factory func() Writer) {
	r.factories[name] = factory
}

// Get returns a fresh, uninitialized writer instance.
func (r *Registry) Get(name string) (Writer, error) {
	factory, ok := r.factories[name]
	if !ok {
		return nil, errors.Errorf("no writer registered under %q", name)
	}
	return factory(), nil
}
