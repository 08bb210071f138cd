package writer

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/stereorig/internal/render"
)

// BasicWriterName is the registry name of the built-in dataset writer.
const BasicWriterName = "basic"

// Basic writes one subdirectory per render product, one file per channel per
// frame, and a session manifest on Close.
type Basic struct {
	outputDir string
	channels  Channels
	opts      Options
	products  []render.Product
	sessionID string
	started   time.Time
	frames    int
	labels    []string

	initialized bool
	closed      bool
}

// Initialize configures the output directory and enabled channels. It must
// be called exactly once, before Attach.
func (b *Basic) Initialize(outputDir string, ch Channels, opts Options) error {
	if b.initialized {
		return errors.New("writer already initialized")
	}
	if outputDir == "" {
		return errors.New("writer output directory is empty")
	}
	if len(ch.names()) == 0 {
		return errors.New("no writer channels enabled")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return errors.Wrapf(err, "create output directory %s", outputDir)
	}
	b.outputDir = outputDir
	b.channels = ch
	b.opts = opts
	b.sessionID = uuid.NewString()
	b.started = time.Now().UTC()
	b.initialized = true
	return nil
}

// Attach registers the render products this writer will receive frames for
// and creates their subdirectories.
func (b *Basic) Attach(products []render.Product) error {
	if !b.initialized {
		return errors.New("writer not initialized")
	}
	for _, p := range products {
		dir := filepath.Join(b.outputDir, productName(p))
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrapf(err, "create product directory %s", dir)
		}
		if b.opts.PreviewWidth > 0 {
			if err := os.MkdirAll(filepath.Join(dir, "preview"), 0755); err != nil {
				return errors.Wrap(err, "create preview directory")
			}
		}
	}
	b.products = append(b.products, products...)
	return nil
}

// Write persists one capture step's frames.
func (b *Basic) Write(frameIndex int, frames []render.Frame) error {
	if !b.initialized {
		return errors.New("writer not initialized")
	}
	if b.closed {
		return errors.New("writer is closed")
	}
	for _, f := range frames {
		if err := b.writeFrame(frameIndex, f); err != nil {
			return err
		}
		if len(f.Labels) > len(b.labels) {
			b.labels = append([]string(nil), f.Labels...)
		}
	}
	b.frames++
	return nil
}

func (b *Basic) writeFrame(frameIndex int, f render.Frame) error {
	dir := filepath.Join(b.outputDir, productName(f.Product))

	if b.channels.RGB {
		name := filepath.Join(dir, fmt.Sprintf("rgb_%04d.png", frameIndex))
		if err := writePNG(name, f.RGB); err != nil {
			return err
		}
		if b.opts.PreviewWidth > 0 {
			preview := imaging.Resize(f.RGB, b.opts.PreviewWidth, 0, imaging.Lanczos)
			name := filepath.Join(dir, "preview", fmt.Sprintf("rgb_%04d.png", frameIndex))
			if err := writePNG(name, preview); err != nil {
				return err
			}
		}
	}

	if b.channels.DistanceToCamera {
		name := filepath.Join(dir, fmt.Sprintf("distance_to_camera_%04d.pfm", frameIndex))
		file, err := os.Create(name)
		if err != nil {
			return errors.Wrapf(err, "create %s", name)
		}
		err = EncodePFM(file, f.Product.Width, f.Product.Height, f.Depth)
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return errors.Wrapf(err, "write %s", name)
		}
	}

	if b.channels.SemanticSegmentation {
		seg := semanticImage(f)
		name := filepath.Join(dir, fmt.Sprintf("semantic_segmentation_%04d.png", frameIndex))
		if err := writePNG(name, seg); err != nil {
			return err
		}
		if b.opts.PreviewWidth > 0 {
			// Label images must never be interpolated; scale nearest-neighbor.
			h := b.opts.PreviewWidth * f.Product.Height / f.Product.Width
			preview := image.NewRGBA(image.Rect(0, 0, b.opts.PreviewWidth, h))
			xdraw.NearestNeighbor.Scale(preview, preview.Bounds(), seg, seg.Bounds(), xdraw.Src, nil)
			name := filepath.Join(dir, "preview", fmt.Sprintf("semantic_segmentation_%04d.png", frameIndex))
			if err := writePNG(name, preview); err != nil {
				return err
			}
		}
	}

	return nil
}

// Close flushes the label table and session manifest. Closing twice is a
// no-op.
func (b *Basic) Close() error {
	if !b.initialized || b.closed {
		return nil
	}
	b.closed = true

	labels := map[string]labelEntry{}
	for i, l := range b.labels {
		c := SemanticColor(uint16(i))
		labels[l] = labelEntry{
			Index: i,
			Color: [3]uint8{c.R, c.G, c.B},
		}
	}
	data, err := yaml.Marshal(labels)
	if err != nil {
		return errors.Wrap(err, "marshal label table")
	}
	if err := os.WriteFile(filepath.Join(b.outputDir, "semantic_labels.yaml"), data, 0644); err != nil {
		return errors.Wrap(err, "write label table")
	}

	m := manifest{
		SessionID: b.sessionID,
		Writer:    BasicWriterName,
		Started:   b.started.Format(time.RFC3339),
		Frames:    b.frames,
		Channels:  b.channels.names(),
	}
	for _, p := range b.products {
		m.Products = append(m.Products, manifestProduct{
			Name:   productName(p),
			Camera: p.CameraPath,
			Width:  p.Width,
			Height: p.Height,
		})
	}
	data, err = yaml.Marshal(&m)
	if err != nil {
		return errors.Wrap(err, "marshal manifest")
	}
	if err := os.WriteFile(filepath.Join(b.outputDir, "manifest.yaml"), data, 0644); err != nil {
		return errors.Wrap(err, "write manifest")
	}
	return nil
}

type labelEntry struct {
	Index int      `yaml:"index"`
	Color [3]uint8 `yaml:"color,flow"`
}

type manifest struct {
	SessionID string            `yaml:"session_id"`
	Writer    string            `yaml:"writer"`
	Started   string            `yaml:"started"`
	Frames    int               `yaml:"frames"`
	Channels  []string          `yaml:"channels"`
	Products  []manifestProduct `yaml:"products"`
}

type manifestProduct struct {
	Name   string `yaml:"name"`
	Camera string `yaml:"camera"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

func productName(p render.Product) string {
	return path.Base(p.CameraPath)
}

func semanticImage(f render.Frame) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Product.Width, f.Product.Height))
	for y := 0; y < f.Product.Height; y++ {
		for x := 0; x < f.Product.Width; x++ {
			img.SetRGBA(x, y, SemanticColor(f.Semantic[y*f.Product.Width+x]))
		}
	}
	return img
}

func writePNG(name string, img image.Image) error {
	file, err := os.Create(name)
	if err != nil {
		return errors.Wrapf(err, "create %s", name)
	}
	err = png.Encode(file, img)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, "encode %s", name)
	}
	return nil
}
