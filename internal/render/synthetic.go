package render

import (
	"context"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ivlev/stereorig/internal/scene"
)

// Synthetic renders the scene graph with a pinhole camera model: bounded
// planes and reference placeholders are ray-cast per pixel, curve prims are
// projected and rasterized as thick polylines. Color, depth and semantic
// output always agree pixel for pixel, which is what a stereo matcher's
// ground truth requires.
type Synthetic struct {
	graph    *scene.Graph
	products []Product
	pool     *framePool
	logger   *zap.Logger
}

// NewSynthetic creates a renderer over the given scene.
func NewSynthetic(g *scene.Graph, logger *zap.Logger) *Synthetic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthetic{graph: g, pool: newFramePool(), logger: logger}
}

// Attach binds render products to their cameras, failing early if any camera
// prim is missing or incomplete.
func (s *Synthetic) Attach(products []Product) error {
	for _, p := range products {
		if _, err := newCameraView(s.graph, p); err != nil {
			return errors.Wrapf(err, "attach render product %s", p.CameraPath)
		}
	}
	s.products = append(s.products, products...)
	return nil
}

// Step renders one frame per attached product and returns when all are
// complete. Products render concurrently; camera poses are re-read from the
// graph every step so transform edits between steps take effect.
func (s *Synthetic) Step(ctx context.Context) ([]Frame, error) {
	if len(s.products) == 0 {
		return nil, errors.New("no render products attached")
	}
	start := time.Now()

	world, err := buildWorld(s.graph)
	if err != nil {
		return nil, err
	}

	frames := make([]Frame, len(s.products))
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range s.products {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			view, err := newCameraView(s.graph, p)
			if err != nil {
				return err
			}
			frames[i] = s.renderFrame(view, p, world)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("render step complete",
		zap.Int("products", len(s.products)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return frames, nil
}

// Release returns frame buffers to the renderer's pool. Optional: callers
// that skip it just allocate fresh buffers next step.
func (s *Synthetic) Release(frames []Frame) {
	for _, f := range frames {
		s.pool.put(f)
	}
}

// Close releases the renderer. The synthetic renderer holds no external
// resources, so this only drops the attached products.
func (s *Synthetic) Close() error {
	s.products = nil
	return nil
}

var (
	skyColor   = color.RGBA{R: 135, G: 206, B: 235, A: 255}
	planeColor = color.RGBA{R: 110, G: 110, B: 110, A: 255}
	boxColor   = color.RGBA{R: 178, G: 96, B: 44, A: 255}
	curveColor = color.RGBA{R: 32, G: 32, B: 32, A: 255}
)

// worldScene is the graph flattened into world-space renderable objects.
type worldScene struct {
	planes    []boundedPlane
	boxes     []aabb
	polylines []polyline
	labels    []string
}

type boundedPlane struct {
	z                      float64
	minX, maxX, minY, maxY float64
	label                  uint16
}

type aabb struct {
	min, max r3.Vector
	label    uint16
}

type polyline struct {
	points    []r3.Vector
	halfWidth float64
	label     uint16
}

func buildWorld(g *scene.Graph) (*worldScene, error) {
	w := &worldScene{labels: []string{BackgroundLabel}}

	labelIndex := func(n *scene.Node) uint16 {
		cls, ok := n.SemanticClass()
		if !ok {
			return 0
		}
		for i, l := range w.labels {
			if l == cls {
				return uint16(i)
			}
		}
		w.labels = append(w.labels, cls)
		return uint16(len(w.labels) - 1)
	}

	for _, n := range g.Nodes() {
		switch {
		case n.Kind == scene.KindMesh:
			points, ok := n.PointsAttr("points")
			if !ok || len(points) < 3 {
				continue
			}
			m, err := g.WorldTransform(n.Path)
			if err != nil {
				return nil, err
			}
			pl := boundedPlane{
				minX: math.Inf(1), maxX: math.Inf(-1),
				minY: math.Inf(1), maxY: math.Inf(-1),
				label: labelIndex(n),
			}
			for _, p := range points {
				wp := scene.TransformPoint(m, p)
				pl.minX = math.Min(pl.minX, wp.X)
				pl.maxX = math.Max(pl.maxX, wp.X)
				pl.minY = math.Min(pl.minY, wp.Y)
				pl.maxY = math.Max(pl.maxY, wp.Y)
				pl.z = wp.Z
			}
			w.planes = append(w.planes, pl)

		case n.Reference != "":
			// Referenced assets are not resolvable here; stand in a bounding
			// box so the target still occludes, colors and labels correctly.
			extent, ok := n.PointsAttr("extent")
			if !ok || len(extent) != 2 {
				continue
			}
			m, err := g.WorldTransform(n.Path)
			if err != nil {
				return nil, err
			}
			box := aabb{
				min:   r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
				max:   r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
				label: labelIndex(n),
			}
			for _, cx := range []float64{extent[0].X, extent[1].X} {
				for _, cy := range []float64{extent[0].Y, extent[1].Y} {
					for _, cz := range []float64{extent[0].Z, extent[1].Z} {
						wp := scene.TransformPoint(m, r3.Vector{X: cx, Y: cy, Z: cz})
						box.min.X = math.Min(box.min.X, wp.X)
						box.min.Y = math.Min(box.min.Y, wp.Y)
						box.min.Z = math.Min(box.min.Z, wp.Z)
						box.max.X = math.Max(box.max.X, wp.X)
						box.max.Y = math.Max(box.max.Y, wp.Y)
						box.max.Z = math.Max(box.max.Z, wp.Z)
					}
				}
			}
			w.boxes = append(w.boxes, box)

		case n.Kind == scene.KindBasisCurves:
			points, ok := n.PointsAttr("points")
			if !ok || len(points) < 2 {
				continue
			}
			m, err := g.WorldTransform(n.Path)
			if err != nil {
				return nil, err
			}
			line := polyline{
				points:    make([]r3.Vector, len(points)),
				halfWidth: 0.005,
				label:     labelIndex(n),
			}
			for i, p := range points {
				line.points[i] = scene.TransformPoint(m, p)
			}
			if widths, ok := n.FloatArray("widths"); ok && len(widths) > 0 {
				line.halfWidth = widths[0] / 2
			}
			w.polylines = append(w.polylines, line)
		}
	}
	return w, nil
}

func (s *Synthetic) renderFrame(view *cameraView, p Product, world *worldScene) Frame {
	w, h := view.width, view.height
	img := s.pool.getRGBA(image.Rect(0, 0, w, h))
	depth := s.pool.getDepth(w * h)
	semantic := s.pool.getSemantic(w * h)

	inf := float32(math.Inf(1))
	for i := range depth {
		depth[i] = inf
		semantic[i] = 0
	}

	// Ray-cast pass: planes and boxes.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			ray := view.rayThrough(float64(x), float64(y))
			rayLen := ray.Norm()

			bestT := math.Inf(1)
			var bestLabel uint16
			bestColor := skyColor

			for _, pl := range world.planes {
				if ray.Z == 0 {
					continue
				}
				t := (pl.z - view.position.Z) / ray.Z
				if t < view.near || t > view.far || t >= bestT {
					continue
				}
				hit := view.position.Add(ray.Mul(t))
				if hit.X < pl.minX || hit.X > pl.maxX || hit.Y < pl.minY || hit.Y > pl.maxY {
					continue
				}
				bestT, bestLabel, bestColor = t, pl.label, planeColor
			}

			for _, box := range world.boxes {
				t, ok := intersectAABB(view.position, ray, box)
				if !ok || t < view.near || t > view.far || t >= bestT {
					continue
				}
				bestT, bestLabel, bestColor = t, box.label, boxColor
			}

			idx := y*w + x
			if math.IsInf(bestT, 1) {
				img.SetRGBA(x, y, skyColor)
				continue
			}
			img.SetRGBA(x, y, bestColor)
			depth[idx] = float32(bestT * rayLen)
			semantic[idx] = bestLabel
		}
	}

	// Projection pass: thick polylines with per-pixel depth test.
	for _, line := range world.polylines {
		s.rasterizePolyline(view, line, img, depth, semantic)
	}

	return Frame{
		Product:  p,
		RGB:      img,
		Depth:    depth,
		Semantic: semantic,
		Labels:   world.labels,
	}
}

// intersectAABB is the slab test; the ray parameter equals camera-space
// depth because rayThrough directions have unit extent along the view axis.
func intersectAABB(origin, ray r3.Vector, box aabb) (float64, bool) {
	tMin, tMax := math.Inf(-1), math.Inf(1)
	for _, axis := range []struct{ o, d, lo, hi float64 }{
		{origin.X, ray.X, box.min.X, box.max.X},
		{origin.Y, ray.Y, box.min.Y, box.max.Y},
		{origin.Z, ray.Z, box.min.Z, box.max.Z},
	} {
		if axis.d == 0 {
			if axis.o < axis.lo || axis.o > axis.hi {
				return 0, false
			}
			continue
		}
		t0 := (axis.lo - axis.o) / axis.d
		t1 := (axis.hi - axis.o) / axis.d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		tMin = tMax
	}
	return tMin, true
}

func (s *Synthetic) rasterizePolyline(view *cameraView, line polyline, img *image.RGBA, depth []float32, semantic []uint16) {
	w, h := view.width, view.height
	for i := 0; i+1 < len(line.points); i++ {
		p0, p1 := line.points[i], line.points[i+1]
		u0, v0, d0 := view.project(p0)
		u1, v1, d1 := view.project(p1)
		if d0 <= view.near || d1 <= view.near {
			continue
		}

		steps := int(math.Max(math.Abs(u1-u0), math.Abs(v1-v0))) + 1
		if steps > 4*w {
			steps = 4 * w
		}
		for sIdx := 0; sIdx <= steps; sIdx++ {
			f := float64(sIdx) / float64(steps)
			pw := p0.Add(p1.Sub(p0).Mul(f))
			u, v, d := view.project(pw)
			if d <= view.near || d > view.far {
				continue
			}
			dist := pw.Sub(view.position).Norm()
			radius := line.halfWidth * view.fx / d
			if radius < 0.5 {
				radius = 0.5
			}
			r := int(math.Ceil(radius))
			cxp, cyp := int(math.Round(u)), int(math.Round(v))
			for py := cyp - r; py <= cyp+r; py++ {
				for px := cxp - r; px <= cxp+r; px++ {
					if px < 0 || px >= w || py < 0 || py >= h {
						continue
					}
					dx, dy := float64(px)-u, float64(py)-v
					if dx*dx+dy*dy > radius*radius {
						continue
					}
					idx := py*w + px
					if float32(dist) >= depth[idx] {
						continue
					}
					depth[idx] = float32(dist)
					semantic[idx] = line.label
					img.SetRGBA(px, py, curveColor)
				}
			}
		}
	}
}
