// Package preview renders a top-down schematic of the stereo rig layout.
// It is a planning aid: one glance shows whether the cameras, their fields
// of view and the pantograph line up before any frames are captured.
package preview

import (
	"image"
	"math"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/ivlev/stereorig/internal/builder"
	"github.com/ivlev/stereorig/internal/rig"
)

// Layout draws the rig seen from above: X across the track, Y toward the
// target. widthPx controls the output resolution.
func Layout(cfg rig.Config, opts builder.Options, widthPx int) (image.Image, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if widthPx < 64 {
		return nil, errors.Errorf("preview width too small: %d", widthPx)
	}

	// World window in meters, pantograph centered at the origin.
	halfX := opts.WireSpanM/2 + 0.5
	yMin := -cfg.StandoffM - 0.5
	yMax := opts.PantographExtent.Y/2 + 0.5
	scale := float64(widthPx) / (2 * halfX)
	heightPx := int(scale * (yMax - yMin))

	dc := gg.NewContext(widthPx, heightPx)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// World-to-canvas: +Y up on screen.
	toX := func(x float64) float64 { return (x + halfX) * scale }
	toY := func(y float64) float64 { return (yMax - y) * scale }

	drawGrid(dc, halfX, yMin, yMax, toX, toY)

	// Catenary wire span.
	dc.SetRGB(0.55, 0.35, 0.1)
	dc.SetLineWidth(2)
	dc.DrawLine(toX(-opts.WireSpanM/2), toY(0), toX(opts.WireSpanM/2), toY(0))
	dc.Stroke()

	// Pantograph footprint.
	dc.SetRGBA(0.75, 0.2, 0.2, 0.5)
	dc.DrawRectangle(
		toX(-opts.PantographExtent.X/2), toY(opts.PantographExtent.Y/2),
		opts.PantographExtent.X*scale, opts.PantographExtent.Y*scale)
	dc.Fill()

	left, right, err := cfg.Offsets()
	if err != nil {
		return nil, err
	}
	halfFOV := cfg.HFOVDeg * math.Pi / 360
	rayLen := cfg.StandoffM + opts.PantographExtent.Y
	for _, cam := range []struct {
		x    float64
		name string
	}{
		{left, "L"},
		{right, "R"},
	} {
		cx, cy := cam.x, -cfg.StandoffM

		// Field of view wedge.
		dc.SetRGBA(0.2, 0.4, 0.8, 0.15)
		dc.MoveTo(toX(cx), toY(cy))
		dc.LineTo(toX(cx-rayLen*math.Tan(halfFOV)), toY(cy+rayLen))
		dc.LineTo(toX(cx+rayLen*math.Tan(halfFOV)), toY(cy+rayLen))
		dc.ClosePath()
		dc.Fill()

		// Camera body and optical axis.
		dc.SetRGB(0.1, 0.1, 0.5)
		dc.DrawCircle(toX(cx), toY(cy), 5)
		dc.Fill()
		dc.SetLineWidth(1)
		dc.SetDash(4, 4)
		dc.DrawLine(toX(cx), toY(cy), toX(cx), toY(0))
		dc.Stroke()
		dc.SetDash()

		dc.DrawStringAnchored(cam.name, toX(cx), toY(cy)+16, 0.5, 0.5)
	}

	// Baseline annotation between the cameras.
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(toX(left), toY(-cfg.StandoffM)+26, toX(right), toY(-cfg.StandoffM)+26)
	dc.Stroke()

	return dc.Image(), nil
}

// SaveLayout renders the schematic and writes it as a PNG.
func SaveLayout(path string, cfg rig.Config, opts builder.Options, widthPx int) error {
	img, err := Layout(cfg, opts, widthPx)
	if err != nil {
		return err
	}
	if err := gg.SavePNG(path, img); err != nil {
		return errors.Wrapf(err, "save preview %s", path)
	}
	return nil
}

func drawGrid(dc *gg.Context, halfX, yMin, yMax float64, toX, toY func(float64) float64) {
	dc.SetRGB(0.9, 0.9, 0.9)
	dc.SetLineWidth(1)
	for x := math.Ceil(-halfX); x <= halfX; x++ {
		dc.DrawLine(toX(x), toY(yMin), toX(x), toY(yMax))
		dc.Stroke()
	}
	for y := math.Ceil(yMin); y <= yMax; y++ {
		dc.DrawLine(toX(-halfX), toY(y), toX(halfX), toY(y))
		dc.Stroke()
	}
}
