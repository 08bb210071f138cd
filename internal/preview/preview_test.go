package preview

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ivlev/stereorig/internal/builder"
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

func TestLayoutDimensions(t *testing.T) {
	img, err := Layout(testConfig(), builder.DefaultOptions(), 700)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 700 {
		t.Errorf("width = %d, want 700", b.Dx())
	}
	if b.Dy() <= 0 {
		t.Errorf("height = %d, want positive", b.Dy())
	}
	// The canvas must not come back blank.
	blank := true
	white := color.RGBA{255, 255, 255, 255}
	for y := b.Min.Y; y < b.Max.Y && blank; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if (color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(bl >> 8), 255}) != white {
				blank = false
				break
			}
		}
	}
	if blank {
		t.Error("layout image is entirely white")
	}
}

func TestLayoutMarksCameraPositions(t *testing.T) {
	cfg := testConfig()
	opts := builder.DefaultOptions()
	img, err := Layout(cfg, opts, 700)
	if err != nil {
		t.Fatalf("layout: %v", err)
	}

	// Reconstruct the world-to-canvas mapping: 7m window across 700px.
	halfX := opts.WireSpanM/2 + 0.5
	scale := 700 / (2 * halfX)
	yMax := opts.PantographExtent.Y/2 + 0.5
	for _, camX := range []float64{-cfg.BaselineM / 2, cfg.BaselineM / 2} {
		px := int((camX + halfX) * scale)
		py := int((yMax + cfg.StandoffM) * scale)
		r, _, b, _ := img.At(px, py).RGBA()
		if b <= r {
			t.Errorf("no camera marker at canvas (%d, %d) for offset %v", px, py, camX)
		}
	}
}

func TestLayoutRejectsBadInput(t *testing.T) {
	cfg := testConfig()
	cfg.BaselineM = -1
	if _, err := Layout(cfg, builder.DefaultOptions(), 700); err == nil {
		t.Error("expected error for invalid rig config")
	}
	if _, err := Layout(testConfig(), builder.DefaultOptions(), 8); err == nil {
		t.Error("expected error for tiny canvas")
	}
}

func TestSaveLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.png")
	if err := SaveLayout(path, testConfig(), builder.DefaultOptions(), 640); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Error("preview file is empty")
	}
}
