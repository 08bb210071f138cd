package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/ivlev/stereorig/internal/builder"
	"github.com/ivlev/stereorig/internal/config"
	"github.com/ivlev/stereorig/internal/logging"
	"github.com/ivlev/stereorig/internal/preview"
	"github.com/ivlev/stereorig/internal/rig"
	"github.com/ivlev/stereorig/internal/system"
)

func main() {
	def := config.Default()

	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	scenePath := flag.String("scene", def.ScenePath, "Output path for the scene file")
	baseline := flag.Float64("baseline", def.Rig.BaselineM, "Stereo baseline in meters")
	standoff := flag.Float64("standoff", def.Rig.StandoffM, "Camera standoff distance in meters")
	width := flag.Int("width", def.Rig.ImageWidth, "Image width in pixels")
	height := flag.Int("height", def.Rig.ImageHeight, "Image height in pixels")
	hfov := flag.Float64("hfov", def.Rig.HFOVDeg, "Horizontal field of view in degrees")
	pantograph := flag.String("pantograph", builder.DefaultOptions().PantographReference,
		"Asset reference for the pantograph model")
	previewPath := flag.String("preview", "", "Write a top-down layout schematic PNG to this path")
	rangeNear := flag.Float64("range-near", 1.0, "Near edge of the stereo working range in meters")
	rangeFar := flag.Float64("range-far", 2.0, "Far edge of the stereo working range in meters")
	marginLow := flag.Float64("disparity-margin-low", 8, "Pixels subtracted below the far disparity")
	marginHigh := flag.Float64("disparity-margin-high", 16, "Pixels added above the near disparity")
	dev := flag.Bool("dev", def.Dev, "Verbose development logging")
	logFile := flag.String("log-file", def.LogFile, "Tee logs into this file (rotated)")
	flag.Parse()

	app, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := config.ApplyEnv(&app); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	// Explicit flags win over file and environment.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "scene":
			app.ScenePath = *scenePath
		case "baseline":
			app.Rig.BaselineM = *baseline
		case "standoff":
			app.Rig.StandoffM = *standoff
		case "width":
			app.Rig.ImageWidth = *width
		case "height":
			app.Rig.ImageHeight = *height
		case "hfov":
			app.Rig.HFOVDeg = *hfov
		case "dev":
			app.Dev = *dev
		case "log-file":
			app.LogFile = *logFile
		}
	})

	logger := logging.New(app.Dev, app.LogFile)
	defer logger.Sync()
	system.InitResourceLimits(logger)

	if err := app.Rig.Validate(); err != nil {
		logger.Fatal("invalid rig configuration", zap.Error(err))
	}

	opts := builder.DefaultOptions()
	opts.PantographReference = *pantograph
	opts.WireSpanM = app.Wire.SpanM
	opts.WireSamples = app.Wire.Samples
	opts.WireBaseHeightM = app.Wire.BaseHeightM
	opts.WireSag = app.Wire.Sag
	opts.WireWidthM = app.Wire.WidthM

	g, err := builder.Build(app.Rig, opts)
	if err != nil {
		logger.Fatal("scene assembly failed", zap.Error(err))
	}
	if err := g.Export(app.ScenePath); err != nil {
		logger.Fatal("scene export failed", zap.Error(err))
	}
	logger.Info("scene written",
		zap.String("path", app.ScenePath),
		zap.Int("prims", len(g.Nodes())))

	if *previewPath != "" {
		if err := preview.SaveLayout(*previewPath, app.Rig, opts, 800); err != nil {
			logger.Fatal("layout preview failed", zap.Error(err))
		}
		logger.Info("layout preview written", zap.String("path", *previewPath))
	}

	if err := printMatcherSettings(app.Rig, *rangeNear, *rangeFar, *marginLow, *marginHigh); err != nil {
		logger.Fatal("matcher guidance failed", zap.Error(err))
	}
}

// printMatcherSettings prints the numbers an operator needs when tuning a
// block matcher against footage from this rig.
func printMatcherSettings(cfg rig.Config, nearM, farM, marginLow, marginHigh float64) error {
	focalMM, err := cfg.FocalLengthMM()
	if err != nil {
		return err
	}
	focalPx, err := cfg.FocalLengthPx()
	if err != nil {
		return err
	}
	aperH, aperV, err := cfg.Aperture()
	if err != nil {
		return err
	}
	dStandoff, err := rig.ExpectedDisparity(focalPx, cfg.BaselineM, cfg.StandoffM)
	if err != nil {
		return err
	}
	dMin, dMax, err := rig.DisparityRange(focalPx, cfg.BaselineM, nearM, farM, marginLow, marginHigh)
	if err != nil {
		return err
	}

	header := color.New(color.FgCyan, color.Bold)
	key := color.New(color.FgGreen)

	header.Println("\nSTEREO MATCHER SETTINGS")
	fmt.Printf("  %s %.3f mm (%.1f px)\n", key.Sprint("focal length:       "), focalMM, focalPx)
	fmt.Printf("  %s %.1f mm\n", key.Sprint("baseline:           "), cfg.BaselineM*1000)
	fmt.Printf("  %s %.3f x %.3f mm\n", key.Sprint("sensor aperture:    "), aperH, aperV)
	fmt.Printf("  %s %.1f px at %.2f m\n", key.Sprint("disparity:          "), dStandoff, cfg.StandoffM)
	fmt.Printf("  %s %.1f .. %.1f px over %.2f-%.2f m\n",
		key.Sprint("disparity window:   "), dMin, dMax, nearM, farM)
	return nil
}
