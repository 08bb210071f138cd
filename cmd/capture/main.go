package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ivlev/stereorig/internal/builder"
	"github.com/ivlev/stereorig/internal/capture"
	"github.com/ivlev/stereorig/internal/config"
	"github.com/ivlev/stereorig/internal/logging"
	"github.com/ivlev/stereorig/internal/render"
	"github.com/ivlev/stereorig/internal/rig"
	"github.com/ivlev/stereorig/internal/scene"
	"github.com/ivlev/stereorig/internal/system"
	"github.com/ivlev/stereorig/internal/writer"
)

func main() {
	def := config.Default()

	configPath := flag.String("config", "", "Path to a YAML config file (optional)")
	scenePath := flag.String("scene", def.ScenePath, "Scene file to capture from")
	outputDir := flag.String("output", def.OutputDir, "Dataset output directory")
	frames := flag.Int("frames", def.Frames, "Number of frames to capture")
	warmup := flag.Int("warmup", def.Warmup, "Renderer warmup steps before frame 0")
	drain := flag.Int("drain", def.Drain, "Idle renderer steps after the last frame")
	onMismatch := flag.String("on-mismatch", def.OnMismatch,
		"Baseline mismatch policy: warn, fix or abort")
	writerName := flag.String("writer", def.WriterName, "Dataset writer to use")
	previewWidth := flag.Int("preview-width", def.PreviewWidth,
		"Width of downscaled preview images, 0 disables them")
	rgb := flag.Bool("rgb", true, "Capture the RGB channel")
	depth := flag.Bool("depth", true, "Capture the distance-to-camera channel")
	semantic := flag.Bool("semantic", true, "Capture the semantic segmentation channel")
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
		case "output":
			app.OutputDir = *outputDir
		case "frames":
			app.Frames = *frames
		case "warmup":
			app.Warmup = *warmup
		case "drain":
			app.Drain = *drain
		case "on-mismatch":
			app.OnMismatch = *onMismatch
		case "writer":
			app.WriterName = *writerName
		case "preview-width":
			app.PreviewWidth = *previewWidth
		case "dev":
			app.Dev = *dev
		case "log-file":
			app.LogFile = *logFile
		}
	})

	logger := logging.New(app.Dev, app.LogFile)
	defer logger.Sync()
	system.InitResourceLimits(logger)
	system.LogHostInfo(logger)

	if err := app.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	policy, err := capture.ParsePolicy(app.OnMismatch)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	g, err := scene.Open(app.ScenePath)
	if err != nil {
		if scene.IsMissing(err) {
			logger.Fatal("scene file not found, run scenebuild first",
				zap.String("path", app.ScenePath))
		}
		logger.Fatal("scene load failed", zap.Error(err))
	}
	logger.Info("scene loaded",
		zap.String("path", app.ScenePath),
		zap.Int("prims", len(g.Nodes())))

	if err := capture.EnsureStereoBaseline(g, app.Rig, logger); err != nil {
		logger.Fatal("baseline setup failed", zap.Error(err))
	}
	if _, err := capture.CheckBaseline(g, app.Rig, rig.DefaultTolerance, policy, logger); err != nil {
		logger.Fatal("baseline check failed", zap.Error(err))
	}

	if err := labelScene(g); err != nil {
		logger.Fatal("semantic labeling failed", zap.Error(err))
	}

	products := []render.Product{
		{CameraPath: builder.LeftCameraPath, Width: app.Rig.ImageWidth, Height: app.Rig.ImageHeight},
		{CameraPath: builder.RightCameraPath, Width: app.Rig.ImageWidth, Height: app.Rig.ImageHeight},
	}

	renderer := render.NewSynthetic(g, logger)
	if err := renderer.Attach(products); err != nil {
		logger.Fatal("renderer attach failed", zap.Error(err))
	}

	w, err := writer.NewRegistry().Get(app.WriterName)
	if err != nil {
		logger.Fatal("writer selection failed", zap.Error(err))
	}
	channels := writer.Channels{
		RGB:                  *rgb,
		DistanceToCamera:     *depth,
		SemanticSegmentation: *semantic,
	}
	if err := w.Initialize(app.OutputDir, channels, writer.Options{PreviewWidth: app.PreviewWidth}); err != nil {
		logger.Fatal("writer initialization failed", zap.Error(err))
	}
	if err := w.Attach(products); err != nil {
		logger.Fatal("writer attach failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := &capture.Session{
		Renderer: renderer,
		Writer:   w,
		Logger:   logger,
		Frames:   app.Frames,
		Warmup:   app.Warmup,
		Drain:    app.Drain,
		Graph:    g,
		Rig:      app.Rig,
	}
	if err := session.Run(ctx); err != nil {
		logger.Fatal("capture failed", zap.Error(err))
	}
	logger.Info("dataset complete", zap.String("output", app.OutputDir))
}

// labelScene attaches semantic classes to the prims the segmentation channel
// must distinguish. The pantograph is the subject and must exist; scenery is
// labeled only if present.
func labelScene(g *scene.Graph) error {
	pantograph, err := g.Require(builder.PantographPath)
	if err != nil {
		return err
	}
	pantograph.SetSemanticClass("pantograph")

	if ground, ok := g.Node(builder.GroundPath); ok {
		ground.SetSemanticClass("ground")
	}
	if wire, ok := g.Node(builder.WirePath); ok {
		wire.SetSemanticClass("catenary")
	}
	return nil
}
