// Package config layers application settings from built-in defaults, an
// optional YAML file and environment variables. Command line flags are
// bound on top by the binaries themselves.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ivlev/stereorig/internal/rig"
)

// EnvPrefix is shared by every environment override, e.g. STEREORIG_OUTPUT.
const EnvPrefix = "STEREORIG_"

// Wire describes the catenary wire strung above the pantograph.
type Wire struct {
	SpanM       float64 `yaml:"span_m"`
	Samples     int     `yaml:"samples"`
	BaseHeightM float64 `yaml:"base_height_m"`
	Sag         float64 `yaml:"sag"`
	WidthM      float64 `yaml:"width_m"`
}

// App collects everything the scenebuild and capture binaries need.
type App struct {
	Rig  rig.Config `yaml:"rig"`
	Wire Wire       `yaml:"wire"`

	// ScenePath is where scenebuild writes the scene and capture reads it.
	ScenePath string `yaml:"scene"`
	// OutputDir receives the captured dataset.
	OutputDir string `yaml:"output"`
	// Frames is the number of frames to capture per session.
	Frames int `yaml:"frames"`
	// Warmup steps run and are discarded before frame 0.
	Warmup int `yaml:"warmup"`
	// Drain steps idle the renderer after the last frame so in-flight work
	// settles before teardown.
	Drain int `yaml:"drain"`
	// PreviewWidth enables downscaled preview images when positive.
	PreviewWidth int `yaml:"preview_width"`
	// OnMismatch is the baseline mismatch policy: warn, fix or abort.
	OnMismatch string `yaml:"on_mismatch"`
	// WriterName selects the dataset writer from the registry.
	WriterName string `yaml:"writer"`
	// LogFile enables file logging alongside the console when set.
	LogFile string `yaml:"log_file"`
	// Dev switches the logger to the verbose development encoder.
	Dev bool `yaml:"dev"`
}

// Default returns the stock pantograph inspection setup.
func Default() App {
	return App{
		Rig: rig.Config{
			BaselineM:   0.12,
			StandoffM:   1.5,
			ImageWidth:  1920,
			ImageHeight: 1080,
			HFOVDeg:     90,
			PixelPitchM: 3.6e-6,
			NearClipM:   0.1,
			FarClipM:    100,
		},
		Wire: Wire{
			SpanM:       6.0,
			Samples:     21,
			BaseHeightM: 1.8,
			Sag:         0.02,
			WidthM:      0.012,
		},
		ScenePath:    "stereo_scene.yaml",
		OutputDir:    "dataset",
		Frames:       30,
		Warmup:       3,
		Drain:        5,
		PreviewWidth: 480,
		OnMismatch:   "warn",
		WriterName:   "basic",
	}
}

// Load overlays the YAML file at path onto the defaults. An empty path
// keeps the defaults as is.
func Load(path string) (App, error) {
	app := Default()
	if path == "" {
		return app, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return app, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, &app); err != nil {
		return app, errors.Wrapf(err, "parse config %s", path)
	}
	return app, nil
}

// ApplyEnv overlays environment variables onto the config. A .env file in
// the working directory is loaded first when present.
func ApplyEnv(app *App) error {
	// Missing .env is the normal case.
	_ = godotenv.Load()

	var err error
	setString(&app.ScenePath, "SCENE")
	setString(&app.OutputDir, "OUTPUT")
	setString(&app.OnMismatch, "ON_MISMATCH")
	setString(&app.WriterName, "WRITER")
	setString(&app.LogFile, "LOG_FILE")
	setInt(&app.Frames, "FRAMES", &err)
	setInt(&app.Warmup, "WARMUP", &err)
	setInt(&app.Drain, "DRAIN", &err)
	setInt(&app.PreviewWidth, "PREVIEW_WIDTH", &err)
	setFloat(&app.Rig.BaselineM, "BASELINE_M", &err)
	setFloat(&app.Rig.StandoffM, "STANDOFF_M", &err)
	setBool(&app.Dev, "DEV", &err)
	return err
}

// Validate checks the whole config, including the rig parameters.
func (a App) Validate() error {
	if err := a.Rig.Validate(); err != nil {
		return err
	}
	if a.ScenePath == "" {
		return errors.New("scene path is empty")
	}
	if a.OutputDir == "" {
		return errors.New("output directory is empty")
	}
	if a.Frames < 0 {
		return errors.Errorf("frame count must not be negative, got %d", a.Frames)
	}
	if a.Warmup < 0 {
		return errors.Errorf("warmup steps must not be negative, got %d", a.Warmup)
	}
	if a.Drain < 0 {
		return errors.Errorf("drain steps must not be negative, got %d", a.Drain)
	}
	if a.Wire.Samples < 2 {
		return errors.Errorf("wire needs at least two samples, got %d", a.Wire.Samples)
	}
	if a.WriterName == "" {
		return errors.New("writer name is empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string, err *error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return
	}
	n, parseErr := strconv.Atoi(v)
	if parseErr != nil {
		if *err == nil {
			*err = errors.Wrapf(parseErr, "parse %s%s", EnvPrefix, key)
		}
		return
	}
	*dst = n
}

func setFloat(dst *float64, key string, err *error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return
	}
	f, parseErr := strconv.ParseFloat(v, 64)
	if parseErr != nil {
		if *err == nil {
			*err = errors.Wrapf(parseErr, "parse %s%s", EnvPrefix, key)
		}
		return
	}
	*dst = f
}

func setBool(dst *bool, key string, err *error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok {
		return
	}
	b, parseErr := strconv.ParseBool(v)
	if parseErr != nil {
		if *err == nil {
			*err = errors.Wrapf(parseErr, "parse %s%s", EnvPrefix, key)
		}
		return
	}
	*dst = b
}
