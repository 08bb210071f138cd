package capture

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ivlev/stereorig/internal/builder"
	"github.com/ivlev/stereorig/internal/rig"
	"github.com/ivlev/stereorig/internal/scene"
)

// MismatchPolicy selects what happens when the measured stereo baseline
// deviates from the configured one by more than the tolerance.
type MismatchPolicy string

const (
	// PolicyWarn logs the deviation and continues.
	PolicyWarn MismatchPolicy = "warn"
	// PolicyFix rescales the camera offsets until the measured baseline
	// matches the configured one.
	PolicyFix MismatchPolicy = "fix"
	// PolicyAbort refuses to capture with a misaligned rig.
	PolicyAbort MismatchPolicy = "abort"
)

// ParsePolicy validates a policy name coming from a flag or config file.
func ParsePolicy(s string) (MismatchPolicy, error) {
	switch p := MismatchPolicy(s); p {
	case PolicyWarn, PolicyFix, PolicyAbort:
		return p, nil
	default:
		return "", errors.Errorf("unknown baseline mismatch policy %q (want warn, fix or abort)", s)
	}
}

// EnsureStereoBaseline re-asserts the local camera offsets for the
// configured baseline. A camera missing from the graph is logged and
// skipped so that partially authored scenes still open.
func EnsureStereoBaseline(g *scene.Graph, cfg rig.Config, logger *zap.Logger) error {
	left, right, err := cfg.Offsets()
	if err != nil {
		return err
	}
	for _, c := range []struct {
		path   string
		offset r3.Vector
	}{
		{builder.LeftCameraPath, r3.Vector{X: left}},
		{builder.RightCameraPath, r3.Vector{X: right}},
	} {
		node, ok := g.Node(c.path)
		if !ok {
			logger.Warn("camera not found in scene, skipping offset",
				zap.String("path", c.path))
			continue
		}
		node.SetTranslate(c.offset)
	}
	return nil
}

// CheckBaseline measures the world-space distance between the two cameras
// and applies the mismatch policy. With PolicyFix the local offsets are
// rescaled in place and the measurement repeated.
func CheckBaseline(g *scene.Graph, cfg rig.Config, tolM float64, policy MismatchPolicy, logger *zap.Logger) (rig.Alignment, error) {
	a, err := measureBaseline(g, cfg, tolM)
	if err != nil {
		return rig.Alignment{}, err
	}
	if a.OK {
		logger.Debug("stereo baseline verified",
			zap.Float64("measured_m", a.MeasuredM),
			zap.Float64("expected_m", cfg.BaselineM))
		return a, nil
	}

	switch policy {
	case PolicyWarn:
		logger.Warn("stereo baseline mismatch",
			zap.Float64("measured_m", a.MeasuredM),
			zap.Float64("expected_m", cfg.BaselineM),
			zap.Float64("delta_m", a.DeltaM))
		return a, nil

	case PolicyFix:
		// Rescaling divides by the measured separation.
		if a.MeasuredM == 0 || math.IsNaN(a.MeasuredM) {
			return a, errors.New("cameras are coincident, cannot correct baseline")
		}
		if err := rescaleOffsets(g, cfg.BaselineM/a.MeasuredM); err != nil {
			return a, err
		}
		fixed, err := measureBaseline(g, cfg, tolM)
		if err != nil {
			return a, err
		}
		if !fixed.OK {
			return fixed, errors.Errorf(
				"baseline still off after fix: measured %.4fm, expected %.4fm",
				fixed.MeasuredM, cfg.BaselineM)
		}
		logger.Info("stereo baseline corrected",
			zap.Float64("was_m", a.MeasuredM),
			zap.Float64("now_m", fixed.MeasuredM))
		return fixed, nil

	default:
		return a, errors.Errorf(
			"stereo baseline mismatch: measured %.4fm, expected %.4fm (delta %.4fm)",
			a.MeasuredM, cfg.BaselineM, a.DeltaM)
	}
}

func measureBaseline(g *scene.Graph, cfg rig.Config, tolM float64) (rig.Alignment, error) {
	left, err := g.WorldPosition(builder.LeftCameraPath)
	if err != nil {
		return rig.Alignment{}, err
	}
	right, err := g.WorldPosition(builder.RightCameraPath)
	if err != nil {
		return rig.Alignment{}, err
	}
	return rig.VerifyBaseline(left, right, cfg.BaselineM, tolM), nil
}

func rescaleOffsets(g *scene.Graph, factor float64) error {
	for _, path := range []string{builder.LeftCameraPath, builder.RightCameraPath} {
		node, err := g.Require(path)
		if err != nil {
			return err
		}
		t, ok := node.Translate()
		if !ok {
			return errors.Errorf("%s has no translate op to rescale", path)
		}
		node.SetTranslate(t.Mul(factor))
	}
	return nil
}
