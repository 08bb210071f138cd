// Package capture orchestrates a frame capture session: it steps the
// renderer, hands frames to the writer and keeps the stereo rig honest
// along the way.
package capture

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ivlev/stereorig/internal/builder"
	"github.com/ivlev/stereorig/internal/render"
	"github.com/ivlev/stereorig/internal/rig"
	"github.com/ivlev/stereorig/internal/scene"
	"github.com/ivlev/stereorig/internal/writer"
)

// releaser is implemented by renderers that recycle frame buffers.
type releaser interface {
	Release(frames []render.Frame)
}

// Session drives one capture run. Renderer and Writer must already be
// attached to the same set of products.
type Session struct {
	Renderer render.Renderer
	Writer   writer.Writer
	Logger   *zap.Logger

	// Frames is the number of frames to persist.
	Frames int
	// Warmup steps run before the first persisted frame and are discarded.
	// They let the renderer settle so frame 0 looks like every other frame.
	Warmup int
	// Drain steps idle the renderer after the last frame before teardown.
	Drain int

	// Graph and Rig, when set, enable the frame-0 sanity check: the realized
	// camera world positions are measured and logged against the configured
	// baseline.
	Graph *scene.Graph
	Rig   rig.Config
}

// Run executes the session. The renderer and writer are both closed before
// Run returns, whatever path it exits through.
func (s *Session) Run(ctx context.Context) (err error) {
	if s.Frames < 0 {
		return errors.Errorf("frame count must not be negative, got %d", s.Frames)
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	defer func() {
		if closeErr := s.Writer.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close writer")
		}
		if closeErr := s.Renderer.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "close renderer")
		}
	}()

	for i := 0; i < s.Warmup; i++ {
		frames, err := s.Renderer.Step(ctx)
		if err != nil {
			return errors.Wrapf(err, "warmup step %d", i)
		}
		s.release(frames)
	}

	logger.Info("capture session started",
		zap.Int("frames", s.Frames),
		zap.Int("warmup", s.Warmup))

	for i := 0; i < s.Frames; i++ {
		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "capture interrupted at frame %d", i)
		default:
		}

		frames, err := s.Renderer.Step(ctx)
		if err != nil {
			return errors.Wrapf(err, "render frame %d", i)
		}
		if err := s.Writer.Write(i, frames); err != nil {
			s.release(frames)
			return errors.Wrapf(err, "write frame %d", i)
		}
		s.release(frames)

		if i == 0 {
			s.logRealizedBaseline(logger)
		}
		logger.Debug("frame captured", zap.Int("frame", i))
	}

	for i := 0; i < s.Drain; i++ {
		frames, err := s.Renderer.Step(ctx)
		if err != nil {
			return errors.Wrapf(err, "drain step %d", i)
		}
		s.release(frames)
	}

	logger.Info("capture session finished", zap.Int("frames", s.Frames))
	return nil
}

// logRealizedBaseline measures the camera separation as actually composed in
// the scene graph. A drift here means something re-posed the rig between
// setup and the first frame.
func (s *Session) logRealizedBaseline(logger *zap.Logger) {
	if s.Graph == nil {
		return
	}
	left, err := s.Graph.WorldPosition(builder.LeftCameraPath)
	if err != nil {
		logger.Warn("baseline check skipped", zap.Error(err))
		return
	}
	right, err := s.Graph.WorldPosition(builder.RightCameraPath)
	if err != nil {
		logger.Warn("baseline check skipped", zap.Error(err))
		return
	}
	a := rig.VerifyBaseline(left, right, s.Rig.BaselineM, rig.DefaultTolerance)
	if !a.OK {
		logger.Warn("realized baseline drifted",
			zap.Float64("measured_m", a.MeasuredM),
			zap.Float64("expected_m", s.Rig.BaselineM),
			zap.Float64("delta_m", a.DeltaM))
		return
	}
	logger.Debug("realized baseline",
		zap.Float64("measured_m", a.MeasuredM),
		zap.Float64("expected_m", s.Rig.BaselineM))
}

func (s *Session) release(frames []render.Frame) {
	if r, ok := s.Renderer.(releaser); ok {
		r.Release(frames)
	}
}
