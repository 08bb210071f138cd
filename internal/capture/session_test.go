package capture

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/ivlev/stereorig/internal/render"
	"github.com/ivlev/stereorig/internal/writer"
)

type fakeRenderer struct {
	steps    int
	released int
	closed   bool
	failAt   int
}

func (f *fakeRenderer) Attach(products []render.Product) error { return nil }

func (f *fakeRenderer) Step(ctx context.Context) ([]render.Frame, error) {
	if f.failAt > 0 && f.steps == f.failAt {
		return nil, errors.New("renderer fault")
	}
	f.steps++
	return []render.Frame{{}}, nil
}

func (f *fakeRenderer) Release(frames []render.Frame) { f.released++ }

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

type fakeWriter struct {
	writes  []int
	closed  bool
	failAt  int
	failSet bool
}

func (f *fakeWriter) Initialize(dir string, ch writer.Channels, opts writer.Options) error {
	return nil
}

func (f *fakeWriter) Attach(products []render.Product) error { return nil }

func (f *fakeWriter) Write(frameIndex int, frames []render.Frame) error {
	if f.failSet && frameIndex == f.failAt {
		return errors.New("disk full")
	}
	f.writes = append(f.writes, frameIndex)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestSessionRun(t *testing.T) {
	r := &fakeRenderer{}
	w := &fakeWriter{}
	s := &Session{
		Renderer: r,
		Writer:   w,
		Logger:   zap.NewNop(),
		Frames:   5,
		Warmup:   3,
		Drain:    2,
		Graph:    testRigGraph(t),
		Rig:      testConfig(),
	}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if r.steps != 10 {
		t.Errorf("renderer stepped %d times, want 10 (3 warmup + 5 frames + 2 drain)", r.steps)
	}
	if len(w.writes) != 5 {
		t.Fatalf("writer received %d frames, want 5", len(w.writes))
	}
	for i, idx := range w.writes {
		if idx != i {
			t.Errorf("write %d got frame index %d", i, idx)
		}
	}
	if r.released != 10 {
		t.Errorf("released %d frame batches, want 10", r.released)
	}
	if !r.closed || !w.closed {
		t.Error("renderer and writer must both be closed after the run")
	}
}

func TestSessionWriterFailureStillCloses(t *testing.T) {
	r := &fakeRenderer{}
	w := &fakeWriter{failSet: true, failAt: 2}
	s := &Session{Renderer: r, Writer: w, Frames: 5}
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing writer")
	}
	if len(w.writes) != 2 {
		t.Errorf("writer received %d frames before failing, want 2", len(w.writes))
	}
	if !r.closed || !w.closed {
		t.Error("renderer and writer must be closed after a failed run")
	}
}

func TestSessionRendererFailure(t *testing.T) {
	r := &fakeRenderer{failAt: 1}
	w := &fakeWriter{}
	s := &Session{Renderer: r, Writer: w, Frames: 5}
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error from failing renderer")
	}
	if !r.closed || !w.closed {
		t.Error("renderer and writer must be closed after a failed run")
	}
}

func TestSessionCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &fakeRenderer{}
	w := &fakeWriter{}
	s := &Session{Renderer: r, Writer: w, Frames: 5}
	err := s.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(w.writes) != 0 {
		t.Errorf("writer received %d frames after cancel, want 0", len(w.writes))
	}
	if !r.closed || !w.closed {
		t.Error("renderer and writer must be closed after cancellation")
	}
}

func TestSessionZeroFrames(t *testing.T) {
	// An empty session is legal: no frames written, drain still runs,
	// everything closes.
	r := &fakeRenderer{}
	w := &fakeWriter{}
	s := &Session{Renderer: r, Writer: w, Frames: 0, Drain: 2}
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("zero-frame run: %v", err)
	}
	if len(w.writes) != 0 {
		t.Errorf("writer received %d frames, want 0", len(w.writes))
	}
	if r.steps != 2 {
		t.Errorf("renderer stepped %d times, want 2 drain steps", r.steps)
	}
	if !r.closed || !w.closed {
		t.Error("renderer and writer must be closed after a zero-frame run")
	}
}

func TestSessionRejectsNegativeFrames(t *testing.T) {
	s := &Session{Renderer: &fakeRenderer{}, Writer: &fakeWriter{}, Frames: -1}
	if err := s.Run(context.Background()); err == nil {
		t.Fatal("expected error for negative frame count")
	}
}
