package render

import (
	"image"
	"sync"
)

// framePool recycles the per-step RGBA, depth and semantic buffers so a long
// capture run does not churn the garbage collector.
type framePool struct {
	rgba     map[string]*sync.Pool
	depth    map[int]*sync.Pool
	semantic map[int]*sync.Pool
	mu       sync.RWMutex
}

func newFramePool() *framePool {
	return &framePool{
		rgba:     map[string]*sync.Pool{},
		depth:    map[int]*sync.Pool{},
		semantic: map[int]*sync.Pool{},
	}
}

func (p *framePool) getRGBA(rect image.Rectangle) *image.RGBA {
	key := rect.String()
	p.mu.RLock()
	pool, ok := p.rgba[key]
	p.mu.RUnlock()
	if !ok {
		p.mu.Lock()
		pool, ok = p.rgba[key]
		if !ok {
			pool = &sync.Pool{New: func() interface{} {
				return image.NewRGBA(rect)
			}}
			p.rgba[key] = pool
		}
		p.mu.Unlock()
	}
	return pool.Get().(*image.RGBA)
}

func (p *framePool) getDepth(n int) []float32 {
	p.mu.RLock()
	pool, ok := p.depth[n]
	p.mu.RUnlock()
	if !ok {
		p.mu.Lock()
		pool, ok = p.depth[n]
		if !ok {
			pool = &sync.Pool{New: func() interface{} {
				return make([]float32, n)
			}}
			p.depth[n] = pool
		}
		p.mu.Unlock()
	}
	return pool.Get().([]float32)
}

func (p *framePool) getSemantic(n int) []uint16 {
	p.mu.RLock()
	pool, ok := p.semantic[n]
	p.mu.RUnlock()
	if !ok {
		p.mu.Lock()
		pool, ok = p.semantic[n]
		if !ok {
			pool = &sync.Pool{New: func() interface{} {
				return make([]uint16, n)
			}}
			p.semantic[n] = pool
		}
		p.mu.Unlock()
	}
	return pool.Get().([]uint16)
}

// put returns a frame's buffers to the pool. The caller must be done with
// the frame.
func (p *framePool) put(f Frame) {
	if f.RGB != nil {
		p.mu.RLock()
		if pool, ok := p.rgba[f.RGB.Rect.String()]; ok {
			pool.Put(f.RGB)
		}
		p.mu.RUnlock()
	}
	if f.Depth != nil {
		p.mu.RLock()
		if pool, ok := p.depth[len(f.Depth)]; ok {
			pool.Put(f.Depth)
		}
		p.mu.RUnlock()
	}
	if f.Semantic != nil {
		p.mu.RLock()
		if pool, ok := p.semantic[len(f.Semantic)]; ok {
			pool.Put(f.Semantic)
		}
		p.mu.RUnlock()
	}
}
