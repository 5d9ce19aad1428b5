package scichart

import (
	"fmt"
	"sync"
)

// Renderer owns a backend and keeps the per-series state needed to
// rebuild the draw list on every frame. All methods are safe for
// concurrent use; rendering itself is serialized.
type Renderer struct {
	mu      sync.Mutex
	backend Backend
	series  map[string]*seriesState
	order   []string
	width   int
	height  int
	dpr     float64
}

type seriesState struct {
	call DrawCall
}

// NewRenderer wraps an already initialized backend.
func NewRenderer(b Backend) *Renderer {
	return &Renderer{
		backend: b,
		series:  make(map[string]*seriesState),
		dpr:     1,
	}
}

// NewDefaultRenderer picks the best available backend, initializes
// it, and returns a renderer around it.
func NewDefaultRenderer() (*Renderer, error) {
	b, err := InitDefaultBackend()
	if err != nil {
		return nil, err
	}
	return NewRenderer(b), nil
}

// Backend returns the wrapped backend.
func (r *Renderer) Backend() Backend {
	return r.backend
}

// SetSize sets the logical viewport and device pixel ratio.
func (r *Renderer) SetSize(width, height int, dpr float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if dpr <= 0 {
		dpr = 1
	}
	if err := r.backend.SetViewport(width, height, dpr); err != nil {
		return err
	}
	r.width, r.height, r.dpr = width, height, dpr
	return nil
}

// SetSeries adds or replaces a series: geometry is packed and
// uploaded, derived buffers (step expansion, heatmap palette) are
// refreshed, and the draw call is stored in insertion order.
func (r *Renderer) SetSeries(spec SeriesSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	call, err := buildDrawCall(&spec)
	if err != nil {
		return err
	}

	if call.Kind == KindHeatmap {
		values := make([]float32, call.Count)
		for i := range values {
			values[i] = float32(spec.Data[i])
		}
		if err := r.backend.CreateOrUpdateBuffer(call.BufferID, PackPointsF32(values), BufferDynamic); err != nil {
			return fmt.Errorf("upload heatmap %q: %w", spec.ID, err)
		}
		texels := buildPalette(spec.Palette)
		desc := Texture1DDesc{Width: len(texels) / 4, Smooth: spec.SmoothPalette}
		if err := r.backend.CreateOrUpdateTexture1D(call.TextureID, texels, desc); err != nil {
			return fmt.Errorf("upload palette %q: %w", spec.ID, err)
		}
	} else {
		if err := r.backend.CreateOrUpdateBuffer(call.BufferID, PackPoints(spec.Data), BufferDynamic); err != nil {
			return fmt.Errorf("upload series %q: %w", spec.ID, err)
		}
		if call.StepBufferID != "" {
			steps := ExpandSteps(spec.Data)
			if err := r.backend.CreateOrUpdateBuffer(call.StepBufferID, PackPoints(steps), BufferDynamic); err != nil {
				return fmt.Errorf("upload step geometry %q: %w", spec.ID, err)
			}
		}
	}

	if _, ok := r.series[spec.ID]; !ok {
		r.order = append(r.order, spec.ID)
	}
	r.series[spec.ID] = &seriesState{call: call}
	return nil
}

// RemoveSeries drops a series and its GPU resources. Unknown ids are
// a no-op.
func (r *Renderer) RemoveSeries(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.series[id]
	if !ok {
		return
	}
	r.backend.DeleteBuffer(st.call.BufferID)
	if st.call.StepBufferID != "" {
		r.backend.DeleteBuffer(st.call.StepBufferID)
	}
	if st.call.TextureID != "" {
		r.backend.DeleteTexture(st.call.TextureID)
	}
	delete(r.series, id)
	for i, sid := range r.order {
		if sid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// SetVisible toggles a series without touching its buffers.
func (r *Renderer) SetVisible(id string, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.series[id]; ok {
		st.call.Visible = visible
	}
}

// HasSeries reports whether the id is registered.
func (r *Renderer) HasSeries(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.series[id]
	return ok
}

// DrawList returns the current draw list in insertion order.
func (r *Renderer) DrawList() DrawList {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawListLocked()
}

func (r *Renderer) drawListLocked() DrawList {
	list := make(DrawList, 0, len(r.order))
	for _, id := range r.order {
		list = append(list, r.series[id].call)
	}
	return list
}

// FrameOptions carries the per-frame parameters for Render.
type FrameOptions struct {
	// Bounds is the visible data range. Nil computes nothing and
	// leaves the identity transform, which is rarely what you want;
	// pass the chart's current axis range.
	Bounds *Bounds

	// ClearColor fills the frame before drawing.
	ClearColor RGBA

	// ClipRect restricts drawing to the plot area, in logical pixels.
	// Nil draws to the full viewport.
	ClipRect *Rect
}

// Render draws every visible series. SetSize must have been called.
func (r *Renderer) Render(opts FrameOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.width <= 0 || r.height <= 0 {
		return fmt.Errorf("scichart: render before SetSize: %w", ErrNotInitialized)
	}
	fu := FrameUniforms{
		Width:            float64(r.width),
		Height:           float64(r.height),
		DevicePixelRatio: r.dpr,
		ClearColor:       opts.ClearColor,
		DataBounds:       opts.Bounds,
		ClipRect:         opts.ClipRect,
	}
	return r.backend.Render(r.drawListLocked(), fu)
}

// ReadPixels returns the last rendered frame as tightly packed RGBA.
func (r *Renderer) ReadPixels() ([]byte, int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.ReadPixels()
}

// Destroy releases the backend and all series state.
func (r *Renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Destroy()
	r.series = make(map[string]*seriesState)
	r.order = nil
}
