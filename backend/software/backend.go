package software

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

// ErrNoFrame is returned by ReadPixels and Snapshot before the first
// successful Render.
var ErrNoFrame = errors.New("software: no frame has been rendered")

// BackendName is the registry identifier for this backend.
const BackendName = "software"

func init() {
	scichart.RegisterBackend(BackendName, func() scichart.Backend {
		return New()
	})
}

// palette is a CPU copy of a heatmap color lookup table.
type palette struct {
	texels [][4]float32
	smooth bool
}

// Backend rasterizes draw lists on the CPU.
//
// Buffers are kept as decoded float32 point slices so hit paths avoid
// re-decoding bytes every frame. The framebuffer is premultiplied
// RGBA, physical pixels.
type Backend struct {
	mu sync.RWMutex

	buffers  map[string][]float32
	palettes map[string]palette

	fb            *image.RGBA
	width, height int
	dpr           float64

	initialized   bool
	frameRendered bool
}

// New creates an uninitialized backend. Call Init before use.
func New() *Backend {
	return &Backend{
		buffers:  make(map[string][]float32),
		palettes: make(map[string]palette),
		dpr:      1,
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return BackendName }

// Supported always reports true; the CPU path has no requirements.
func (b *Backend) Supported() bool { return true }

// Init marks the backend ready. It never fails.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.initialized = true
	scichart.Logger().Info("software backend initialized")
	return nil
}

// SetViewport resizes the framebuffer. Unchanged values are a no-op.
func (b *Backend) SetViewport(width, height int, dpr float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if width <= 0 || height <= 0 || dpr <= 0 {
		return fmt.Errorf("software: invalid viewport %dx%d dpr=%v", width, height, dpr)
	}
	if b.width == width && b.height == height && b.dpr == dpr {
		return nil
	}
	b.width = width
	b.height = height
	b.dpr = dpr
	b.fb = image.NewRGBA(image.Rect(0, 0, physicalSize(float64(width), dpr), physicalSize(float64(height), dpr)))
	return nil
}

// physicalSize converts a logical extent to physical pixels: rounded,
// never below one pixel.
func physicalSize(logical, dpr float64) int {
	p := int(math.Round(logical * dpr))
	if p < 1 {
		p = 1
	}
	return p
}

// CreateOrUpdateBuffer stores a decoded copy of the vertex data.
// Re-uploads that fit the existing slice reuse its backing array.
func (b *Backend) CreateOrUpdateBuffer(id string, data []byte, _ scichart.BufferUsage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if len(data) == 0 {
		return fmt.Errorf("software: buffer %q: empty data", id)
	}

	n := len(data) / 4
	dst := b.buffers[id]
	if cap(dst) >= n {
		dst = dst[:n]
	} else {
		dst = make([]float32, n)
	}
	for i := 0; i < n; i++ {
		dst[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	b.buffers[id] = dst
	return nil
}

// Snapshot returns the last rendered frame scaled to the given size,
// for thumbnails and export previews. Pass the framebuffer's own
// dimensions for an unscaled copy.
func (b *Backend) Snapshot(width, height int) (*image.RGBA, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, scichart.ErrNotInitialized
	}
	if !b.frameRendered || b.fb == nil {
		return nil, ErrNoFrame
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("software: snapshot size %dx%d", width, height)
	}

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	if width == b.fb.Rect.Dx() && height == b.fb.Rect.Dy() {
		copy(out.Pix, b.fb.Pix)
		return out, nil
	}
	draw.CatmullRom.Scale(out, out.Bounds(), b.fb, b.fb.Bounds(), draw.Src, nil)
	return out, nil
}

// AllocateBuffer reserves the decoded float slice without writing
// data. An existing slice with enough capacity is kept.
func (b *Backend) AllocateBuffer(id string, size int, _ scichart.BufferUsage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if size <= 0 {
		return fmt.Errorf("software: buffer %q: size %d", id, size)
	}
	n := size / 4
	dst := b.buffers[id]
	if cap(dst) >= n {
		dst = dst[:n]
	} else {
		dst = make([]float32, n)
	}
	b.buffers[id] = dst
	return nil
}

// WriteBufferChunk decodes one slice of a staged upload into the
// allocated float slice at a byte offset.
func (b *Backend) WriteBufferChunk(id string, offset int, chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	dst, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("software: buffer %q: not allocated", id)
	}
	if offset < 0 || offset%4 != 0 || (offset+len(chunk))/4 > len(dst) {
		return fmt.Errorf("software: buffer %q: chunk [%d,%d) exceeds %d floats",
			id, offset, offset+len(chunk), len(dst))
	}
	base := offset / 4
	for i := 0; i+3 < len(chunk); i += 4 {
		dst[base+i/4] = math.Float32frombits(binary.LittleEndian.Uint32(chunk[i:]))
	}
	return nil
}

// Pixels exposes the live framebuffer as premultiplied RGBA bytes in
// physical pixels. The slice is valid until the next SetViewport; a
// host embedding the backend blits it directly. Returns nil before
// the first render.
func (b *Backend) Pixels() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.frameRendered || b.fb == nil {
		return nil
	}
	return b.fb.Pix
}

// DeleteBuffer removes the buffer. Unknown ids are ignored.
func (b *Backend) DeleteBuffer(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buffers, id)
}

// BufferCount returns the number of registered buffers.
func (b *Backend) BufferCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buffers)
}

// CreateOrUpdateTexture1D stores a CPU copy of a heatmap palette.
func (b *Backend) CreateOrUpdateTexture1D(id string, data []float32, desc scichart.Texture1DDesc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if desc.Width <= 0 || len(data) < desc.Width*4 {
		return fmt.Errorf("software: palette %q: need %d floats, have %d", id, desc.Width*4, len(data))
	}
	texels := make([][4]float32, desc.Width)
	for i := 0; i < desc.Width; i++ {
		copy(texels[i][:], data[i*4:i*4+4])
	}
	b.palettes[id] = palette{texels: texels, smooth: desc.Smooth}
	return nil
}

// DeleteTexture removes the palette. Unknown ids are ignored.
func (b *Backend) DeleteTexture(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.palettes, id)
}

// Destroy releases the framebuffer and all stored series data.
func (b *Backend) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buffers = make(map[string][]float32)
	b.palettes = make(map[string]palette)
	b.fb = nil
	b.initialized = false
	b.frameRendered = false
}

// ReadPixels returns a copy of the last rendered frame.
func (b *Backend) ReadPixels() ([]byte, int, int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.initialized {
		return nil, 0, 0, scichart.ErrNotInitialized
	}
	if !b.frameRendered || b.fb == nil {
		return nil, 0, 0, ErrNoFrame
	}
	out := make([]byte, len(b.fb.Pix))
	copy(out, b.fb.Pix)
	bounds := b.fb.Bounds()
	return out, bounds.Dx(), bounds.Dy(), nil
}

var _ scichart.Backend = (*Backend)(nil)
