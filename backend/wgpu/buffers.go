package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

// copyBufferAlignment is the allocation granularity for vertex buffers.
const copyBufferAlignment uint64 = 4

// seriesBuffer is a persistent GPU vertex buffer keyed by series id.
type seriesBuffer struct {
	buf   hal.Buffer
	size  uint64 // allocated bytes
	used  uint64 // valid bytes from the last upload
	usage scichart.BufferUsage
}

func (sb *seriesBuffer) destroy(device hal.Device) {
	if sb.buf != nil {
		device.DestroyBuffer(sb.buf)
		sb.buf = nil
	}
}

// paletteBuffer holds a heatmap color lookup table as a read-only
// storage buffer of vec4<f32> texels.
type paletteBuffer struct {
	buf    hal.Buffer
	size   uint64
	texels int
	smooth bool
}

func (pb *paletteBuffer) destroy(device hal.Device) {
	if pb.buf != nil {
		device.DestroyBuffer(pb.buf)
		pb.buf = nil
	}
}

// CreateOrUpdateBuffer uploads vertex data under a stable id. When the
// new data fits the existing allocation the buffer is rewritten in
// place via queue.WriteBuffer; growth reallocates.
func (b *Backend) CreateOrUpdateBuffer(id string, data []byte, usage scichart.BufferUsage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if len(data) == 0 {
		return fmt.Errorf("wgpu: buffer %q: empty data", id)
	}

	need := alignUp(uint64(len(data)), copyBufferAlignment)

	sb := b.buffers[id]
	if sb != nil && sb.size >= need {
		b.queue.WriteBuffer(sb.buf, 0, data)
		sb.used = uint64(len(data))
		sb.usage = usage
		return nil
	}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "series_" + id,
		Size:  need,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create buffer %q: %w", id, err)
	}
	b.queue.WriteBuffer(buf, 0, data)

	if sb != nil {
		sb.destroy(b.device)
	}
	b.buffers[id] = &seriesBuffer{buf: buf, size: need, used: uint64(len(data)), usage: usage}
	return nil
}

// AllocateBuffer reserves capacity under an id without writing data.
// An existing allocation large enough is kept, so repeated uploads of
// a shrinking dataset never reallocate.
func (b *Backend) AllocateBuffer(id string, size int, usage scichart.BufferUsage) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if size <= 0 {
		return fmt.Errorf("wgpu: buffer %q: size %d", id, size)
	}

	need := alignUp(uint64(size), copyBufferAlignment)
	sb := b.buffers[id]
	if sb != nil && sb.size >= need {
		sb.used = uint64(size)
		sb.usage = usage
		return nil
	}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "series_" + id,
		Size:  need,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: allocate buffer %q: %w", id, err)
	}
	if sb != nil {
		sb.destroy(b.device)
	}
	b.buffers[id] = &seriesBuffer{buf: buf, size: need, used: uint64(size), usage: usage}
	return nil
}

// WriteBufferChunk writes one slice of a staged upload at a byte
// offset inside a previously allocated buffer.
func (b *Backend) WriteBufferChunk(id string, offset int, chunk []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	sb, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: buffer %q: not allocated", id)
	}
	end := uint64(offset) + uint64(len(chunk))
	if offset < 0 || end > sb.size {
		return fmt.Errorf("wgpu: buffer %q: chunk [%d,%d) exceeds %d bytes", id, offset, end, sb.size)
	}
	b.queue.WriteBuffer(sb.buf, uint64(offset), chunk)
	if end > sb.used {
		sb.used = end
	}
	return nil
}

// DeleteBuffer releases the buffer. Unknown ids are ignored.
func (b *Backend) DeleteBuffer(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sb, ok := b.buffers[id]
	if !ok {
		return
	}
	sb.destroy(b.device)
	delete(b.buffers, id)
}

// BufferCount returns the number of registered series buffers.
func (b *Backend) BufferCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buffers)
}

// CreateOrUpdateTexture1D uploads a heatmap palette. The palette is
// stored as a storage buffer rather than a sampled texture; the
// heatmap shader indexes it directly and interpolates when Smooth is
// set.
func (b *Backend) CreateOrUpdateTexture1D(id string, data []float32, desc scichart.Texture1DDesc) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if desc.Width <= 0 || len(data) < desc.Width*4 {
		return fmt.Errorf("wgpu: palette %q: need %d floats, have %d", id, desc.Width*4, len(data))
	}

	raw := packFloats(data[:desc.Width*4])
	need := alignUp(uint64(len(raw)), copyBufferAlignment)

	pb := b.palettes[id]
	if pb != nil && pb.size >= need {
		b.queue.WriteBuffer(pb.buf, 0, raw)
		pb.texels = desc.Width
		pb.smooth = desc.Smooth
		return nil
	}

	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "palette_" + id,
		Size:  need,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create palette %q: %w", id, err)
	}
	b.queue.WriteBuffer(buf, 0, raw)

	if pb != nil {
		pb.destroy(b.device)
	}
	b.palettes[id] = &paletteBuffer{buf: buf, size: need, texels: desc.Width, smooth: desc.Smooth}
	return nil
}

// DeleteTexture releases the palette. Unknown ids are ignored.
func (b *Backend) DeleteTexture(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pb, ok := b.palettes[id]
	if !ok {
		return
	}
	pb.destroy(b.device)
	delete(b.palettes, id)
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) &^ (align - 1)
}

// packFloats serializes float32 values little-endian for GPU upload.
func packFloats(vals []float32) []byte {
	out := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}
