//go:build !nogpu

package wgpu

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newNoopBackend(t *testing.T) (*Backend, func()) {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	b := NewWithDevice(device, queue)
	if err := b.Init(); err != nil {
		cleanup()
		t.Fatalf("Init failed: %v", err)
	}
	return b, func() {
		b.Destroy()
		cleanup()
	}
}

func TestInitCompilesPipelines(t *testing.T) {
	b, cleanup := newNoopBackend(t)
	defer cleanup()

	if b.pipelines.line == nil || b.pipelines.strip == nil || b.pipelines.tri == nil {
		t.Error("plot pipelines missing after Init")
	}
	if b.pipelines.marker == nil || b.pipelines.bar == nil || b.pipelines.heatmap == nil {
		t.Error("instanced pipelines missing after Init")
	}
	if b.pipelines.uniformLayout == nil || b.pipelines.heatmapLayout == nil {
		t.Error("bind group layouts missing after Init")
	}

	// Init again is a no-op.
	if err := b.Init(); err != nil {
		t.Errorf("second Init: %v", err)
	}
}

func TestBufferReuseOnShrink(t *testing.T) {
	b, cleanup := newNoopBackend(t)
	defer cleanup()

	data := scichart.PackPoints(make([]float64, 2000))
	if err := b.CreateOrUpdateBuffer("s", data, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	sb := b.buffers["s"]
	buf := sb.buf
	size := sb.size

	// Equal and smaller uploads must keep the allocation.
	for _, n := range []int{2000, 1000, 10} {
		if err := b.CreateOrUpdateBuffer("s", scichart.PackPoints(make([]float64, n)), scichart.BufferStatic); err != nil {
			t.Fatal(err)
		}
		got := b.buffers["s"]
		if got.buf != buf || got.size != size {
			t.Fatalf("upload of %d floats reallocated (size %d -> %d)", n, size, got.size)
		}
		if got.used != uint64(n*4) {
			t.Fatalf("used = %d after %d floats", got.used, n)
		}
	}

	// Growth reallocates.
	if err := b.CreateOrUpdateBuffer("s", scichart.PackPoints(make([]float64, 4000)), scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	if b.buffers["s"].size <= size {
		t.Error("grown upload kept the old allocation size")
	}
	if b.BufferCount() != 1 {
		t.Errorf("BufferCount = %d", b.BufferCount())
	}
}

func TestAllocateAndWriteChunks(t *testing.T) {
	b, cleanup := newNoopBackend(t)
	defer cleanup()

	if err := b.AllocateBuffer("c", 1024, scichart.BufferDynamic); err != nil {
		t.Fatal(err)
	}
	sb := b.buffers["c"]
	if sb.size < 1024 {
		t.Fatalf("allocated %d bytes", sb.size)
	}

	chunk := make([]byte, 256)
	if err := b.WriteBufferChunk("c", 0, chunk); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteBufferChunk("c", 768, chunk); err != nil {
		t.Fatal(err)
	}
	if sb.used != 1024 {
		t.Errorf("used watermark = %d, want 1024", sb.used)
	}

	if err := b.WriteBufferChunk("c", 1024, chunk); err == nil {
		t.Error("chunk past the allocation accepted")
	}
	if err := b.WriteBufferChunk("missing", 0, chunk); err == nil {
		t.Error("chunk into unallocated buffer accepted")
	}

	// Re-allocating a smaller staging area keeps the buffer.
	buf := sb.buf
	if err := b.AllocateBuffer("c", 512, scichart.BufferDynamic); err != nil {
		t.Fatal(err)
	}
	if b.buffers["c"].buf != buf {
		t.Error("shrinking allocation reallocated the buffer")
	}
}

func TestPaletteReuse(t *testing.T) {
	b, cleanup := newNoopBackend(t)
	defer cleanup()

	texels := make([]float32, 16*4)
	desc := scichart.Texture1DDesc{Width: 16, Smooth: true}
	if err := b.CreateOrUpdateTexture1D("p", texels, desc); err != nil {
		t.Fatal(err)
	}
	pb := b.palettes["p"]
	buf := pb.buf

	desc.Width = 8
	desc.Smooth = false
	if err := b.CreateOrUpdateTexture1D("p", texels, desc); err != nil {
		t.Fatal(err)
	}
	got := b.palettes["p"]
	if got.buf != buf {
		t.Error("smaller palette reallocated")
	}
	if got.texels != 8 || got.smooth {
		t.Errorf("palette metadata not updated: %+v", got)
	}

	if err := b.CreateOrUpdateTexture1D("p", texels[:4], scichart.Texture1DDesc{Width: 16}); err == nil {
		t.Error("undersized palette data accepted")
	}

	b.DeleteTexture("p")
	b.DeleteTexture("p") // unknown id is a no-op
}

func TestViewportIdempotent(t *testing.T) {
	b, cleanup := newNoopBackend(t)
	defer cleanup()

	if err := b.SetViewport(800, 600, 1); err != nil {
		t.Fatal(err)
	}
	tex := b.targets.resolveTex
	if tex == nil {
		t.Fatal("no resolve target after SetViewport")
	}
	if err := b.SetViewport(800, 600, 1); err != nil {
		t.Fatal(err)
	}
	if b.targets.resolveTex != tex {
		t.Error("identical viewport recreated targets")
	}

	// Logical resize at a compensating dpr keeps the physical size and
	// therefore the targets.
	if err := b.SetViewport(400, 300, 2); err != nil {
		t.Fatal(err)
	}
	if b.targets.resolveTex != tex {
		t.Error("same physical size recreated targets")
	}
	if b.targets.width != 800 || b.targets.height != 600 {
		t.Errorf("physical size %dx%d", b.targets.width, b.targets.height)
	}

	if err := b.SetViewport(-1, 600, 1); err == nil {
		t.Error("negative width accepted")
	}
}

func TestViewportRoundsAndClamps(t *testing.T) {
	b, cleanup := newNoopBackend(t)
	defer cleanup()

	// Fractional dpr rounds to the nearest pixel rather than
	// truncating: 335 * 1.1 is 368.5000...06 in float64.
	if err := b.SetViewport(335, 335, 1.1); err != nil {
		t.Fatal(err)
	}
	if b.targets.width != 369 || b.targets.height != 369 {
		t.Errorf("physical size %dx%d, want 369x369", b.targets.width, b.targets.height)
	}

	// A viewport that would round below a pixel clamps to 1x1.
	if err := b.SetViewport(1, 1, 0.4); err != nil {
		t.Fatal(err)
	}
	if b.targets.width != 1 || b.targets.height != 1 {
		t.Errorf("physical size %dx%d, want 1x1", b.targets.width, b.targets.height)
	}
}

func TestDeleteBufferAndDestroy(t *testing.T) {
	b, cleanup := newNoopBackend(t)
	defer cleanup()

	data := scichart.PackPoints([]float64{0, 0, 1, 1})
	if err := b.CreateOrUpdateBuffer("a", data, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	b.DeleteBuffer("a")
	b.DeleteBuffer("a") // unknown id is a no-op
	if b.BufferCount() != 0 {
		t.Errorf("BufferCount = %d after delete", b.BufferCount())
	}

	b.Destroy()
	b.Destroy() // second Destroy is safe
}

func TestResolveProviderRejectsUnknownTypes(t *testing.T) {
	if _, _, err := resolveProvider(struct{}{}); err == nil {
		t.Error("bare struct accepted as device provider")
	}
	if _, _, err := resolveProvider(nil); err == nil {
		t.Error("nil accepted as device provider")
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ v, align, want uint64 }{
		{0, 4, 0},
		{1, 4, 4},
		{4, 4, 4},
		{5, 4, 8},
		{255, 256, 256},
		{256, 256, 256},
		{257, 256, 512},
	}
	for _, c := range cases {
		if got := alignUp(c.v, c.align); got != c.want {
			t.Errorf("alignUp(%d, %d) = %d, want %d", c.v, c.align, got, c.want)
		}
	}
}
