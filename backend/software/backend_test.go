package software

import (
	"errors"
	"testing"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	if err := b.SetViewport(200, 100, 1); err != nil {
		t.Fatal(err)
	}
	return b
}

func lineUniforms(w, h float64) scichart.FrameUniforms {
	return scichart.FrameUniforms{
		Width:            w,
		Height:           h,
		DevicePixelRatio: 1,
		ClearColor:       scichart.RGBA{A: 1},
		DataBounds:       &scichart.Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1},
	}
}

func TestViewportResizeAndDPR(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	if err := b.SetViewport(800, 600, 1); err != nil {
		t.Fatal(err)
	}
	if err := b.SetViewport(400, 300, 2); err != nil {
		t.Fatal(err)
	}
	// Repeating the same viewport must not touch the framebuffer.
	fb := b.fb
	if err := b.SetViewport(400, 300, 2); err != nil {
		t.Fatal(err)
	}
	if b.fb != fb {
		t.Error("framebuffer reallocated on identical viewport")
	}
	if got := b.fb.Bounds(); got.Dx() != 800 || got.Dy() != 600 {
		t.Errorf("physical size %v, want 800x600", got)
	}

	if err := b.SetViewport(0, 100, 1); err == nil {
		t.Error("zero width accepted")
	}
}

func TestViewportRoundsAndClamps(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	// Fractional dpr rounds to the nearest pixel rather than
	// truncating: 335 * 1.1 is 368.5000...06 in float64.
	if err := b.SetViewport(335, 335, 1.1); err != nil {
		t.Fatal(err)
	}
	if got := b.fb.Bounds(); got.Dx() != 369 || got.Dy() != 369 {
		t.Errorf("physical size %v, want 369x369", got)
	}

	// A viewport that would round below a pixel clamps to 1x1.
	if err := b.SetViewport(1, 1, 0.4); err != nil {
		t.Fatal(err)
	}
	if got := b.fb.Bounds(); got.Dx() != 1 || got.Dy() != 1 {
		t.Errorf("physical size %v, want 1x1", got)
	}
}

func TestBufferSliceReuse(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	big := scichart.PackPoints(make([]float64, 2000))
	if err := b.CreateOrUpdateBuffer("s", big, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	first := &b.buffers["s"][0]

	// Smaller and equal uploads keep the backing array.
	for _, n := range []int{500, 2000, 100} {
		data := scichart.PackPoints(make([]float64, n))
		if err := b.CreateOrUpdateBuffer("s", data, scichart.BufferStatic); err != nil {
			t.Fatal(err)
		}
		if &b.buffers["s"][0] != first {
			t.Fatalf("upload of %d points reallocated the slice", n/2)
		}
	}

	// Growing past capacity must reallocate.
	huge := scichart.PackPoints(make([]float64, 4000))
	if err := b.CreateOrUpdateBuffer("s", huge, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	if &b.buffers["s"][0] == first {
		t.Error("grown buffer kept the old backing array")
	}
}

func TestChunkedWrites(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	pts := []float64{0, 0, 1, 1, 2, 4, 3, 9}
	data := scichart.PackPoints(pts)
	if err := b.AllocateBuffer("c", len(data), scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	half := len(data) / 2
	if err := b.WriteBufferChunk("c", 0, data[:half]); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteBufferChunk("c", half, data[half:]); err != nil {
		t.Fatal(err)
	}

	got := b.buffers["c"]
	for i, want := range pts {
		if float64(got[i]) != want {
			t.Fatalf("float %d = %v, want %v", i, got[i], want)
		}
	}

	if err := b.WriteBufferChunk("c", len(data), data[:4]); err == nil {
		t.Error("out of range chunk accepted")
	}
	if err := b.WriteBufferChunk("missing", 0, data[:4]); err == nil {
		t.Error("write to unallocated buffer accepted")
	}
}

func TestRenderLineSmoke(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	data := scichart.PackPoints([]float64{0, 0, 0.5, 1, 1, 0})
	if err := b.CreateOrUpdateBuffer("line", data, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	list := scichart.DrawList{{
		ID: "line", Kind: scichart.KindLine, BufferID: "line", Count: 3, Visible: true,
		Style: scichart.DrawStyle{Color: scichart.RGBA{R: 1, A: 1}, LineWidth: 2},
	}}
	if err := b.Render(list, lineUniforms(200, 100)); err != nil {
		t.Fatal(err)
	}

	pix, w, h, err := b.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	if w != 200 || h != 100 {
		t.Fatalf("frame %dx%d", w, h)
	}
	red := 0
	for i := 0; i < len(pix); i += 4 {
		if pix[i] > 64 {
			red++
		}
	}
	if red < 50 {
		t.Errorf("line produced %d red pixels", red)
	}

	// The live framebuffer view matches the copied readback.
	live := b.Pixels()
	if len(live) != len(pix) {
		t.Fatalf("Pixels len %d, ReadPixels len %d", len(live), len(pix))
	}
}

func TestHeatmapRowZeroAtBottom(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	// One column, two rows: row 0 carries the low value, row 1 the
	// high one. A two-texel palette maps low to red and high to blue.
	cells := scichart.PackPoints([]float64{0, 1})
	if err := b.CreateOrUpdateBuffer("hm", cells, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	pal := []float32{
		1, 0, 0, 1,
		0, 0, 1, 1,
	}
	if err := b.CreateOrUpdateTexture1D("pal", pal, scichart.Texture1DDesc{Width: 2}); err != nil {
		t.Fatal(err)
	}
	list := scichart.DrawList{{
		ID: "hm", Kind: scichart.KindHeatmap, BufferID: "hm", TextureID: "pal",
		Count: 2, Visible: true,
		HeatmapCols: 1, HeatmapRows: 2, HeatmapMin: 0, HeatmapMax: 1,
	}}
	if err := b.Render(list, lineUniforms(200, 100)); err != nil {
		t.Fatal(err)
	}
	pix, w, h, err := b.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}

	// Row 0 sits at the bottom of the frame, like every y-up series.
	bottom := ((h-10)*w + w/2) * 4
	top := (10*w + w/2) * 4
	if pix[bottom] < 200 || pix[bottom+2] > 50 {
		t.Errorf("bottom pixel rgba = %v, want red (row 0)", pix[bottom:bottom+4])
	}
	if pix[top+2] < 200 || pix[top] > 50 {
		t.Errorf("top pixel rgba = %v, want blue (row 1)", pix[top:top+4])
	}
}

func TestRenderSkipsMissingBuffer(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	data := scichart.PackPoints([]float64{0, 0, 1, 1})
	if err := b.CreateOrUpdateBuffer("ok", data, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	list := scichart.DrawList{
		{ID: "gone", Kind: scichart.KindLine, BufferID: "gone", Count: 9, Visible: true,
			Style: scichart.DrawStyle{Color: scichart.RGBA{G: 1, A: 1}, LineWidth: 1}},
		{ID: "ok", Kind: scichart.KindLine, BufferID: "ok", Count: 2, Visible: true,
			Style: scichart.DrawStyle{Color: scichart.RGBA{G: 1, A: 1}, LineWidth: 1}},
	}
	if err := b.Render(list, lineUniforms(200, 100)); err != nil {
		t.Fatal(err)
	}
	pix, _, _, err := b.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	lit := 0
	for i := 0; i < len(pix); i += 4 {
		if pix[i+1] > 64 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("surviving call rendered nothing")
	}
}

func TestRenderFirstOffset(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	// First two points sit far outside the data bounds. Drawing with
	// First=2 must only touch the lower half of the frame.
	data := scichart.PackPoints([]float64{-10, 10, -9, 10, 0, 0.1, 1, 0.1})
	if err := b.CreateOrUpdateBuffer("off", data, scichart.BufferStatic); err != nil {
		t.Fatal(err)
	}
	list := scichart.DrawList{{
		ID: "off", Kind: scichart.KindLine, BufferID: "off", First: 2, Count: 2, Visible: true,
		Style: scichart.DrawStyle{Color: scichart.RGBA{B: 1, A: 1}, LineWidth: 2},
	}}
	if err := b.Render(list, lineUniforms(200, 100)); err != nil {
		t.Fatal(err)
	}
	pix, w, h, err := b.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h/2; y++ {
		for x := 0; x < w; x++ {
			if pix[(y*w+x)*4+2] > 0 {
				t.Fatalf("pixel (%d,%d) drawn from skipped points", x, y)
			}
		}
	}
}

func TestSnapshot(t *testing.T) {
	b := newTestBackend(t)
	defer b.Destroy()

	if _, err := b.Snapshot(100, 50); !errors.Is(err, ErrNoFrame) {
		t.Fatalf("err = %v, want ErrNoFrame", err)
	}

	if err := b.Render(nil, lineUniforms(200, 100)); err != nil {
		t.Fatal(err)
	}
	img, err := b.Snapshot(200, 100)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 200 {
		t.Errorf("unscaled snapshot width %d", img.Bounds().Dx())
	}
	small, err := b.Snapshot(50, 25)
	if err != nil {
		t.Fatal(err)
	}
	if small.Bounds().Dx() != 50 || small.Bounds().Dy() != 25 {
		t.Errorf("scaled snapshot %v", small.Bounds())
	}
}

func TestUninitialized(t *testing.T) {
	b := New()
	if err := b.SetViewport(10, 10, 1); !errors.Is(err, scichart.ErrNotInitialized) {
		t.Errorf("SetViewport err = %v", err)
	}
	if err := b.CreateOrUpdateBuffer("x", []byte{0, 0, 0, 0}, scichart.BufferStatic); !errors.Is(err, scichart.ErrNotInitialized) {
		t.Errorf("CreateOrUpdateBuffer err = %v", err)
	}
	if _, _, _, err := b.ReadPixels(); !errors.Is(err, scichart.ErrNotInitialized) {
		t.Errorf("ReadPixels err = %v", err)
	}
}
