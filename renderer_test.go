package scichart_test

import (
	"errors"
	"testing"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
	"github.com/jigonzalez930209/scichart-engine-sub001/backend/software"
)

func newRenderer(t *testing.T) *scichart.Renderer {
	t.Helper()
	b := software.New()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	r := scichart.NewRenderer(b)
	if err := r.SetSize(640, 480, 1); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestRendererSeriesLifecycle(t *testing.T) {
	r := newRenderer(t)
	defer r.Destroy()

	err := r.SetSeries(scichart.SeriesSpec{
		ID: "a", Type: "line", Color: "#ff0000",
		Data: []float64{0, 0, 1, 1, 2, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !r.HasSeries("a") {
		t.Fatal("series not registered")
	}

	list := r.DrawList()
	if len(list) != 1 {
		t.Fatalf("draw list length = %d", len(list))
	}
	if list[0].Kind != scichart.KindLine || list[0].BufferID != "a" {
		t.Errorf("unexpected call: %+v", list[0])
	}
	if list[0].Style.Color != (scichart.RGBA{R: 1, A: 1}) {
		t.Errorf("color = %+v", list[0].Style.Color)
	}

	r.SetVisible("a", false)
	if r.DrawList()[0].Visible {
		t.Error("SetVisible(false) ignored")
	}

	r.RemoveSeries("a")
	if r.HasSeries("a") {
		t.Error("series survived removal")
	}
	r.RemoveSeries("a") // unknown id is a no-op
}

func TestRendererRenderProducesPixels(t *testing.T) {
	r := newRenderer(t)
	defer r.Destroy()

	if err := r.SetSeries(scichart.SeriesSpec{
		ID: "line", Type: "line", Color: "#00ff00", LineWidth: 3,
		Data: []float64{0, 0, 1, 1},
	}); err != nil {
		t.Fatal(err)
	}

	err := r.Render(scichart.FrameOptions{
		Bounds:     &scichart.Bounds{MinX: -0.2, MaxX: 1.2, MinY: -0.2, MaxY: 1.2},
		ClearColor: scichart.RGBA{R: 0, G: 0, B: 0, A: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	pix, w, h, err := r.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	if w != 640 || h != 480 {
		t.Fatalf("frame %dx%d, want 640x480", w, h)
	}
	green := 0
	for i := 0; i < len(pix); i += 4 {
		if pix[i+1] > 100 {
			green++
		}
	}
	if green == 0 {
		t.Error("no line pixels rendered")
	}
}

func TestRendererRenderBeforeSetSize(t *testing.T) {
	b := software.New()
	if err := b.Init(); err != nil {
		t.Fatal(err)
	}
	r := scichart.NewRenderer(b)
	defer r.Destroy()

	err := r.Render(scichart.FrameOptions{})
	if !errors.Is(err, scichart.ErrNotInitialized) {
		t.Errorf("err = %v, want ErrNotInitialized", err)
	}
}

func TestRendererStepSeries(t *testing.T) {
	r := newRenderer(t)
	defer r.Destroy()

	if err := r.SetSeries(scichart.SeriesSpec{
		ID: "st", Type: "step",
		Data: []float64{0, 0, 1, 2, 2, 1},
	}); err != nil {
		t.Fatal(err)
	}
	call := r.DrawList()[0]
	if call.StepBufferID != "st/step" || call.StepCount != 5 {
		t.Errorf("step expansion missing: %+v", call)
	}
}

func TestRendererHeatmapSeries(t *testing.T) {
	r := newRenderer(t)
	defer r.Destroy()

	if err := r.SetSeries(scichart.SeriesSpec{
		ID: "hm", Type: "heatmap",
		Cols: 4, Rows: 2,
		Data:          []float64{0, 1, 2, 3, 4, 5, 6, 7},
		Palette:       []string{"#000000", "#ffffff"},
		SmoothPalette: true,
	}); err != nil {
		t.Fatal(err)
	}

	err := r.Render(scichart.FrameOptions{
		Bounds:   &scichart.Bounds{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1},
		ClipRect: &scichart.Rect{X: 100, Y: 100, W: 400, H: 200},
	})
	if err != nil {
		t.Fatal(err)
	}

	pix, _, _, err := r.ReadPixels()
	if err != nil {
		t.Fatal(err)
	}
	lit := 0
	for i := 0; i < len(pix); i += 4 {
		if pix[i] > 0 {
			lit++
		}
	}
	if lit == 0 {
		t.Error("heatmap rendered no pixels")
	}
}

func TestRegistryFallback(t *testing.T) {
	if got := scichart.GetBackend("software"); got == nil {
		t.Fatal("software backend not registered")
	}
	if scichart.GetBackend("nope") != nil {
		t.Error("unknown backend should be nil")
	}
	names := scichart.AvailableBackends()
	found := false
	for _, n := range names {
		if n == "software" {
			found = true
		}
	}
	if !found {
		t.Errorf("AvailableBackends = %v", names)
	}

	b, err := scichart.InitDefaultBackend()
	if err != nil {
		t.Fatalf("no backend available: %v", err)
	}
	defer b.Destroy()
	if b.Name() == "" {
		t.Error("backend has no name")
	}
}
