package scichart

import (
	"math"
	"testing"
)

func TestCalculateBarWidth(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		want float64
	}{
		{"uneven spacing", []float64{0, 1, 1, 2, 2, 3, 4, 4}, 0.8},
		{"uniform spacing", []float64{0, 0, 2, 0, 4, 0}, 1.6},
		{"single point", []float64{5, 1}, 1},
		{"empty", nil, 1},
		{"duplicate x ignored", []float64{0, 0, 0, 1, 3, 2}, 2.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateBarWidth(tt.data)
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CalculateBarWidth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExpandSteps(t *testing.T) {
	in := []float64{0, 0, 1, 2, 2, 1}
	want := []float64{0, 0, 1, 0, 1, 2, 2, 2, 2, 1}
	got := ExpandSteps(in)
	if len(got) != len(want) {
		t.Fatalf("ExpandSteps length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ExpandSteps[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestExpandStepsSinglePoint(t *testing.T) {
	got := ExpandSteps([]float64{3, 4})
	if len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Errorf("ExpandSteps single point = %v", got)
	}
}

func TestParseDrawKind(t *testing.T) {
	for _, k := range []DrawKind{
		KindLine, KindScatter, KindLineScatter, KindStep, KindStepScatter,
		KindBand, KindBar, KindTriangles, KindHeatmap,
	} {
		if got := ParseDrawKind(k.String()); got != k {
			t.Errorf("ParseDrawKind(%q) = %v, want %v", k.String(), got, k)
		}
	}
	if got := ParseDrawKind("bogus"); got != KindLine {
		t.Errorf("ParseDrawKind fallback = %v, want KindLine", got)
	}
}

func TestParseSymbol(t *testing.T) {
	for _, s := range []Symbol{
		SymbolCircle, SymbolSquare, SymbolDiamond, SymbolTriangle,
		SymbolTriangleDown, SymbolCross, SymbolX, SymbolStar,
	} {
		if got := ParseSymbol(s.String()); got != s {
			t.Errorf("ParseSymbol(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestBuildDrawCallBarDefaults(t *testing.T) {
	spec := SeriesSpec{
		ID:   "bars",
		Type: "bar",
		Data: []float64{0, 1, 1, 2, 2, 3, 4, 4},
	}
	call, err := buildDrawCall(&spec)
	if err != nil {
		t.Fatal(err)
	}
	if call.Kind != KindBar {
		t.Errorf("Kind = %v, want KindBar", call.Kind)
	}
	if math.Abs(call.Style.BarWidth-0.8) > 1e-12 {
		t.Errorf("BarWidth = %v, want 0.8", call.Style.BarWidth)
	}
}

func TestBuildDrawCallStepDerivesBuffer(t *testing.T) {
	spec := SeriesSpec{
		ID:   "s",
		Type: "step",
		Data: []float64{0, 0, 1, 1, 2, 0},
	}
	call, err := buildDrawCall(&spec)
	if err != nil {
		t.Fatal(err)
	}
	if call.StepBufferID != "s/step" {
		t.Errorf("StepBufferID = %q", call.StepBufferID)
	}
	if call.StepCount != 5 {
		t.Errorf("StepCount = %d, want 5", call.StepCount)
	}
}

func TestBuildDrawCallHeatmapRange(t *testing.T) {
	spec := SeriesSpec{
		ID:   "h",
		Type: "heatmap",
		Cols: 2, Rows: 2,
		Data: []float64{1, 4, 2, 3},
	}
	call, err := buildDrawCall(&spec)
	if err != nil {
		t.Fatal(err)
	}
	if call.HeatmapMin != 1 || call.HeatmapMax != 4 {
		t.Errorf("derived range = [%v, %v], want [1, 4]", call.HeatmapMin, call.HeatmapMax)
	}
	if call.TextureID != "h/palette" {
		t.Errorf("TextureID = %q", call.TextureID)
	}
}

func TestBuildDrawCallErrors(t *testing.T) {
	if _, err := buildDrawCall(&SeriesSpec{Type: "line"}); err == nil {
		t.Error("empty id accepted")
	}
	if _, err := buildDrawCall(&SeriesSpec{ID: "h", Type: "heatmap", Cols: 3, Rows: 3, Data: []float64{1}}); err == nil {
		t.Error("undersized heatmap accepted")
	}
}

func TestPackPointsRoundTrip(t *testing.T) {
	in := []float64{0, 1.5, -2.25, 1e6}
	raw := PackPoints(in)
	if len(raw) != len(in)*4 {
		t.Fatalf("len = %d, want %d", len(raw), len(in)*4)
	}
	for i, v := range in {
		got := math.Float32frombits(
			uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24)
		if got != float32(v) {
			t.Errorf("point %d = %v, want %v", i, got, float32(v))
		}
	}
}
