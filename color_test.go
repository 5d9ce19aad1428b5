package scichart

import (
	"math"
	"testing"
)

func colorNear(a, b RGBA, eps float64) bool {
	return math.Abs(a.R-b.R) <= eps &&
		math.Abs(a.G-b.G) <= eps &&
		math.Abs(a.B-b.B) <= eps &&
		math.Abs(a.A-b.A) <= eps
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RGBA
	}{
		{"hex red", "#ff0000", RGBA{1, 0, 0, 1}},
		{"hex green with alpha", "#00ff0080", RGBA{0, 1, 0, 0.502}},
		{"hex short", "#f00", RGBA{1, 0, 0, 1}},
		{"hex short with alpha", "#f008", RGBA{1, 0, 0, 0.533}},
		{"hex no hash", "0000ff", RGBA{0, 0, 1, 1}},
		{"hex uppercase", "#FF8000", RGBA{1, 0.502, 0, 1}},
		{"rgb func", "rgb(255, 0, 0)", RGBA{1, 0, 0, 1}},
		{"rgb no spaces", "rgb(0,128,255)", RGBA{0, 0.502, 1, 1}},
		{"rgba func", "rgba(0, 0, 255, 0.5)", RGBA{0, 0, 1, 0.5}},
		{"rgba clamps channels", "rgba(300, -5, 0, 2)", RGBA{1, 0, 0, 1}},
		{"malformed hex", "#zzz", RGBA{0, 0, 0, 1}},
		{"malformed rgb", "rgb(1,2)", RGBA{0, 0, 0, 1}},
		{"garbage", "notacolor", RGBA{0, 0, 0, 1}},
		{"empty", "", RGBA{0, 0, 0, 1}},
		{"whitespace", "  #00ff00  ", RGBA{0, 1, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseColor(tt.in)
			if !colorNear(got, tt.want, 0.002) {
				t.Errorf("ParseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRGBAPremultiply(t *testing.T) {
	c := RGBA{1, 0.5, 0, 0.5}.Premultiply()
	want := RGBA{0.5, 0.25, 0, 0.5}
	if !colorNear(c, want, 1e-9) {
		t.Errorf("Premultiply = %+v, want %+v", c, want)
	}
}

func TestRGBALerp(t *testing.T) {
	got := Black.Lerp(White, 0.5)
	want := RGBA{0.5, 0.5, 0.5, 1}
	if !colorNear(got, want, 1e-9) {
		t.Errorf("Lerp = %+v, want %+v", got, want)
	}
}
