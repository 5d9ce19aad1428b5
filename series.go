package scichart

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SeriesSpec is the caller-facing description of one chart series.
// String fields use CSS-style values; the renderer converts them to
// draw-list form and uploads the packed geometry.
type SeriesSpec struct {
	// ID is the stable series identifier; it doubles as the GPU
	// buffer id.
	ID string

	// Type names the primitive family: "line", "scatter",
	// "line+scatter", "step", "step+scatter", "band", "bar",
	// "triangles", "heatmap". Unknown values fall back to "line".
	Type string

	// Data is interleaved x,y pairs (or cell values for heatmaps).
	Data []float64

	// Color is the stroke color as a CSS color string.
	Color string

	// FillColor is the band/bar fill; empty falls back to Color.
	FillColor string

	// LineWidth in logical pixels. Zero means 1.
	LineWidth float64

	// PointSize is the symbol diameter in logical pixels. Zero means 6.
	PointSize float64

	// Symbol names the scatter shape: "circle", "square", "diamond",
	// "triangle", "triangle-down", "cross", "x", "star".
	Symbol string

	// BarWidth in data units. Zero derives the width from the minimum
	// x spacing (see CalculateBarWidth).
	BarWidth float64

	// Hidden excludes the series from rendering without removing it.
	Hidden bool

	// YRange optionally gives the series its own y axis.
	YRange *YBounds

	// Heatmap grid shape and value range. Zero Min and Max derive the
	// range from the data.
	Cols, Rows int
	Min, Max   float64

	// Palette lists heatmap color stops as CSS color strings.
	// Empty uses DefaultPalette. SmoothPalette interpolates between
	// stops.
	Palette       []string
	SmoothPalette bool
}

// DefaultPalette is the heatmap color ramp used when a series names
// no palette.
var DefaultPalette = []string{"#440154", "#31688e", "#35b779", "#fde725"}

// ParseDrawKind maps a series type string to its DrawKind.
// Unknown strings fall back to KindLine.
func ParseDrawKind(s string) DrawKind {
	switch s {
	case "line":
		return KindLine
	case "scatter":
		return KindScatter
	case "line+scatter":
		return KindLineScatter
	case "step":
		return KindStep
	case "step+scatter":
		return KindStepScatter
	case "band":
		return KindBand
	case "bar":
		return KindBar
	case "triangles":
		return KindTriangles
	case "heatmap":
		return KindHeatmap
	default:
		return KindLine
	}
}

// ParseSymbol maps a symbol name to its Symbol.
// Unknown strings fall back to SymbolCircle.
func ParseSymbol(s string) Symbol {
	switch s {
	case "square":
		return SymbolSquare
	case "diamond":
		return SymbolDiamond
	case "triangle":
		return SymbolTriangle
	case "triangle-down":
		return SymbolTriangleDown
	case "cross":
		return SymbolCross
	case "x":
		return SymbolX
	case "star":
		return SymbolStar
	default:
		return SymbolCircle
	}
}

// CalculateBarWidth derives the default bar width from the minimum
// spacing between consecutive x values, scaled to 80% so adjacent
// bars keep a visible gap. Fewer than two points yields width 1.
func CalculateBarWidth(data []float64) float64 {
	n := len(data) / 2
	if n < 2 {
		return 1
	}
	minDelta := math.Inf(1)
	for i := 1; i < n; i++ {
		d := math.Abs(data[i*2] - data[(i-1)*2])
		if d > 0 && d < minDelta {
			minDelta = d
		}
	}
	if math.IsInf(minDelta, 1) {
		return 1
	}
	return minDelta * 0.8
}

// PackPoints serializes float64 pairs as little-endian float32 bytes,
// the wire layout of every vertex buffer.
func PackPoints(data []float64) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(float32(v)))
	}
	return out
}

// PackPointsF32 serializes float32 values little-endian.
func PackPointsF32(data []float32) []byte {
	out := make([]byte, len(data)*4)
	for i, v := range data {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

// ExpandSteps converts a series into step-after line geometry: each
// pair of points contributes a horizontal then a vertical segment.
// n points produce 2n-1 vertices.
func ExpandSteps(data []float64) []float64 {
	n := len(data) / 2
	if n < 2 {
		return append([]float64(nil), data[:n*2]...)
	}
	out := make([]float64, 0, (2*n-1)*2)
	out = append(out, data[0], data[1])
	for i := 1; i < n; i++ {
		x := data[i*2]
		prevY := data[(i-1)*2+1]
		y := data[i*2+1]
		out = append(out, x, prevY, x, y)
	}
	return out
}

// buildDrawCall converts a spec to its draw-list form. Geometry
// upload happens separately; this resolves only styling and counts.
func buildDrawCall(spec *SeriesSpec) (DrawCall, error) {
	if spec.ID == "" {
		return DrawCall{}, fmt.Errorf("scichart: series with empty id")
	}
	kind := ParseDrawKind(spec.Type)

	style := DrawStyle{
		Color:     ParseColor(spec.Color),
		LineWidth: spec.LineWidth,
		PointSize: spec.PointSize,
		Symbol:    ParseSymbol(spec.Symbol),
		BarWidth:  spec.BarWidth,
	}
	if spec.Color == "" {
		style.Color = RGBA{R: 0.12, G: 0.47, B: 0.71, A: 1}
	}
	if spec.FillColor != "" {
		style.FillColor = ParseColor(spec.FillColor)
	}
	if style.LineWidth <= 0 {
		style.LineWidth = 1
	}
	if style.PointSize <= 0 {
		style.PointSize = 6
	}
	if kind == KindBar && style.BarWidth <= 0 {
		style.BarWidth = CalculateBarWidth(spec.Data)
	}

	call := DrawCall{
		ID:       spec.ID,
		Kind:     kind,
		BufferID: spec.ID,
		Count:    len(spec.Data) / 2,
		Visible:  !spec.Hidden,
		Style:    style,
		YBounds:  spec.YRange,
	}

	if kind == KindHeatmap {
		if spec.Cols <= 0 || spec.Rows <= 0 {
			return DrawCall{}, fmt.Errorf("scichart: heatmap %q: grid is %dx%d", spec.ID, spec.Cols, spec.Rows)
		}
		if len(spec.Data) < spec.Cols*spec.Rows {
			return DrawCall{}, fmt.Errorf("scichart: heatmap %q: %d values for %dx%d grid",
				spec.ID, len(spec.Data), spec.Cols, spec.Rows)
		}
		call.Count = spec.Cols * spec.Rows
		call.TextureID = spec.ID + "/palette"
		call.HeatmapCols = spec.Cols
		call.HeatmapRows = spec.Rows
		call.HeatmapMin = spec.Min
		call.HeatmapMax = spec.Max
		if call.HeatmapMin == 0 && call.HeatmapMax == 0 {
			call.HeatmapMin, call.HeatmapMax = valueRange(spec.Data[:call.Count])
		}
	}

	if kind == KindStep || kind == KindStepScatter {
		call.StepBufferID = spec.ID + "/step"
		n := len(spec.Data) / 2
		if n >= 2 {
			call.StepCount = 2*n - 1
		} else {
			call.StepCount = n
		}
	}

	return call, nil
}

// valueRange returns the min and max of data, ignoring NaN.
func valueRange(data []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo > hi {
		return 0, 1
	}
	return lo, hi
}

// buildPalette resolves palette stops into RGBA texel floats.
func buildPalette(stops []string) []float32 {
	if len(stops) == 0 {
		stops = DefaultPalette
	}
	out := make([]float32, 0, len(stops)*4)
	for _, s := range stops {
		c := ParseColor(s)
		out = append(out, float32(c.R), float32(c.G), float32(c.B), float32(c.A))
	}
	return out
}
