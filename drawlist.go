package scichart

// DrawKind identifies the primitive family of a draw call.
// It is a closed set; backends select a pipeline (or raster routine)
// per kind.
type DrawKind uint8

const (
	// KindLine draws a connected polyline through the series points.
	KindLine DrawKind = iota

	// KindScatter draws one symbol per point.
	KindScatter

	// KindLineScatter draws the polyline and a symbol per point.
	KindLineScatter

	// KindStep draws a step-interpolated line. When the draw call
	// carries a StepBufferID, the pre-expanded step geometry is drawn
	// instead of the raw series buffer.
	KindStep

	// KindStepScatter combines KindStep with per-point symbols.
	KindStepScatter

	// KindBand fills the area between two y-values per x (triangle strip).
	KindBand

	// KindBar draws one vertical bar per point.
	KindBar

	// KindTriangles draws raw triangle soup from the buffer.
	KindTriangles

	// KindHeatmap maps cell values through a 1D color texture.
	KindHeatmap
)

// String returns the wire name of the draw kind.
func (k DrawKind) String() string {
	switch k {
	case KindLine:
		return "line"
	case KindScatter:
		return "scatter"
	case KindLineScatter:
		return "line+scatter"
	case KindStep:
		return "step"
	case KindStepScatter:
		return "step+scatter"
	case KindBand:
		return "band"
	case KindBar:
		return "bar"
	case KindTriangles:
		return "triangles"
	case KindHeatmap:
		return "heatmap"
	default:
		return "unknown"
	}
}

// HasSymbols reports whether the kind renders per-point symbols.
func (k DrawKind) HasSymbols() bool {
	return k == KindScatter || k == KindLineScatter || k == KindStepScatter
}

// HasLine reports whether the kind renders connected line geometry.
func (k DrawKind) HasLine() bool {
	return k == KindLine || k == KindLineScatter || k == KindStep || k == KindStepScatter
}

// Symbol selects the signed-distance-field shape used for scatter points.
type Symbol uint8

const (
	SymbolCircle Symbol = iota
	SymbolSquare
	SymbolDiamond
	SymbolTriangle
	SymbolTriangleDown
	SymbolCross
	SymbolX
	SymbolStar
)

// String returns the symbol name.
func (s Symbol) String() string {
	switch s {
	case SymbolCircle:
		return "circle"
	case SymbolSquare:
		return "square"
	case SymbolDiamond:
		return "diamond"
	case SymbolTriangle:
		return "triangle"
	case SymbolTriangleDown:
		return "triangle-down"
	case SymbolCross:
		return "cross"
	case SymbolX:
		return "x"
	case SymbolStar:
		return "star"
	default:
		return "circle"
	}
}

// DrawStyle carries the visual parameters of one draw call.
type DrawStyle struct {
	// Color is the primary stroke/fill color.
	Color RGBA

	// FillColor is used by band and bar fills; zero value falls back
	// to Color.
	FillColor RGBA

	// LineWidth is the stroke width in logical pixels.
	LineWidth float64

	// PointSize is the symbol diameter in logical pixels.
	PointSize float64

	// Symbol selects the scatter SDF shape.
	Symbol Symbol

	// BarWidth is the bar width in data units. Zero means "derive from
	// minimum x spacing" (see CalculateBarWidth).
	BarWidth float64
}

// Bounds is an axis-aligned data-space rectangle.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// YBounds is an optional per-call y-range override.
type YBounds struct {
	Min, Max float64
}

// Rect is a pixel-space rectangle (origin top-left, logical pixels).
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the pixel point (px, py) lies inside the rect.
func (r Rect) Contains(px, py float64) bool {
	return px >= r.X && px < r.X+r.W && py >= r.Y && py < r.Y+r.H
}

// DrawCall is one renderable primitive in a draw list.
//
// BufferID must reference a buffer registered with the active backend
// before Render is called; calls referencing unregistered buffers are
// skipped, never an error (one bad series must not blank the frame).
// DrawCall carries no GPU handles and stays serializable until it is
// resolved against the backend's buffer registry.
type DrawCall struct {
	// ID identifies the call for diagnostics; not interpreted.
	ID string

	// Kind selects the primitive family.
	Kind DrawKind

	// BufferID names the vertex buffer (interleaved x,y float32 pairs,
	// except KindHeatmap where it holds cell values).
	BufferID string

	// First is the index of the first point drawn from the buffer.
	// Nonzero values let one large buffer back several batched calls.
	First int

	// Count is the number of logical points (or triangle vertices for
	// KindTriangles, or grid cells for KindHeatmap).
	Count int

	// Visible toggles the call without removing it from the list.
	Visible bool

	// Style carries the visual parameters.
	Style DrawStyle

	// YBounds optionally overrides the frame's y data bounds for this
	// call (per-axis series).
	YBounds *YBounds

	// TextureID names the 1D color texture for KindHeatmap.
	TextureID string

	// StepBufferID optionally names a caller-precomputed step-expanded
	// buffer for step kinds. When set, StepCount vertices from that
	// buffer are drawn instead of the raw series buffer.
	StepBufferID string

	// StepCount is the vertex count of StepBufferID.
	StepCount int

	// HeatmapCols and HeatmapRows give the grid shape for KindHeatmap.
	HeatmapCols int
	HeatmapRows int

	// HeatmapMin and HeatmapMax span the value range mapped onto the
	// color texture.
	HeatmapMin float64
	HeatmapMax float64
}

// DrawList is an ordered sequence of draw calls. Order is paint order:
// later items draw on top. The renderer holds no persistent copy; the
// caller rebuilds or mutates it between frames.
type DrawList []DrawCall

// FrameUniforms is the per-frame global state consumed by Render.
// It is constructed fresh per render call and not retained.
type FrameUniforms struct {
	// Width and Height are the logical viewport size in CSS-style pixels.
	Width, Height float64

	// DevicePixelRatio scales logical to physical pixels.
	DevicePixelRatio float64

	// ClearColor is the frame background.
	ClearColor RGBA

	// DataBounds maps data space onto the plot area. Nil leaves the
	// previous transform semantics to the backend (identity).
	DataBounds *Bounds

	// ClipRect optionally restricts drawing to a plot-area
	// sub-rectangle of the canvas, in logical pixels.
	ClipRect *Rect
}

// Transform is the per-call data-to-clip-space mapping derived from
// bounds: clip = data*Scale + Translate, per axis.
type Transform struct {
	ScaleX, ScaleY         float32
	TranslateX, TranslateY float32
}

// ComputeTransform derives the clip-space transform for a draw call.
// Degenerate (zero-width) bounds fall back to scale 1 so the transform
// never divides by zero or produces NaN.
func ComputeTransform(bounds *Bounds, yb *YBounds) Transform {
	t := Transform{ScaleX: 1, ScaleY: 1}
	if bounds == nil {
		return t
	}
	minY, maxY := bounds.MinY, bounds.MaxY
	if yb != nil {
		minY, maxY = yb.Min, yb.Max
	}
	if dx := bounds.MaxX - bounds.MinX; dx != 0 {
		t.ScaleX = float32(2 / dx)
		t.TranslateX = float32(-1 - bounds.MinX*(2/dx))
	} else {
		t.TranslateX = float32(-bounds.MinX)
	}
	if dy := maxY - minY; dy != 0 {
		t.ScaleY = float32(2 / dy)
		t.TranslateY = float32(-1 - minY*(2/dy))
	} else {
		t.TranslateY = float32(-minY)
	}
	return t
}
