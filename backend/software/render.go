package software

import (
	"fmt"
	"image"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

// mapper converts data-space coordinates to physical framebuffer
// pixels. Framebuffer y grows down, data y grows up.
type mapper struct {
	sx, sy float64
	tx, ty float64
}

func newMapper(bounds *scichart.Bounds, yb *scichart.YBounds, pw, ph float64) mapper {
	m := mapper{sx: 1, sy: 1}
	if bounds == nil {
		return m
	}
	minY, maxY := bounds.MinY, bounds.MaxY
	if yb != nil {
		minY, maxY = yb.Min, yb.Max
	}
	dx := bounds.MaxX - bounds.MinX
	if dx == 0 {
		dx = 1
	}
	dy := maxY - minY
	if dy == 0 {
		dy = 1
	}
	m.sx = pw / dx
	m.tx = -bounds.MinX * m.sx
	m.sy = -ph / dy
	m.ty = ph + minY*ph/dy
	return m
}

func (m mapper) apply(x, y float64) (float32, float32) {
	return float32(x*m.sx + m.tx), float32(y*m.sy + m.ty)
}

// Render rasterizes the list in paint order. Calls referencing
// unknown buffers are skipped, never an error.
func (b *Backend) Render(list scichart.DrawList, fu scichart.FrameUniforms) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if fu.Width <= 0 || fu.Height <= 0 {
		return fmt.Errorf("software: invalid frame size %vx%v", fu.Width, fu.Height)
	}
	dpr := fu.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	pw := physicalSize(fu.Width, dpr)
	ph := physicalSize(fu.Height, dpr)
	if b.fb == nil || b.fb.Bounds().Dx() != pw || b.fb.Bounds().Dy() != ph {
		b.fb = image.NewRGBA(image.Rect(0, 0, pw, ph))
	}

	b.clear(fu.ClearColor)

	clip := clipRect{0, 0, pw, ph}
	if fu.ClipRect != nil {
		r := fu.ClipRect
		clip = clipRect{
			x0: int(r.X * dpr),
			y0: int(r.Y * dpr),
			x1: int((r.X + r.W) * dpr),
			y1: int((r.Y + r.H) * dpr),
		}.clampTo(b.fb.Bounds())
	}

	for i := range list {
		call := &list[i]
		if !call.Visible {
			continue
		}
		b.renderCall(call, fu, clip, dpr)
	}

	b.frameRendered = true
	return nil
}

// clear fills the framebuffer with the premultiplied clear color.
func (b *Backend) clear(c scichart.RGBA) {
	r := clampByte(float32(c.R*c.A) * 255)
	g := clampByte(float32(c.G*c.A) * 255)
	bl := clampByte(float32(c.B*c.A) * 255)
	a := clampByte(float32(c.A) * 255)
	pix := b.fb.Pix
	for i := 0; i < len(pix); i += 4 {
		pix[i+0] = r
		pix[i+1] = g
		pix[i+2] = bl
		pix[i+3] = a
	}
}

func (b *Backend) renderCall(call *scichart.DrawCall, fu scichart.FrameUniforms, clip clipRect, dpr float64) {
	if call.Kind == scichart.KindHeatmap {
		b.renderHeatmap(call, clip)
		return
	}

	pts, ok := b.buffers[call.BufferID]
	if !ok {
		scichart.Logger().Debug("skipping draw call: buffer not registered",
			"call", call.ID, "buffer", call.BufferID)
		return
	}
	first := call.First
	if first < 0 {
		first = 0
	}
	maxPts := len(pts) / 2
	if first >= maxPts {
		return
	}
	count := call.Count
	if avail := maxPts - first; count > avail {
		count = avail
	}
	if count == 0 {
		return
	}
	pts = pts[first*2:]

	bounds := b.fb.Bounds()
	m := newMapper(fu.DataBounds, call.YBounds, float64(bounds.Dx()), float64(bounds.Dy()))
	lineW := float32(call.Style.LineWidth * dpr)
	if lineW <= 0 {
		lineW = float32(dpr)
	}

	switch call.Kind {
	case scichart.KindLine, scichart.KindLineScatter:
		b.strokePolyline(pts, count, m, clip, lineW, call.Style.Color, false)
	case scichart.KindStep, scichart.KindStepScatter:
		if step, ok := b.buffers[call.StepBufferID]; ok && call.StepCount > 0 {
			n := call.StepCount
			if maxPts := len(step) / 2; n > maxPts {
				n = maxPts
			}
			b.strokePolyline(step, n, m, clip, lineW, call.Style.Color, false)
		} else {
			b.strokePolyline(pts, count, m, clip, lineW, call.Style.Color, true)
		}
	case scichart.KindBand:
		b.fillBand(pts, count, m, clip, fillColor(call.Style))
	case scichart.KindBar:
		b.fillBars(pts, count, m, clip, call.Style.BarWidth, fillColor(call.Style))
	case scichart.KindTriangles:
		b.fillTriangles(pts, count, m, clip, call.Style.Color)
	}

	if call.Kind.HasSymbols() {
		size := call.Style.PointSize
		if size <= 0 {
			size = 6
		}
		for i := 0; i < count; i++ {
			px, py := m.apply(float64(pts[i*2]), float64(pts[i*2+1]))
			drawSymbol(b.fb, clip, px, py, float32(size*dpr), call.Style.Symbol, call.Style.Color)
		}
	}
}

func fillColor(s scichart.DrawStyle) scichart.RGBA {
	if s.FillColor == (scichart.RGBA{}) {
		return s.Color
	}
	return s.FillColor
}

// strokePolyline draws the connected series, optionally with step
// interpolation (horizontal then vertical segment per point pair).
func (b *Backend) strokePolyline(pts []float32, count int, m mapper, clip clipRect, width float32, color scichart.RGBA, step bool) {
	if count < 2 {
		return
	}
	x0, y0 := m.apply(float64(pts[0]), float64(pts[1]))
	for i := 1; i < count; i++ {
		x1, y1 := m.apply(float64(pts[i*2]), float64(pts[i*2+1]))
		if step {
			drawSegment(b.fb, clip, x0, y0, x1, y0, width, color)
			drawSegment(b.fb, clip, x1, y0, x1, y1, width, color)
		} else {
			drawSegment(b.fb, clip, x0, y0, x1, y1, width, color)
		}
		x0, y0 = x1, y1
	}
}

// fillBand fills the strip between alternating lower/upper vertices.
func (b *Backend) fillBand(pts []float32, count int, m mapper, clip clipRect, color scichart.RGBA) {
	for i := 0; i+3 < count; i += 2 {
		ax, ay := m.apply(float64(pts[i*2]), float64(pts[i*2+1]))
		bx, by := m.apply(float64(pts[i*2+2]), float64(pts[i*2+3]))
		cx, cy := m.apply(float64(pts[i*2+4]), float64(pts[i*2+5]))
		dx, dy := m.apply(float64(pts[i*2+6]), float64(pts[i*2+7]))
		fillTriangle(b.fb, clip, ax, ay, bx, by, cx, cy, color)
		fillTriangle(b.fb, clip, bx, by, dx, dy, cx, cy, color)
	}
}

// fillBars draws one rect per point from the y=0 baseline.
func (b *Backend) fillBars(pts []float32, count int, m mapper, clip clipRect, barWidth float64, color scichart.RGBA) {
	if barWidth <= 0 {
		scichart.Logger().Debug("skipping bar call: zero bar width")
		return
	}
	halfW := float32(barWidth / 2 * m.sx)
	_, baseY := m.apply(0, 0)
	for i := 0; i < count; i++ {
		px, py := m.apply(float64(pts[i*2]), float64(pts[i*2+1]))
		fillRect(b.fb, clip, px-halfW, baseY, px+halfW, py, color)
	}
}

func (b *Backend) fillTriangles(pts []float32, count int, m mapper, clip clipRect, color scichart.RGBA) {
	for i := 0; i+2 < count; i += 3 {
		ax, ay := m.apply(float64(pts[i*2]), float64(pts[i*2+1]))
		bx, by := m.apply(float64(pts[i*2+2]), float64(pts[i*2+3]))
		cx, cy := m.apply(float64(pts[i*2+4]), float64(pts[i*2+5]))
		fillTriangle(b.fb, clip, ax, ay, bx, by, cx, cy, color)
	}
}

// renderHeatmap maps grid cells over the clip rect through the
// palette lookup table.
func (b *Backend) renderHeatmap(call *scichart.DrawCall, clip clipRect) {
	values, ok := b.buffers[call.BufferID]
	if !ok {
		scichart.Logger().Debug("skipping heatmap: values buffer not registered",
			"call", call.ID, "buffer", call.BufferID)
		return
	}
	pal, ok := b.palettes[call.TextureID]
	if !ok {
		scichart.Logger().Debug("skipping heatmap: palette not registered",
			"call", call.ID, "texture", call.TextureID)
		return
	}
	cols, rows := call.HeatmapCols, call.HeatmapRows
	if cols <= 0 || rows <= 0 || len(values) < cols*rows || len(pal.texels) == 0 {
		return
	}

	span := call.HeatmapMax - call.HeatmapMin
	if span == 0 {
		span = 1
	}
	w := clip.x1 - clip.x0
	h := clip.y1 - clip.y0
	if w <= 0 || h <= 0 {
		return
	}

	n := len(pal.texels)
	for py := clip.y0; py < clip.y1; py++ {
		// Row 0 sits at the bottom edge, matching the y-up data mapping
		// used for every other series kind.
		row := (clip.y1 - 1 - py) * rows / h
		if row >= rows {
			row = rows - 1
		}
		for px := clip.x0; px < clip.x1; px++ {
			col := (px - clip.x0) * cols / w
			if col >= cols {
				col = cols - 1
			}
			v := float64(values[row*cols+col])
			t := (v - call.HeatmapMin) / span
			if t < 0 {
				t = 0
			} else if t > 1 {
				t = 1
			}

			fidx := t * float64(n-1)
			i0 := int(fidx)
			var texel [4]float32
			if pal.smooth && i0+1 < n {
				f := float32(fidx - float64(i0))
				for c := 0; c < 4; c++ {
					texel[c] = pal.texels[i0][c]*(1-f) + pal.texels[i0+1][c]*f
				}
			} else {
				texel = pal.texels[int(fidx+0.5)]
			}
			blendPixel(b.fb, px, py, scichart.RGBA{
				R: float64(texel[0]), G: float64(texel[1]),
				B: float64(texel[2]), A: float64(texel[3]),
			}, 1)
		}
	}
}
