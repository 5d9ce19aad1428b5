package software

import (
	"image"

	"github.com/chewxy/math32"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

// aaWidth controls the smoothstep transition width in pixels.
const aaWidth = 0.7

// smoothstepCoverage converts a signed distance to anti-aliased
// coverage via a Hermite smoothstep.
func smoothstepCoverage(sdf float32) float32 {
	if sdf >= aaWidth {
		return 0
	}
	if sdf <= -aaWidth {
		return 1
	}
	t := (sdf + aaWidth) / (2 * aaWidth)
	return 1 - (t * t * (3 - 2*t))
}

// clipRect is the integer pixel region draws are restricted to.
type clipRect struct {
	x0, y0, x1, y1 int
}

func (c clipRect) clampTo(b image.Rectangle) clipRect {
	if c.x0 < b.Min.X {
		c.x0 = b.Min.X
	}
	if c.y0 < b.Min.Y {
		c.y0 = b.Min.Y
	}
	if c.x1 > b.Max.X {
		c.x1 = b.Max.X
	}
	if c.y1 > b.Max.Y {
		c.y1 = b.Max.Y
	}
	return c
}

// blendPixel composites a premultiplied color over the framebuffer
// pixel with the given coverage.
func blendPixel(fb *image.RGBA, x, y int, color scichart.RGBA, coverage float32) {
	if coverage <= 0 {
		return
	}
	a := float32(color.A) * coverage
	if a <= 0 {
		return
	}
	sr := float32(color.R) * a * 255
	sg := float32(color.G) * a * 255
	sb := float32(color.B) * a * 255
	sa := a * 255

	i := fb.PixOffset(x, y)
	inv := 1 - a
	fb.Pix[i+0] = clampByte(sr + float32(fb.Pix[i+0])*inv)
	fb.Pix[i+1] = clampByte(sg + float32(fb.Pix[i+1])*inv)
	fb.Pix[i+2] = clampByte(sb + float32(fb.Pix[i+2])*inv)
	fb.Pix[i+3] = clampByte(sa + float32(fb.Pix[i+3])*inv)
}

func clampByte(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// drawSegment rasterizes an anti-aliased line segment of the given
// width using the distance to the segment as a signed field.
func drawSegment(fb *image.RGBA, clip clipRect, x0, y0, x1, y1, width float32, color scichart.RGBA) {
	half := width / 2
	if half < 0.5 {
		half = 0.5
	}
	pad := half + aaWidth

	minX := int(math32.Floor(math32.Min(x0, x1) - pad))
	maxX := int(math32.Ceil(math32.Max(x0, x1) + pad))
	minY := int(math32.Floor(math32.Min(y0, y1) - pad))
	maxY := int(math32.Ceil(math32.Max(y0, y1) + pad))

	if minX < clip.x0 {
		minX = clip.x0
	}
	if minY < clip.y0 {
		minY = clip.y0
	}
	if maxX > clip.x1 {
		maxX = clip.x1
	}
	if maxY > clip.y1 {
		maxY = clip.y1
	}

	dx := x1 - x0
	dy := y1 - y0
	lenSq := dx*dx + dy*dy

	for py := minY; py < maxY; py++ {
		for px := minX; px < maxX; px++ {
			fx := float32(px) + 0.5
			fy := float32(py) + 0.5

			var dist float32
			if lenSq < 1e-12 {
				dist = math32.Hypot(fx-x0, fy-y0)
			} else {
				t := ((fx-x0)*dx + (fy-y0)*dy) / lenSq
				if t < 0 {
					t = 0
				} else if t > 1 {
					t = 1
				}
				dist = math32.Hypot(fx-(x0+t*dx), fy-(y0+t*dy))
			}
			blendPixel(fb, px, py, color, smoothstepCoverage(dist-half))
		}
	}
}

// fillTriangle rasterizes a solid triangle with edge-function
// coverage (one sample per pixel, half-open edges).
func fillTriangle(fb *image.RGBA, clip clipRect, ax, ay, bx, by, cx, cy float32, color scichart.RGBA) {
	minX := int(math32.Floor(math32.Min(ax, math32.Min(bx, cx))))
	maxX := int(math32.Ceil(math32.Max(ax, math32.Max(bx, cx))))
	minY := int(math32.Floor(math32.Min(ay, math32.Min(by, cy))))
	maxY := int(math32.Ceil(math32.Max(ay, math32.Max(by, cy))))

	if minX < clip.x0 {
		minX = clip.x0
	}
	if minY < clip.y0 {
		minY = clip.y0
	}
	if maxX > clip.x1 {
		maxX = clip.x1
	}
	if maxY > clip.y1 {
		maxY = clip.y1
	}

	area := (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
	if math32.Abs(area) < 1e-12 {
		return
	}

	for py := minY; py < maxY; py++ {
		for px := minX; px < maxX; px++ {
			fx := float32(px) + 0.5
			fy := float32(py) + 0.5
			w0 := (bx-fx)*(cy-fy) - (by-fy)*(cx-fx)
			w1 := (cx-fx)*(ay-fy) - (cy-fy)*(ax-fx)
			w2 := (ax-fx)*(by-fy) - (ay-fy)*(bx-fx)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				blendPixel(fb, px, py, color, 1)
			}
		}
	}
}

// fillRect rasterizes an axis-aligned rectangle with edge
// anti-aliasing from partial pixel overlap.
func fillRect(fb *image.RGBA, clip clipRect, x0, y0, x1, y1 float32, color scichart.RGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	minX := int(math32.Floor(x0))
	maxX := int(math32.Ceil(x1))
	minY := int(math32.Floor(y0))
	maxY := int(math32.Ceil(y1))

	if minX < clip.x0 {
		minX = clip.x0
	}
	if minY < clip.y0 {
		minY = clip.y0
	}
	if maxX > clip.x1 {
		maxX = clip.x1
	}
	if maxY > clip.y1 {
		maxY = clip.y1
	}

	for py := minY; py < maxY; py++ {
		cy := overlap(float32(py), float32(py)+1, y0, y1)
		if cy <= 0 {
			continue
		}
		for px := minX; px < maxX; px++ {
			cx := overlap(float32(px), float32(px)+1, x0, x1)
			blendPixel(fb, px, py, color, cx*cy)
		}
	}
}

// overlap returns the length of the intersection of [a0,a1] and [b0,b1].
func overlap(a0, a1, b0, b1 float32) float32 {
	lo := math32.Max(a0, b0)
	hi := math32.Min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// drawSymbol rasterizes one scatter symbol centered at (cx, cy) with
// the given diameter, using the same signed distance fields as the
// GPU marker shader scaled to pixel space.
func drawSymbol(fb *image.RGBA, clip clipRect, cx, cy, size float32, sym scichart.Symbol, color scichart.RGBA) {
	half := size / 2
	if half < 0.5 {
		half = 0.5
	}
	pad := half + aaWidth

	minX := int(math32.Floor(cx - pad))
	maxX := int(math32.Ceil(cx + pad))
	minY := int(math32.Floor(cy - pad))
	maxY := int(math32.Ceil(cy + pad))

	if minX < clip.x0 {
		minX = clip.x0
	}
	if minY < clip.y0 {
		minY = clip.y0
	}
	if maxX > clip.x1 {
		maxX = clip.x1
	}
	if maxY > clip.y1 {
		maxY = clip.y1
	}

	for py := minY; py < maxY; py++ {
		for px := minX; px < maxX; px++ {
			// Local coordinates in [-1, 1] across the symbol quad.
			lx := (float32(px) + 0.5 - cx) / half
			ly := (float32(py) + 0.5 - cy) / half
			d := symbolDistance(lx, ly, sym) * half
			blendPixel(fb, px, py, color, smoothstepCoverage(d))
		}
	}
}

// symbolDistance mirrors the marker shader's SDF set. Negative inside.
func symbolDistance(x, y float32, sym scichart.Symbol) float32 {
	ax := math32.Abs(x)
	ay := math32.Abs(y)
	switch sym {
	case scichart.SymbolSquare:
		return math32.Max(ax, ay) - 0.7
	case scichart.SymbolDiamond:
		return ax + ay - 0.85
	case scichart.SymbolTriangle:
		// Framebuffer y grows down, so the apex-up triangle flips y.
		return triangleDistance(x, -y)
	case scichart.SymbolTriangleDown:
		return triangleDistance(x, y)
	case scichart.SymbolCross:
		horiz := math32.Max(ax-0.8, ay-0.25)
		vert := math32.Max(ay-0.8, ax-0.25)
		return math32.Min(horiz, vert)
	case scichart.SymbolX:
		rx := (x + y) * 0.7071
		ry := (x - y) * 0.7071
		rax := math32.Abs(rx)
		ray := math32.Abs(ry)
		horiz := math32.Max(rax-0.8, ray-0.25)
		vert := math32.Max(ray-0.8, rax-0.25)
		return math32.Min(horiz, vert)
	case scichart.SymbolStar:
		up := starTriangleDistance(x, y)
		down := starTriangleDistance(x, -y)
		return math32.Min(up, down)
	default: // circle
		return math32.Hypot(x, y) - 0.8
	}
}

func triangleDistance(x, y float32) float32 {
	d1 := y - 0.7
	d2 := -y*0.5 - x*0.866 - 0.35
	d3 := -y*0.5 + x*0.866 - 0.35
	return math32.Max(d1, math32.Max(d2, d3))
}

func starTriangleDistance(x, y float32) float32 {
	d1 := y - 0.6
	d2 := -y*0.5 - x*0.866 - 0.3
	d3 := -y*0.5 + x*0.866 - 0.3
	return math32.Max(d1, math32.Max(d2, d3))
}
