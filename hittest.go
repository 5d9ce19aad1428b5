package scichart

import "sort"

// Scale maps one axis between data and pixel space.
type Scale interface {
	// Transform converts a data value to a pixel coordinate.
	Transform(v float64) float64

	// Invert converts a pixel coordinate back to a data value.
	Invert(px float64) float64
}

// LinearScale is the affine Scale used by standard axes.
type LinearScale struct {
	DomainMin, DomainMax float64
	RangeMin, RangeMax   float64
}

func (s LinearScale) Transform(v float64) float64 {
	d := s.DomainMax - s.DomainMin
	if d == 0 {
		return s.RangeMin
	}
	return s.RangeMin + (v-s.DomainMin)/d*(s.RangeMax-s.RangeMin)
}

func (s LinearScale) Invert(px float64) float64 {
	r := s.RangeMax - s.RangeMin
	if r == 0 {
		return s.DomainMin
	}
	return s.DomainMin + (px-s.RangeMin)/r*(s.DomainMax-s.DomainMin)
}

// HitSeries is the read-only view of one chart series consumed by
// hit testing. Implementations should make every method cheap; they
// are called on each cursor move.
type HitSeries interface {
	ID() string
	Visible() bool
	Kind() DrawKind

	// Data returns the series' x and y arrays. x must be sorted
	// ascending. The engine never mutates or retains the slices
	// beyond the current query.
	Data() (xs, ys []float64)

	// YError returns the symmetric y-error at an index, when the
	// series carries error data.
	YError(index int) (float64, bool)

	// YAxisID names the y axis the series is plotted against; empty
	// means the default axis.
	YAxisID() string
}

// HeatmapGrid is the optional extension a heatmap HitSeries provides
// for cell lookup. Centers must be sorted ascending.
type HeatmapGrid interface {
	GridCenters() (xs, ys []float64)
	CellValue(col, row int) float64
}

// StaticSeries is a plain in-memory HitSeries.
type StaticSeries struct {
	SeriesID string
	Type     DrawKind
	Hidden   bool
	X, Y     []float64
	Err      []float64
	AxisID   string
}

func (s *StaticSeries) ID() string                   { return s.SeriesID }
func (s *StaticSeries) Visible() bool                { return !s.Hidden }
func (s *StaticSeries) Kind() DrawKind               { return s.Type }
func (s *StaticSeries) Data() ([]float64, []float64) { return s.X, s.Y }
func (s *StaticSeries) YAxisID() string              { return s.AxisID }

func (s *StaticSeries) YError(index int) (float64, bool) {
	if index < 0 || index >= len(s.Err) {
		return 0, false
	}
	return s.Err[index], true
}

// SearchClosestIndex returns the index of the sorted array value
// closest to target, or -1 for an empty array. The lower-bound search
// is refined by comparing the predecessor so the result is the true
// nearest neighbor, not just the first value >= target.
func SearchClosestIndex(xs []float64, target float64) int {
	n := len(xs)
	if n == 0 {
		return -1
	}
	i := sort.SearchFloat64s(xs, target)
	if i >= n {
		return n - 1
	}
	if i > 0 && target-xs[i-1] <= xs[i]-target {
		return i - 1
	}
	return i
}

// searchWindow is the adaptive scan radius around the binary-search
// result: wide enough to survive locally unsorted y-values, narrow
// enough to stay O(1) on huge arrays.
func searchWindow(points int) int {
	switch {
	case points <= 10_000:
		return 5
	case points <= 100_000:
		return 3
	default:
		return 2
	}
}

// interpolateY returns the series' y value at the exact data x, linearly
// interpolating between the bracketing samples. At the edges the
// boundary sample is returned unchanged.
func interpolateY(xs, ys []float64, dataX float64, interpolate bool) (float64, bool) {
	n := len(xs)
	if n == 0 || len(ys) < n {
		return 0, false
	}
	i := SearchClosestIndex(xs, dataX)
	if !interpolate {
		return ys[i], true
	}
	var lo, hi int
	switch {
	case xs[i] <= dataX:
		lo, hi = i, i+1
	default:
		lo, hi = i-1, i
	}
	if lo < 0 || hi >= n {
		return ys[i], true
	}
	dx := xs[hi] - xs[lo]
	if dx == 0 {
		return ys[lo], true
	}
	t := (dataX - xs[lo]) / dx
	return ys[lo] + (ys[hi]-ys[lo])*t, true
}
