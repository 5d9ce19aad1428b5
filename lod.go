package scichart

import "golang.org/x/exp/constraints"

// clamp bounds v to [lo, hi].
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lodFactors are the decimation factors built for massive series.
// Factor 1 is the untouched full-resolution data.
var lodFactors = [...]int{1, 10, 100, 1000}

// lodMinPoints stops level construction: a level that would hold
// fewer points than this adds nothing over the previous one.
const lodMinPoints = 1000

// LODLevel is one decimated copy of a series.
type LODLevel struct {
	// Factor is the stride between kept source points.
	Factor int

	// Data is interleaved x,y pairs. Factor 1 aliases the source
	// slice; decimated levels own their storage.
	Data []float64
}

// Points returns the number of x,y pairs in the level.
func (l LODLevel) Points() int { return len(l.Data) / 2 }

// DecimateStrided keeps every factor-th point: output point j equals
// source point j*factor. Factor 1 returns the input unchanged.
func DecimateStrided(data []float64, factor int) []float64 {
	if factor <= 1 {
		return data
	}
	n := len(data) / 2
	outN := (n + factor - 1) / factor
	out := make([]float64, 0, outN*2)
	for j := 0; j < outN; j++ {
		i := j * factor
		out = append(out, data[i*2], data[i*2+1])
	}
	return out
}

// BuildLODLevels builds the decimation ladder for a series: factors
// 1, 10, 100, 1000, stopping once a level would fall below
// lodMinPoints. The factor-1 level is zero-copy.
func BuildLODLevels(data []float64) []LODLevel {
	n := len(data) / 2
	levels := []LODLevel{{Factor: 1, Data: data}}
	for _, f := range lodFactors[1:] {
		if (n+f-1)/f < lodMinPoints {
			break
		}
		levels = append(levels, LODLevel{Factor: f, Data: DecimateStrided(data, f)})
	}
	return levels
}

// SelectLOD picks the level index for a zoom factor, defined as
// total x-range over visible x-range. Deeper zoom selects finer
// levels; the result is monotonic in zoom and clamped to the levels
// actually built.
//
//	zoom > 100  -> level 0 (full resolution)
//	zoom > 10   -> level 1
//	zoom > 1    -> level 2
//	otherwise   -> coarsest available
func SelectLOD(zoom float64, numLevels int) int {
	if numLevels <= 0 {
		return 0
	}
	var level int
	switch {
	case zoom > 100:
		level = 0
	case zoom > 10:
		level = 1
	case zoom > 1:
		level = 2
	default:
		level = numLevels - 1
	}
	return clamp(level, 0, numLevels-1)
}
