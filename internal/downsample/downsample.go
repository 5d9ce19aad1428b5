// Package downsample reduces large x,y series to a target point
// count before upload. It runs off the render path behind a
// message-passing worker; the render core never blocks on it.
package downsample

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Algorithm selects the reduction strategy.
type Algorithm uint8

const (
	// MinMax keeps the minimum and maximum y of every bucket, which
	// preserves spikes that plain striding would drop.
	MinMax Algorithm = iota

	// Strided keeps every k-th point.
	Strided
)

func (a Algorithm) String() string {
	switch a {
	case MinMax:
		return "minmax"
	case Strided:
		return "strided"
	default:
		return "unknown"
	}
}

// Request describes one reduction. X and Y must have equal length;
// ownership of the slices passes to the worker until the response is
// delivered.
type Request struct {
	// Key optionally identifies the request for result caching.
	// Requests with an empty key are never cached.
	Key string

	X, Y []float64

	// TargetPoints is the approximate output size. MinMax may emit up
	// to 2x this (one min and one max per bucket).
	TargetPoints int

	Algorithm Algorithm
}

// Response carries the reduced arrays. Ownership transfers to the
// receiver; the worker keeps no reference.
type Response struct {
	X, Y []float64
}

// Reduce runs the algorithm synchronously. Most callers go through
// Worker instead; Reduce is the pure core.
func Reduce(req Request) (Response, error) {
	n := len(req.X)
	if len(req.Y) != n {
		return Response{}, fmt.Errorf("downsample: x/y length mismatch: %d vs %d", n, len(req.Y))
	}
	if req.TargetPoints <= 0 {
		return Response{}, fmt.Errorf("downsample: target points %d", req.TargetPoints)
	}
	if n <= req.TargetPoints {
		return Response{X: req.X, Y: req.Y}, nil
	}

	switch req.Algorithm {
	case Strided:
		return reduceStrided(req.X, req.Y, req.TargetPoints), nil
	default:
		return reduceMinMax(req.X, req.Y, req.TargetPoints), nil
	}
}

func reduceStrided(xs, ys []float64, target int) Response {
	n := len(xs)
	stride := n / target
	if stride < 1 {
		stride = 1
	}
	outN := (n + stride - 1) / stride
	ox := make([]float64, 0, outN)
	oy := make([]float64, 0, outN)
	for i := 0; i < n; i += stride {
		ox = append(ox, xs[i])
		oy = append(oy, ys[i])
	}
	return Response{X: ox, Y: oy}
}

// reduceMinMax emits the y-extremes of each bucket in x order, so a
// line through the output covers the same vertical extent as the
// source.
func reduceMinMax(xs, ys []float64, target int) Response {
	n := len(xs)
	bucket := n / target
	if bucket < 2 {
		return reduceStrided(xs, ys, target)
	}

	ox := make([]float64, 0, target*2)
	oy := make([]float64, 0, target*2)
	for start := 0; start < n; start += bucket {
		end := start + bucket
		if end > n {
			end = n
		}
		minI, maxI := start, start
		minY := float32(ys[start])
		maxY := minY
		for i := start + 1; i < end; i++ {
			y := float32(ys[i])
			if math32.IsNaN(y) {
				continue
			}
			if y < minY {
				minY, minI = y, i
			}
			if y > maxY {
				maxY, maxI = y, i
			}
		}
		lo, hi := minI, maxI
		if lo > hi {
			lo, hi = hi, lo
		}
		ox = append(ox, xs[lo])
		oy = append(oy, ys[lo])
		if hi != lo {
			ox = append(ox, xs[hi])
			oy = append(oy, ys[hi])
		}
	}
	return Response{X: ox, Y: oy}
}
