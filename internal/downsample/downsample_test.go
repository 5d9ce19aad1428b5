package downsample

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

func makeWave(n int) ([]float64, []float64) {
	rng := rand.New(rand.NewSource(7))
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = math.Sin(float64(i)/100) + rng.Float64()*0.1
	}
	return xs, ys
}

func TestReducePassThrough(t *testing.T) {
	xs, ys := makeWave(100)
	resp, err := Reduce(Request{X: xs, Y: ys, TargetPoints: 200})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.X) != 100 {
		t.Errorf("pass-through changed length: %d", len(resp.X))
	}
}

func TestReduceErrors(t *testing.T) {
	if _, err := Reduce(Request{X: make([]float64, 3), Y: make([]float64, 2), TargetPoints: 1}); err == nil {
		t.Error("length mismatch accepted")
	}
	if _, err := Reduce(Request{X: make([]float64, 3), Y: make([]float64, 3), TargetPoints: 0}); err == nil {
		t.Error("zero target accepted")
	}
}

func TestStridedLength(t *testing.T) {
	xs, ys := makeWave(10_000)
	resp, err := Reduce(Request{X: xs, Y: ys, TargetPoints: 100, Algorithm: Strided})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.X) != 100 || len(resp.Y) != 100 {
		t.Errorf("strided output %d points, want 100", len(resp.X))
	}
	if resp.X[0] != 0 || resp.X[1] != 100 {
		t.Errorf("stride wrong: x[0]=%v x[1]=%v", resp.X[0], resp.X[1])
	}
}

func TestMinMaxPreservesSpike(t *testing.T) {
	n := 100_000
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = 0.5
	}
	ys[31_337] = 1000 // a single spike plain striding would miss
	ys[70_001] = -1000

	resp, err := Reduce(Request{X: xs, Y: ys, TargetPoints: 500, Algorithm: MinMax})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.X) > 1000 {
		t.Errorf("output %d points exceeds 2x target", len(resp.X))
	}
	hi, lo := false, false
	for _, y := range resp.Y {
		if y == 1000 {
			hi = true
		}
		if y == -1000 {
			lo = true
		}
	}
	if !hi || !lo {
		t.Errorf("extremes lost: hi=%v lo=%v", hi, lo)
	}
}

func TestMinMaxOutputSortedByX(t *testing.T) {
	xs, ys := makeWave(50_000)
	resp, err := Reduce(Request{X: xs, Y: ys, TargetPoints: 300, Algorithm: MinMax})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(resp.X); i++ {
		if resp.X[i] < resp.X[i-1] {
			t.Fatalf("x out of order at %d: %v < %v", i, resp.X[i], resp.X[i-1])
		}
	}
}

func TestMinMaxSkipsNaN(t *testing.T) {
	n := 10_000
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
		ys[i] = math.Sin(float64(i) / 50)
	}
	// Gaps inside buckets; none falls on a bucket start, so a finite
	// value is always available as the extreme.
	for _, i := range []int{150, 1333, 5005, 9871} {
		ys[i] = math.NaN()
	}
	resp, err := Reduce(Request{X: xs, Y: ys, TargetPoints: 50, Algorithm: MinMax})
	if err != nil {
		t.Fatal(err)
	}
	for i, y := range resp.Y {
		if math.IsNaN(y) {
			t.Fatalf("NaN selected as bucket extreme at %d (x=%v)", i, resp.X[i])
		}
	}
}

func TestWorkerParallelMatchesSerial(t *testing.T) {
	// Sizes chosen so spans cover whole buckets; the parallel split must
	// then reproduce the serial reduction exactly.
	n := 1 << 19
	xs, ys := makeWave(n)
	req := Request{X: xs, Y: ys, TargetPoints: 1024, Algorithm: MinMax}

	want, err := Reduce(req)
	if err != nil {
		t.Fatal(err)
	}

	w := NewWorker(4)
	defer w.Close()
	got, err := w.Downsample(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	if len(got.X) != len(want.X) {
		t.Fatalf("parallel %d points, serial %d", len(got.X), len(want.X))
	}
	for i := range got.X {
		if got.X[i] != want.X[i] || got.Y[i] != want.Y[i] {
			t.Fatalf("divergence at %d: (%v,%v) vs (%v,%v)",
				i, got.X[i], got.Y[i], want.X[i], want.Y[i])
		}
	}
}

func TestWorkerCachesByKey(t *testing.T) {
	xs, ys := makeWave(40_000)
	w := NewWorker(1)
	defer w.Close()

	req := Request{Key: "series/lod1", X: xs, Y: ys, TargetPoints: 100, Algorithm: MinMax}
	if _, err := w.Downsample(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if w.results.Len() != 1 {
		t.Fatalf("cache holds %d entries, want 1", w.results.Len())
	}

	// Replace the cached entry; a hit must return its content.
	w.results.Set(req.Key, Response{X: []float64{-1}, Y: []float64{-2}})
	got, err := w.Downsample(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.X) != 1 || got.X[0] != -1 || got.Y[0] != -2 {
		t.Fatalf("keyed request recomputed instead of hitting the cache: %v", got)
	}
}

func TestWorkerCallerOwnsCachedSlices(t *testing.T) {
	xs, ys := makeWave(40_000)
	w := NewWorker(1)
	defer w.Close()

	req := Request{Key: "series/lod2", X: xs, Y: ys, TargetPoints: 100, Algorithm: MinMax}
	first, err := w.Downsample(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	want := first.Y[0]
	first.X[0] = -999 // a receiver scribbling on its response
	first.Y[0] = -999

	second, err := w.Downsample(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if second.X[0] == -999 || second.Y[0] != want {
		t.Error("mutating a delivered response corrupted the cache")
	}
	if len(second.X) > 0 && len(first.X) > 0 && &second.X[0] == &first.X[0] {
		t.Error("cached response aliases a previously delivered slice")
	}
}

func TestWorkerContextCancelled(t *testing.T) {
	w := NewWorker(1)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	xs, ys := makeWave(1 << 18)
	_, err := w.Downsample(ctx, Request{X: xs, Y: ys, TargetPoints: 100, Algorithm: MinMax})
	if err == nil {
		t.Error("cancelled context returned a result")
	}
}

func TestWorkerClosed(t *testing.T) {
	w := NewWorker(1)
	w.Close()
	w.Close() // Close is idempotent

	xs, ys := makeWave(100)
	if _, err := w.Downsample(context.Background(), Request{X: xs, Y: ys, TargetPoints: 10}); err == nil {
		t.Error("closed worker served a request")
	}
}

func TestAlgorithmString(t *testing.T) {
	if MinMax.String() != "minmax" || Strided.String() != "strided" {
		t.Error("algorithm names wrong")
	}
	if Algorithm(9).String() != "unknown" {
		t.Error("unknown fallback missing")
	}
}
