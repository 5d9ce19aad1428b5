package downsample

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jigonzalez930209/scichart-engine-sub001/internal/cache"
)

// resultCacheLimit bounds the keyed result cache.
const resultCacheLimit = 32

// Worker serves downsample requests over a message-passing boundary
// so bulk numeric reduction never runs on the render thread. Large
// requests are split across a small goroutine pool internally.
//
// Worker is safe for concurrent use.
type Worker struct {
	requests chan workItem
	done     chan struct{}
	wg       sync.WaitGroup
	results  *cache.Cache[string, Response]
	parallel int

	closeOnce sync.Once
}

type workItem struct {
	req   Request
	reply chan<- reply
}

type reply struct {
	resp Response
	err  error
}

// NewWorker starts a worker goroutine. parallel bounds the internal
// fan-out for large arrays; 0 or negative uses GOMAXPROCS.
func NewWorker(parallel int) *Worker {
	if parallel <= 0 {
		parallel = runtime.GOMAXPROCS(0)
	}
	w := &Worker{
		requests: make(chan workItem),
		done:     make(chan struct{}),
		results:  cache.New[string, Response](resultCacheLimit),
		parallel: parallel,
	}
	w.wg.Add(1)
	go w.loop()
	return w
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case item := <-w.requests:
			resp, err := w.serve(item.req)
			item.reply <- reply{resp: resp, err: err}
		}
	}
}

func (w *Worker) serve(req Request) (Response, error) {
	if req.Key != "" {
		if cached, ok := w.results.Get(req.Key); ok {
			return cloneResponse(cached), nil
		}
	}
	resp, err := w.reduceParallel(req)
	if err == nil && req.Key != "" {
		// Cached entries are copied both ways so the receiver's
		// ownership of its slices holds even for keyed requests.
		w.results.Set(req.Key, cloneResponse(resp))
	}
	return resp, err
}

func cloneResponse(r Response) Response {
	out := Response{X: make([]float64, len(r.X)), Y: make([]float64, len(r.Y))}
	copy(out.X, r.X)
	copy(out.Y, r.Y)
	return out
}

// minParallelPoints is the request size below which fan-out costs
// more than it saves.
const minParallelPoints = 1 << 18

// reduceParallel splits the source into contiguous spans, reduces
// each on its own goroutine, and concatenates in order. Bucket
// boundaries coincide with span boundaries so the result matches a
// serial reduction.
func (w *Worker) reduceParallel(req Request) (Response, error) {
	n := len(req.X)
	if len(req.Y) != n {
		return Response{}, fmt.Errorf("downsample: x/y length mismatch: %d vs %d", n, len(req.Y))
	}
	if w.parallel < 2 || n < minParallelPoints || req.TargetPoints <= 0 || n <= req.TargetPoints {
		return Reduce(req)
	}

	bucket := n / req.TargetPoints
	if bucket < 2 {
		return Reduce(req)
	}
	bucketsPerSpan := (req.TargetPoints + w.parallel - 1) / w.parallel
	spanPts := bucketsPerSpan * bucket

	type span struct {
		resp Response
		err  error
	}
	spans := make([]span, 0, w.parallel+1)
	for start := 0; start < n; start += spanPts {
		spans = append(spans, span{})
	}

	var wg sync.WaitGroup
	for i := range spans {
		start := i * spanPts
		end := start + spanPts
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(out *span, xs, ys []float64) {
			defer wg.Done()
			target := len(xs) / bucket
			if target < 1 {
				target = 1
			}
			out.resp, out.err = Reduce(Request{
				X: xs, Y: ys, TargetPoints: target, Algorithm: req.Algorithm,
			})
		}(&spans[i], req.X[start:end], req.Y[start:end])
	}
	wg.Wait()

	total := 0
	for i := range spans {
		if spans[i].err != nil {
			return Response{}, spans[i].err
		}
		total += len(spans[i].resp.X)
	}
	ox := make([]float64, 0, total)
	oy := make([]float64, 0, total)
	for i := range spans {
		ox = append(ox, spans[i].resp.X...)
		oy = append(oy, spans[i].resp.Y...)
	}
	return Response{X: ox, Y: oy}, nil
}

// Downsample submits a request and waits for the response or context
// cancellation. The returned slices are owned by the caller.
func (w *Worker) Downsample(ctx context.Context, req Request) (Response, error) {
	replyCh := make(chan reply, 1)
	select {
	case w.requests <- workItem{req: req, reply: replyCh}:
	case <-w.done:
		return Response{}, fmt.Errorf("downsample: worker closed")
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	select {
	case r := <-replyCh:
		return r.resp, r.err
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Close stops the worker. In-flight requests complete; later calls
// to Downsample fail.
func (w *Worker) Close() {
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}
