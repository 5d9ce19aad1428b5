// Command chartdemo renders a demonstration chart with the software
// backend and writes it to a PNG file.
package main

import (
	"flag"
	"image/png"
	"log"
	"math"
	"math/rand"
	"os"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
	"github.com/jigonzalez930209/scichart-engine-sub001/backend/software"
)

func main() {
	var (
		width  = flag.Int("width", 1000, "image width")
		height = flag.Int("height", 600, "image height")
		points = flag.Int("points", 2000, "points per series")
		output = flag.String("output", "chart.png", "output file")
	)
	flag.Parse()

	b := software.New()
	if err := b.Init(); err != nil {
		log.Fatalf("init backend: %v", err)
	}
	defer b.Destroy()

	r := scichart.NewRenderer(b)
	if err := r.SetSize(*width, *height, 1); err != nil {
		log.Fatalf("set size: %v", err)
	}

	for _, spec := range demoSeries(*points) {
		if err := r.SetSeries(spec); err != nil {
			log.Fatalf("series %s: %v", spec.ID, err)
		}
	}

	err := r.Render(scichart.FrameOptions{
		Bounds:     &scichart.Bounds{MinX: 0, MaxX: 10, MinY: -1.5, MaxY: 1.5},
		ClearColor: scichart.RGBA{R: 0.07, G: 0.07, B: 0.1, A: 1},
	})
	if err != nil {
		log.Fatalf("render: %v", err)
	}

	img, err := b.Snapshot(*width, *height)
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}
	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("create %s: %v", *output, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Fatalf("encode: %v", err)
	}

	log.Printf("Chart saved to %s (%dx%d)\n", *output, *width, *height)
}

func demoSeries(n int) []scichart.SeriesSpec {
	rng := rand.New(rand.NewSource(1))

	wave := make([]float64, 0, n*2)
	noisy := make([]float64, 0, n*2)
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n-1) * 10
		wave = append(wave, x, math.Sin(x))
		noisy = append(noisy, x, 0.6*math.Cos(x*1.3)+rng.NormFloat64()*0.05)
	}

	bars := make([]float64, 0, 20*2)
	for i := 0; i < 20; i++ {
		x := 0.25 + float64(i)*0.5
		bars = append(bars, x, rng.Float64()*0.8-1.3)
	}

	return []scichart.SeriesSpec{
		{ID: "bars", Type: "bar", Data: bars, Color: "#35b77966", FillColor: "#35b77966"},
		{ID: "wave", Type: "line", Data: wave, Color: "#31688e", LineWidth: 2},
		{ID: "noisy", Type: "line", Data: noisy, Color: "#fde725", LineWidth: 1},
	}
}
