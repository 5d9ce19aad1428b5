// Package scichart is the render core of a GPU-accelerated
// scientific charting engine: a backend-agnostic draw-list renderer
// for line, scatter, band, bar, triangle, and heatmap series, sized
// for datasets in the hundred-million-point range.
//
// Chart logic describes a frame as a DrawList of DrawCall records
// referencing named vertex buffers. The active Backend resolves the
// list against its buffer registry and issues the draws; buffers
// persist across frames so unchanged series re-render without
// re-upload. Two backends are provided: backend/wgpu renders through
// the wgpu hardware abstraction layer, backend/software is an
// always-available CPU rasterizer with identical semantics. Both
// register themselves on import:
//
//	import (
//		_ "github.com/jigonzalez930209/scichart-engine-sub001/backend/software"
//		_ "github.com/jigonzalez930209/scichart-engine-sub001/backend/wgpu"
//	)
//
//	r, err := scichart.NewDefaultRenderer()
//
// Renderer is the chart-facing facade: it converts SeriesSpec values
// (CSS color strings, type names, raw float64 pairs) into draw calls
// and uploads. MassiveRenderer handles single series beyond ordinary
// buffer limits with chunked upload, a level-of-detail ladder, and
// batched draws. TooltipEngine answers cursor queries over the same
// series arrays with binary search and hysteresis.
package scichart
