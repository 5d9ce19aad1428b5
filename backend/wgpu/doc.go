// Package wgpu implements the chart render backend on gogpu/wgpu.
//
// Geometry is uploaded once into persistent vertex buffers and drawn
// through precompiled render pipelines, one per primitive family. The
// backend registers itself under the name "wgpu"; enable it with a
// blank import:
//
//	import _ "github.com/jigonzalez930209/scichart-engine-sub001/backend/wgpu"
package wgpu
