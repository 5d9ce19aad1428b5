// Package software implements the chart render backend on the CPU.
//
// It is the fallback for machines without a usable GPU: draw calls are
// rasterized immediately into an in-memory premultiplied RGBA
// framebuffer, with anti-aliasing from signed-distance coverage. It is
// always supported and registers itself under the name "software".
package software
