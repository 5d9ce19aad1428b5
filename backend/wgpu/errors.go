package wgpu

import "errors"

// Backend errors.
var (
	// ErrNoGPU is returned when no usable GPU adapter can be found.
	ErrNoGPU = errors.New("wgpu: no GPU adapter available")

	// ErrShaderCompile is returned when a WGSL module fails to compile.
	ErrShaderCompile = errors.New("wgpu: shader compilation failed")

	// ErrInvalidViewport is returned for non-positive viewport dimensions.
	ErrInvalidViewport = errors.New("wgpu: invalid viewport dimensions")

	// ErrNoFrame is returned by ReadPixels before the first Render.
	ErrNoFrame = errors.New("wgpu: no frame has been rendered")
)
