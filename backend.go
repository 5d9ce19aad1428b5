package scichart

import (
	"errors"
	"sync"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when no registered backend can
	// initialize on this machine.
	ErrBackendNotAvailable = errors.New("scichart: backend not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("scichart: backend not initialized")

	// ErrContextLost is returned when the GPU device has been lost and
	// all backend resources must be recreated.
	ErrContextLost = errors.New("scichart: gpu context lost")
)

// BufferUsage hints how a vertex buffer will be updated.
type BufferUsage uint8

const (
	// BufferStatic marks data written once and drawn many times.
	BufferStatic BufferUsage = iota

	// BufferDynamic marks data rewritten frequently (streaming series).
	BufferDynamic
)

// Texture1DDesc describes a one-dimensional RGBA color texture used as
// a heatmap palette lookup.
type Texture1DDesc struct {
	// Width is the number of texels. The data slice must hold
	// Width*4 float32 values (RGBA per texel, [0,1] range).
	Width int

	// Smooth selects linear filtering between palette entries.
	Smooth bool
}

// Backend renders draw lists against GPU or CPU resources.
//
// All methods must be called from the same goroutine (the render
// loop); backends are not internally synchronized for concurrent
// draws. Buffer and texture registries persist across frames so that
// unchanged series re-render without re-upload.
type Backend interface {
	// Name returns the backend identifier (e.g., "wgpu", "software").
	Name() string

	// Supported reports whether this backend can run on the current
	// machine. It must be side-effect free and cheap.
	Supported() bool

	// Init acquires devices and compiles pipelines.
	// It must be called before any other operation.
	Init() error

	// SetViewport resizes the render target. Width and height are
	// logical pixels; dpr scales to physical pixels. Calling with
	// unchanged values is a no-op.
	SetViewport(width, height int, dpr float64) error

	// CreateOrUpdateBuffer uploads vertex data under a stable id.
	// Re-uploading with a size that fits the existing allocation
	// rewrites it in place; growth reallocates.
	CreateOrUpdateBuffer(id string, data []byte, usage BufferUsage) error

	// DeleteBuffer releases the buffer. Unknown ids are ignored.
	DeleteBuffer(id string)

	// CreateOrUpdateTexture1D uploads a palette texture under a
	// stable id.
	CreateOrUpdateTexture1D(id string, data []float32, desc Texture1DDesc) error

	// DeleteTexture releases the texture. Unknown ids are ignored.
	DeleteTexture(id string)

	// Render draws the list in order against the current viewport.
	// Calls referencing unknown buffers are skipped, not errors.
	Render(list DrawList, fu FrameUniforms) error

	// ReadPixels copies the last rendered frame as premultiplied RGBA
	// bytes, row-major, stride = width*4 physical pixels. Intended for
	// tests and snapshots, not per-frame use.
	ReadPixels() ([]byte, int, int, error)

	// Destroy releases all resources. The backend must not be used
	// afterwards.
	Destroy()
}

// DeviceProviderAware is an optional interface for backends that can
// share a GPU device with an external host (e.g., a window system)
// instead of creating their own.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

// ChunkedBufferWriter is an optional backend capability for staged
// uploads of buffers too large for a single write. AllocateBuffer
// reserves the full size under an id, then WriteBufferChunk fills
// byte ranges in any order. Both backends in this module implement it.
type ChunkedBufferWriter interface {
	AllocateBuffer(id string, size int, usage BufferUsage) error
	WriteBufferChunk(id string, offset int, chunk []byte) error
}

// BackendFactory creates a new backend instance.
type BackendFactory func() Backend

var (
	registryMu sync.RWMutex
	backends   = make(map[string]BackendFactory)
	// Priority order for backend selection (first supported wins).
	backendPriority = []string{"wgpu", "software"}
)

// RegisterBackend registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func RegisterBackend(name string, factory BackendFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[name] = factory
}

// UnregisterBackend removes a backend from the registry.
// This is useful for testing.
func UnregisterBackend(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(backends, name)
}

// AvailableBackends returns the registered backend names.
func AvailableBackends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	return names
}

// GetBackend returns a backend instance by name.
// Returns nil if the backend is not registered.
func GetBackend(name string) Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := backends[name]
	if !ok {
		return nil
	}
	return factory()
}

// DefaultBackend returns the best supported backend based on priority.
// Returns nil if no registered backend reports Supported.
func DefaultBackend() Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range backendPriority {
		if factory, ok := backends[name]; ok {
			if b := factory(); b != nil && b.Supported() {
				return b
			}
		}
	}
	for _, factory := range backends {
		if b := factory(); b != nil && b.Supported() {
			return b
		}
	}
	return nil
}

// InitDefaultBackend selects and initializes the best backend,
// falling back down the priority list when Init fails at runtime
// (device acquisition can fail even when Supported reported true).
func InitDefaultBackend() (Backend, error) {
	registryMu.RLock()
	order := make([]string, 0, len(backends))
	order = append(order, backendPriority...)
	for name := range backends {
		found := false
		for _, p := range backendPriority {
			if p == name {
				found = true
				break
			}
		}
		if !found {
			order = append(order, name)
		}
	}
	registryMu.RUnlock()

	var firstErr error
	for _, name := range order {
		b := GetBackend(name)
		if b == nil || !b.Supported() {
			continue
		}
		if err := b.Init(); err != nil {
			Logger().Warn("backend init failed, trying next",
				"backend", name, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return b, nil
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return nil, ErrBackendNotAvailable
}
