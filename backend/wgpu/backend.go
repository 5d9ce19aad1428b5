package wgpu

import (
	"fmt"
	"math"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	scichart "github.com/jigonzalez930209/scichart-engine-sub001"
)

// BackendName is the registry identifier for this backend.
const BackendName = "wgpu"

func init() {
	scichart.RegisterBackend(BackendName, func() scichart.Backend {
		return New()
	})
}

// Backend renders draw lists through gogpu/wgpu render pipelines.
//
// All GPU resources are owned by the backend: the device (unless
// shared via SetDeviceProvider), per-series vertex buffers, palette
// buffers, the offscreen render targets, and the pipeline set.
type Backend struct {
	mu sync.RWMutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	pipelines pipelineSet
	targets   renderTargets

	buffers  map[string]*seriesBuffer
	palettes map[string]*paletteBuffer

	// Logical viewport and scale factor, set by SetViewport.
	width, height int
	dpr           float64

	initialized    bool
	externalDevice bool
	frameRendered  bool
}

// New creates an uninitialized backend. Call Init before use.
func New() *Backend {
	return &Backend{
		buffers:  make(map[string]*seriesBuffer),
		palettes: make(map[string]*paletteBuffer),
		dpr:      1,
	}
}

// NewWithDevice creates a backend on a caller-owned device and queue.
// The backend compiles its pipelines on Init but never destroys the
// device. Used by shared-device hosts and tests (hal/noop).
func NewWithDevice(device hal.Device, queue hal.Queue) *Backend {
	b := New()
	b.device = device
	b.queue = queue
	b.externalDevice = true
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return BackendName }

// Supported reports whether a wgpu HAL backend is registered.
// Adapter enumeration is deferred to Init; this probe is free.
func (b *Backend) Supported() bool {
	if b.externalDevice {
		return true
	}
	_, ok := hal.GetBackend(gputypes.BackendVulkan)
	return ok
}

// Init acquires the GPU device and compiles the pipeline set.
// Calling Init on an initialized backend is a no-op.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return nil
	}

	if !b.externalDevice {
		if err := b.openDevice(); err != nil {
			return err
		}
	}

	if err := b.pipelines.create(b.device); err != nil {
		b.closeDevice()
		return err
	}

	b.initialized = true
	scichart.Logger().Info("wgpu backend initialized")
	return nil
}

// openDevice enumerates adapters and opens the best available one,
// preferring discrete over integrated GPUs.
func (b *Backend) openDevice() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return ErrNoGPU
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	b.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		b.instance = nil
		return fmt.Errorf("%w: no adapters enumerated", ErrNoGPU)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		b.instance = nil
		return fmt.Errorf("%w: open device: %w", ErrNoGPU, err)
	}
	b.device = openDev.Device
	b.queue = openDev.Queue
	scichart.Logger().Info("wgpu adapter selected", "name", selected.Info.Name)
	return nil
}

// closeDevice releases the device and instance if the backend owns them.
func (b *Backend) closeDevice() {
	if b.externalDevice {
		return
	}
	if b.device != nil {
		b.device.Destroy()
		b.device = nil
		b.queue = nil
	}
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
}

// SetDeviceProvider switches the backend to a shared GPU device from
// an external host. The provider is either a gpucontext.DeviceProvider
// whose device and queue wrap HAL types, or any value implementing
// HalDevice() any and HalQueue() any directly.
func (b *Backend) SetDeviceProvider(provider any) error {
	device, queue, err := resolveProvider(provider)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseResources()
	b.closeDevice()

	b.device = device
	b.queue = queue
	b.externalDevice = true

	if b.initialized {
		if err := b.pipelines.create(b.device); err != nil {
			b.initialized = false
			return fmt.Errorf("wgpu: recreate pipelines on shared device: %w", err)
		}
	}
	scichart.Logger().Info("wgpu backend switched to shared device")
	return nil
}

// resolveProvider extracts HAL handles from a host device provider.
func resolveProvider(provider any) (hal.Device, hal.Queue, error) {
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		device, dok := dp.Device().(hal.Device)
		queue, qok := dp.Queue().(hal.Queue)
		if dok && qok && device != nil && queue != nil {
			return device, queue, nil
		}
		return nil, nil, fmt.Errorf("wgpu: device provider does not wrap HAL types")
	}

	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, nil, fmt.Errorf("wgpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue")
	}
	return device, queue, nil
}

// SetViewport resizes the offscreen render targets. Unchanged
// dimensions are a no-op; resizing drops only the targets, never the
// uploaded series buffers.
func (b *Backend) SetViewport(width, height int, dpr float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return scichart.ErrNotInitialized
	}
	if width <= 0 || height <= 0 || dpr <= 0 {
		return fmt.Errorf("%w: %dx%d dpr=%v", ErrInvalidViewport, width, height, dpr)
	}
	if b.width == width && b.height == height && b.dpr == dpr {
		return nil
	}
	b.width = width
	b.height = height
	b.dpr = dpr

	return b.targets.ensure(b.device,
		physicalSize(float64(width), dpr), physicalSize(float64(height), dpr))
}

// physicalSize converts a logical extent to physical pixels: rounded,
// never below one pixel.
func physicalSize(logical, dpr float64) uint32 {
	p := math.Round(logical * dpr)
	if p < 1 {
		return 1
	}
	return uint32(p)
}

// Destroy releases all GPU resources. Safe to call more than once.
func (b *Backend) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized && b.device == nil {
		return
	}
	b.releaseResources()
	b.closeDevice()
	b.initialized = false
	b.frameRendered = false
	scichart.Logger().Info("wgpu backend destroyed")
}

// releaseResources destroys buffers, palettes, targets, and pipelines
// but keeps the device.
func (b *Backend) releaseResources() {
	if b.device == nil {
		return
	}
	for id, sb := range b.buffers {
		sb.destroy(b.device)
		delete(b.buffers, id)
	}
	for id, pb := range b.palettes {
		pb.destroy(b.device)
		delete(b.palettes, id)
	}
	b.targets.destroy(b.device)
	b.pipelines.destroy(b.device)
}

var _ scichart.Backend = (*Backend)(nil)
var _ scichart.DeviceProviderAware = (*Backend)(nil)
