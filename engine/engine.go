// Package engine realizes anime4k pipeline descriptors on a GPU.
//
// An Engine wraps a hal device/queue pair, either shared with a host
// application or opened standalone. Executors bind pipeline chains against
// an input frame and replay the recorded dispatch sequence once per frame;
// a Scheduler drives that replay from a frame source with cooperative
// cancellation.
package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// workgroupSize is the fixed compute workgroup edge length every pass
// program declares. Dispatch extents divisible by it on both axes take the
// unchecked entry point.
const workgroupSize = 8

// fenceTimeout bounds how long a frame submission may take before the
// render is abandoned as failed.
const fenceTimeout = 5 * time.Second

var (
	// ErrEngineClosed is returned when using an Engine after Close.
	ErrEngineClosed = errors.New("engine: engine is closed")
	// ErrNoAdapter is returned when standalone bring-up finds no usable GPU.
	ErrNoAdapter = errors.New("engine: no GPU adapters found")
	// ErrNoProvider is returned when a device provider does not expose HAL
	// types.
	ErrNoProvider = errors.New("engine: provider does not expose HAL device and queue")
)

// Engine owns (or borrows) the GPU device and queue all executors share.
type Engine struct {
	mu       sync.Mutex
	device   hal.Device
	queue    hal.Queue
	instance hal.Instance
	owned    bool
	closed   bool
}

// New wraps an existing device/queue pair. The caller retains ownership;
// Close releases only engine-created resources, never the device itself.
func New(device hal.Device, queue hal.Queue) *Engine {
	return &Engine{device: device, queue: queue}
}

// NewFromProvider wraps a shared GPU device from an external provider, such
// as a gpucontext.DeviceProvider supplied by the embedding application. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func NewFromProvider(provider any) (*Engine, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoProvider)
	}
	return New(device, queue), nil
}

// NewFromDeviceProvider wraps the shared GPU device of an embedding
// application's gpucontext.DeviceProvider. Providers that additionally expose
// the HAL handles (HalDevice/HalQueue) share their device with the engine;
// others are rejected with ErrNoProvider, and the caller can fall back to
// NewStandalone.
func NewFromDeviceProvider(provider gpucontext.DeviceProvider) (*Engine, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}
	return NewFromProvider(provider)
}

// NewStandalone opens a compute-only Vulkan device for callers without a
// host GPU context. Prefers a discrete or integrated adapter.
func NewStandalone() (*Engine, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("engine: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("engine: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("engine: open device: %w", err)
	}

	slogger().Info("engine: GPU initialized (standalone)", "adapter", selected.Info.Name)

	return &Engine{
		device:   openDev.Device,
		queue:    openDev.Queue,
		instance: instance,
		owned:    true,
	}, nil
}

// Device returns the underlying hal device.
func (e *Engine) Device() hal.Device {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.device
}

// Queue returns the underlying hal queue.
func (e *Engine) Queue() hal.Queue {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue
}

// Close releases the device and instance if the engine owns them (standalone
// bring-up); shared devices are left untouched. Executors must be destroyed
// before closing. Safe to call more than once.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.owned && e.device != nil {
		e.device.Destroy()
	}
	if e.instance != nil {
		e.instance.Destroy()
		e.instance = nil
	}
	e.device = nil
	e.queue = nil
}

// handles returns the device/queue pair or an error after Close.
func (e *Engine) handles() (hal.Device, hal.Queue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.device == nil {
		return nil, nil, ErrEngineClosed
	}
	return e.device, e.queue, nil
}
