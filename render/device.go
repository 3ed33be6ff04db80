// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/bulb"
)

// Device errors.
var (
	// ErrUnsupported is returned when no usable GPU backend or adapter is
	// available. The caller reports it to the user and does not start the
	// control loop.
	ErrUnsupported = errors.New("render: GPU rendering not supported")

	// ErrNilDevice is returned when a device or queue handle is missing.
	ErrNilDevice = errors.New("render: nil device handle")
)

// backendPreference is the order in which registered backends are tried.
// The software backend (BackendEmpty) is last.
var backendPreference = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
	gputypes.BackendEmpty,
}

// Device is a HAL device and its queue.
//
// A Device is either opened standalone (OpenDevice) and owned by this
// package, or adopted from a host (DeviceFromProvider), in which case
// Close leaves the host's device alone.
type Device struct {
	Device hal.Device
	Queue  hal.Queue

	// Adapter is the name of the selected adapter, if known.
	Adapter string
	// Backend is the backend the adapter belongs to.
	Backend gputypes.Backend

	instance hal.Instance
	owned    bool
}

// OpenDevice opens a standalone device on the best registered backend.
// Discrete and integrated GPUs are preferred over other adapter types.
// Backends are registered by importing them, usually through
// github.com/gogpu/wgpu/hal/allbackends.
func OpenDevice() (*Device, error) {
	registered := make(map[gputypes.Backend]bool)
	for _, b := range hal.AvailableBackends() {
		registered[b] = true
	}

	var errs []error
	for _, variant := range backendPreference {
		if !registered[variant] {
			continue
		}
		backend, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		dev, err := openOn(backend)
		if err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", variant, err))
			continue
		}
		return dev, nil
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%w: no HAL backends registered", ErrUnsupported)
	}
	return nil, fmt.Errorf("%w: %w", ErrUnsupported, errors.Join(errs...))
}

// OpenDeviceOn opens a standalone device on a specific backend.
func OpenDeviceOn(backend hal.Backend) (*Device, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrUnsupported)
	}
	dev, err := openOn(backend)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupported, err)
	}
	return dev, nil
}

func openOn(backend hal.Backend) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	bulb.Logger().Info("render: GPU device opened",
		"adapter", selected.Info.Name,
		"backend", backend.Variant())

	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Adapter:  selected.Info.Name,
		Backend:  backend.Variant(),
		instance: instance,
		owned:    true,
	}, nil
}

// halDeviceSource is implemented by *wgpu.Device, the handle gogpu's
// provider returns from Device().
type halDeviceSource interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// DeviceFromProvider adopts the device of a host such as gogpu.
//
// For a gpucontext.DeviceProvider, Device() must return a handle with
// HalDevice and HalQueue accessors (*wgpu.Device does). Other providers may
// expose HalDevice() any and HalQueue() any directly.
func DeviceFromProvider(provider any) (*Device, error) {
	if dp, ok := provider.(gpucontext.DeviceProvider); ok {
		src, ok := dp.Device().(halDeviceSource)
		if !ok {
			return nil, fmt.Errorf("%w: provider device %T has no HAL accessors", ErrUnsupported, dp.Device())
		}
		return NewDevice(src.HalDevice(), src.HalQueue())
	}

	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrUnsupported)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrNilDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrNilDevice)
	}
	return &Device{Device: device, Queue: queue}, nil
}

// NewDevice wraps an existing device and queue without taking ownership.
func NewDevice(device hal.Device, queue hal.Queue) (*Device, error) {
	if device == nil || queue == nil {
		return nil, ErrNilDevice
	}
	return &Device{Device: device, Queue: queue}, nil
}

// Close waits for the GPU to go idle and releases the device if it was
// opened by OpenDevice. Safe to call more than once.
func (d *Device) Close() {
	if d == nil || !d.owned {
		return
	}
	if d.Device != nil {
		if err := d.Device.WaitIdle(); err != nil {
			bulb.Logger().Warn("render: wait idle on close", "error", err)
		}
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.owned = false
}
