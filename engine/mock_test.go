package engine

import (
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// mockDevice is a test double for hal.Device that tracks resource
// creation/destruction balance and supports failure injection.
type mockDevice struct {
	createTextureFunc func(*hal.TextureDescriptor) (hal.Texture, error)
	createSamplerFunc func(*hal.SamplerDescriptor) (hal.Sampler, error)

	texturesCreated   int32
	texturesDestroyed int32
	viewsCreated      int32
	viewsDestroyed    int32
	samplersCreated   int32
	samplersDestroyed int32
	modulesCreated    int32
	modulesDestroyed  int32
	layoutsCreated    int32
	layoutsDestroyed  int32
	pipelinesCreated  int32
	pipelinesFreed    int32
	groupsCreated     int32
	groupsDestroyed   int32
}

type mockTexture struct {
	width  uint32
	height uint32
	format gputypes.TextureFormat
}

func (t *mockTexture) Destroy()              {}
func (t *mockTexture) NativeHandle() uintptr { return 0 }

type mockTextureView struct {
	texture hal.Texture
	label   string
}

func (v *mockTextureView) Destroy()              {}
func (v *mockTextureView) NativeHandle() uintptr { return 0 }

type mockSampler struct{ label string }

func (s *mockSampler) Destroy()              {}
func (s *mockSampler) NativeHandle() uintptr { return 0 }

type mockShaderModule struct{}

func (m *mockShaderModule) Destroy() {}

type mockBindGroupLayout struct{}

func (l *mockBindGroupLayout) Destroy() {}

type mockPipelineLayout struct{}

func (l *mockPipelineLayout) Destroy() {}

type mockComputePipeline struct{}

func (p *mockComputePipeline) Destroy() {}

type mockBindGroup struct{}

func (g *mockBindGroup) Destroy() {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockDevice) CreateBuffer(_ *hal.BufferDescriptor) (hal.Buffer, error) { return nil, nil }
func (d *mockDevice) DestroyBuffer(_ hal.Buffer)                               {}

func (d *mockDevice) CreateTexture(desc *hal.TextureDescriptor) (hal.Texture, error) {
	if d.createTextureFunc != nil {
		t, err := d.createTextureFunc(desc)
		if err != nil {
			return nil, err
		}
		atomic.AddInt32(&d.texturesCreated, 1)
		return t, nil
	}
	atomic.AddInt32(&d.texturesCreated, 1)
	return &mockTexture{width: desc.Size.Width, height: desc.Size.Height, format: desc.Format}, nil
}

func (d *mockDevice) DestroyTexture(_ hal.Texture) {
	atomic.AddInt32(&d.texturesDestroyed, 1)
}

func (d *mockDevice) CreateTextureView(texture hal.Texture, desc *hal.TextureViewDescriptor) (hal.TextureView, error) {
	atomic.AddInt32(&d.viewsCreated, 1)
	return &mockTextureView{texture: texture, label: desc.Label}, nil
}

func (d *mockDevice) DestroyTextureView(_ hal.TextureView) {
	atomic.AddInt32(&d.viewsDestroyed, 1)
}

func (d *mockDevice) CreateSampler(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
	if d.createSamplerFunc != nil {
		s, err := d.createSamplerFunc(desc)
		if err != nil {
			return nil, err
		}
		atomic.AddInt32(&d.samplersCreated, 1)
		return s, nil
	}
	atomic.AddInt32(&d.samplersCreated, 1)
	return &mockSampler{label: desc.Label}, nil
}

func (d *mockDevice) DestroySampler(_ hal.Sampler) {
	atomic.AddInt32(&d.samplersDestroyed, 1)
}

func (d *mockDevice) CreateBindGroupLayout(_ *hal.BindGroupLayoutDescriptor) (hal.BindGroupLayout, error) {
	atomic.AddInt32(&d.layoutsCreated, 1)
	return &mockBindGroupLayout{}, nil
}

func (d *mockDevice) DestroyBindGroupLayout(_ hal.BindGroupLayout) {
	atomic.AddInt32(&d.layoutsDestroyed, 1)
}

func (d *mockDevice) CreateBindGroup(_ *hal.BindGroupDescriptor) (hal.BindGroup, error) {
	atomic.AddInt32(&d.groupsCreated, 1)
	return &mockBindGroup{}, nil
}

func (d *mockDevice) DestroyBindGroup(_ hal.BindGroup) {
	atomic.AddInt32(&d.groupsDestroyed, 1)
}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockDevice) CreatePipelineLayout(_ *hal.PipelineLayoutDescriptor) (hal.PipelineLayout, error) {
	return &mockPipelineLayout{}, nil
}
func (d *mockDevice) DestroyPipelineLayout(_ hal.PipelineLayout) {}

func (d *mockDevice) CreateShaderModule(_ *hal.ShaderModuleDescriptor) (hal.ShaderModule, error) {
	atomic.AddInt32(&d.modulesCreated, 1)
	return &mockShaderModule{}, nil
}

func (d *mockDevice) DestroyShaderModule(_ hal.ShaderModule) {
	atomic.AddInt32(&d.modulesDestroyed, 1)
}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockDevice) CreateRenderPipeline(_ *hal.RenderPipelineDescriptor) (hal.RenderPipeline, error) {
	return nil, nil
}
func (d *mockDevice) DestroyRenderPipeline(_ hal.RenderPipeline) {}

func (d *mockDevice) CreateComputePipeline(_ *hal.ComputePipelineDescriptor) (hal.ComputePipeline, error) {
	atomic.AddInt32(&d.pipelinesCreated, 1)
	return &mockComputePipeline{}, nil
}

func (d *mockDevice) DestroyComputePipeline(_ hal.ComputePipeline) {
	atomic.AddInt32(&d.pipelinesFreed, 1)
}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockDevice) CreateCommandEncoder(_ *hal.CommandEncoderDescriptor) (hal.CommandEncoder, error) {
	return nil, nil
}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockDevice) CreateQuerySet(_ *hal.QuerySetDescriptor) (hal.QuerySet, error) {
	return nil, nil
}
func (d *mockDevice) DestroyQuerySet(_ hal.QuerySet) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockDevice) CreateRenderBundleEncoder(_ *hal.RenderBundleEncoderDescriptor) (hal.RenderBundleEncoder, error) {
	return nil, nil
}
func (d *mockDevice) DestroyRenderBundle(_ hal.RenderBundle) {}

//nolint:nilnil // Mock: unused interface methods.
func (d *mockDevice) CreateFence() (hal.Fence, error) { return nil, nil }
func (d *mockDevice) DestroyFence(_ hal.Fence)        {}
func (d *mockDevice) Wait(_ hal.Fence, _ uint64, _ time.Duration) (bool, error) {
	return true, nil
}
func (d *mockDevice) ResetFence(_ hal.Fence) error             { return nil }
func (d *mockDevice) GetFenceStatus(_ hal.Fence) (bool, error) { return true, nil }
func (d *mockDevice) WaitIdle() error                          { return nil }
func (d *mockDevice) FreeCommandBuffer(_ hal.CommandBuffer)    {}
func (d *mockDevice) Destroy()                                 {}

// mockFrame returns a caller-owned source frame of the given size.
func mockFrame(w, h uint32) Frame {
	tex := &mockTexture{width: w, height: h, format: gputypes.TextureFormatRGBA32Float}
	return Frame{
		Texture: tex,
		View:    &mockTextureView{texture: tex, label: "source"},
		Width:   w,
		Height:  h,
	}
}
