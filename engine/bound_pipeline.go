package engine

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// boundPass is one fully realized pass: compiled pipeline, explicit layout,
// and the bind group resolving its declared slots, plus the precomputed
// dispatch parameters.
type boundPass struct {
	name       string
	module     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
	bindGroup  hal.BindGroup
	entryPoint string
	groupsX    uint32
	groupsY    uint32
}

// destroy releases the pass's GPU objects in reverse creation order.
// Nil fields (from a partially built pass) are skipped.
func (p *boundPass) destroy(device hal.Device) {
	if p.bindGroup != nil {
		device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.pipeline != nil {
		device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bgLayout != nil {
		device.DestroyBindGroupLayout(p.bgLayout)
		p.bgLayout = nil
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// BoundPipeline is the realized form of an ExecutablePipeline against one
// concrete input frame: its allocated textures, shared samplers, and an
// ordered list of compiled passes ready for per-frame replay.
type BoundPipeline struct {
	name     string
	device   hal.Device
	passes   []*boundPass
	textures *texturePool
	samplers *samplerSet
	outputID uint32
	released bool
}

// bindPipeline validates a pipeline descriptor and realizes it: textures
// are allocated (the source aliasing the given frame), samplers created,
// and every pass compiled and bound. Construction is all-or-nothing — on
// any failure everything created so far is destroyed before the error
// returns, and no partially bound pipeline escapes.
func bindPipeline(device hal.Device, p *anime4k.ExecutablePipeline, source Frame) (*BoundPipeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	pool, err := allocateTextures(device, p, source)
	if err != nil {
		return nil, err
	}

	samplers, err := createSamplers(device, p.Name, p.Samplers)
	if err != nil {
		pool.release()
		return nil, err
	}

	bp := &BoundPipeline{
		name:     p.Name,
		device:   device,
		textures: pool,
		samplers: samplers,
	}

	fail := func(err error) (*BoundPipeline, error) {
		bp.release()
		return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
	}

	for i := range p.Passes {
		pass := &p.Passes[i]

		bindings, err := resolvePassBindings(pass, pool, samplers)
		if err != nil {
			return fail(err)
		}

		extentW, extentH := dispatchExtent(pass, source.Width, source.Height)
		built := &boundPass{
			name:       pass.Name,
			entryPoint: entryPointFor(extentW, extentH),
			groupsX:    workgroups(extentW),
			groupsY:    workgroups(extentH),
		}
		bp.passes = append(bp.passes, built)

		built.module, err = compileShader(device, pass.Name, pass.Shader)
		if err != nil {
			return fail(err)
		}

		built.bgLayout, err = device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   pass.Name + "_bgl",
			Entries: bindings.layoutEntries,
		})
		if err != nil {
			return fail(fmt.Errorf("pass %q: create bind group layout: %w", pass.Name, err))
		}

		built.pipeLayout, err = device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            pass.Name + "_pl",
			BindGroupLayouts: []hal.BindGroupLayout{built.bgLayout},
		})
		if err != nil {
			return fail(fmt.Errorf("pass %q: create pipeline layout: %w", pass.Name, err))
		}

		built.pipeline, err = device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label:  pass.Name,
			Layout: built.pipeLayout,
			Compute: hal.ComputeState{
				Module:     built.module,
				EntryPoint: built.entryPoint,
			},
		})
		if err != nil {
			return fail(fmt.Errorf("pass %q: create compute pipeline: %w", pass.Name, err))
		}

		built.bindGroup, err = device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:   pass.Name + "_bg",
			Layout:  built.bgLayout,
			Entries: bindings.groupEntries,
		})
		if err != nil {
			return fail(fmt.Errorf("pass %q: create bind group: %w", pass.Name, err))
		}

		slogger().Debug("engine: pass bound",
			"pipeline", p.Name,
			"pass", pass.Name,
			"extent", fmt.Sprintf("%dx%d", extentW, extentH),
			"entry", built.entryPoint)
	}

	// The chain's output is the first output texture of the last pass.
	last := p.Passes[len(p.Passes)-1]
	bp.outputID = last.Outputs[0].Texture

	return bp, nil
}

// encode records one compute pass per bound pass, in declared order, onto
// the frame's command encoder. Ordering between passes relies on the
// command buffer's own ordering guarantees; no explicit barriers are
// inserted.
func (bp *BoundPipeline) encode(encoder hal.CommandEncoder) {
	for _, pass := range bp.passes {
		cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: pass.name})
		cp.SetPipeline(pass.pipeline)
		cp.SetBindGroup(0, pass.bindGroup, nil)
		cp.Dispatch(pass.groupsX, pass.groupsY, 1)
		cp.End()
	}
}

// output returns the slot holding the pipeline's final output texture.
func (bp *BoundPipeline) output() *textureSlot {
	slot, _ := bp.textures.get(bp.outputID)
	return slot
}

// outputFrame returns the pipeline's output as a non-owning Frame, suitable
// as the next pipeline's source.
func (bp *BoundPipeline) outputFrame() Frame {
	slot := bp.output()
	if slot == nil {
		return Frame{}
	}
	return Frame{
		Texture: slot.texture,
		View:    slot.view,
		Width:   slot.width,
		Height:  slot.height,
	}
}

// release destroys every GPU object the pipeline owns exactly once: passes
// in reverse order, then samplers, then owned textures. The aliased source
// frame is never destroyed. A second call is a no-op.
func (bp *BoundPipeline) release() {
	if bp.released {
		return
	}
	bp.released = true
	for i := len(bp.passes) - 1; i >= 0; i-- {
		bp.passes[i].destroy(bp.device)
	}
	bp.passes = nil
	if bp.samplers != nil {
		bp.samplers.release()
	}
	if bp.textures != nil {
		bp.textures.release()
	}
}
