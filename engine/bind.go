package engine

import (
	"fmt"
	"sort"

	"github.com/gogpu/gputypes"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// passBindings is the explicit, binding-number-sorted resource layout of one
// pass: parallel layout and group entries, ready for bind group layout and
// bind group creation. Layouts are always built explicitly from the
// declaration, never inferred from the compiled program, so binding
// semantics stay deterministic.
type passBindings struct {
	layoutEntries []gputypes.BindGroupLayoutEntry
	groupEntries  []gputypes.BindGroupEntry
}

// resolvePassBindings merges a pass's input, output, and sampler bindings
// into one sorted list and resolves each to its concrete GPU resource.
// A binding-number collision is a configuration error detected here, before
// any GPU object for the pass is created. Inputs bind as sampled float
// textures, outputs as write-only storage textures at the allocated format,
// samplers as filtering samplers.
func resolvePassBindings(pass *anime4k.ExecutablePass, pool *texturePool, samplers *samplerSet) (*passBindings, error) {
	type entry struct {
		layout gputypes.BindGroupLayoutEntry
		group  gputypes.BindGroupEntry
	}
	entries := make([]entry, 0, len(pass.Inputs)+len(pass.Outputs)+len(pass.Samplers))
	seen := make(map[uint32]bool, cap(entries))

	claim := func(binding uint32) error {
		if seen[binding] {
			return fmt.Errorf("pass %q binding %d: %w", pass.Name, binding, anime4k.ErrBindingCollision)
		}
		seen[binding] = true
		return nil
	}

	for _, in := range pass.Inputs {
		if err := claim(in.Binding); err != nil {
			return nil, err
		}
		slot, ok := pool.get(in.Texture)
		if !ok {
			return nil, fmt.Errorf("pass %q input texture %d: %w", pass.Name, in.Texture, anime4k.ErrUnknownTexture)
		}
		entries = append(entries, entry{
			layout: gputypes.BindGroupLayoutEntry{
				Binding:    in.Binding,
				Visibility: gputypes.ShaderStageCompute,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			group: gputypes.BindGroupEntry{
				Binding: in.Binding,
				Resource: gputypes.TextureViewBinding{
					TextureView: slot.view.NativeHandle(),
				},
			},
		})
	}

	for _, out := range pass.Outputs {
		if err := claim(out.Binding); err != nil {
			return nil, err
		}
		slot, ok := pool.get(out.Texture)
		if !ok {
			return nil, fmt.Errorf("pass %q output texture %d: %w", pass.Name, out.Texture, anime4k.ErrUnknownTexture)
		}
		entries = append(entries, entry{
			layout: gputypes.BindGroupLayoutEntry{
				Binding:    out.Binding,
				Visibility: gputypes.ShaderStageCompute,
				StorageTexture: &gputypes.StorageTextureBindingLayout{
					Access:        gputypes.StorageTextureAccessWriteOnly,
					Format:        slot.format,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			group: gputypes.BindGroupEntry{
				Binding: out.Binding,
				Resource: gputypes.TextureViewBinding{
					TextureView: slot.view.NativeHandle(),
				},
			},
		})
	}

	for _, sb := range pass.Samplers {
		if err := claim(sb.Binding); err != nil {
			return nil, err
		}
		smp, ok := samplers.get(sb.Filter)
		if !ok {
			return nil, fmt.Errorf("pass %q sampler binding %d: %w: %s", pass.Name, sb.Binding, anime4k.ErrUnknownSampler, sb.Filter)
		}
		entries = append(entries, entry{
			layout: gputypes.BindGroupLayoutEntry{
				Binding:    sb.Binding,
				Visibility: gputypes.ShaderStageCompute,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			group: gputypes.BindGroupEntry{
				Binding: sb.Binding,
				Resource: gputypes.SamplerBinding{
					Sampler: smp.NativeHandle(),
				},
			},
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].layout.Binding < entries[j].layout.Binding
	})

	pb := &passBindings{
		layoutEntries: make([]gputypes.BindGroupLayoutEntry, len(entries)),
		groupEntries:  make([]gputypes.BindGroupEntry, len(entries)),
	}
	for i, e := range entries {
		pb.layoutEntries[i] = e.layout
		pb.groupEntries[i] = e.group
	}
	return pb, nil
}
