package engine

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// samplerSet holds one sampler per filter mode a pipeline declares, shared
// by every pass in that pipeline. Addressing is fixed to clamp-to-edge on
// all axes.
type samplerSet struct {
	device   hal.Device
	samplers map[anime4k.FilterMode]hal.Sampler
	released bool
}

// createSamplers builds the shared samplers for one pipeline. On failure
// the already-created samplers are destroyed before the error is returned.
func createSamplers(device hal.Device, pipelineName string, modes []anime4k.FilterMode) (*samplerSet, error) {
	set := &samplerSet{
		device:   device,
		samplers: make(map[anime4k.FilterMode]hal.Sampler, len(modes)),
	}

	for _, mode := range modes {
		if _, dup := set.samplers[mode]; dup {
			continue
		}
		var filter gputypes.FilterMode
		switch mode {
		case anime4k.FilterNearest:
			filter = gputypes.FilterModeNearest
		case anime4k.FilterLinear:
			filter = gputypes.FilterModeLinear
		default:
			set.release()
			return nil, fmt.Errorf("pipeline %q: %w: %s", pipelineName, anime4k.ErrUnknownSampler, mode)
		}

		sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
			Label:        fmt.Sprintf("%s_sampler_%s", pipelineName, mode),
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    filter,
			MinFilter:    filter,
			MipmapFilter: filter,
		})
		if err != nil {
			set.release()
			return nil, fmt.Errorf("pipeline %q: create %s sampler: %w", pipelineName, mode, err)
		}
		set.samplers[mode] = sampler
	}

	return set, nil
}

// get returns the shared sampler for a filter mode.
func (s *samplerSet) get(mode anime4k.FilterMode) (hal.Sampler, bool) {
	smp, ok := s.samplers[mode]
	return smp, ok
}

// release destroys every sampler exactly once. A second call is a no-op.
func (s *samplerSet) release() {
	if s.released {
		return
	}
	s.released = true
	for mode, smp := range s.samplers {
		if smp != nil {
			s.device.DestroySampler(smp)
		}
		delete(s.samplers, mode)
	}
}
