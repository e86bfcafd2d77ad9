package engine

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// ErrTextureAlloc wraps texture or view creation failures. The partial
// allocations of the failed bind are always released before it propagates.
var ErrTextureAlloc = errors.New("engine: texture allocation failed")

// textureUsage covers every way a pipeline texture is accessed: written as
// a storage target, sampled by later passes, and copied in either direction
// for frame upload and readback.
const textureUsage = gputypes.TextureUsageStorageBinding |
	gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc |
	gputypes.TextureUsageCopyDst

// Frame is a non-owning reference to a GPU texture used as a pipeline input
// or produced as its output. The engine never destroys a Frame's texture;
// ownership stays with whoever created it.
type Frame struct {
	Texture hal.Texture
	View    hal.TextureView
	Width   uint32
	Height  uint32
}

// formatFor selects the storage format from a component count. All formats
// are 32-bit float per component, matching the precision the CNN passes
// accumulate in.
func formatFor(components uint32) (gputypes.TextureFormat, error) {
	switch components {
	case 1:
		return gputypes.TextureFormatR32Float, nil
	case 2:
		return gputypes.TextureFormatRG32Float, nil
	case 4:
		return gputypes.TextureFormatRGBA32Float, nil
	default:
		return 0, fmt.Errorf("engine: %w (got %d)", anime4k.ErrBadComponents, components)
	}
}

// textureSlot is one realized physical texture. Owned slots were allocated
// by the engine and are destroyed exactly once by the pool; the source slot
// aliases the caller's frame and is structurally excluded from teardown.
type textureSlot struct {
	texture hal.Texture
	view    hal.TextureView
	width   uint32
	height  uint32
	format  gputypes.TextureFormat
	owned   bool
}

// texturePool holds the realized textures of one bound pipeline.
type texturePool struct {
	device   hal.Device
	slots    map[uint32]*textureSlot
	released bool
}

// allocateTextures realizes a pipeline's texture set against a concrete
// input frame. The source texture aliases the frame; every other texture is
// allocated at floor(frame dimension x scale) with the format chosen from
// its component count. On any failure the already-created textures are
// destroyed before the error is returned.
func allocateTextures(device hal.Device, p *anime4k.ExecutablePipeline, source Frame) (*texturePool, error) {
	pool := &texturePool{
		device: device,
		slots:  make(map[uint32]*textureSlot, len(p.Textures)),
	}

	for i := range p.Textures {
		decl := &p.Textures[i]

		if decl.IsSource {
			pool.slots[decl.ID] = &textureSlot{
				texture: source.Texture,
				view:    source.View,
				width:   source.Width,
				height:  source.Height,
				format:  gputypes.TextureFormatRGBA32Float,
			}
			continue
		}

		format, err := formatFor(decl.Components)
		if err != nil {
			pool.release()
			return nil, fmt.Errorf("pipeline %q texture %d: %w", p.Name, decl.ID, err)
		}
		w := decl.WidthScale.Apply(source.Width)
		h := decl.HeightScale.Apply(source.Height)

		label := fmt.Sprintf("%s_tex%d", p.Name, decl.ID)
		tex, err := device.CreateTexture(&hal.TextureDescriptor{
			Label:         label,
			Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        format,
			Usage:         textureUsage,
		})
		if err != nil {
			pool.release()
			return nil, fmt.Errorf("pipeline %q texture %d (%dx%d): %w: %w", p.Name, decl.ID, w, h, ErrTextureAlloc, err)
		}

		view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label:         label + "_view",
			Format:        format,
			Dimension:     gputypes.TextureViewDimension2D,
			Aspect:        gputypes.TextureAspectAll,
			MipLevelCount: 1,
		})
		if err != nil {
			device.DestroyTexture(tex)
			pool.release()
			return nil, fmt.Errorf("pipeline %q texture %d view: %w: %w", p.Name, decl.ID, ErrTextureAlloc, err)
		}

		pool.slots[decl.ID] = &textureSlot{
			texture: tex,
			view:    view,
			width:   w,
			height:  h,
			format:  format,
			owned:   true,
		}

		slogger().Debug("engine: texture allocated",
			"pipeline", p.Name,
			"texture", decl.ID,
			"size", fmt.Sprintf("%dx%d", w, h),
			"components", decl.Components)
	}

	return pool, nil
}

// get returns the realized slot for a physical texture id.
func (tp *texturePool) get(id uint32) (*textureSlot, bool) {
	s, ok := tp.slots[id]
	return s, ok
}

// ownedCount reports how many textures the pool allocated itself.
func (tp *texturePool) ownedCount() int {
	n := 0
	for _, s := range tp.slots {
		if s.owned {
			n++
		}
	}
	return n
}

// release destroys every owned texture exactly once. The aliased source is
// never touched. A second call is a no-op.
func (tp *texturePool) release() {
	if tp.released {
		return
	}
	tp.released = true
	for id, s := range tp.slots {
		if !s.owned {
			continue
		}
		if s.view != nil {
			tp.device.DestroyTextureView(s.view)
		}
		if s.texture != nil {
			tp.device.DestroyTexture(s.texture)
		}
		delete(tp.slots, id)
	}
}
