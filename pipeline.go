package anime4k

import (
	"errors"
	"fmt"
)

// FilterMode selects how a sampler interpolates between texels.
type FilterMode uint8

const (
	// FilterNearest is nearest-neighbor sampling: sharp, pixelated.
	FilterNearest FilterMode = iota
	// FilterLinear is bilinear interpolation: smooth.
	FilterLinear
)

// String returns the lowercase name of the filter mode.
func (m FilterMode) String() string {
	switch m {
	case FilterNearest:
		return "nearest"
	case FilterLinear:
		return "linear"
	default:
		return fmt.Sprintf("FilterMode(%d)", uint8(m))
	}
}

// PhysicalTexture describes one concrete texture a pipeline needs: a unique
// id, a component count selecting the storage format, and a pair of scale
// factors relating its dimensions to the pipeline's input frame.
//
// Exactly one PhysicalTexture per pipeline carries IsSource. The source is
// never allocated (or destroyed) by the engine; it aliases the caller's
// input frame texture.
type PhysicalTexture struct {
	// ID is unique within the owning pipeline.
	ID uint32
	// Components is the number of color components stored: 1, 2, or 4.
	Components uint32
	// WidthScale and HeightScale size the texture relative to the input
	// frame, flooring each dimension.
	WidthScale  ScaleFactor
	HeightScale ScaleFactor
	// IsSource marks the texture that aliases the externally supplied
	// input frame.
	IsSource bool
}

// TextureBinding maps a shader binding slot to a physical texture.
type TextureBinding struct {
	// Binding is the shader binding point index.
	Binding uint32
	// Texture is the PhysicalTexture.ID to bind.
	Texture uint32
}

// SamplerBinding maps a shader binding slot to a sampler filter mode.
type SamplerBinding struct {
	// Binding is the shader binding point index.
	Binding uint32
	// Filter selects which of the pipeline's shared samplers to bind.
	Filter FilterMode
}

// ExecutablePass is a single compute dispatch within a pipeline.
//
// Every pass program declares two entry points sharing one 8x8 workgroup
// size: "main", which discards out-of-range invocations, and
// "main_unchecked", which omits the range test. The engine picks the
// unchecked variant when the dispatch extent divides evenly by the
// workgroup size.
type ExecutablePass struct {
	// Name identifies the pass in errors and logs.
	Name string
	// Shader is the WGSL source of the pass program.
	Shader string
	// WidthScale and HeightScale size the dispatch extent relative to the
	// pipeline's input frame.
	WidthScale  ScaleFactor
	HeightScale ScaleFactor
	// Inputs are sampled-texture bindings read by the pass.
	Inputs []TextureBinding
	// Outputs are write-only storage-texture bindings written by the pass.
	Outputs []TextureBinding
	// Samplers are filtering-sampler bindings.
	Samplers []SamplerBinding
}

// ExecutablePipeline is a complete, declarative pipeline description: the
// physical textures it needs, the sampler modes it shares across passes, and
// an ordered list of passes.
//
// Passes must be declared in dependency order: no pass may read a texture
// before an earlier pass (or the source) has written it. The engine relies
// on command-buffer ordering, not explicit barriers, so declaration order is
// execution order.
type ExecutablePipeline struct {
	// Name identifies the pipeline in errors and logs.
	Name string
	// Textures is the set of physical textures, exactly one of which is
	// the source.
	Textures []PhysicalTexture
	// Samplers lists the distinct filter modes the passes may bind.
	Samplers []FilterMode
	// Passes execute in order, one compute dispatch each.
	Passes []ExecutablePass
}

// Validation errors returned (wrapped) by ExecutablePipeline.Validate and by
// bind-time checks in the engine.
var (
	ErrNoPasses          = errors.New("anime4k: pipeline has no passes")
	ErrNoSource          = errors.New("anime4k: pipeline declares no source texture")
	ErrMultipleSources   = errors.New("anime4k: pipeline declares more than one source texture")
	ErrDuplicateTexture  = errors.New("anime4k: duplicate physical texture id")
	ErrBadComponents     = errors.New("anime4k: component count must be 1, 2, or 4")
	ErrBadScaleFactor    = errors.New("anime4k: scale factor must have nonzero numerator and denominator")
	ErrUnknownTexture    = errors.New("anime4k: pass references undeclared texture")
	ErrUnknownSampler    = errors.New("anime4k: pass references undeclared sampler mode")
	ErrNoOutputs         = errors.New("anime4k: pass declares no output texture")
	ErrBindingCollision  = errors.New("anime4k: duplicate binding number within a pass")
	ErrReadBeforeWrite   = errors.New("anime4k: pass reads a texture no earlier pass has written")
	ErrSourceWrite       = errors.New("anime4k: pass writes to the source texture")
	ErrEmptyShader       = errors.New("anime4k: pass has empty shader source")
)

// Validate checks the pipeline description for configuration errors: a
// missing or duplicated source, unknown texture or sampler references,
// binding-number collisions, and passes declared out of dependency order.
// It inspects only the declaration; no GPU resources are touched.
func (p *ExecutablePipeline) Validate() error {
	if len(p.Passes) == 0 {
		return fmt.Errorf("pipeline %q: %w", p.Name, ErrNoPasses)
	}

	textures := make(map[uint32]*PhysicalTexture, len(p.Textures))
	var source *PhysicalTexture
	for i := range p.Textures {
		t := &p.Textures[i]
		if _, dup := textures[t.ID]; dup {
			return fmt.Errorf("pipeline %q: texture %d: %w", p.Name, t.ID, ErrDuplicateTexture)
		}
		textures[t.ID] = t
		if t.Components != 1 && t.Components != 2 && t.Components != 4 {
			return fmt.Errorf("pipeline %q: texture %d: %w (got %d)", p.Name, t.ID, ErrBadComponents, t.Components)
		}
		if !validScale(t.WidthScale) || !validScale(t.HeightScale) {
			return fmt.Errorf("pipeline %q: texture %d: %w", p.Name, t.ID, ErrBadScaleFactor)
		}
		if t.IsSource {
			if source != nil {
				return fmt.Errorf("pipeline %q: %w", p.Name, ErrMultipleSources)
			}
			source = t
		}
	}
	if source == nil {
		return fmt.Errorf("pipeline %q: %w", p.Name, ErrNoSource)
	}

	declared := make(map[FilterMode]bool, len(p.Samplers))
	for _, m := range p.Samplers {
		declared[m] = true
	}

	// Texture ids written so far; the source counts as pre-written.
	written := map[uint32]bool{source.ID: true}

	for i := range p.Passes {
		pass := &p.Passes[i]
		if pass.Shader == "" {
			return fmt.Errorf("pipeline %q: pass %q: %w", p.Name, pass.Name, ErrEmptyShader)
		}
		if !validScale(pass.WidthScale) || !validScale(pass.HeightScale) {
			return fmt.Errorf("pipeline %q: pass %q: %w", p.Name, pass.Name, ErrBadScaleFactor)
		}
		if len(pass.Outputs) == 0 {
			return fmt.Errorf("pipeline %q: pass %q: %w", p.Name, pass.Name, ErrNoOutputs)
		}

		bindings := make(map[uint32]bool, len(pass.Inputs)+len(pass.Outputs)+len(pass.Samplers))
		record := func(b uint32) error {
			if bindings[b] {
				return fmt.Errorf("pipeline %q: pass %q: binding %d: %w", p.Name, pass.Name, b, ErrBindingCollision)
			}
			bindings[b] = true
			return nil
		}

		for _, in := range pass.Inputs {
			if err := record(in.Binding); err != nil {
				return err
			}
			if _, ok := textures[in.Texture]; !ok {
				return fmt.Errorf("pipeline %q: pass %q: input texture %d: %w", p.Name, pass.Name, in.Texture, ErrUnknownTexture)
			}
			if !written[in.Texture] {
				return fmt.Errorf("pipeline %q: pass %q: texture %d: %w", p.Name, pass.Name, in.Texture, ErrReadBeforeWrite)
			}
		}
		for _, out := range pass.Outputs {
			if err := record(out.Binding); err != nil {
				return err
			}
			t, ok := textures[out.Texture]
			if !ok {
				return fmt.Errorf("pipeline %q: pass %q: output texture %d: %w", p.Name, pass.Name, out.Texture, ErrUnknownTexture)
			}
			if t.IsSource {
				return fmt.Errorf("pipeline %q: pass %q: %w", p.Name, pass.Name, ErrSourceWrite)
			}
		}
		for _, s := range pass.Samplers {
			if err := record(s.Binding); err != nil {
				return err
			}
			if !declared[s.Filter] {
				return fmt.Errorf("pipeline %q: pass %q: sampler %s: %w", p.Name, pass.Name, s.Filter, ErrUnknownSampler)
			}
		}

		// Outputs become readable by later passes only after the binding
		// checks above, so a pass cannot read its own output.
		for _, out := range pass.Outputs {
			written[out.Texture] = true
		}
	}

	return nil
}

// Source returns the pipeline's source texture declaration, or nil if the
// pipeline is invalid and declares none.
func (p *ExecutablePipeline) Source() *PhysicalTexture {
	for i := range p.Textures {
		if p.Textures[i].IsSource {
			return &p.Textures[i]
		}
	}
	return nil
}

// OutputScale returns the scale factors of the pipeline's final output
// texture (the first output of the last pass) relative to the pipeline's
// input. Falls back to identity for an invalid pipeline.
func (p *ExecutablePipeline) OutputScale() (w, h ScaleFactor) {
	if len(p.Passes) == 0 || len(p.Passes[len(p.Passes)-1].Outputs) == 0 {
		return ScaleIdentity, ScaleIdentity
	}
	id := p.Passes[len(p.Passes)-1].Outputs[0].Texture
	for i := range p.Textures {
		if p.Textures[i].ID == id {
			return p.Textures[i].WidthScale, p.Textures[i].HeightScale
		}
	}
	return ScaleIdentity, ScaleIdentity
}

func validScale(s ScaleFactor) bool {
	return s.Num != 0 && s.Den != 0
}
