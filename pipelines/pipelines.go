// Package pipelines ships the built-in Anime4K stage library: predefined
// ExecutablePipeline descriptors with embedded WGSL compute shaders.
//
// The descriptors are static configuration data. ResolveStage maps the
// closed set of stage names produced by anime4k.ComposeStages to pipeline
// descriptors at configuration time; nothing here touches the GPU.
package pipelines

import (
	_ "embed"
	"errors"
	"fmt"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

//go:embed shaders/clamp_highlights_gather.wgsl
var clampHighlightsGatherWGSL string

//go:embed shaders/clamp_highlights_apply.wgsl
var clampHighlightsApplyWGSL string

//go:embed shaders/conv3x3.wgsl
var conv3x3WGSL string

//go:embed shaders/conv3x3_residual.wgsl
var conv3x3ResidualWGSL string

//go:embed shaders/upscale_x2.wgsl
var upscaleX2WGSL string

// ErrUnknownStage is returned by ResolveStage for a stage outside the
// built-in library (including CNN stages with a missing model size).
var ErrUnknownStage = errors.New("pipelines: unknown stage")

// Texture ids shared by the generated pipelines. The source is always id 0
// and the final output always has the highest id, so the layouts below stay
// easy to cross-check against the shaders.
const (
	texSource uint32 = iota
	texFeatA
	texFeatB
	texOutput
)

// convLayers returns the number of convolution layers for a model size.
func convLayers(m anime4k.ModelSize) (int, error) {
	switch m {
	case anime4k.ModelS:
		return 2, nil
	case anime4k.ModelM:
		return 3, nil
	case anime4k.ModelL:
		return 4, nil
	case anime4k.ModelVL:
		return 6, nil
	case anime4k.ModelUL:
		return 8, nil
	default:
		return 0, fmt.Errorf("%w: model size %d", ErrUnknownStage, m)
	}
}

// ClampHighlights returns the auxiliary highlight-clamping pipeline: a
// statistics gather pass followed by an apply pass, both at input scale.
func ClampHighlights() anime4k.ExecutablePipeline {
	return anime4k.ExecutablePipeline{
		Name: "clamp_highlights",
		Textures: []anime4k.PhysicalTexture{
			{ID: texSource, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity, IsSource: true},
			{ID: texFeatA, Components: 1, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
			{ID: texOutput, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
		},
		Passes: []anime4k.ExecutablePass{
			{
				Name:        "clamp_highlights_gather",
				Shader:      clampHighlightsGatherWGSL,
				WidthScale:  anime4k.ScaleIdentity,
				HeightScale: anime4k.ScaleIdentity,
				Inputs:      []anime4k.TextureBinding{{Binding: 0, Texture: texSource}},
				Outputs:     []anime4k.TextureBinding{{Binding: 1, Texture: texFeatA}},
			},
			{
				Name:        "clamp_highlights_apply",
				Shader:      clampHighlightsApplyWGSL,
				WidthScale:  anime4k.ScaleIdentity,
				HeightScale: anime4k.ScaleIdentity,
				Inputs: []anime4k.TextureBinding{
					{Binding: 0, Texture: texSource},
					{Binding: 1, Texture: texFeatA},
				},
				Outputs: []anime4k.TextureBinding{{Binding: 2, Texture: texOutput}},
			},
		},
	}
}

// RestoreCNN returns a restore pipeline for the given model size: a chain of
// convolution layers ping-ponging between two feature textures, closed by a
// residual pass that adds the prediction back onto the source.
func RestoreCNN(model anime4k.ModelSize, soft bool) (anime4k.ExecutablePipeline, error) {
	layers, err := convLayers(model)
	if err != nil {
		return anime4k.ExecutablePipeline{}, err
	}

	name := "restore_cnn_" + model.String()
	if soft {
		name = "restore_soft_cnn_" + model.String()
	}

	p := anime4k.ExecutablePipeline{
		Name: name,
		Textures: []anime4k.PhysicalTexture{
			{ID: texSource, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity, IsSource: true},
			{ID: texFeatA, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
			{ID: texFeatB, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
			{ID: texOutput, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
		},
	}

	in := texSource
	out := texFeatA
	for i := 0; i < layers; i++ {
		p.Passes = append(p.Passes, anime4k.ExecutablePass{
			Name:        fmt.Sprintf("%s_conv%d", name, i),
			Shader:      conv3x3WGSL,
			WidthScale:  anime4k.ScaleIdentity,
			HeightScale: anime4k.ScaleIdentity,
			Inputs:      []anime4k.TextureBinding{{Binding: 0, Texture: in}},
			Outputs:     []anime4k.TextureBinding{{Binding: 1, Texture: out}},
		})
		if out == texFeatA {
			in, out = texFeatA, texFeatB
		} else {
			in, out = texFeatB, texFeatA
		}
	}

	p.Passes = append(p.Passes, anime4k.ExecutablePass{
		Name:        name + "_residual",
		Shader:      conv3x3ResidualWGSL,
		WidthScale:  anime4k.ScaleIdentity,
		HeightScale: anime4k.ScaleIdentity,
		Inputs: []anime4k.TextureBinding{
			{Binding: 0, Texture: texSource},
			{Binding: 1, Texture: in},
		},
		Outputs: []anime4k.TextureBinding{{Binding: 2, Texture: texOutput}},
	})

	return p, nil
}

// UpscaleCNNX2 returns a 2x upscale pipeline for the given model size. The
// convolution chain runs at input scale; the final pass dispatches at output
// scale, bilinearly sampling the source and adding the predicted detail.
// The denoise variant prepends one extra convolution layer.
func UpscaleCNNX2(model anime4k.ModelSize, denoise bool) (anime4k.ExecutablePipeline, error) {
	layers, err := convLayers(model)
	if err != nil {
		return anime4k.ExecutablePipeline{}, err
	}
	name := "upscale_cnn_x2_" + model.String()
	if denoise {
		name = "upscale_denoise_cnn_x2_" + model.String()
		layers++
	}

	p := anime4k.ExecutablePipeline{
		Name: name,
		Textures: []anime4k.PhysicalTexture{
			{ID: texSource, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity, IsSource: true},
			{ID: texFeatA, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
			{ID: texFeatB, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
			{ID: texOutput, Components: 4, WidthScale: anime4k.ScaleDouble, HeightScale: anime4k.ScaleDouble},
		},
		Samplers: []anime4k.FilterMode{anime4k.FilterLinear},
	}

	in := texSource
	out := texFeatA
	for i := 0; i < layers; i++ {
		p.Passes = append(p.Passes, anime4k.ExecutablePass{
			Name:        fmt.Sprintf("%s_conv%d", name, i),
			Shader:      conv3x3WGSL,
			WidthScale:  anime4k.ScaleIdentity,
			HeightScale: anime4k.ScaleIdentity,
			Inputs:      []anime4k.TextureBinding{{Binding: 0, Texture: in}},
			Outputs:     []anime4k.TextureBinding{{Binding: 1, Texture: out}},
		})
		if out == texFeatA {
			in, out = texFeatA, texFeatB
		} else {
			in, out = texFeatB, texFeatA
		}
	}

	p.Passes = append(p.Passes, anime4k.ExecutablePass{
		Name:        name + "_expand",
		Shader:      upscaleX2WGSL,
		WidthScale:  anime4k.ScaleDouble,
		HeightScale: anime4k.ScaleDouble,
		Inputs: []anime4k.TextureBinding{
			{Binding: 0, Texture: in},
			{Binding: 1, Texture: texSource},
		},
		Samplers: []anime4k.SamplerBinding{{Binding: 2, Filter: anime4k.FilterLinear}},
		Outputs:  []anime4k.TextureBinding{{Binding: 3, Texture: texOutput}},
	})

	return p, nil
}

// ResolveStage maps a composed stage name to its pipeline descriptor.
// Unknown stages are configuration errors surfaced here, at validation time,
// rather than mid-frame.
func ResolveStage(s anime4k.Stage) (anime4k.ExecutablePipeline, error) {
	switch s.Kind {
	case anime4k.StageClampHighlights:
		return ClampHighlights(), nil
	case anime4k.StageRestore:
		return RestoreCNN(s.Model, false)
	case anime4k.StageRestoreSoft:
		return RestoreCNN(s.Model, true)
	case anime4k.StageUpscale:
		return UpscaleCNNX2(s.Model, false)
	case anime4k.StageUpscaleDenoise:
		return UpscaleCNNX2(s.Model, true)
	default:
		return anime4k.ExecutablePipeline{}, fmt.Errorf("%w: kind %d", ErrUnknownStage, s.Kind)
	}
}

// ResolveStages resolves a full composed stage list into validated pipeline
// descriptors, in order. The first unknown or invalid stage aborts the
// resolution.
func ResolveStages(stages []anime4k.Stage) ([]anime4k.ExecutablePipeline, error) {
	chain := make([]anime4k.ExecutablePipeline, 0, len(stages))
	for _, s := range stages {
		p, err := ResolveStage(s)
		if err != nil {
			return nil, err
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("pipelines: stage %s: %w", s, err)
		}
		chain = append(chain, p)
	}
	return chain, nil
}
