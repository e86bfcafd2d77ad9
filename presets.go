package anime4k

import "fmt"

// Preset selects an Anime4K algorithm variant. Each preset composes a fixed
// prefix of processing stages; see ComposeStages.
type Preset uint8

const (
	// PresetOff applies no processing.
	PresetOff Preset = iota
	// PresetModeA restores then upscales; good for most anime content.
	PresetModeA
	// PresetModeAA is Mode A with an additional restore pass.
	PresetModeAA
	// PresetModeB soft-restores then upscales; gentler processing.
	PresetModeB
	// PresetModeBB is Mode B with an additional soft restore pass.
	PresetModeBB
	// PresetModeC combines upscaling and denoising; efficient for noisy
	// content.
	PresetModeC
	// PresetModeCA is Mode C with an additional restore pass.
	PresetModeCA
)

// String returns the display name of the preset.
func (p Preset) String() string {
	switch p {
	case PresetOff:
		return "OFF"
	case PresetModeA:
		return "Mode A"
	case PresetModeAA:
		return "Mode AA"
	case PresetModeB:
		return "Mode B"
	case PresetModeBB:
		return "Mode BB"
	case PresetModeC:
		return "Mode C"
	case PresetModeCA:
		return "Mode CA"
	default:
		return fmt.Sprintf("Preset(%d)", uint8(p))
	}
}

// PerformanceTier controls the computational cost of the composed stages.
// Higher tiers select larger CNN model variants.
type PerformanceTier uint8

const (
	// TierLight is the fastest processing with the smallest models.
	TierLight PerformanceTier = iota
	// TierMedium balances performance and quality.
	TierMedium
	// TierHigh trades performance for higher quality.
	TierHigh
	// TierUltra is very high quality at significant cost.
	TierUltra
	// TierExtreme is maximum quality at the highest cost.
	TierExtreme
)

// String returns the display name of the tier.
func (t PerformanceTier) String() string {
	switch t {
	case TierLight:
		return "Light"
	case TierMedium:
		return "Medium"
	case TierHigh:
		return "High"
	case TierUltra:
		return "Ultra"
	case TierExtreme:
		return "Extreme"
	default:
		return fmt.Sprintf("PerformanceTier(%d)", uint8(t))
	}
}

// StageKind names one family of processing stages.
type StageKind uint8

const (
	// StageClampHighlights is the auxiliary highlight-clamping stage run
	// before any CNN stage.
	StageClampHighlights StageKind = iota
	// StageRestore is the restore CNN.
	StageRestore
	// StageRestoreSoft is the soft-restore CNN.
	StageRestoreSoft
	// StageUpscale is the 2x upscale CNN.
	StageUpscale
	// StageUpscaleDenoise is the combined 2x upscale and denoise CNN.
	StageUpscaleDenoise
)

// ModelSize selects a CNN model variant for a stage. Larger models use more
// convolution layers.
type ModelSize uint8

const (
	// ModelNone marks stages without a CNN model (auxiliary stages).
	ModelNone ModelSize = iota
	ModelS
	ModelM
	ModelL
	ModelVL
	ModelUL
)

// String returns the model suffix used in stage names.
func (m ModelSize) String() string {
	switch m {
	case ModelNone:
		return ""
	case ModelS:
		return "s"
	case ModelM:
		return "m"
	case ModelL:
		return "l"
	case ModelVL:
		return "vl"
	case ModelUL:
		return "ul"
	default:
		return fmt.Sprintf("ModelSize(%d)", uint8(m))
	}
}

// Stage names one concrete pipeline stage: a stage kind plus the model
// variant to use. Stages form a closed set resolved to ExecutablePipeline
// descriptors at configuration-validation time, never looked up by string at
// dispatch time.
type Stage struct {
	Kind  StageKind
	Model ModelSize
}

// String returns the canonical stage name, e.g. "upscale_cnn_x2_m".
func (s Stage) String() string {
	switch s.Kind {
	case StageClampHighlights:
		return "clamp_highlights"
	case StageRestore:
		return "restore_cnn_" + s.Model.String()
	case StageRestoreSoft:
		return "restore_soft_cnn_" + s.Model.String()
	case StageUpscale:
		return "upscale_cnn_x2_" + s.Model.String()
	case StageUpscaleDenoise:
		return "upscale_denoise_cnn_x2_" + s.Model.String()
	default:
		return fmt.Sprintf("Stage(%d)", uint8(s.Kind))
	}
}

// initialModel is the model size for the first stage of each kind.
func (t PerformanceTier) initialModel() ModelSize {
	switch t {
	case TierLight:
		return ModelS
	case TierMedium:
		return ModelM
	case TierHigh:
		return ModelL
	case TierUltra:
		return ModelVL
	default:
		return ModelUL
	}
}

// subsequentModel is the (typically smaller) model size for stages appended
// after the initial restore/upscale sequence.
func (t PerformanceTier) subsequentModel() ModelSize {
	switch t {
	case TierLight, TierMedium:
		return ModelS
	case TierHigh:
		return ModelM
	default:
		return ModelL
	}
}

// ComposeStages maps (preset, tier, targetScale) to the ordered list of
// stages to chain. It is pure: identical arguments always produce identical
// lists, and no state is consulted or mutated.
//
// Every preset's base sequence upscales by exactly 2x. When targetScale
// exceeds 2, additional 2x upscale stages are appended, doubling an
// accumulator until it reaches or exceeds targetScale. A target that is not
// a power of two therefore yields the next power of two at or above it;
// callers needing an exact factor downsample the result themselves.
//
// PresetOff returns nil.
func ComposeStages(preset Preset, tier PerformanceTier, targetScale float64) []Stage {
	var stages []Stage
	switch preset {
	case PresetOff:
		return nil
	case PresetModeA:
		stages = []Stage{
			{Kind: StageClampHighlights},
			{Kind: StageRestore, Model: tier.initialModel()},
			{Kind: StageUpscale, Model: tier.initialModel()},
		}
	case PresetModeAA:
		stages = []Stage{
			{Kind: StageClampHighlights},
			{Kind: StageRestore, Model: tier.initialModel()},
			{Kind: StageUpscale, Model: tier.initialModel()},
			{Kind: StageRestore, Model: tier.subsequentModel()},
		}
	case PresetModeB:
		stages = []Stage{
			{Kind: StageClampHighlights},
			{Kind: StageRestoreSoft, Model: tier.initialModel()},
			{Kind: StageUpscale, Model: tier.initialModel()},
		}
	case PresetModeBB:
		stages = []Stage{
			{Kind: StageClampHighlights},
			{Kind: StageRestoreSoft, Model: tier.initialModel()},
			{Kind: StageUpscale, Model: tier.initialModel()},
			{Kind: StageRestoreSoft, Model: tier.subsequentModel()},
		}
	case PresetModeC:
		stages = []Stage{
			{Kind: StageClampHighlights},
			{Kind: StageUpscaleDenoise, Model: tier.initialModel()},
		}
	case PresetModeCA:
		stages = []Stage{
			{Kind: StageClampHighlights},
			{Kind: StageUpscaleDenoise, Model: tier.initialModel()},
			{Kind: StageRestore, Model: tier.subsequentModel()},
		}
	default:
		return nil
	}

	scale := 2.0
	for scale < targetScale {
		stages = append(stages, Stage{Kind: StageUpscale, Model: tier.subsequentModel()})
		scale *= 2
	}
	return stages
}
