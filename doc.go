// Package anime4k provides a real-time GPU video upscaling and restoration
// engine based on the Anime4K algorithm family.
//
// The module is organized in three layers:
//
//   - The root package holds the declarative pipeline model: ScaleFactor,
//     PhysicalTexture, ExecutablePass, ExecutablePipeline, and the preset
//     composer that maps (preset, performance tier, target scale) to an
//     ordered list of processing stages.
//   - Package pipelines ships the built-in stage library: predefined
//     ExecutablePipeline descriptors with embedded WGSL compute shaders for
//     the clamp-highlights, restore, upscale, and denoise variants.
//   - Package engine realizes pipelines on a GPU: it allocates textures,
//     creates samplers and bind groups, compiles shaders, and replays the
//     recorded dispatch sequence for every frame.
//
// A minimal end-to-end flow:
//
//	stages := anime4k.ComposeStages(anime4k.PresetModeA, anime4k.TierMedium, 2.0)
//	chain, err := pipelines.ResolveStages(stages)
//	eng, err := engine.NewStandalone()
//	exec, err := eng.NewExecutor(chain, frame)
//	err = exec.Render()
//	out := exec.Output()
//
// By default the package produces no log output; call [SetLogger] to enable
// diagnostics.
package anime4k
