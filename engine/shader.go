package engine

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// Entry points every pass program declares. The unchecked variant omits the
// per-invocation range test and is selected when the dispatch extent divides
// evenly by the workgroup size on both axes.
const (
	entryChecked   = "main"
	entryUnchecked = "main_unchecked"
)

// ErrShaderCompile wraps WGSL front-end diagnostics. Any compile error is
// fatal for the bind attempt that triggered it.
var ErrShaderCompile = errors.New("engine: shader compilation failed")

// compileShader runs the pass program through the WGSL front end and
// creates the shader module from the resulting SPIR-V. Compilation
// diagnostics surface as a hard error naming the pass.
func compileShader(device hal.Device, passName, wgsl string) (hal.ShaderModule, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("pass %q: %w: %w", passName, ErrShaderCompile, err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}

	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  passName,
		Source: hal.ShaderSource{SPIRV: words},
	})
	if err != nil {
		return nil, fmt.Errorf("pass %q: create shader module: %w", passName, err)
	}
	return module, nil
}

// dispatchExtent computes a pass's dispatch extent from the pipeline's input
// frame dimensions, flooring each axis.
func dispatchExtent(pass *anime4k.ExecutablePass, inputW, inputH uint32) (uint32, uint32) {
	return pass.WidthScale.Apply(inputW), pass.HeightScale.Apply(inputH)
}

// entryPointFor selects between the bounds-checked and unchecked entry
// points for a dispatch extent.
func entryPointFor(extentW, extentH uint32) string {
	if extentW%workgroupSize == 0 && extentH%workgroupSize == 0 {
		return entryUnchecked
	}
	return entryChecked
}

// workgroups returns the dispatch workgroup count covering extent.
func workgroups(extent uint32) uint32 {
	return (extent + workgroupSize - 1) / workgroupSize
}
