package engine

import (
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// Executor is one fully configured processing chain: an ordered list of
// bound pipelines threading the caller's input frame through to a final
// output texture. Pipelines are bound together and destroyed together; a
// failed bind never leaves a partial executor behind.
type Executor struct {
	mu        sync.Mutex
	device    hal.Device
	queue     hal.Queue
	source    Frame
	pipelines []*BoundPipeline
	released  bool
}

// NewExecutor binds an ordered pipeline chain against the given input
// frame. Pipeline i's source texture aliases pipeline i-1's output, so the
// frame flows through the chain without copies. Pipelines bind strictly in
// order; if any bind fails, every pipeline bound so far is torn down before
// the error propagates.
//
// An empty chain is valid and acts as a passthrough (the OFF preset): the
// executor's output is the source frame itself.
func (e *Engine) NewExecutor(chain []anime4k.ExecutablePipeline, source Frame) (*Executor, error) {
	device, queue, err := e.handles()
	if err != nil {
		return nil, err
	}

	ex := &Executor{
		device: device,
		queue:  queue,
		source: source,
	}

	input := source
	for i := range chain {
		bp, err := bindPipeline(device, &chain[i], input)
		if err != nil {
			for j := len(ex.pipelines) - 1; j >= 0; j-- {
				ex.pipelines[j].release()
			}
			ex.released = true
			return nil, fmt.Errorf("engine: bind pipeline %d: %w", i, err)
		}
		ex.pipelines = append(ex.pipelines, bp)
		input = bp.outputFrame()
	}

	slogger().Info("engine: executor bound",
		"pipelines", len(ex.pipelines),
		"input", fmt.Sprintf("%dx%d", source.Width, source.Height),
		"output", fmt.Sprintf("%dx%d", input.Width, input.Height))

	return ex, nil
}

// Render records and submits one frame: every pipeline's passes in declared
// order in a single command buffer, then waits for the submission fence.
// The whole frame is submitted as a unit; the next frame is not recorded
// until this one settles.
func (ex *Executor) Render() error {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.released {
		return fmt.Errorf("engine: render on destroyed executor")
	}
	if len(ex.pipelines) == 0 {
		return nil
	}

	encoder, err := ex.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "anime4k_frame",
	})
	if err != nil {
		return fmt.Errorf("engine: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("anime4k_frame"); err != nil {
		return fmt.Errorf("engine: begin encoding: %w", err)
	}

	for _, bp := range ex.pipelines {
		bp.encode(encoder)
	}

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("engine: end encoding: %w", err)
	}
	defer ex.device.FreeCommandBuffer(cmdBuf)

	fence, err := ex.device.CreateFence()
	if err != nil {
		return fmt.Errorf("engine: create fence: %w", err)
	}
	defer ex.device.DestroyFence(fence)

	if err := ex.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("engine: submit: %w", err)
	}
	ok, err := ex.device.Wait(fence, 1, fenceTimeout)
	if err != nil {
		return fmt.Errorf("engine: wait for frame: %w", err)
	}
	if !ok {
		return fmt.Errorf("engine: frame timed out after %s", fenceTimeout)
	}
	return nil
}

// Output returns the chain's result as a non-owning frame: the last
// pipeline's final output texture, or the source itself for an empty chain.
// The frame stays valid until the executor is destroyed or rebound.
func (ex *Executor) Output() Frame {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if len(ex.pipelines) == 0 {
		return ex.source
	}
	return ex.pipelines[len(ex.pipelines)-1].outputFrame()
}

// PipelineCount reports how many pipelines the executor bound.
func (ex *Executor) PipelineCount() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return len(ex.pipelines)
}

// Destroy tears the chain down, releasing every non-source texture,
// sampler, and compiled pass exactly once. The caller's source frame is
// never touched. Safe to call more than once.
func (ex *Executor) Destroy() {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.released {
		return
	}
	ex.released = true
	for i := len(ex.pipelines) - 1; i >= 0; i-- {
		ex.pipelines[i].release()
	}
	ex.pipelines = nil
}
