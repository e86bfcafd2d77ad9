package engine

import (
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// frameBytesPerPixel is the byte size of one RGBA32Float pixel.
const frameBytesPerPixel = 16

// copyPitchAlignment is the row alignment texture-buffer copies require.
const copyPitchAlignment = 256

// FrameTexture is an engine-created RGBA32Float texture for feeding frames
// into an executor. The caller owns it: executors alias it as their source
// and never destroy it.
type FrameTexture struct {
	device    hal.Device
	queue     hal.Queue
	texture   hal.Texture
	view      hal.TextureView
	width     uint32
	height    uint32
	destroyed bool
}

// CreateFrameTexture allocates an input frame texture of the given pixel
// dimensions.
func (e *Engine) CreateFrameTexture(width, height uint32) (*FrameTexture, error) {
	device, queue, err := e.handles()
	if err != nil {
		return nil, err
	}

	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         "anime4k_source",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA32Float,
		Usage:         textureUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: create frame texture: %w", err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         "anime4k_source_view",
		Format:        gputypes.TextureFormatRGBA32Float,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return nil, fmt.Errorf("engine: create frame texture view: %w", err)
	}

	return &FrameTexture{
		device:  device,
		queue:   queue,
		texture: tex,
		view:    view,
		width:   width,
		height:  height,
	}, nil
}

// Frame returns the texture as a non-owning frame reference.
func (f *FrameTexture) Frame() Frame {
	return Frame{Texture: f.texture, View: f.view, Width: f.width, Height: f.height}
}

// Write uploads one frame of RGBA float pixels (4 floats per pixel, row
// major, exactly width*height*4 values).
func (f *FrameTexture) Write(pixels []float32) error {
	want := int(f.width) * int(f.height) * 4
	if len(pixels) != want {
		return fmt.Errorf("engine: frame upload: got %d floats, want %d", len(pixels), want)
	}

	data := make([]byte, len(pixels)*4)
	for i, v := range pixels {
		bits := math.Float32bits(v)
		data[i*4] = byte(bits)
		data[i*4+1] = byte(bits >> 8)
		data[i*4+2] = byte(bits >> 16)
		data[i*4+3] = byte(bits >> 24)
	}

	f.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: f.texture, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  f.width * frameBytesPerPixel,
			RowsPerImage: f.height,
		},
		&hal.Extent3D{Width: f.width, Height: f.height, DepthOrArrayLayers: 1},
	)
	return nil
}

// Destroy releases the texture. Safe to call more than once.
func (f *FrameTexture) Destroy() {
	if f.destroyed {
		return
	}
	f.destroyed = true
	if f.view != nil {
		f.device.DestroyTextureView(f.view)
		f.view = nil
	}
	if f.texture != nil {
		f.device.DestroyTexture(f.texture)
		f.texture = nil
	}
}

// ReadFrame copies a frame's texture back to CPU memory as RGBA float
// pixels (4 floats per pixel, row major). It submits its own copy command
// and blocks until the GPU finishes, so it is meant for tooling and tests,
// not the per-frame path.
func (e *Engine) ReadFrame(frame Frame) ([]float32, error) {
	device, queue, err := e.handles()
	if err != nil {
		return nil, err
	}

	// Texture-buffer copies require BytesPerRow aligned to 256 bytes.
	bytesPerRow := frame.Width * frameBytesPerPixel
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(frame.Height)

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "anime4k_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: create staging buffer: %w", err)
	}
	defer device.DestroyBuffer(staging)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "anime4k_readback",
	})
	if err != nil {
		return nil, fmt.Errorf("engine: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("anime4k_readback"); err != nil {
		return nil, fmt.Errorf("engine: begin encoding: %w", err)
	}

	// The output texture was last used as a storage target; transition it
	// to a copy source for the readback, then back again.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: frame.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageStorageBinding,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(frame.Texture, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: frame.Height},
		TextureBase:  hal.ImageCopyTexture{Texture: frame.Texture, MipLevel: 0},
		Size:         hal.Extent3D{Width: frame.Width, Height: frame.Height, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: frame.Texture,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageStorageBinding,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("engine: end encoding: %w", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	fence, err := device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("engine: create fence: %w", err)
	}
	defer device.DestroyFence(fence)

	if err := queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("engine: submit readback: %w", err)
	}
	ok, err := device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return nil, fmt.Errorf("engine: wait for readback: ok=%v err=%w", ok, err)
	}

	raw := make([]byte, stagingSize)
	if err := queue.ReadBuffer(staging, 0, raw); err != nil {
		return nil, fmt.Errorf("engine: read staging buffer: %w", err)
	}

	// Strip the row padding while decoding.
	pixels := make([]float32, int(frame.Width)*int(frame.Height)*4)
	for y := uint32(0); y < frame.Height; y++ {
		row := raw[y*alignedBytesPerRow:]
		for x := uint32(0); x < frame.Width*4; x++ {
			off := x * 4
			bits := uint32(row[off]) |
				uint32(row[off+1])<<8 |
				uint32(row[off+2])<<16 |
				uint32(row[off+3])<<24
			pixels[y*frame.Width*4+x] = math.Float32frombits(bits)
		}
	}
	return pixels, nil
}
