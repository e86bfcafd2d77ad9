package engine

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

// allocPipeline declares a source plus three derived textures with mixed
// component counts and scales.
func allocPipeline() anime4k.ExecutablePipeline {
	return anime4k.ExecutablePipeline{
		Name: "alloc_test",
		Textures: []anime4k.PhysicalTexture{
			{ID: 0, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity, IsSource: true},
			{ID: 1, Components: 4, WidthScale: anime4k.ScaleIdentity, HeightScale: anime4k.ScaleIdentity},
			{ID: 2, Components: 1, WidthScale: anime4k.ScaleHalf, HeightScale: anime4k.ScaleHalf},
			{ID: 3, Components: 2, WidthScale: anime4k.ScaleDouble, HeightScale: anime4k.ScaleDouble},
		},
	}
}

func TestFormatFor(t *testing.T) {
	tests := []struct {
		components uint32
		want       gputypes.TextureFormat
		wantErr    bool
	}{
		{1, gputypes.TextureFormatR32Float, false},
		{2, gputypes.TextureFormatRG32Float, false},
		{4, gputypes.TextureFormatRGBA32Float, false},
		{0, 0, true},
		{3, 0, true},
		{5, 0, true},
	}
	for _, tt := range tests {
		got, err := formatFor(tt.components)
		if tt.wantErr {
			if !errors.Is(err, anime4k.ErrBadComponents) {
				t.Errorf("formatFor(%d) error = %v, want ErrBadComponents", tt.components, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("formatFor(%d) unexpected error: %v", tt.components, err)
			continue
		}
		if got != tt.want {
			t.Errorf("formatFor(%d) = %v, want %v", tt.components, got, tt.want)
		}
	}
}

func TestAllocateTextures(t *testing.T) {
	device := &mockDevice{}
	p := allocPipeline()
	source := mockFrame(101, 65)

	pool, err := allocateTextures(device, &p, source)
	if err != nil {
		t.Fatalf("allocateTextures failed: %v", err)
	}

	// Exactly the non-source declarations get allocated.
	if got := device.texturesCreated; got != 3 {
		t.Errorf("textures created = %d, want 3", got)
	}
	if got := pool.ownedCount(); got != 3 {
		t.Errorf("owned count = %d, want 3", got)
	}

	// The source slot aliases the caller's frame.
	src, ok := pool.get(0)
	if !ok {
		t.Fatal("source slot missing")
	}
	if src.owned {
		t.Error("source slot must not be owned")
	}
	if src.texture != source.Texture || src.view != source.View {
		t.Error("source slot does not alias the input frame")
	}
	if src.width != 101 || src.height != 65 {
		t.Errorf("source slot size = %dx%d, want 101x65", src.width, src.height)
	}

	// Derived sizes floor at each axis.
	tests := []struct {
		id     uint32
		w, h   uint32
		format gputypes.TextureFormat
	}{
		{1, 101, 65, gputypes.TextureFormatRGBA32Float},
		{2, 50, 32, gputypes.TextureFormatR32Float},
		{3, 202, 130, gputypes.TextureFormatRG32Float},
	}
	for _, tt := range tests {
		slot, ok := pool.get(tt.id)
		if !ok {
			t.Fatalf("slot %d missing", tt.id)
		}
		if slot.width != tt.w || slot.height != tt.h {
			t.Errorf("slot %d size = %dx%d, want %dx%d", tt.id, slot.width, slot.height, tt.w, tt.h)
		}
		if slot.format != tt.format {
			t.Errorf("slot %d format = %v, want %v", tt.id, slot.format, tt.format)
		}
	}

	pool.release()
	if device.texturesDestroyed != 3 {
		t.Errorf("textures destroyed = %d, want 3", device.texturesDestroyed)
	}
	if device.viewsDestroyed != device.viewsCreated {
		t.Errorf("views destroyed = %d, created = %d", device.viewsDestroyed, device.viewsCreated)
	}
}

func TestAllocateTexturesRollback(t *testing.T) {
	device := &mockDevice{}
	calls := 0
	device.createTextureFunc = func(desc *hal.TextureDescriptor) (hal.Texture, error) {
		calls++
		if calls == 3 {
			return nil, errors.New("out of memory")
		}
		return &mockTexture{width: desc.Size.Width, height: desc.Size.Height, format: desc.Format}, nil
	}

	p := allocPipeline()
	_, err := allocateTextures(device, &p, mockFrame(64, 64))
	if err == nil {
		t.Fatal("expected allocation failure")
	}
	if !errors.Is(err, ErrTextureAlloc) {
		t.Errorf("error = %v, want ErrTextureAlloc", err)
	}

	// Everything created before the failure was rolled back.
	if device.texturesCreated != device.texturesDestroyed {
		t.Errorf("texture leak: created %d, destroyed %d", device.texturesCreated, device.texturesDestroyed)
	}
	if device.viewsCreated != device.viewsDestroyed {
		t.Errorf("view leak: created %d, destroyed %d", device.viewsCreated, device.viewsDestroyed)
	}
}

func TestAllocateTexturesBadComponents(t *testing.T) {
	device := &mockDevice{}
	p := allocPipeline()
	p.Textures[2].Components = 3

	_, err := allocateTextures(device, &p, mockFrame(64, 64))
	if !errors.Is(err, anime4k.ErrBadComponents) {
		t.Fatalf("error = %v, want ErrBadComponents", err)
	}
	if device.texturesCreated != device.texturesDestroyed {
		t.Errorf("texture leak: created %d, destroyed %d", device.texturesCreated, device.texturesDestroyed)
	}
}

func TestTexturePoolReleaseIdempotent(t *testing.T) {
	device := &mockDevice{}
	p := allocPipeline()

	pool, err := allocateTextures(device, &p, mockFrame(64, 64))
	if err != nil {
		t.Fatalf("allocateTextures failed: %v", err)
	}

	pool.release()
	first := device.texturesDestroyed
	pool.release()
	if device.texturesDestroyed != first {
		t.Errorf("second release destroyed more textures: %d -> %d", first, device.texturesDestroyed)
	}
}
