package engine

import (
	"errors"
	"testing"

	"github.com/gogpu/wgpu/hal"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

func TestCreateSamplersDeduplicates(t *testing.T) {
	device := &mockDevice{}
	modes := []anime4k.FilterMode{
		anime4k.FilterLinear,
		anime4k.FilterNearest,
		anime4k.FilterLinear,
	}

	set, err := createSamplers(device, "p", modes)
	if err != nil {
		t.Fatalf("createSamplers failed: %v", err)
	}
	if device.samplersCreated != 2 {
		t.Errorf("samplers created = %d, want 2", device.samplersCreated)
	}
	if _, ok := set.get(anime4k.FilterLinear); !ok {
		t.Error("linear sampler missing")
	}
	if _, ok := set.get(anime4k.FilterNearest); !ok {
		t.Error("nearest sampler missing")
	}

	set.release()
	if device.samplersDestroyed != 2 {
		t.Errorf("samplers destroyed = %d, want 2", device.samplersDestroyed)
	}
	set.release()
	if device.samplersDestroyed != 2 {
		t.Errorf("second release destroyed more samplers: %d", device.samplersDestroyed)
	}
}

func TestCreateSamplersRollback(t *testing.T) {
	device := &mockDevice{}
	calls := 0
	device.createSamplerFunc = func(desc *hal.SamplerDescriptor) (hal.Sampler, error) {
		calls++
		if calls == 2 {
			return nil, errors.New("sampler limit reached")
		}
		return &mockSampler{label: desc.Label}, nil
	}

	_, err := createSamplers(device, "p", []anime4k.FilterMode{
		anime4k.FilterLinear,
		anime4k.FilterNearest,
	})
	if err == nil {
		t.Fatal("expected sampler creation failure")
	}
	if device.samplersCreated != device.samplersDestroyed {
		t.Errorf("sampler leak: created %d, destroyed %d", device.samplersCreated, device.samplersDestroyed)
	}
}

func TestCreateSamplersUnknownMode(t *testing.T) {
	device := &mockDevice{}
	_, err := createSamplers(device, "p", []anime4k.FilterMode{anime4k.FilterMode(99)})
	if !errors.Is(err, anime4k.ErrUnknownSampler) {
		t.Fatalf("error = %v, want ErrUnknownSampler", err)
	}
}
