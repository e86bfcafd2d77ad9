package engine

import (
	"testing"

	anime4k "github.com/SegaraRai/anime4k-wgpu"
)

func TestEntryPointFor(t *testing.T) {
	tests := []struct {
		name string
		w, h uint32
		want string
	}{
		{"both divisible", 1920, 1088, entryUnchecked},
		{"height not divisible", 1920, 1080, entryChecked},
		{"width not divisible", 1921, 1088, entryChecked},
		{"neither divisible", 1921, 1081, entryChecked},
		{"exact workgroup", 8, 8, entryUnchecked},
		{"tiny", 1, 1, entryChecked},
		{"zero extent", 0, 0, entryUnchecked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entryPointFor(tt.w, tt.h); got != tt.want {
				t.Errorf("entryPointFor(%d, %d) = %q, want %q", tt.w, tt.h, got, tt.want)
			}
		})
	}
}

func TestWorkgroups(t *testing.T) {
	tests := []struct {
		extent uint32
		want   uint32
	}{
		{0, 0},
		{1, 1},
		{7, 1},
		{8, 1},
		{9, 2},
		{64, 8},
		{1080, 135},
		{1081, 136},
		{1920, 240},
	}
	for _, tt := range tests {
		if got := workgroups(tt.extent); got != tt.want {
			t.Errorf("workgroups(%d) = %d, want %d", tt.extent, got, tt.want)
		}
	}
}

func TestDispatchExtent(t *testing.T) {
	pass := &anime4k.ExecutablePass{
		WidthScale:  anime4k.ScaleDouble,
		HeightScale: anime4k.ScaleFactor{Num: 3, Den: 2},
	}

	w, h := dispatchExtent(pass, 100, 101)
	if w != 200 {
		t.Errorf("width extent = %d, want 200", w)
	}
	// floor(101 * 3 / 2) = floor(151.5) = 151
	if h != 151 {
		t.Errorf("height extent = %d, want 151", h)
	}
}
