package anime4k

import "testing"

func TestScaleFactorApply(t *testing.T) {
	tests := []struct {
		name  string
		scale ScaleFactor
		dim   uint32
		want  uint32
	}{
		{"identity", ScaleIdentity, 1920, 1920},
		{"double", ScaleDouble, 1920, 3840},
		{"half floors", ScaleHalf, 1081, 540},
		{"two thirds floors", ScaleFactor{Num: 2, Den: 3}, 1000, 666},
		{"zero dim", ScaleDouble, 0, 0},
		{"zero denominator", ScaleFactor{Num: 1, Den: 0}, 1920, 0},
		{"large dim no intermediate overflow", ScaleFactor{Num: 3, Den: 2}, 2_000_000_000, 3_000_000_000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.scale.Apply(tt.dim); got != tt.want {
				t.Errorf("Apply(%d) = %d, want %d", tt.dim, got, tt.want)
			}
		})
	}
}

func TestScaleFactorMul(t *testing.T) {
	got := ScaleDouble.Mul(ScaleDouble)
	if got != (ScaleFactor{Num: 4, Den: 1}) {
		t.Errorf("2/1 * 2/1 = %v, want 4/1", got)
	}
	got = ScaleDouble.Mul(ScaleHalf)
	if got != (ScaleFactor{Num: 2, Den: 2}) {
		t.Errorf("2/1 * 1/2 = %v, want 2/2", got)
	}
	// Unreduced 2/2 still applies as identity.
	if got.Apply(1080) != 1080 {
		t.Errorf("2/2.Apply(1080) = %d, want 1080", got.Apply(1080))
	}
}

func TestScaleFactorString(t *testing.T) {
	if s := ScaleDouble.String(); s != "2/1" {
		t.Errorf("String() = %q, want \"2/1\"", s)
	}
}
