package anime4k

import "fmt"

// ScaleFactor is an exact rational multiplier relating a texture or dispatch
// dimension to the pipeline's input frame dimension. Rational rather than
// floating point so that repeated scaling across a long pass chain cannot
// accumulate rounding drift.
type ScaleFactor struct {
	// Num is the numerator of the fraction.
	Num uint32
	// Den is the denominator of the fraction.
	Den uint32
}

// Common scale factors used by the built-in pipelines.
var (
	ScaleIdentity = ScaleFactor{Num: 1, Den: 1}
	ScaleDouble   = ScaleFactor{Num: 2, Den: 1}
	ScaleHalf     = ScaleFactor{Num: 1, Den: 2}
)

// Apply scales dim by the factor, flooring the result.
// Apply(0) is 0 for every valid factor; a zero denominator also yields 0
// (ExecutablePipeline.Validate rejects such factors before they reach the
// engine).
func (s ScaleFactor) Apply(dim uint32) uint32 {
	if s.Den == 0 {
		return 0
	}
	return uint32(uint64(dim) * uint64(s.Num) / uint64(s.Den))
}

// Mul returns the product of two scale factors.
// The result is not reduced; factors used in practice are small powers of
// two, far from overflowing uint32.
func (s ScaleFactor) Mul(o ScaleFactor) ScaleFactor {
	return ScaleFactor{Num: s.Num * o.Num, Den: s.Den * o.Den}
}

// Float returns the factor as a float64, for logging and comparison only.
func (s ScaleFactor) Float() float64 {
	if s.Den == 0 {
		return 0
	}
	return float64(s.Num) / float64(s.Den)
}

// String returns the factor in "num/den" form.
func (s ScaleFactor) String() string {
	return fmt.Sprintf("%d/%d", s.Num, s.Den)
}
