// Package biquad provides the second-order section primitive used by the EQ
// filter chain.
//
// [Coefficients] is one coefficient set with a0 folded in. A [Section] pairs a
// coefficient set with Direct Form II Transposed delay state. Coefficient sets
// are plain values and are always replaced as a whole, so a reader never sees
// a mix of old and new terms.
//
// This package provides the processing runtime and response evaluation only.
// Coefficient design lives in dsp/filter/design.
package biquad
