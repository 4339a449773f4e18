// Package design provides the coefficient designers behind the EQ chain.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing: RBJ-style second-order sections
// (Lowpass, Highpass, Peak) and maximally flat Butterworth cascades for the
// low-cut and high-cut banks.
//
// Designers are pure. Invalid input is reported with one of the sentinel
// errors below and never produces NaN or infinite coefficients; the
// allocation-free Into variants leave the destination untouched on error.
package design
