package design

import (
	"math"

	"github.com/cwbudde/algo-eq/dsp/filter/biquad"
)

// BilinearTransform converts the analog second-order section
//
//	H(s) = (n0*s^2 + n1*s + n2) / (d0*s^2 + d1*s + d2)
//
// into a digital biquad using the bilinear transform s = 2*fs*(1-z^-1)/(1+z^-1).
// Frequencies in the analog polynomials are expected to be prewarped by the
// caller. The result is normalized by the digital denominator's a0.
func BilinearTransform(num, den [3]float64, sampleRate float64) (biquad.Coefficients, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return biquad.Coefficients{}, err
	}

	k := 2 * sampleRate
	b := bilinear(num, k)
	a := bilinear(den, k)

	return normalizeBiquad(b[0], b[1], b[2], a[0], a[1], a[2])
}

// bilinear maps c0*s^2 + c1*s + c2 onto the z^-1 polynomial obtained by
// substituting s = k*(1-z^-1)/(1+z^-1) and clearing (1+z^-1)^2.
func bilinear(c [3]float64, k float64) [3]float64 {
	kk := k * k
	return [3]float64{
		c[0]*kk + c[1]*k + c[2],
		-2*c[0]*kk + 2*c[2],
		c[0]*kk - c[1]*k + c[2],
	}
}

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}
	if err := validateQ(q); err != nil {
		return biquad.Coefficients{}, err
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 - cw) / 2
	b1 := 1 - cw
	b2 := (1 - cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}
	if err := validateQ(q); err != nil {
		return biquad.Coefficients{}, err
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)
	b2 := (1 + cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// Peak designs a peaking-EQ (bell) biquad with gain in dB, using the RBJ
// cookbook form of the bilinear-transformed analog bell. The magnitude at
// freq equals the linear amplitude 10^(gainDB/20); a gain of 0 dB yields the
// identity response.
func Peak(freq, gainDB, q, sampleRate float64) (biquad.Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return biquad.Coefficients{}, err
	}
	if err := validateQ(q); err != nil {
		return biquad.Coefficients{}, err
	}
	if math.IsNaN(gainDB) || math.IsInf(gainDB, 0) {
		return biquad.Coefficients{}, ErrInvalidGain
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a := math.Pow(10, gainDB/40)

	b0 := 1 + alpha*a
	b1 := -2 * cw
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cw
	a2 := 1 - alpha/a

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

func validateSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return ErrInvalidSampleRate
	}
	return nil
}

// normalizedW0 validates freq against the sample rate and returns the
// normalized angular frequency. Frequencies at or above Nyquist are rejected
// before they can reach tan() or cos() terms that are undefined there.
func normalizedW0(freq, sampleRate float64) (float64, error) {
	if err := validateSampleRate(sampleRate); err != nil {
		return 0, err
	}

	if freq <= 0 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, ErrInvalidFrequency
	}

	if freq >= sampleRate/2 {
		return 0, ErrAboveNyquist
	}

	return 2 * math.Pi * freq / sampleRate, nil
}

func validateQ(q float64) error {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return ErrInvalidQ
	}
	return nil
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) (biquad.Coefficients, error) {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}, ErrDegenerate
	}

	c := biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
	if !c.IsFinite() {
		return biquad.Coefficients{}, ErrDegenerate
	}

	return c, nil
}
