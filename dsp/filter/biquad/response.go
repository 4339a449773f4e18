package biquad

import (
	"math"
	"math/cmplx"
)

// Response computes the complex frequency response H(e^jw) of a biquad
// at the given frequency (Hz) and sample rate (Hz).
func (c *Coefficients) Response(freqHz, sampleRate float64) complex128 {
	w := 2 * math.Pi * freqHz / sampleRate
	ejw := cmplx.Exp(complex(0, -w))
	ej2w := cmplx.Exp(complex(0, -2*w))

	num := complex(c.B0, 0) + complex(c.B1, 0)*ejw + complex(c.B2, 0)*ej2w
	den := complex(1, 0) + complex(c.A1, 0)*ejw + complex(c.A2, 0)*ej2w
	return num / den
}

// MagnitudeSquared returns |H(f)|^2 using the closed form in
// phi = sin^2(w/2).
//
// This avoids computing complex exponentials, which keeps response curves
// cheap enough to redraw on every settings change, and stays accurate for
// narrow sections far below Nyquist where the cos(w) form cancels badly.
func (c *Coefficients) MagnitudeSquared(freqHz, sampleRate float64) float64 {
	s := math.Sin(math.Pi * freqHz / sampleRate)
	phi := s * s
	b0, b1, b2 := c.B0, c.B1, c.B2
	a1, a2 := c.A1, c.A2

	bs := b0 + b1 + b2
	as := 1 + a1 + a2
	num := bs*bs - 4*(b0*b1+4*b0*b2+b1*b2)*phi + 16*b0*b2*phi*phi
	den := as*as - 4*(a1+4*a2+a1*a2)*phi + 16*a2*phi*phi
	return num / den
}

// Magnitude returns the linear magnitude |H(f)|.
func (c *Coefficients) Magnitude(freqHz, sampleRate float64) float64 {
	m2 := c.MagnitudeSquared(freqHz, sampleRate)
	if m2 <= 0 {
		return 0
	}
	return math.Sqrt(m2)
}

// MagnitudeDB returns 10*log10(|H(f)|^2).
func (c *Coefficients) MagnitudeDB(freqHz, sampleRate float64) float64 {
	return 10 * math.Log10(c.MagnitudeSquared(freqHz, sampleRate))
}

// Phase returns the phase response in radians at the given frequency.
// The result is in [-pi, pi], consistent with the standard DSP convention
// H(e^{-jw}).
func (c *Coefficients) Phase(freqHz, sampleRate float64) float64 {
	return cmplx.Phase(c.Response(freqHz, sampleRate))
}

// ImpulseResponse computes n samples of the impulse response h[n]
// by feeding an impulse through the section. The filter state is
// saved and restored so this method does not modify the section.
func (s *Section) ImpulseResponse(n int) []float64 {
	if n <= 0 {
		return nil
	}
	saved := s.State()
	s.Reset()
	ir := make([]float64, n)
	ir[0] = s.ProcessSample(1)
	for i := 1; i < n; i++ {
		ir[i] = s.ProcessSample(0)
	}
	s.SetState(saved)
	return ir
}
