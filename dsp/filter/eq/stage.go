package eq

import "github.com/cwbudde/algo-eq/dsp/filter/biquad"

// Stage is one second-order section with a bypass flag. The zero value is
// bypassed and passes samples through unchanged.
//
// A Stage is owned by exactly one Chain; it carries its own delay state and
// must not be shared between channels.
type Stage struct {
	section biquad.Section
	active  bool
}

// SetCoefficients replaces the coefficient set as a whole. The delay state
// is kept so that parameter changes do not reset the signal path.
func (s *Stage) SetCoefficients(c biquad.Coefficients) {
	s.section.SetCoefficients(c)
}

// Coefficients returns the held coefficient set.
func (s *Stage) Coefficients() biquad.Coefficients {
	return s.section.Coefficients
}

// SetBypassed toggles pass-through.
func (s *Stage) SetBypassed(bypassed bool) {
	s.active = !bypassed
}

// Bypassed reports whether the stage passes samples through unchanged.
func (s *Stage) Bypassed() bool {
	return !s.active
}

// Process filters one sample.
func (s *Stage) Process(x float64) float64 {
	if !s.active {
		return x
	}
	return s.section.ProcessSample(x)
}

// ProcessBlock filters buf in place.
func (s *Stage) ProcessBlock(buf []float64) {
	if !s.active {
		return
	}
	s.section.ProcessBlock(buf)
}

// Reset clears the delay state.
func (s *Stage) Reset() {
	s.section.Reset()
}

// Magnitude returns |H(f)|, or 1 when bypassed.
func (s *Stage) Magnitude(freq, sampleRate float64) float64 {
	if !s.active {
		return 1
	}
	return s.section.Magnitude(freq, sampleRate)
}
