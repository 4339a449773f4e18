package design

import (
	"math"

	"github.com/cwbudde/algo-eq/dsp/filter/biquad"
)

// MaxOrder is the steepest supported cutoff order (48 dB/octave).
const MaxOrder = 8

// MaxSections is the number of second-order sections a MaxOrder cascade needs.
const MaxSections = MaxOrder / 2

// Kind selects the response family of a cutoff cascade.
type Kind int

const (
	// HighPass attenuates below the cutoff (the EQ's low-cut band).
	HighPass Kind = iota
	// LowPass attenuates above the cutoff (the EQ's high-cut band).
	LowPass
)

// String returns the filter family name.
func (k Kind) String() string {
	switch k {
	case HighPass:
		return "highpass"
	case LowPass:
		return "lowpass"
	default:
		return "unknown"
	}
}

// ButterworthHP designs a highpass Butterworth cascade of order/2 sections.
func ButterworthHP(freq float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	return Cutoff(HighPass, freq, order, sampleRate)
}

// ButterworthLP designs a lowpass Butterworth cascade of order/2 sections.
func ButterworthLP(freq float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	return Cutoff(LowPass, freq, order, sampleRate)
}

// ButterworthHPInto is the allocation-free form of ButterworthHP. It writes
// order/2 sections into dst and returns how many were written.
func ButterworthHPInto(dst []biquad.Coefficients, freq float64, order int, sampleRate float64) (int, error) {
	return CutoffInto(dst, HighPass, freq, order, sampleRate)
}

// ButterworthLPInto is the allocation-free form of ButterworthLP.
func ButterworthLPInto(dst []biquad.Coefficients, freq float64, order int, sampleRate float64) (int, error) {
	return CutoffInto(dst, LowPass, freq, order, sampleRate)
}

// Cutoff designs a Butterworth cascade of the given kind and returns a fresh
// slice. Index i of the result is meant for bank slot i.
func Cutoff(kind Kind, freq float64, order int, sampleRate float64) ([]biquad.Coefficients, error) {
	var buf [MaxSections]biquad.Coefficients

	n, err := CutoffInto(buf[:], kind, freq, order, sampleRate)
	if err != nil {
		return nil, err
	}

	out := make([]biquad.Coefficients, n)
	copy(out, buf[:n])
	return out, nil
}

// CutoffInto designs a maximally flat cutoff of the requested even order as
// order/2 cascaded sections. Each conjugate pole pair of the analog
// prototype is prewarped to the cutoff and mapped through
// BilinearTransform. Sections are ordered from the lowest-Q pole pair to the
// most resonant one.
//
// dst is written only when the whole cascade was designed successfully.
func CutoffInto(dst []biquad.Coefficients, kind Kind, freq float64, order int, sampleRate float64) (int, error) {
	if order < 2 || order > MaxOrder || order%2 != 0 {
		return 0, ErrInvalidOrder
	}

	if _, err := normalizedW0(freq, sampleRate); err != nil {
		return 0, err
	}

	n := order / 2
	if len(dst) < n {
		return 0, ErrShortBuffer
	}

	wc := 2 * sampleRate * math.Tan(math.Pi*freq/sampleRate)
	wc2 := wc * wc

	var num [3]float64
	switch kind {
	case HighPass:
		num = [3]float64{1, 0, 0}
	case LowPass:
		num = [3]float64{0, 0, wc2}
	default:
		return 0, ErrInvalidKind
	}

	var tmp [MaxSections]biquad.Coefficients
	for k := 0; k < n; k++ {
		q := butterworthQ(order, n-1-k)
		den := [3]float64{1, wc / q, wc2}

		c, err := BilinearTransform(num, den, sampleRate)
		if err != nil {
			return 0, err
		}
		tmp[k] = c
	}

	copy(dst, tmp[:n])
	return n, nil
}

// butterworthQ returns the quality factor of pole pair index for a
// Butterworth filter of the given order. index ranges from 0 to order/2-1;
// index 0 is the pair closest to the imaginary axis (highest Q).
func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	return 1 / (2 * math.Sin(theta))
}
