package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// DeterministicNoise generates white noise with a fixed seed for reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}
	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// SineAmplitude estimates the amplitude of a steady sine in data from the
// RMS of whole periods after skip. Unlike PeakAbs it does not depend on
// where the samples land on the waveform, so it is exact enough to read a
// filter's gain to a few thousandths of a dB. period is in samples.
func SineAmplitude(data []float64, skip, period int) float64 {
	if skip < 0 {
		skip = 0
	}
	if period <= 0 || skip >= len(data) {
		return 0
	}

	n := (len(data) - skip) / period * period
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range data[skip : skip+n] {
		sum += v * v
	}
	return math.Sqrt(2 * sum / float64(n))
}

// PeakAbs returns the largest absolute value in data[skip:]. It is used to
// read the steady-state amplitude of a filtered sine once the transient has
// decayed.
func PeakAbs(data []float64, skip int) float64 {
	if skip < 0 {
		skip = 0
	}
	peak := 0.0
	for _, v := range data[min(skip, len(data)):] {
		peak = math.Max(peak, math.Abs(v))
	}
	return peak
}
