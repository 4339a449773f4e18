package eq

import "math"

// MinDB is the floor of every reported magnitude in dB.
const MinDB = -100.0

// FrequencyAt returns the frequency of point i on an n-point logarithmic
// grid spanning [MinFreq, MaxFreq]. Both endpoints are included; a one-point
// grid is MinFreq.
func FrequencyAt(i, n int) float64 {
	if n <= 1 {
		return MinFreq
	}
	return MinFreq * math.Pow(MaxFreq/MinFreq, float64(i)/float64(n-1))
}

// Frequencies returns the n-point logarithmic grid used by Sample.
func Frequencies(n int) []float64 {
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = FrequencyAt(i, n)
	}
	return out
}

// Sample evaluates the magnitude response of chain in dB at pointCount
// log-spaced frequencies between MinFreq and MaxFreq. The curve reflects
// exactly the stages that are active in chain. pointCount <= 0 yields nil.
//
// Sample does not touch the chain's delay state, so it may be called on
// any chain owned by the caller's context.
func Sample(chain *Chain, sampleRate float64, pointCount int) []float64 {
	if pointCount <= 0 {
		return nil
	}
	return SampleInto(make([]float64, pointCount), chain, sampleRate)
}

// SampleInto is the allocation-free form of Sample. It fills all of dst,
// using len(dst) as the point count, and returns dst.
func SampleInto(dst []float64, chain *Chain, sampleRate float64) []float64 {
	n := len(dst)
	for i := range dst {
		dst[i] = chain.MagnitudeDB(FrequencyAt(i, n), sampleRate)
	}
	return dst
}
