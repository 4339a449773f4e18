package webdemo

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-eq/dsp/core"
)

const analyzerFloorDB = -130.0

// SpectrumParams configures the output analyzer drawn behind the EQ curve.
type SpectrumParams struct {
	FFTSize   int
	Overlap   float64
	Smoothing float64
}

// DefaultSpectrumParams returns the analyzer settings used by NewEngine.
func DefaultSpectrumParams() SpectrumParams {
	return SpectrumParams{FFTSize: 2048, Overlap: 0.75, Smoothing: 0.6}
}

// Analyzer is a Hann-windowed, exponentially smoothed STFT of the EQ output.
type Analyzer struct {
	sampleRate float64
	params     SpectrumParams

	plan       *algofft.Plan[complex128]
	window     []float64
	windowGain float64
	hop        int

	input  []complex128
	output []complex128
	re, im []float64
	mag    []float64
	ring   []float64

	write, filled, sinceHop int

	db    []float64
	ready bool
}

// NewAnalyzer returns an analyzer for sampleRate. Invalid sizes fall back to
// 2048 points, overlap and smoothing are clamped.
func NewAnalyzer(sampleRate float64, p SpectrumParams) (*Analyzer, error) {
	p = sanitizeSpectrumParams(p)

	plan, err := algofft.NewPlan64(p.FFTSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum init fft plan: %w", err)
	}

	n := p.FFTSize
	bins := n/2 + 1

	a := &Analyzer{
		sampleRate: sampleRate,
		params:     p,
		plan:       plan,
		window:     hann(n),
		hop:        max(int(math.Round(float64(n)*(1-p.Overlap))), 1),
		input:      make([]complex128, n),
		output:     make([]complex128, n),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
		mag:        make([]float64, bins),
		ring:       make([]float64, n),
		db:         make([]float64, bins),
	}

	sum := 0.0
	for _, w := range a.window {
		sum += w
	}
	a.windowGain = sum / float64(n)

	for i := range a.db {
		a.db[i] = analyzerFloorDB
	}

	return a, nil
}

// hann returns a periodic Hann window of length n.
func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// Push feeds output samples into the analyzer.
func (a *Analyzer) Push(samples []float64) {
	for _, x := range samples {
		a.ring[a.write] = x
		a.write = (a.write + 1) % len(a.ring)

		if a.filled < len(a.ring) {
			a.filled++
		}

		a.sinceHop++
		if a.filled < len(a.ring) || a.sinceHop < a.hop {
			continue
		}

		a.sinceHop = 0
		a.updateFrame()
	}
}

func (a *Analyzer) updateFrame() {
	n := len(a.ring)

	read := a.write
	for i := 0; i < n; i++ {
		a.input[i] = complex(a.ring[read]*a.window[i], 0)
		read = (read + 1) % n
	}

	if err := a.plan.Forward(a.output, a.input); err != nil {
		return
	}

	for k := range a.re {
		a.re[k] = real(a.output[k])
		a.im[k] = imag(a.output[k])
	}
	vecmath.Magnitude(a.mag, a.re, a.im)

	norm := float64(n) * math.Max(a.windowGain, 1e-12)
	last := len(a.db) - 1
	smooth := a.params.Smoothing

	for k, m := range a.mag {
		m /= norm
		if k > 0 && k < last {
			m *= 2
		}

		val := core.GainToDB(m, analyzerFloorDB)
		if !a.ready {
			a.db[k] = val
			continue
		}
		a.db[k] = smooth*a.db[k] + (1-smooth)*val
	}

	a.ready = true
}

// Ready reports whether at least one full frame was analyzed.
func (a *Analyzer) Ready() bool { return a.ready }

// CurveDB returns the smoothed spectrum in dBFS at freqs, linearly
// interpolated between bins.
func (a *Analyzer) CurveDB(freqs []float64) []float64 {
	out := make([]float64, len(freqs))
	if !a.ready {
		for i := range out {
			out[i] = analyzerFloorDB
		}
		return out
	}

	binHz := a.sampleRate / float64(len(a.ring))
	last := len(a.db) - 1

	for i, f := range freqs {
		bin := core.Clamp(f, 0, a.sampleRate/2) / binHz
		if bin >= float64(last) {
			out[i] = a.db[last]
			continue
		}

		base := int(bin)
		frac := bin - float64(base)
		out[i] = a.db[base] + frac*(a.db[base+1]-a.db[base])
	}

	return out
}

func sanitizeSpectrumParams(p SpectrumParams) SpectrumParams {
	switch p.FFTSize {
	case 256, 512, 1024, 2048, 4096, 8192:
	default:
		p.FFTSize = 2048
	}

	p.Overlap = core.Clamp(p.Overlap, 0.25, 0.95)
	p.Smoothing = core.Clamp(p.Smoothing, 0, 0.95)

	return p
}
