package eq

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-eq/dsp/core"
	"github.com/cwbudde/algo-eq/dsp/filter/biquad"
	"github.com/cwbudde/algo-eq/dsp/filter/design"
)

// Chain is the per-channel filter path: LowCut, then Peak, then HighCut.
//
// A Chain holds no pointers, so copies never share state. Every consumer
// owns its chains exclusively; a Chain is not safe for concurrent use.
type Chain struct {
	LowCut  CutoffBank
	Peak    Stage
	HighCut CutoffBank
}

// NewChain returns a chain that passes audio through unchanged: both cut
// banks are bypassed and the peak stage holds the identity section.
func NewChain() *Chain {
	c := &Chain{}
	c.Peak.SetCoefficients(biquad.Identity)
	c.Peak.SetBypassed(false)
	return c
}

// Process filters one sample through the three bands in series.
func (c *Chain) Process(x float64) float64 {
	x = c.LowCut.Process(x)
	x = c.Peak.Process(x)
	return c.HighCut.Process(x)
}

// ProcessBlock filters buf in place through the three bands in series.
func (c *Chain) ProcessBlock(buf []float64) {
	c.LowCut.ProcessBlock(buf)
	c.Peak.ProcessBlock(buf)
	c.HighCut.ProcessBlock(buf)
}

// Reset clears the delay state of every stage.
func (c *Chain) Reset() {
	c.LowCut.Reset()
	c.Peak.Reset()
	c.HighCut.Reset()
}

// Configure designs all three bands from the given parameters and applies
// each one that is valid. A band whose design is rejected keeps its previous
// coefficients; the rejections are returned joined.
//
// Configure allocates on error. Real-time callers use an Updater instead.
func (c *Chain) Configure(lowCutFreq float64, lowCutSlope Slope, peakFreq, peakQ, peakGainDB, highCutFreq float64, highCutSlope Slope, sampleRate float64) error {
	var errs []error

	if pk, err := design.Peak(peakFreq, peakGainDB, peakQ, sampleRate); err != nil {
		errs = append(errs, fmt.Errorf("peak: %w", err))
	} else {
		c.Peak.SetCoefficients(pk)
		c.Peak.SetBypassed(false)
	}

	if err := configureCut(&c.LowCut, design.HighPass, lowCutFreq, lowCutSlope, sampleRate); err != nil {
		errs = append(errs, fmt.Errorf("low-cut: %w", err))
	}

	if err := configureCut(&c.HighCut, design.LowPass, highCutFreq, highCutSlope, sampleRate); err != nil {
		errs = append(errs, fmt.Errorf("high-cut: %w", err))
	}

	return errors.Join(errs...)
}

// ConfigureSettings is Configure with the parameters taken from s.
func (c *Chain) ConfigureSettings(s Settings, sampleRate float64) error {
	return c.Configure(s.LowCutFreq, s.LowCutSlope, s.PeakFreq, s.PeakQ, s.PeakGainDB, s.HighCutFreq, s.HighCutSlope, sampleRate)
}

func configureCut(b *CutoffBank, kind design.Kind, freq float64, slope Slope, sampleRate float64) error {
	if !slope.Valid() {
		return ErrInvalidSlope
	}

	var sections [BankSize]biquad.Coefficients
	if _, err := design.CutoffInto(sections[:], kind, freq, slope.Order(), sampleRate); err != nil {
		return err
	}

	return b.ConfigureSlope(slope, sections[:])
}

// Magnitude returns the chain's linear magnitude at freq: the product of
// every active stage's magnitude.
func (c *Chain) Magnitude(freq, sampleRate float64) float64 {
	return c.LowCut.Magnitude(freq, sampleRate) *
		c.Peak.Magnitude(freq, sampleRate) *
		c.HighCut.Magnitude(freq, sampleRate)
}

// MagnitudeDB returns Magnitude in dB, floored at MinDB.
func (c *Chain) MagnitudeDB(freq, sampleRate float64) float64 {
	return core.GainToDB(c.Magnitude(freq, sampleRate), MinDB)
}
