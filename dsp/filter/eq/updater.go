package eq

import (
	"strings"

	"github.com/cwbudde/algo-eq/dsp/filter/biquad"
	"github.com/cwbudde/algo-eq/dsp/filter/design"
)

// CutDesign is the designed state of one cutoff bank.
type CutDesign struct {
	Slope    Slope
	Sections [BankSize]biquad.Coefficients
	// Valid is false until a design for this band has succeeded. An invalid
	// CutDesign bypasses the whole bank.
	Valid bool
}

// Design is one complete set of coefficients for a Chain, valid at
// SampleRate.
type Design struct {
	SampleRate float64
	Peak       biquad.Coefficients
	LowCut     CutDesign
	HighCut    CutDesign
}

// Apply pushes d into c.
func (d *Design) Apply(c *Chain) {
	c.Peak.SetCoefficients(d.Peak)
	c.Peak.SetBypassed(false)
	d.LowCut.apply(&c.LowCut)
	d.HighCut.apply(&c.HighCut)
}

func (d *CutDesign) apply(b *CutoffBank) {
	if !d.Valid {
		b.Bypass()
		return
	}
	// Slope and length were checked when the design was stored.
	_ = b.ConfigureSlope(d.Slope, d.Sections[:])
}

// RefreshError lists the bands whose design was rejected by the last
// Refresh. The rejected bands kept their previous design.
//
// The value returned by Refresh is owned by the Updater and is only valid
// until the next call to Refresh.
type RefreshError struct {
	Peak    error
	LowCut  error
	HighCut error
}

func (e *RefreshError) Error() string {
	var sb strings.Builder
	sb.WriteString("eq: rejected settings")
	for _, band := range [...]struct {
		name string
		err  error
	}{{"peak", e.Peak}, {"low-cut", e.LowCut}, {"high-cut", e.HighCut}} {
		if band.err == nil {
			continue
		}
		sb.WriteString("; ")
		sb.WriteString(band.name)
		sb.WriteString(": ")
		sb.WriteString(band.err.Error())
	}
	return sb.String()
}

// Unwrap returns the per-band causes so errors.Is matches the sentinels
// from the design package.
func (e *RefreshError) Unwrap() []error {
	var errs []error
	for _, err := range [...]error{e.Peak, e.LowCut, e.HighCut} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (e *RefreshError) empty() bool {
	return e.Peak == nil && e.LowCut == nil && e.HighCut == nil
}

// Updater turns a Settings snapshot into coefficients once and applies the
// same coefficients to every target chain, so channels refreshed together
// stay in lock-step.
//
// For each band the Updater keeps the last design that succeeded. When a
// band's design is rejected, that cached design (initially pass-through) is
// applied instead. Coefficients only mean something at the rate they were
// designed for, so a sample-rate change drops the cache back to
// pass-through before designing.
//
// An Updater belongs to one execution context and is not safe for concurrent
// use. Refresh does not allocate.
type Updater struct {
	last    Design
	scratch [BankSize]biquad.Coefficients
	err     RefreshError
	init    bool
}

// NewUpdater returns an Updater whose fallback design is pass-through.
func NewUpdater() *Updater {
	u := &Updater{}
	u.lazyInit()
	return u
}

func (u *Updater) lazyInit() {
	if u.init {
		return
	}
	u.last = Design{Peak: biquad.Identity}
	u.init = true
}

// Refresh designs the peak, low-cut and high-cut bands from s at sampleRate
// and applies the result to every chain. Nil chains are skipped.
//
// The returned error is nil or a *RefreshError describing the rejected
// bands; the chains were updated either way.
func (u *Updater) Refresh(s Settings, sampleRate float64, chains ...*Chain) error {
	u.lazyInit()
	u.err = RefreshError{}
	if u.last.SampleRate != sampleRate {
		u.last = Design{SampleRate: sampleRate, Peak: biquad.Identity}
	}

	if pk, err := design.Peak(s.PeakFreq, s.PeakGainDB, s.PeakQ, sampleRate); err != nil {
		u.err.Peak = err
	} else {
		u.last.Peak = pk
	}

	u.err.LowCut = u.designCut(&u.last.LowCut, design.HighPass, s.LowCutFreq, s.LowCutSlope, sampleRate)
	u.err.HighCut = u.designCut(&u.last.HighCut, design.LowPass, s.HighCutFreq, s.HighCutSlope, sampleRate)

	for _, c := range chains {
		if c != nil {
			u.last.Apply(c)
		}
	}

	if u.err.empty() {
		return nil
	}
	return &u.err
}

func (u *Updater) designCut(dst *CutDesign, kind design.Kind, freq float64, slope Slope, sampleRate float64) error {
	if !slope.Valid() {
		return ErrInvalidSlope
	}

	n, err := design.CutoffInto(u.scratch[:], kind, freq, slope.Order(), sampleRate)
	if err != nil {
		return err
	}

	copy(dst.Sections[:], u.scratch[:n])
	dst.Slope = slope
	dst.Valid = true

	return nil
}

// Design returns the design applied by the last Refresh.
func (u *Updater) Design() Design {
	u.lazyInit()
	return u.last
}
