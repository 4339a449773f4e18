package eq

import (
	"errors"

	"github.com/cwbudde/algo-eq/dsp/filter/biquad"
	"github.com/cwbudde/algo-eq/dsp/filter/design"
)

// BankSize is the fixed number of slots in a CutoffBank.
const BankSize = design.MaxSections

// ErrShortSections reports that fewer designed sections were supplied than
// the requested slope activates.
var ErrShortSections = errors.New("eq: not enough sections for slope")

// CutoffBank realizes a cutoff filter of order 2, 4, 6 or 8 with a fixed set
// of four second-order slots processed in series. After ConfigureSlope(t, ...)
// exactly slots 0..t are active and the rest are bypassed.
//
// The zero value has every slot bypassed and reports Active() == 0.
type CutoffBank struct {
	stages [BankSize]Stage
	active int
	slope  Slope
}

// ConfigureSlope activates the lowest slope.Sections() slots with the
// matching entries of sections and bypasses the rest. Slots above the tier
// keep their previous coefficients but are never applied while bypassed.
//
// The arguments are checked before any slot is touched, so on error the
// bank is unchanged.
func (b *CutoffBank) ConfigureSlope(slope Slope, sections []biquad.Coefficients) error {
	if !slope.Valid() {
		return ErrInvalidSlope
	}

	n := slope.Sections()
	if len(sections) < n {
		return ErrShortSections
	}

	prev := b.active

	for i := range b.stages {
		b.stages[i].SetBypassed(true)
	}

	for i := 0; i < n; i++ {
		st := &b.stages[i]
		st.SetCoefficients(sections[i])
		st.SetBypassed(false)

		// A slot coming out of bypass starts from silence instead of the
		// state it held when it was last active.
		if i >= prev {
			st.Reset()
		}
	}

	b.active = n
	b.slope = slope

	return nil
}

// Bypass deactivates every slot. Active reports 0 until the next
// ConfigureSlope.
func (b *CutoffBank) Bypass() {
	for i := range b.stages {
		b.stages[i].SetBypassed(true)
	}
	b.active = 0
}

// Active returns the number of non-bypassed slots.
func (b *CutoffBank) Active() int { return b.active }

// Slope returns the tier set by the last successful ConfigureSlope.
func (b *CutoffBank) Slope() Slope { return b.slope }

// Stage returns slot i. It panics if i is not in [0, BankSize).
func (b *CutoffBank) Stage(i int) *Stage { return &b.stages[i] }

// Bypassed reports whether slot i is bypassed.
func (b *CutoffBank) Bypassed(i int) bool { return b.stages[i].Bypassed() }

// Process threads x through slots 0..3 in order.
func (b *CutoffBank) Process(x float64) float64 {
	for i := range b.stages {
		x = b.stages[i].Process(x)
	}
	return x
}

// ProcessBlock filters buf in place through slots 0..3 in order.
func (b *CutoffBank) ProcessBlock(buf []float64) {
	for i := range b.stages {
		b.stages[i].ProcessBlock(buf)
	}
}

// Reset clears the delay state of every slot.
func (b *CutoffBank) Reset() {
	for i := range b.stages {
		b.stages[i].Reset()
	}
}

// Magnitude returns the product of the slot magnitudes at freq. Bypassed
// slots contribute a factor of 1.
func (b *CutoffBank) Magnitude(freq, sampleRate float64) float64 {
	m := 1.0
	for i := range b.stages {
		m *= b.stages[i].Magnitude(freq, sampleRate)
	}
	return m
}
