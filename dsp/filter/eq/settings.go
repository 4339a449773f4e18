package eq

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Audible frequency bounds for every band.
const (
	MinFreq = 20.0
	MaxFreq = 20000.0
)

var (
	// ErrInvalidSlope reports a slope tier outside Slope12..Slope48.
	ErrInvalidSlope = errors.New("eq: slope tier must be in [0, 3]")
	// ErrOutOfRange reports a setting outside its documented range.
	ErrOutOfRange = errors.New("eq: setting out of range")
)

// Slope selects the steepness of a cutoff band. Tier t uses t+1 cascaded
// second-order sections.
type Slope int

const (
	Slope12 Slope = iota
	Slope24
	Slope36
	Slope48
)

// Valid reports whether s is one of the four supported tiers.
func (s Slope) Valid() bool {
	return s >= Slope12 && s <= Slope48
}

// Order returns the filter order, 2*(tier+1).
func (s Slope) Order() int { return 2 * s.Sections() }

// Sections returns the number of active bank slots for this tier.
func (s Slope) Sections() int { return int(s) + 1 }

// DBPerOctave returns the asymptotic attenuation rate.
func (s Slope) DBPerOctave() int { return 6 * s.Order() }

func (s Slope) String() string {
	if !s.Valid() {
		return "Slope(" + strconv.Itoa(int(s)) + ")"
	}
	return strconv.Itoa(s.DBPerOctave()) + " dB/oct"
}

// ParseSlope accepts a tier digit ("0".."3") or a steepness with an optional
// unit ("24", "24 dB/oct", "48db/octave").
func ParseSlope(str string) (Slope, error) {
	v := strings.ToLower(strings.TrimSpace(str))
	for _, suffix := range []string{"db/octave", "db/oct"} {
		if strings.HasSuffix(v, suffix) {
			v = strings.TrimSpace(strings.TrimSuffix(v, suffix))
			break
		}
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlope, str)
	}

	switch {
	case n >= 0 && n <= 3:
		return Slope(n), nil
	case n%12 == 0 && n >= 12 && n <= 48:
		return Slope(n/12 - 1), nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSlope, str)
	}
}

// Settings is one snapshot of the user-facing parameters. It is a plain
// value; consumers take a new one whenever they need current settings.
type Settings struct {
	PeakFreq   float64 // Hz
	PeakGainDB float64 // signed dB
	PeakQ      float64

	LowCutFreq  float64 // Hz
	LowCutSlope Slope

	HighCutFreq  float64 // Hz
	HighCutSlope Slope
}

// DefaultSettings returns a flat response: both cuts at the edges of the
// audible band with the gentlest slope and a 0 dB bell at 750 Hz.
func DefaultSettings() Settings {
	return Settings{
		PeakFreq:     750,
		PeakGainDB:   0,
		PeakQ:        1,
		LowCutFreq:   MinFreq,
		LowCutSlope:  Slope12,
		HighCutFreq:  MaxFreq,
		HighCutSlope: Slope12,
	}
}

// Validate checks the snapshot invariants: audible frequencies, positive
// finite Q, finite gain and known slope tiers. It does not check against a
// sample rate; Nyquist limits are enforced when coefficients are designed.
func (s Settings) Validate() error {
	var errs []error

	checkFreq := func(name string, f float64) {
		if !(f >= MinFreq && f <= MaxFreq) {
			errs = append(errs, fmt.Errorf("%w: %s %v Hz not in [%v, %v]", ErrOutOfRange, name, f, MinFreq, MaxFreq))
		}
	}

	checkFreq("peak frequency", s.PeakFreq)
	checkFreq("low-cut frequency", s.LowCutFreq)
	checkFreq("high-cut frequency", s.HighCutFreq)

	if !(s.PeakQ > 0) || math.IsInf(s.PeakQ, 0) {
		errs = append(errs, fmt.Errorf("%w: peak Q %v must be positive", ErrOutOfRange, s.PeakQ))
	}
	if math.IsNaN(s.PeakGainDB) || math.IsInf(s.PeakGainDB, 0) {
		errs = append(errs, fmt.Errorf("%w: peak gain %v dB", ErrOutOfRange, s.PeakGainDB))
	}
	if !s.LowCutSlope.Valid() {
		errs = append(errs, fmt.Errorf("low-cut: %w", ErrInvalidSlope))
	}
	if !s.HighCutSlope.Valid() {
		errs = append(errs, fmt.Errorf("high-cut: %w", ErrInvalidSlope))
	}

	return errors.Join(errs...)
}

// SettingsSource yields the current settings snapshot. Implementations must
// be safe to call from the audio thread: no locks, no allocation.
type SettingsSource interface {
	Settings() Settings
}

// SettingsFunc adapts a function to SettingsSource.
type SettingsFunc func() Settings

// Settings calls f.
func (f SettingsFunc) Settings() Settings { return f() }

// Static returns a SettingsSource that always yields s.
func Static(s Settings) SettingsSource {
	return SettingsFunc(func() Settings { return s })
}
