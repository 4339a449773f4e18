// Package eqflags binds eq.Settings to command-line flags shared by the
// command-line tools.
package eqflags

import (
	"flag"
	"fmt"

	"github.com/cwbudde/algo-eq/dsp/filter/eq"
)

// Register adds one flag per setting to fs and returns the snapshot the
// flags write into. Defaults come from eq.DefaultSettings.
func Register(fs *flag.FlagSet) *eq.Settings {
	s := eq.DefaultSettings()

	fs.Float64Var(&s.PeakFreq, "peak-freq", s.PeakFreq, "peak band center frequency in Hz")
	fs.Float64Var(&s.PeakGainDB, "peak-gain", s.PeakGainDB, "peak band gain in dB")
	fs.Float64Var(&s.PeakQ, "peak-q", s.PeakQ, "peak band quality factor")
	fs.Float64Var(&s.LowCutFreq, "lowcut-freq", s.LowCutFreq, "low-cut corner frequency in Hz")
	fs.Float64Var(&s.HighCutFreq, "highcut-freq", s.HighCutFreq, "high-cut corner frequency in Hz")
	fs.Var((*slopeValue)(&s.LowCutSlope), "lowcut-slope", "low-cut slope: tier 0-3 or 12/24/36/48 dB/oct")
	fs.Var((*slopeValue)(&s.HighCutSlope), "highcut-slope", "high-cut slope: tier 0-3 or 12/24/36/48 dB/oct")

	return &s
}

// Validated returns the parsed snapshot or the reason it cannot be designed.
func Validated(s *eq.Settings) (eq.Settings, error) {
	if err := s.Validate(); err != nil {
		return eq.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return *s, nil
}

type slopeValue eq.Slope

func (v *slopeValue) String() string {
	if v == nil {
		return eq.Slope12.String()
	}
	return eq.Slope(*v).String()
}

func (v *slopeValue) Set(str string) error {
	s, err := eq.ParseSlope(str)
	if err != nil {
		return err
	}
	*v = slopeValue(s)
	return nil
}
