// Package params is a lock-free parameter registry. Each parameter is an
// atomic float64, so the audio thread can read a snapshot with single scalar
// loads while the control thread writes.
package params

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-eq/dsp/core"
	"github.com/cwbudde/algo-eq/dsp/filter/eq"
)

// ID names one equalizer parameter.
type ID int

const (
	LowCutFreq ID = iota
	HighCutFreq
	PeakFreq
	PeakGain
	PeakQuality
	LowCutSlope
	HighCutSlope

	numIDs
)

var (
	ErrUnknownID = errors.New("params: unknown parameter")
	ErrNaN       = errors.New("params: value is NaN")
)

// Range describes the accepted values of a parameter. Values set outside
// [Min, Max] are clamped. Discrete parameters are rounded to whole steps.
type Range struct {
	Min, Max float64
	Default  float64
	Discrete bool
}

var (
	names = [numIDs]string{
		LowCutFreq:   "LowCut Freq",
		HighCutFreq:  "HighCut Freq",
		PeakFreq:     "Peak Freq",
		PeakGain:     "Peak Gain",
		PeakQuality:  "Peak Quality",
		LowCutSlope:  "LowCut Slope",
		HighCutSlope: "HighCut Slope",
	}

	ranges = [numIDs]Range{
		LowCutFreq:   {Min: eq.MinFreq, Max: eq.MaxFreq, Default: eq.MinFreq},
		HighCutFreq:  {Min: eq.MinFreq, Max: eq.MaxFreq, Default: eq.MaxFreq},
		PeakFreq:     {Min: eq.MinFreq, Max: eq.MaxFreq, Default: 750},
		PeakGain:     {Min: -24, Max: 24, Default: 0},
		PeakQuality:  {Min: 0.1, Max: 10, Default: 1},
		LowCutSlope:  {Min: float64(eq.Slope12), Max: float64(eq.Slope48), Default: float64(eq.Slope12), Discrete: true},
		HighCutSlope: {Min: float64(eq.Slope12), Max: float64(eq.Slope48), Default: float64(eq.Slope12), Discrete: true},
	}
)

// IDs returns every parameter in declaration order.
func IDs() []ID {
	ids := make([]ID, numIDs)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

func (id ID) valid() bool { return id >= 0 && id < numIDs }

func (id ID) String() string {
	if !id.valid() {
		return fmt.Sprintf("ID(%d)", int(id))
	}
	return names[id]
}

// Range returns the accepted range of id.
func (id ID) Range() Range {
	if !id.valid() {
		return Range{}
	}
	return ranges[id]
}

// ParseID resolves a parameter name. Matching ignores case, spaces, dashes
// and underscores, so "Peak Gain", "peak-gain" and "peakgain" are the same.
func ParseID(name string) (ID, error) {
	key := normalizeName(name)
	for i, n := range names {
		if normalizeName(n) == key {
			return ID(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownID, name)
}

func normalizeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// Listener is called after a parameter changed.
type Listener func(id ID, value float64)

// Store holds the current parameter values. Get and Settings are lock-free
// and allocation-free; Set and OnChange may block briefly on the listener
// list and must not be called from the audio thread.
type Store struct {
	values [numIDs]atomic.Uint64

	mu        sync.Mutex
	listeners []Listener
}

// New returns a store holding the default value of every parameter.
func New() *Store {
	s := &Store{}
	for i := range s.values {
		s.values[i].Store(math.Float64bits(ranges[i].Default))
	}
	return s
}

// Get returns the current value of id, or NaN for an unknown id.
func (s *Store) Get(id ID) float64 {
	if !id.valid() {
		return math.NaN()
	}
	return math.Float64frombits(s.values[id].Load())
}

// Set clamps v into the range of id, stores it and notifies listeners when
// the stored value changed. It returns the stored value.
func (s *Store) Set(id ID, v float64) (float64, error) {
	if !id.valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownID, int(id))
	}
	if math.IsNaN(v) {
		return s.Get(id), fmt.Errorf("%w: %s", ErrNaN, id)
	}

	r := ranges[id]
	v = core.Clamp(v, r.Min, r.Max)
	if r.Discrete {
		v = math.Round(v)
	}

	old := s.values[id].Swap(math.Float64bits(v))
	if old != math.Float64bits(v) {
		s.notify(id, v)
	}

	return v, nil
}

// SetByName is Set with the parameter resolved by ParseID.
func (s *Store) SetByName(name string, v float64) (float64, error) {
	id, err := ParseID(name)
	if err != nil {
		return 0, err
	}
	return s.Set(id, v)
}

// Apply stores every field of settings, clamping as Set does.
func (s *Store) Apply(settings eq.Settings) error {
	values := [numIDs]float64{
		LowCutFreq:   settings.LowCutFreq,
		HighCutFreq:  settings.HighCutFreq,
		PeakFreq:     settings.PeakFreq,
		PeakGain:     settings.PeakGainDB,
		PeakQuality:  settings.PeakQ,
		LowCutSlope:  float64(settings.LowCutSlope),
		HighCutSlope: float64(settings.HighCutSlope),
	}

	var errs []error
	for i, v := range values {
		if _, err := s.Set(ID(i), v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnChange registers fn to be called after every effective change.
func (s *Store) OnChange(fn Listener) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Store) notify(id ID, v float64) {
	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(id, v)
	}
}

// Settings reads each parameter with one atomic load. Fields written
// concurrently may come from different updates, but no single value is
// ever torn.
func (s *Store) Settings() eq.Settings {
	return eq.Settings{
		PeakFreq:     s.Get(PeakFreq),
		PeakGainDB:   s.Get(PeakGain),
		PeakQ:        s.Get(PeakQuality),
		LowCutFreq:   s.Get(LowCutFreq),
		LowCutSlope:  eq.Slope(s.Get(LowCutSlope)),
		HighCutFreq:  s.Get(HighCutFreq),
		HighCutSlope: eq.Slope(s.Get(HighCutSlope)),
	}
}

var _ eq.SettingsSource = (*Store)(nil)
