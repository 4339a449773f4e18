package eq

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// DefaultRefreshInterval is the redraw cadence of View.Run (60 Hz).
const DefaultRefreshInterval = time.Second / 60

// DefaultPoints is the number of curve points a View samples.
const DefaultPoints = 512

// View is the visualization side of the equalizer. It owns a Chain and an
// Updater separate from the audio path and recomputes its response curve
// only after MarkDirty.
//
// MarkDirty and SetSampleRate may be called from any goroutine. Tick, Run
// and Curve belong to the view's own goroutine.
type View struct {
	src    SettingsSource
	logger zerolog.Logger
	points int
	redraw func(curve []float64)

	sampleRate atomic.Uint64
	dirty      atomic.Bool

	chain   Chain
	updater Updater
	curve   []float64
}

// ViewOption configures a View.
type ViewOption func(*View)

// WithPoints sets the number of curve points. Values <= 0 are ignored.
func WithPoints(n int) ViewOption {
	return func(v *View) {
		if n > 0 {
			v.points = n
		}
	}
}

// WithLogger sets the logger used to report rejected settings.
func WithLogger(logger zerolog.Logger) ViewOption {
	return func(v *View) {
		v.logger = logger.With().Str("component", "eq-view").Logger()
	}
}

// WithRedraw registers fn to be called with the new curve whenever Tick
// recomputed it. The slice is reused by later ticks.
func WithRedraw(fn func(curve []float64)) ViewOption {
	return func(v *View) {
		v.redraw = fn
	}
}

// NewView returns a view reading settings from src. A new view starts dirty
// so the first Tick draws a curve.
func NewView(src SettingsSource, sampleRate float64, opts ...ViewOption) *View {
	if src == nil {
		src = Static(DefaultSettings())
	}

	v := &View{
		src:    src,
		logger: zerolog.Nop(),
		points: DefaultPoints,
	}
	v.chain = *NewChain()

	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}

	v.curve = make([]float64, v.points)
	v.sampleRate.Store(math.Float64bits(sampleRate))
	v.dirty.Store(true)

	return v
}

// MarkDirty requests a recompute on the next Tick. It is meant to be wired
// to the parameter registry's change notification.
func (v *View) MarkDirty() {
	v.dirty.Store(true)
}

// SetSampleRate changes the rate the curve is evaluated at and marks the
// view dirty.
func (v *View) SetSampleRate(sampleRate float64) {
	v.sampleRate.Store(math.Float64bits(sampleRate))
	v.dirty.Store(true)
}

// SampleRate returns the rate the curve is evaluated at.
func (v *View) SampleRate() float64 {
	return math.Float64frombits(v.sampleRate.Load())
}

// Tick claims the dirty flag. When it was set, the view refreshes its chain
// from the current settings, recomputes the curve and reports true. At most
// one recompute happens per MarkDirty.
func (v *View) Tick() ([]float64, bool) {
	if !v.dirty.CompareAndSwap(true, false) {
		return v.curve, false
	}

	sr := v.SampleRate()
	if err := v.updater.Refresh(v.src.Settings(), sr, &v.chain); err != nil {
		v.logger.Warn().Err(err).Float64("sample_rate", sr).Msg("settings rejected, keeping last valid design")
	}

	SampleInto(v.curve, &v.chain, sr)

	if v.redraw != nil {
		v.redraw(v.curve)
	}

	return v.curve, true
}

// Curve returns the last computed curve in dB, one value per point.
func (v *View) Curve() []float64 { return v.curve }

// Frequencies returns the frequency of each curve point.
func (v *View) Frequencies() []float64 { return Frequencies(v.points) }

// Chain returns the view's own chain.
func (v *View) Chain() *Chain { return &v.chain }

// Run calls Tick every interval until ctx is done and returns ctx.Err().
// An interval <= 0 selects DefaultRefreshInterval.
func (v *View) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	v.logger.Debug().Dur("interval", interval).Int("points", v.points).Msg("view started")

	for {
		select {
		case <-ctx.Done():
			v.logger.Debug().Msg("view stopped")
			return ctx.Err()
		case <-ticker.C:
			v.Tick()
		}
	}
}
