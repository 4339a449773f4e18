// Package webdemo drives the equalizer for the browser demo: a step
// sequencer as test material, the stereo EQ processor, the response view and
// an output analyzer, all fed from one parameter store.
package webdemo

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-eq/dsp/core"
	"github.com/cwbudde/algo-eq/dsp/filter/eq"
	"github.com/cwbudde/algo-eq/internal/params"
)

// Engine runs the web demo DSP pipeline in Go.
type Engine struct {
	sampleRate float64
	master     float64
	logger     zerolog.Logger

	store    *params.Store
	seq      *Sequencer
	proc     *eq.Processor
	view     *eq.View
	analyzer *Analyzer

	block []float64
}

// NewEngine creates a configured audio engine at sampleRate.
func NewEngine(sampleRate float64, logger zerolog.Logger) (*Engine, error) {
	cfg := core.ApplyProcessorOptions(core.WithSampleRate(sampleRate), core.WithBlockSize(128))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := params.New()

	proc, err := eq.NewProcessor(store, core.WithSampleRate(cfg.SampleRate), core.WithBlockSize(cfg.BlockSize))
	if proc == nil {
		return nil, fmt.Errorf("webdemo: processor: %w", err)
	}
	if err != nil {
		// Default cutoffs can sit above Nyquist on low-rate devices; those
		// bands stay flat until the user moves them.
		logger.Warn().Err(err).Float64("sample_rate", cfg.SampleRate).Msg("initial settings rejected")
	}

	analyzer, err := NewAnalyzer(cfg.SampleRate, DefaultSpectrumParams())
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sampleRate: cfg.SampleRate,
		master:     0.75,
		logger:     logger.With().Str("component", "webdemo").Logger(),
		store:      store,
		seq:        NewSequencer(cfg.SampleRate),
		proc:       proc,
		view:       eq.NewView(store, cfg.SampleRate, eq.WithLogger(logger)),
		analyzer:   analyzer,
		block:      make([]float64, cfg.BlockSize),
	}

	store.OnChange(func(params.ID, float64) { e.view.MarkDirty() })

	return e, nil
}

// SetParam sets one EQ parameter by name ("Peak Gain", "lowcut-slope", ...)
// and returns the stored, clamped value.
func (e *Engine) SetParam(name string, value float64) (float64, error) {
	v, err := e.store.SetByName(name, value)
	if err != nil {
		e.logger.Warn().Err(err).Str("param", name).Msg("parameter update ignored")
	}
	return v, err
}

// SetSettings stores a full settings snapshot.
func (e *Engine) SetSettings(s eq.Settings) error {
	return e.store.Apply(s)
}

// Settings returns the current settings snapshot.
func (e *Engine) Settings() eq.Settings { return e.store.Settings() }

// SetMaster sets the output gain in [0, 1].
func (e *Engine) SetMaster(gain float64) { e.master = core.Clamp(gain, 0, 1) }

// Sequencer returns the test-material generator.
func (e *Engine) Sequencer() *Sequencer { return e.seq }

// SetSpectrum replaces the output analyzer.
func (e *Engine) SetSpectrum(p SpectrumParams) error {
	a, err := NewAnalyzer(e.sampleRate, p)
	if err != nil {
		return err
	}
	e.analyzer = a
	return nil
}

// Render fills dst with mono PCM samples in [-1, 1]. Processing runs in
// blocks of the configured size, refreshing the EQ before each one.
func (e *Engine) Render(dst []float32) {
	for len(dst) > 0 {
		n := min(len(dst), len(e.block))
		buf := e.block[:n]

		e.seq.Fill(buf)
		_ = e.proc.ProcessBlock(buf, nil)
		e.analyzer.Push(buf)

		for i, x := range buf {
			dst[i] = float32(core.Clamp(x*e.master, -1, 1))
		}
		dst = dst[n:]
	}
}

// ResponseCurve returns the EQ curve in dB, its frequencies and whether it
// changed since the previous call.
func (e *Engine) ResponseCurve() (freqs, db []float64, changed bool) {
	db, changed = e.view.Tick()
	return e.view.Frequencies(), db, changed
}

// SpectrumCurveDB returns the analyzed output spectrum at freqs.
func (e *Engine) SpectrumCurveDB(freqs []float64) []float64 {
	return e.analyzer.CurveDB(freqs)
}

// Rejections reports how many audio blocks ran with rejected settings.
func (e *Engine) Rejections() uint64 { return e.proc.Rejections() }
