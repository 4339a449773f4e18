package eq

import (
	"errors"
	"sync/atomic"

	"github.com/cwbudde/algo-eq/dsp/core"
)

// Channels is the number of chains a Processor owns.
const Channels = 2

// ErrChannelLength reports a stereo block whose channels differ in length.
var ErrChannelLength = errors.New("eq: left and right blocks differ in length")

// Processor is the audio-engine side of the equalizer. It owns one Chain per
// stereo channel and an Updater, and refreshes both chains from its
// SettingsSource before every block.
//
// ProcessBlock and ProcessSample must be called from a single goroutine
// (the audio callback). Rejections may be read from any goroutine.
type Processor struct {
	src     SettingsSource
	cfg     core.ProcessorConfig
	chains  [Channels]Chain
	updater Updater

	rejected atomic.Uint64
}

// NewProcessor returns a processor reading settings from src. The stream
// configuration defaults to core.DefaultProcessorConfig and can be changed
// later with Prepare.
//
// An invalid configuration returns a nil processor. When the configuration
// is fine but the initial settings cannot be designed at its sample rate,
// NewProcessor returns the usable processor together with a *RefreshError;
// the rejected bands run pass-through until valid settings arrive.
func NewProcessor(src SettingsSource, opts ...core.ProcessorOption) (*Processor, error) {
	if src == nil {
		src = Static(DefaultSettings())
	}

	cfg := core.ApplyProcessorOptions(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{src: src, cfg: cfg}
	for i := range p.chains {
		p.chains[i] = *NewChain()
	}

	if err := p.refresh(); err != nil {
		rerr := p.updater.err
		return p, &rerr
	}

	return p, nil
}

// Prepare applies a host reconfiguration: new sample rate and maximum block
// size. Both chains are reset and refreshed. It returns a config error, or
// the refresh rejection if the current settings are invalid at the new rate.
func (p *Processor) Prepare(sampleRate float64, blockSize int) error {
	cfg := core.ProcessorConfig{SampleRate: sampleRate, BlockSize: blockSize}
	if err := cfg.Validate(); err != nil {
		return err
	}

	p.cfg = cfg
	for i := range p.chains {
		p.chains[i].Reset()
	}

	return p.refresh()
}

// ProcessBlock refreshes both chains from the current settings and filters
// left and right in place. A nil or empty right processes left only.
//
// A non-nil error means some bands were rejected and kept their previous
// coefficients; the block was still processed. ProcessBlock does not allocate.
func (p *Processor) ProcessBlock(left, right []float64) error {
	if len(right) != 0 && len(right) != len(left) {
		return ErrChannelLength
	}

	err := p.refresh()

	p.chains[0].ProcessBlock(left)
	if len(right) != 0 {
		p.chains[1].ProcessBlock(right)
	}

	return err
}

// ProcessSample filters one sample of channel ch without refreshing.
func (p *Processor) ProcessSample(ch int, x float64) float64 {
	return p.chains[ch].Process(x)
}

// Refresh re-reads the settings and updates both chains.
func (p *Processor) Refresh() error {
	return p.refresh()
}

func (p *Processor) refresh() error {
	err := p.updater.Refresh(p.src.Settings(), p.cfg.SampleRate, &p.chains[0], &p.chains[1])
	if err != nil {
		p.rejected.Add(1)
	}
	return err
}

// Chain returns the chain for channel ch (0 = left, 1 = right).
func (p *Processor) Chain(ch int) *Chain { return &p.chains[ch] }

// SampleRate returns the current stream sample rate.
func (p *Processor) SampleRate() float64 { return p.cfg.SampleRate }

// BlockSize returns the maximum block size announced by the host.
func (p *Processor) BlockSize() int { return p.cfg.BlockSize }

// Rejections returns how many refreshes had at least one rejected band.
func (p *Processor) Rejections() uint64 { return p.rejected.Load() }
