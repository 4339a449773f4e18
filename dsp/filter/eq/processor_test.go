package eq

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eq/dsp/core"
	"github.com/cwbudde/algo-eq/dsp/filter/design"
	"github.com/cwbudde/algo-eq/internal/testutil"
)

// mutableSource is a test registry whose snapshot can be swapped between blocks.
type mutableSource struct {
	v atomic.Pointer[Settings]
}

func newMutableSource(s Settings) *mutableSource {
	m := &mutableSource{}
	m.Set(s)
	return m
}

func (m *mutableSource) Set(s Settings)     { m.v.Store(&s) }
func (m *mutableSource) Settings() Settings { return *m.v.Load() }

func TestNewProcessor_Defaults(t *testing.T) {
	p, err := NewProcessor(nil)
	require.NoError(t, err)
	assert.Equal(t, 48000.0, p.SampleRate())
	assert.Equal(t, core.DefaultProcessorConfig().BlockSize, p.BlockSize())

	_, err = NewProcessor(nil, func(cfg *core.ProcessorConfig) { cfg.BlockSize = 0 })
	require.ErrorIs(t, err, core.ErrInvalidConfig)
}

func TestNewProcessor_ReportsInitialRejection(t *testing.T) {
	s := testSettings()
	s.HighCutFreq = 20000
	p, err := NewProcessor(Static(s), core.WithSampleRate(32000))
	require.NotNil(t, p)
	require.ErrorIs(t, err, design.ErrAboveNyquist)

	var rerr *RefreshError
	require.ErrorAs(t, err, &rerr)
	assert.NoError(t, rerr.Peak)
	assert.NoError(t, rerr.LowCut)
	assert.Error(t, rerr.HighCut)
	assert.Equal(t, uint64(1), p.Rejections())

	// The returned error is a copy and survives later refreshes.
	require.ErrorIs(t, p.Refresh(), design.ErrAboveNyquist)
	require.NoError(t, p.Prepare(48000, 512))
	assert.ErrorIs(t, rerr.HighCut, design.ErrAboveNyquist)

	buf := testutil.DeterministicNoise(7, 0.5, 128)
	require.NoError(t, p.ProcessBlock(buf, nil))
	testutil.RequireFinite(t, buf)
}

func TestProcessor_ChannelsInLockStep(t *testing.T) {
	p, err := NewProcessor(Static(testSettings()), core.WithSampleRate(44100), core.WithBlockSize(128))
	require.NoError(t, err)

	left := testutil.DeterministicNoise(1, 0.5, 128)
	right := append([]float64(nil), left...)
	require.NoError(t, p.ProcessBlock(left, right))

	requireSameCoefficients(t, p.Chain(0), p.Chain(1))
	assert.Equal(t, left, right)
}

func TestProcessor_ChannelsKeepOwnState(t *testing.T) {
	p, err := NewProcessor(Static(testSettings()))
	require.NoError(t, err)

	left := testutil.Impulse(64, 0)
	right := make([]float64, 64)
	require.NoError(t, p.ProcessBlock(left, right))

	for i, v := range right {
		require.Zero(t, v, "right[%d]", i)
	}
	assert.NotZero(t, testutil.PeakAbs(left, 0))
}

func TestProcessor_RefreshesEveryBlock(t *testing.T) {
	src := newMutableSource(DefaultSettings())
	p, err := NewProcessor(src)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Chain(0).HighCut.Active())

	s := DefaultSettings()
	s.HighCutSlope = Slope48
	s.HighCutFreq = 5000
	src.Set(s)

	buf := make([]float64, 32)
	require.NoError(t, p.ProcessBlock(buf, nil))
	assert.Equal(t, 4, p.Chain(0).HighCut.Active())
	assert.Equal(t, 4, p.Chain(1).HighCut.Active())
}

func TestProcessor_MonoAndLengthMismatch(t *testing.T) {
	p, err := NewProcessor(Static(testSettings()))
	require.NoError(t, err)

	left := testutil.Impulse(16, 0)
	require.NoError(t, p.ProcessBlock(left, nil))
	require.NoError(t, p.ProcessBlock(left, []float64{}))

	require.ErrorIs(t, p.ProcessBlock(make([]float64, 8), make([]float64, 4)), ErrChannelLength)
}

func TestProcessor_RejectedSettingsCounted(t *testing.T) {
	src := newMutableSource(testSettings())
	p, err := NewProcessor(src)
	require.NoError(t, err)
	before := p.Chain(0).Peak.Coefficients()

	bad := testSettings()
	bad.PeakFreq = 25000
	src.Set(bad)

	buf := testutil.DeterministicNoise(3, 0.25, 64)
	err = p.ProcessBlock(buf, nil)
	require.ErrorIs(t, err, design.ErrAboveNyquist)
	assert.Equal(t, uint64(1), p.Rejections())
	assert.Equal(t, before, p.Chain(0).Peak.Coefficients())
	testutil.RequireFinite(t, buf)
}

func TestProcessor_PrepareResetsAndRedesigns(t *testing.T) {
	p, err := NewProcessor(Static(testSettings()))
	require.NoError(t, err)

	buf := testutil.DeterministicSine(440, 48000, 0.5, 64)
	require.NoError(t, p.ProcessBlock(buf, nil))
	at48k := p.Chain(0).Peak.Coefficients()

	require.NoError(t, p.Prepare(96000, 256))
	assert.Equal(t, 96000.0, p.SampleRate())
	assert.Equal(t, 256, p.BlockSize())
	assert.NotEqual(t, at48k, p.Chain(0).Peak.Coefficients())
	assert.Equal(t, [2]float64{}, p.Chain(0).Peak.section.State())

	require.ErrorIs(t, p.Prepare(0, 256), core.ErrInvalidConfig)
	assert.Equal(t, 96000.0, p.SampleRate())
}

func TestProcessor_PrepareAtLowerRateMatchesFreshView(t *testing.T) {
	s := testSettings()
	s.HighCutFreq = 20000
	s.HighCutSlope = Slope48
	p, err := NewProcessor(Static(s))
	require.NoError(t, err)
	require.Equal(t, 4, p.Chain(0).HighCut.Active())

	err = p.Prepare(32000, 512)
	require.ErrorIs(t, err, design.ErrAboveNyquist)

	v := NewView(Static(s), 32000, WithPoints(256))
	curve, changed := v.Tick()
	require.True(t, changed)

	for ch := 0; ch < Channels; ch++ {
		audio := Sample(p.Chain(ch), 32000, 256)
		testutil.RequireCurveNearlyEqual(t, audio, curve, 1e-9)
	}
	assert.Equal(t, 0, p.Chain(0).HighCut.Active())
}

func TestProcessor_ProcessSampleMatchesBlock(t *testing.T) {
	a, err := NewProcessor(Static(testSettings()))
	require.NoError(t, err)
	b, err := NewProcessor(Static(testSettings()))
	require.NoError(t, err)

	in := testutil.DeterministicNoise(11, 1, 300)
	block := append([]float64(nil), in...)
	require.NoError(t, a.ProcessBlock(block, nil))

	for i, x := range in {
		require.InDelta(t, block[i], b.ProcessSample(0, x), 1e-12, "sample %d", i)
	}
}

func TestProcessor_AudioAndViewCurvesAgree(t *testing.T) {
	s := testSettings()
	p, err := NewProcessor(Static(s), core.WithSampleRate(44100))
	require.NoError(t, err)

	v := NewView(Static(s), 44100, WithPoints(300))
	curve, changed := v.Tick()
	require.True(t, changed)

	audio := Sample(p.Chain(0), 44100, 300)
	testutil.RequireCurveNearlyEqual(t, audio, curve, 1e-9)
}

func TestProcessor_SilentTailSettlesToZero(t *testing.T) {
	s := testSettings()
	s.LowCutFreq = 100
	s.LowCutSlope = Slope48
	s.HighCutSlope = Slope48
	p, err := NewProcessor(Static(s))
	require.NoError(t, err)

	left := make([]float64, 512)
	left[0] = 1
	for range 200 {
		require.NoError(t, p.ProcessBlock(left, nil))
		clear(left)
	}

	c := p.Chain(0)
	for i := 0; i < BankSize; i++ {
		assert.Equal(t, [2]float64{}, c.LowCut.Stage(i).section.State(), "low-cut slot %d", i)
		assert.Equal(t, [2]float64{}, c.HighCut.Stage(i).section.State(), "high-cut slot %d", i)
	}
	assert.Equal(t, [2]float64{}, c.Peak.section.State())

	require.NoError(t, p.ProcessBlock(left, nil))
	assert.Equal(t, make([]float64, 512), left)
}

func TestProcessor_ProcessBlockZeroAlloc(t *testing.T) {
	src := newMutableSource(testSettings())
	p, err := NewProcessor(src)
	require.NoError(t, err)

	left := testutil.DeterministicNoise(5, 0.5, 512)
	right := testutil.DeterministicNoise(6, 0.5, 512)

	allocs := testing.AllocsPerRun(100, func() {
		_ = p.ProcessBlock(left, right)
	})
	assert.Zero(t, allocs)
}
