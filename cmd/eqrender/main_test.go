package main

import (
	"bytes"
	"flag"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-eq/dsp/filter/design"
	"github.com/cwbudde/algo-eq/dsp/filter/eq"
	"github.com/cwbudde/algo-eq/internal/testutil"
)

const testRate = 48000

func writeTestWAV(t *testing.T, bits int, channels ...[]float64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	numCh := len(channels)
	frames := len(channels[0])
	scale := fullScale(bits)
	data := make([]int, frames*numCh)
	for i := 0; i < frames; i++ {
		for c := range channels {
			data[i*numCh+c] = int(math.Round(channels[c][i] * scale))
		}
	}

	enc := wav.NewEncoder(f, testRate, bits, numCh, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{SampleRate: testRate, NumChannels: numCh},
		Data:           data,
		SourceBitDepth: bits,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	return path
}

func readTestWAV(t *testing.T, path string) (channels [][]float64, bits int) {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	require.True(t, dec.IsValidFile())
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	bits = int(dec.BitDepth)
	numCh := buf.Format.NumChannels
	frames := len(buf.Data) / numCh
	scale := 1 / fullScale(bits)

	channels = make([][]float64, numCh)
	for c := range channels {
		channels[c] = make([]float64, frames)
		for i := 0; i < frames; i++ {
			channels[c][i] = float64(buf.Data[i*numCh+c]) * scale
		}
	}
	return channels, bits
}

func renderOptions(t *testing.T, in string, args ...string) options {
	t.Helper()

	out := filepath.Join(filepath.Dir(in), "out.wav")
	o, err := parseFlags(append([]string{"-in", in, "-out", out}, args...), &bytes.Buffer{})
	require.NoError(t, err)
	return o
}

func TestRenderStereoPeakBoost(t *testing.T) {
	sine := testutil.DeterministicSine(1000, testRate, 0.25, testRate/2)
	in := writeTestWAV(t, 16, sine, sine)

	o := renderOptions(t, in, "-peak-freq", "1000", "-peak-gain", "6", "-block", "300")
	st, err := render(o)
	require.NoError(t, err)
	assert.Equal(t, testRate, st.SampleRate)
	assert.Equal(t, 2, st.Channels)
	assert.Equal(t, 16, st.BitDepth)
	assert.Equal(t, len(sine), st.Frames)
	assert.Zero(t, st.Clipped)
	assert.Zero(t, st.Rejections)

	out, bits := readTestWAV(t, o.out)
	require.Equal(t, 16, bits)
	require.Len(t, out, 2)
	require.Len(t, out[0], len(sine))

	want := 0.25 * math.Pow(10, 6.0/20)
	skip := testRate / 10
	assert.InDelta(t, want, testutil.SineAmplitude(out[0], skip, 48), 0.003)
	assert.InDelta(t, want, testutil.SineAmplitude(out[1], skip, 48), 0.003)
}

func TestRenderMonoDefaultIsTransparentInBand(t *testing.T) {
	sine := testutil.DeterministicSine(2000, testRate, 0.5, testRate/4)
	in := writeTestWAV(t, 16, sine)

	o := renderOptions(t, in)
	st, err := render(o)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Channels)

	out, _ := readTestWAV(t, o.out)
	require.Len(t, out, 1)

	chain := eq.NewChain()
	require.NoError(t, chain.ConfigureSettings(eq.DefaultSettings(), testRate))
	want := 0.5 * chain.Magnitude(2000, testRate)

	assert.InDelta(t, want, testutil.SineAmplitude(out[0], testRate/20, 24), 0.002)
}

func TestRenderBitDepthAndGain(t *testing.T) {
	sine := testutil.DeterministicSine(1000, testRate, 0.5, testRate/4)
	in := writeTestWAV(t, 16, sine)

	o := renderOptions(t, in, "-bits", "24", "-gain", "-6")
	st, err := render(o)
	require.NoError(t, err)
	assert.Equal(t, 24, st.BitDepth)

	out, bits := readTestWAV(t, o.out)
	require.Equal(t, 24, bits)
	assert.InDelta(t, 0.5*math.Pow(10, -6.0/20), testutil.SineAmplitude(out[0], testRate/20, 48), 0.002)
}

func TestRenderCountsClipping(t *testing.T) {
	sine := testutil.DeterministicSine(1000, testRate, 0.5, 4800)
	in := writeTestWAV(t, 16, sine)

	st, err := render(renderOptions(t, in, "-gain", "12"))
	require.NoError(t, err)
	assert.Positive(t, st.Clipped)
}

func TestRenderLowRateLowersHighCut(t *testing.T) {
	const rate = 32000
	path := filepath.Join(t.TempDir(), "in.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	sine := testutil.DeterministicSine(1000, rate, 0.5, rate/4)
	data := make([]int, len(sine))
	for i, v := range sine {
		data[i] = int(math.Round(v * fullScale(16)))
	}
	enc := wav.NewEncoder(f, rate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{SampleRate: rate, NumChannels: 1},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	o := renderOptions(t, path)
	st, err := render(o)
	require.NoError(t, err)
	assert.Equal(t, []string{"high-cut"}, st.Adjusted)
	assert.Zero(t, st.Rejections)

	s := eq.DefaultSettings()
	s.HighCutFreq = maxFreqRatio * rate
	chain := eq.NewChain()
	require.NoError(t, chain.ConfigureSettings(s, rate))

	out, _ := readTestWAV(t, o.out)
	want := 0.5 * chain.Magnitude(1000, rate)
	assert.InDelta(t, want, testutil.SineAmplitude(out[0], rate/20, 32), 0.002)

	_, err = render(renderOptions(t, path, "-strict"))
	require.ErrorIs(t, err, design.ErrAboveNyquist)
}

func TestFitToRate(t *testing.T) {
	s := eq.DefaultSettings()
	s.PeakFreq = 18000

	got, adjusted := fitToRate(s, 32000)
	assert.Equal(t, []string{"peak", "high-cut"}, adjusted)
	assert.InDelta(t, 15680, got.PeakFreq, 1e-9)
	assert.InDelta(t, 15680, got.HighCutFreq, 1e-9)
	assert.Equal(t, s.LowCutFreq, got.LowCutFreq)

	got, adjusted = fitToRate(s, 48000)
	assert.Empty(t, adjusted)
	assert.Equal(t, s, got)
}

func TestRenderErrors(t *testing.T) {
	t.Run("missing input", func(t *testing.T) {
		o := renderOptions(t, filepath.Join(t.TempDir(), "missing.wav"))
		_, err := render(o)
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("not a wav", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "junk.wav")
		require.NoError(t, os.WriteFile(path, []byte("definitely not RIFF"), 0o644))
		_, err := render(renderOptions(t, path))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid WAV file")
	})

	t.Run("too many channels", func(t *testing.T) {
		x := testutil.DeterministicSine(440, testRate, 0.1, 256)
		in := writeTestWAV(t, 16, x, x, x)
		_, err := render(renderOptions(t, in))
		require.ErrorIs(t, err, errChannelCount)
	})

	t.Run("setting above nyquist", func(t *testing.T) {
		x := testutil.DeterministicSine(440, testRate, 0.1, 256)
		in := writeTestWAV(t, 16, x)
		o := renderOptions(t, in, "-strict")
		o.settings.PeakFreq = testRate / 2
		_, err := render(o)
		require.ErrorIs(t, err, design.ErrAboveNyquist)
	})
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "missing paths", args: nil, want: errMissingPath},
		{name: "bad bits", args: []string{"-in", "a", "-out", "b", "-bits", "20"}, want: errUnsupportedDepth},
		{name: "bad settings", args: []string{"-in", "a", "-out", "b", "-peak-q", "0"}, want: eq.ErrOutOfRange},
		{name: "help", args: []string{"-h"}, want: flag.ErrHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, &bytes.Buffer{})
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := parseFlags([]string{"-in", "a", "-out", "b", "-block", "0"}, &bytes.Buffer{})
	require.Error(t, err)

	o, err := parseFlags([]string{"-in", "a", "-out", "b", "-highcut-slope", "36 dB/oct"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, eq.Slope36, o.settings.HighCutSlope)
	assert.Equal(t, 512, o.blockSize)
}
