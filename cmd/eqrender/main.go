// Command eqrender runs a WAV file through the three-band EQ.
//
// Usage:
//
//	eqrender -in input.wav -out output.wav [flags]
//
// Mono and stereo PCM input is supported. The file is processed in host-sized
// blocks with the same Processor an audio plugin would run, so the output is
// what a host would have rendered for a static setting.
//
// Band frequencies at or above 0.49 times the file's sample rate are pulled
// down to that limit (the 20 kHz default high-cut on a 32 kHz file, for
// example). Pass -strict to fail instead.
//
// Examples:
//
//	eqrender -in vox.wav -out vox-eq.wav -lowcut-freq 90 -lowcut-slope 24
//	eqrender -in mix.wav -out mix-eq.wav -peak-freq 3000 -peak-gain 3 -bits 24
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"github.com/tphakala/simd/f64"

	"github.com/cwbudde/algo-eq/dsp/core"
	"github.com/cwbudde/algo-eq/dsp/filter/eq"
	"github.com/cwbudde/algo-eq/internal/eqflags"
)

var (
	errMissingPath      = errors.New("both -in and -out are required")
	errChannelCount     = errors.New("only mono and stereo input is supported")
	errUnsupportedDepth = errors.New("bit depth must be 16 or 24")
)

type options struct {
	in, out   string
	settings  eq.Settings
	blockSize int
	gainDB    float64
	bits      int
	strict    bool
}

// stats summarizes one render.
type stats struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
	Clipped    int
	Rejections uint64
	// Adjusted names the bands whose frequency was lowered to fit the
	// file's sample rate.
	Adjusted []string
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().
		Str("component", "eqrender").
		Logger()

	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error().Err(err).Msg("invalid arguments")
		os.Exit(2)
	}

	st, err := render(opts)
	if err != nil {
		logger.Error().Err(err).Str("in", opts.in).Msg("render failed")
		os.Exit(1)
	}

	ev := logger.Info()
	if st.Clipped > 0 {
		ev = logger.Warn()
	}
	if len(st.Adjusted) > 0 {
		logger.Warn().
			Strs("bands", st.Adjusted).
			Float64("limit_hz", maxFreqRatio*float64(st.SampleRate)).
			Msg("lowered band frequencies to fit the sample rate")
	}

	ev.Str("out", opts.out).
		Int("sample_rate", st.SampleRate).
		Int("channels", st.Channels).
		Int("bits", st.BitDepth).
		Int("frames", st.Frames).
		Int("clipped", st.Clipped).
		Msg("rendered")
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("eqrender", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	settings := eqflags.Register(fs)
	fs.StringVar(&o.in, "in", "", "input WAV file")
	fs.StringVar(&o.out, "out", "", "output WAV file")
	fs.IntVar(&o.blockSize, "block", core.DefaultProcessorConfig().BlockSize, "processing block size in frames")
	fs.Float64Var(&o.gainDB, "gain", 0, "output gain in dB applied after the EQ")
	fs.IntVar(&o.bits, "bits", 0, "output bit depth, 16 or 24 (default: same as input)")
	fs.BoolVar(&o.strict, "strict", false, "fail instead of lowering band frequencies above 0.49 x sample rate")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: eqrender -in input.wav -out output.wav [flags]\n\n")
		fmt.Fprintf(stderr, "Renders a WAV file through a low-cut, peak and high-cut EQ.\n")
		fmt.Fprintf(stderr, "Band frequencies above 0.49 x the file's sample rate are lowered to fit unless -strict is set.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.in == "" || o.out == "" {
		return options{}, errMissingPath
	}
	if o.blockSize < 1 {
		return options{}, fmt.Errorf("-block must be positive, got %d", o.blockSize)
	}
	if o.bits != 0 && o.bits != 16 && o.bits != 24 {
		return options{}, fmt.Errorf("%w: %d", errUnsupportedDepth, o.bits)
	}
	if !core.IsFinite(o.gainDB) {
		return options{}, fmt.Errorf("-gain must be finite, got %v", o.gainDB)
	}

	s, err := eqflags.Validated(settings)
	if err != nil {
		return options{}, err
	}
	o.settings = s

	return o, nil
}

func render(o options) (stats, error) {
	inFile, err := os.Open(o.in)
	if err != nil {
		return stats{}, fmt.Errorf("failed to open input file: %w", err)
	}
	defer inFile.Close()

	dec := wav.NewDecoder(inFile)
	if !dec.IsValidFile() {
		return stats{}, fmt.Errorf("invalid WAV file: %s", o.in)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return stats{}, fmt.Errorf("failed to read audio data: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return stats{}, fmt.Errorf("invalid WAV buffer: %s", o.in)
	}

	st := stats{
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   int(dec.BitDepth),
	}
	if st.Channels < 1 || st.Channels > eq.Channels {
		return stats{}, fmt.Errorf("%w: %d channels", errChannelCount, st.Channels)
	}
	if st.BitDepth != 16 && st.BitDepth != 24 {
		return stats{}, fmt.Errorf("%w: input is %d-bit", errUnsupportedDepth, st.BitDepth)
	}

	outBits := o.bits
	if outBits == 0 {
		outBits = st.BitDepth
	}

	settings := o.settings
	if !o.strict {
		settings, st.Adjusted = fitToRate(settings, float64(st.SampleRate))
	}

	proc, err := eq.NewProcessor(eq.Static(settings),
		core.WithSampleRate(float64(st.SampleRate)),
		core.WithBlockSize(o.blockSize),
	)
	if proc == nil {
		return stats{}, err
	}
	if err != nil {
		return stats{}, fmt.Errorf("settings not usable at %d Hz: %w", st.SampleRate, err)
	}

	outFile, err := os.Create(o.out)
	if err != nil {
		return stats{}, fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	enc := wav.NewEncoder(outFile, st.SampleRate, outBits, st.Channels, 1)

	r := newRenderer(st.Channels, o.blockSize, st.BitDepth, outBits, core.DBToLinear(o.gainDB))
	frames := len(buf.Data) / st.Channels
	for start := 0; start < frames; start += o.blockSize {
		n := min(o.blockSize, frames-start)
		chunk := buf.Data[start*st.Channels : (start+n)*st.Channels]

		out, clipped, err := r.process(proc, chunk, n)
		if err != nil {
			return stats{}, err
		}
		st.Clipped += clipped

		if err := enc.Write(out); err != nil {
			return stats{}, fmt.Errorf("failed to write audio data: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return stats{}, fmt.Errorf("failed to finalize output file: %w", err)
	}

	st.Frames = frames
	st.BitDepth = outBits
	st.Rejections = proc.Rejections()
	return st, nil
}

// renderer owns the per-block scratch buffers.
type renderer struct {
	channels int
	inScale  float64
	outMax   float64
	gain     float64

	left, right []float64
	inter       []float64
	pcm         []int
	out         *audio.IntBuffer
}

func newRenderer(channels, blockSize, inBits, outBits int, gain float64) *renderer {
	r := &renderer{
		channels: channels,
		inScale:  1 / fullScale(inBits),
		outMax:   fullScale(outBits),
		gain:     gain,
		left:     make([]float64, blockSize),
		right:    make([]float64, blockSize),
		inter:    make([]float64, 2*blockSize),
		pcm:      make([]int, channels*blockSize),
		out: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: channels},
			SourceBitDepth: outBits,
		},
	}
	return r
}

// process filters n interleaved frames and returns them at the output bit
// depth, along with the number of samples that had to be clipped.
func (r *renderer) process(proc *eq.Processor, chunk []int, n int) (*audio.IntBuffer, int, error) {
	left := r.left[:n]
	var right []float64
	if r.channels == 2 {
		right = r.right[:n]
	}

	for i := 0; i < n; i++ {
		left[i] = float64(chunk[i*r.channels]) * r.inScale
		if right != nil {
			right[i] = float64(chunk[i*2+1]) * r.inScale
		}
	}

	// Settings are static and were validated by Prepare, so a rejection
	// here would mean the processor state is broken.
	if err := proc.ProcessBlock(left, right); err != nil {
		return nil, 0, err
	}

	var inter []float64
	if right != nil {
		inter = r.inter[:2*n]
		f64.Interleave2(inter, left, right)
	} else {
		inter = left
	}
	f64.Scale(inter, inter, r.gain*r.outMax)

	data := r.pcm[:len(inter)]
	clipped := 0
	for i, v := range inter {
		q := math.Round(v)
		if q > r.outMax-1 || q < -r.outMax {
			clipped++
			q = core.Clamp(q, -r.outMax, r.outMax-1)
		}
		data[i] = int(q)
	}
	r.out.Data = data

	return r.out, clipped, nil
}

// maxFreqRatio is the highest band frequency fitToRate allows, relative to
// the sample rate.
const maxFreqRatio = 0.49

// fitToRate lowers every band frequency above maxFreqRatio*sampleRate to that
// limit and returns the adjusted settings with the names of the bands it
// changed.
func fitToRate(s eq.Settings, sampleRate float64) (eq.Settings, []string) {
	limit := maxFreqRatio * sampleRate

	var adjusted []string
	for _, band := range []struct {
		name string
		freq *float64
	}{
		{"low-cut", &s.LowCutFreq},
		{"peak", &s.PeakFreq},
		{"high-cut", &s.HighCutFreq},
	} {
		if *band.freq > limit {
			*band.freq = limit
			adjusted = append(adjusted, band.name)
		}
	}

	return s, adjusted
}

func fullScale(bits int) float64 {
	return math.Ldexp(1, bits-1)
}
