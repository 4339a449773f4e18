// Command eqcurve prints the magnitude response of a three-band EQ setting.
//
// Usage:
//
//	eqcurve [flags]
//
// The curve is sampled on the same logarithmic 20 Hz to 20 kHz grid the
// editor view draws. With -measured, each row also carries the level read
// from an FFT of the chain's impulse response.
//
// Examples:
//
//	eqcurve -peak-gain 6 -points 16
//	eqcurve -lowcut-freq 100 -lowcut-slope 48 -measured
//	eqcurve -highcut-freq 8000 -highcut-slope 24 -json
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-eq/dsp/filter/eq"
	"github.com/cwbudde/algo-eq/internal/eqflags"
	"github.com/cwbudde/algo-eq/measure/response"
)

// Point is one row of the printed curve.
type Point struct {
	Freq       float64  `json:"freq_hz"`
	DB         float64  `json:"db"`
	MeasuredDB *float64 `json:"measured_db,omitempty"`
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().
		Timestamp().
		Str("component", "eqcurve").
		Logger()

	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		logger.Error().Err(err).Msg("eqcurve failed")
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("eqcurve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	settings := eqflags.Register(fs)
	sampleRate := fs.Float64("sample-rate", 48000, "sample rate in Hz")
	points := fs.Int("points", 32, "number of log-spaced frequencies")
	measured := fs.Bool("measured", false, "add an FFT measurement of the impulse response")
	fftSize := fs.Int("fft-size", response.DefaultFFTSize, "FFT size for -measured")
	asJSON := fs.Bool("json", false, "print JSON instead of a table")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: eqcurve [flags]\n\n")
		fmt.Fprintf(stderr, "Prints the magnitude response of a low-cut, peak and high-cut EQ.\n\n")
		fmt.Fprintf(stderr, "Flags:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if *points < 1 {
		return fmt.Errorf("-points must be at least 1, got %d", *points)
	}

	s, err := eqflags.Validated(settings)
	if err != nil {
		return err
	}

	curve, err := buildCurve(s, *sampleRate, *points, *measured, *fftSize)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(curve)
	}
	return writeTable(stdout, curve)
}

func buildCurve(s eq.Settings, sampleRate float64, n int, measured bool, fftSize int) ([]Point, error) {
	chain := eq.NewChain()
	if err := chain.ConfigureSettings(s, sampleRate); err != nil {
		return nil, err
	}

	freqs := eq.Frequencies(n)
	db := eq.Sample(chain, sampleRate, n)

	var ir response.Result
	if measured {
		var err error
		dut := *chain
		ir, err = response.Measure(&dut, sampleRate, response.WithFFTSize(fftSize))
		if err != nil {
			return nil, err
		}
	}

	out := make([]Point, n)
	for i, f := range freqs {
		out[i] = Point{Freq: f, DB: db[i]}
		if measured {
			m := ir.At(f)
			out[i].MeasuredDB = &m
		}
	}
	return out, nil
}

func writeTable(w io.Writer, curve []Point) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	measured := len(curve) > 0 && curve[0].MeasuredDB != nil

	if measured {
		fmt.Fprintln(tw, "Freq (Hz)\tLevel (dB)\tMeasured (dB)\t")
	} else {
		fmt.Fprintln(tw, "Freq (Hz)\tLevel (dB)\t")
	}
	for _, p := range curve {
		if measured {
			fmt.Fprintf(tw, "%.1f\t%.2f\t%.2f\t\n", p.Freq, p.DB, *p.MeasuredDB)
			continue
		}
		fmt.Fprintf(tw, "%.1f\t%.2f\t\n", p.Freq, p.DB)
	}
	return tw.Flush()
}
