//go:build js && wasm

package main

import (
	"os"
	"syscall/js"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-eq/dsp/filter/eq"
	"github.com/cwbudde/algo-eq/internal/webdemo"
)

var (
	engine *webdemo.Engine
	funcs  []js.Func
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, NoColor: true}).With().Timestamp().Logger()
)

func main() {
	api := js.Global().Get("Object").New()
	api.Set("init", export(func(args []js.Value) any {
		sr := 48000.0
		if len(args) > 0 {
			sr = args[0].Float()
		}
		e, err := webdemo.NewEngine(sr, logger)
		if err != nil {
			logger.Error().Err(err).Float64("sample_rate", sr).Msg("engine init failed")
			return err.Error()
		}
		engine = e
		return js.Null()
	}))

	api.Set("setParam", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		v, err := engine.SetParam(args[0].String(), args[1].Float())
		if err != nil {
			return err.Error()
		}
		return v
	}))

	api.Set("setSettings", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		p := args[0]
		s := engine.Settings()
		s.PeakFreq = floatOr(p.Get("peakFreq"), s.PeakFreq)
		s.PeakGainDB = floatOr(p.Get("peakGain"), s.PeakGainDB)
		s.PeakQ = floatOr(p.Get("peakQ"), s.PeakQ)
		s.LowCutFreq = floatOr(p.Get("lowCutFreq"), s.LowCutFreq)
		s.LowCutSlope = slopeOr(p.Get("lowCutSlope"), s.LowCutSlope)
		s.HighCutFreq = floatOr(p.Get("highCutFreq"), s.HighCutFreq)
		s.HighCutSlope = slopeOr(p.Get("highCutSlope"), s.HighCutSlope)
		if err := engine.SetSettings(s); err != nil {
			return err.Error()
		}
		return js.Null()
	}))

	api.Set("setMaster", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		engine.SetMaster(args[0].Float())
		return js.Null()
	}))

	api.Set("setTransport", export(func(args []js.Value) any {
		if engine == nil || len(args) < 2 {
			return js.Null()
		}
		shuffle := 0.0
		if len(args) > 2 {
			shuffle = args[2].Float()
		}
		engine.Sequencer().SetTransport(args[0].Float(), args[1].Float(), shuffle)
		return js.Null()
	}))

	api.Set("setRunning", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		engine.Sequencer().SetRunning(args[0].Bool())
		return js.Null()
	}))

	api.Set("setWaveform", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		engine.Sequencer().SetWaveform(webdemo.ParseWaveform(args[0].String()))
		return js.Null()
	}))

	api.Set("setSteps", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Null()
		}
		arr := args[0]
		steps := make([]webdemo.StepConfig, arr.Length())
		for i := range steps {
			item := arr.Index(i)
			steps[i] = webdemo.StepConfig{
				Enabled: item.Get("enabled").Bool(),
				FreqHz:  item.Get("freq").Float(),
			}
		}
		engine.Sequencer().SetSteps(steps)
		return js.Null()
	}))

	api.Set("render", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float32Array").New(0)
		}
		n := args[0].Int()
		buf := make([]float32, n)
		engine.Render(buf)
		arr := js.Global().Get("Float32Array").New(n)
		for i := 0; i < n; i++ {
			arr.SetIndex(i, buf[i])
		}
		return arr
	}))

	api.Set("responseCurve", export(func(_ []js.Value) any {
		out := js.Global().Get("Object").New()
		if engine == nil {
			return out
		}
		freqs, db, changed := engine.ResponseCurve()
		out.Set("freqs", float64Array(freqs))
		out.Set("db", float64Array(db))
		out.Set("changed", changed)
		return out
	}))

	api.Set("spectrumCurve", export(func(args []js.Value) any {
		if engine == nil || len(args) < 1 {
			return js.Global().Get("Float64Array").New(0)
		}
		input := args[0]
		freqs := make([]float64, input.Length())
		for i := range freqs {
			freqs[i] = input.Index(i).Float()
		}
		return float64Array(engine.SpectrumCurveDB(freqs))
	}))

	api.Set("currentStep", export(func(_ []js.Value) any {
		if engine == nil {
			return -1
		}
		return engine.Sequencer().CurrentStep()
	}))

	js.Global().Set("AlgoEQDemo", api)
	select {}
}

func export(fn func([]js.Value) any) js.Func {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		return fn(args)
	})
	funcs = append(funcs, f)
	return f
}

func float64Array(v []float64) js.Value {
	arr := js.Global().Get("Float64Array").New(len(v))
	for i, x := range v {
		arr.SetIndex(i, x)
	}
	return arr
}

func floatOr(v js.Value, fallback float64) float64 {
	if v.Type() != js.TypeNumber {
		return fallback
	}
	return v.Float()
}

func slopeOr(v js.Value, fallback eq.Slope) eq.Slope {
	switch v.Type() {
	case js.TypeNumber:
		return eq.Slope(v.Int())
	case js.TypeString:
		if s, err := eq.ParseSlope(v.String()); err == nil {
			return s
		}
	}
	return fallback
}
