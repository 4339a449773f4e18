package webdemo

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

const (
	stepCount       = 16
	minDecaySeconds = 0.01
	maxVoices       = 64
)

// StepConfig defines one sequencer step.
type StepConfig struct {
	Enabled bool
	FreqHz  float64
}

// Waveform defines oscillator shape for synth voices.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
)

// ParseWaveform maps a UI name to a Waveform. Unknown names select sine.
func ParseWaveform(name string) Waveform {
	switch name {
	case "triangle":
		return WaveTriangle
	case "saw":
		return WaveSaw
	case "square":
		return WaveSquare
	default:
		return WaveSine
	}
}

type voice struct {
	waveform    Waveform
	phase       float64
	phaseStep   float64
	ageSamples  int
	decaySample int
}

// Sequencer is a 16-step synth that feeds test material into the EQ. Voices
// live in a fixed pool so Fill does not allocate.
type Sequencer struct {
	sampleRate float64
	tempoBPM   float64
	decaySec   float64
	shuffle    float64
	waveform   Waveform
	running    bool

	steps       [stepCount]StepConfig
	currentStep int

	samplesUntilNextStep float64
	voices               []voice
}

// NewSequencer returns a stopped sequencer with every fourth step enabled.
func NewSequencer(sampleRate float64) *Sequencer {
	s := &Sequencer{
		sampleRate: sampleRate,
		tempoBPM:   110,
		decaySec:   0.2,
		voices:     make([]voice, 0, maxVoices),
	}
	for i := range s.steps {
		s.steps[i] = StepConfig{Enabled: i%4 == 0, FreqHz: defaultStepFreq(i)}
	}
	s.samplesUntilNextStep = s.stepDurationSamplesForStep(0)
	return s
}

// SetWaveform updates the oscillator shape used for newly triggered voices.
func (s *Sequencer) SetWaveform(w Waveform) {
	s.waveform = w
}

// SetTransport updates tempo, decay and shuffle amount.
func (s *Sequencer) SetTransport(tempoBPM, decaySec, shuffle float64) {
	if tempoBPM > 0 {
		s.tempoBPM = tempoBPM
	}
	s.decaySec = math.Max(decaySec, minDecaySeconds)
	s.shuffle = math.Min(math.Max(shuffle, 0), 1)
}

// SetRunning starts or stops step triggering. Starting rewinds to step 0.
func (s *Sequencer) SetRunning(running bool) {
	if running && !s.running {
		s.currentStep = 0
		s.samplesUntilNextStep = 0
	}
	s.running = running
}

// SetSteps updates the pattern. Missing steps keep their configuration.
func (s *Sequencer) SetSteps(steps []StepConfig) {
	for i := 0; i < stepCount && i < len(steps); i++ {
		cfg := steps[i]
		if cfg.FreqHz <= 0 {
			cfg.FreqHz = 110
		}
		s.steps[i] = cfg
	}
}

// CurrentStep returns the index of the next step to trigger.
func (s *Sequencer) CurrentStep() int { return s.currentStep }

// Fill writes len(dst) samples of synth output.
func (s *Sequencer) Fill(dst []float64) {
	for i := range dst {
		if s.running {
			s.samplesUntilNextStep--
			for s.samplesUntilNextStep <= 0 {
				s.trigger(s.steps[s.currentStep])
				s.currentStep = (s.currentStep + 1) % stepCount
				s.samplesUntilNextStep += s.stepDurationSamplesForStep(s.currentStep)
			}
		}
		dst[i] = s.next()
	}
}

func (s *Sequencer) trigger(step StepConfig) {
	if !step.Enabled || step.FreqHz <= 0 {
		return
	}
	if len(s.voices) >= maxVoices {
		copy(s.voices, s.voices[1:])
		s.voices = s.voices[:maxVoices-1]
	}
	s.voices = append(s.voices, voice{
		waveform:    s.waveform,
		phaseStep:   2 * math.Pi * step.FreqHz / s.sampleRate,
		decaySample: max(int(s.decaySec*s.sampleRate), 1),
	})
}

func (s *Sequencer) next() float64 {
	if len(s.voices) == 0 {
		return 0
	}
	attackSamples := max(int(0.005*s.sampleRate), 1)

	sum := 0.0
	write := 0
	for _, v := range s.voices {
		if v.ageSamples >= v.decaySample {
			continue
		}

		sum += envelope(v.ageSamples, attackSamples, v.decaySample) * waveSample(v.waveform, v.phase)

		v.phase += v.phaseStep
		if v.phase > math.Pi {
			v.phase -= 2 * math.Pi
		}
		v.ageSamples++
		s.voices[write] = v
		write++
	}
	s.voices = s.voices[:write]
	return sum
}

func (s *Sequencer) stepDurationSamplesForStep(stepIndex int) float64 {
	base := s.sampleRate * 60.0 / s.tempoBPM / 4.0
	ratio := (1.0 / 3.0) * math.Pow(s.shuffle, 1.6)
	if ratio <= 0 {
		return base
	}
	if stepIndex%2 == 0 {
		return base * (1 + ratio)
	}
	return base * (1 - ratio)
}

// envelope is an exponential attack/decay with a 0.22 peak. It runs per
// voice per sample, so the curve uses the fast exp approximation.
func envelope(age, attack, decay int) float64 {
	const (
		start = 0.0001
		peak  = 0.22
		end   = 0.0001
	)

	if age < attack {
		t := float32(age) / float32(attack)
		return start * float64(approx.FastExp(t*float32(math.Log(peak/start))))
	}
	if decay <= attack {
		return end
	}
	t := float32(age-attack) / float32(decay-attack)
	return peak * float64(approx.FastExp(t*float32(math.Log(end/peak))))
}

func defaultStepFreq(i int) float64 {
	defaults := [...]float64{130.81, 164.81, 196, 220, 261.63, 329.63, 392, 440}
	return defaults[i%len(defaults)]
}

func waveSample(w Waveform, phase float64) float64 {
	switch w {
	case WaveTriangle:
		return (2 / math.Pi) * math.Asin(math.Sin(phase))
	case WaveSaw:
		return phase / math.Pi
	case WaveSquare:
		if math.Sin(phase) >= 0 {
			return 1
		}
		return -1
	default:
		return math.Sin(phase)
	}
}
