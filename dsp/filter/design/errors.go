package design

import "errors"

// Sentinel errors returned by the designers. They are returned unwrapped so
// that rejecting a parameter on the audio thread does not allocate.
var (
	ErrInvalidSampleRate = errors.New("design: sample rate must be positive and finite")
	ErrInvalidFrequency  = errors.New("design: frequency must be positive and finite")
	ErrAboveNyquist      = errors.New("design: frequency must be below half the sample rate")
	ErrInvalidQ          = errors.New("design: Q must be positive and finite")
	ErrInvalidGain       = errors.New("design: gain must be finite")
	ErrInvalidOrder      = errors.New("design: order must be an even number in [2, 8]")
	ErrInvalidKind       = errors.New("design: unknown cutoff kind")
	ErrShortBuffer       = errors.New("design: destination holds fewer sections than the order needs")
	ErrDegenerate        = errors.New("design: transfer function normalization is degenerate")
)

// IsInvalidParameter reports whether err is one of the parameter errors
// produced by this package.
func IsInvalidParameter(err error) bool {
	for _, target := range []error{
		ErrInvalidSampleRate,
		ErrInvalidFrequency,
		ErrAboveNyquist,
		ErrInvalidQ,
		ErrInvalidGain,
		ErrInvalidOrder,
		ErrInvalidKind,
		ErrDegenerate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}
