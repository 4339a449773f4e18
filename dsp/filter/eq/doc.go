// Package eq implements a three-band parametric equalizer: a low-cut
// (high-pass) bank, a peaking bell and a high-cut (low-pass) bank, applied in
// series to one audio channel.
//
// The package is organized around ownership rather than locking. Each
// consumer owns its Chain values and an Updater:
//
//   - Processor is the audio-engine consumer. It owns one Chain per stereo
//     channel and refreshes both from the current Settings before every
//     block. ProcessBlock does not allocate, lock or block.
//   - View is the visualization consumer. It owns a separate Chain that it
//     refreshes only when a change notification marked it dirty, and samples
//     the chain's magnitude response on a logarithmic frequency grid.
//
// The only data shared between consumers is the SettingsSource, which must
// provide torn-read-free access to each parameter.
//
// Invalid settings never reach the bilinear transform. A stage whose design
// is rejected keeps its last valid coefficients.
package eq
