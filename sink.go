// sink.go - sound output capability used by the interpreter.

package main

// SoundSink abstracts the physical sound hardware behind the command
// stream: the modeled chip's single write port plus the PC-speaker-style
// tone voice. Realizations range from the mixing synth in tandy_synth.go
// to the recording fakes used in tests.
type SoundSink interface {
	// WriteRegister sends one byte to the modeled chip's write port.
	WriteRegister(value uint8)
	// StartTone starts (or retunes) the speaker square wave.
	StartTone(freqHz uint32)
	// StopTone silences the speaker voice only.
	StopTone()
	// SilenceAll turns every channel of the modeled chip off.
	SilenceAll()
}

// DelayTimer is the scheduler capability the interpreter depends on.
type DelayTimer interface {
	Wait(samples uint16)
}
