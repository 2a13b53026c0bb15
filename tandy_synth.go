// tandy_synth.go - SN76489 register model and speaker voice, mixed for
// the audio backends.
//
// The SN76489 uses a single write port with a latch/data byte protocol:
//   - Latch byte (bit 7=1): sets channel, type (tone/attenuation), and
//     the low data bits
//   - Data byte (bit 7=0): writes the remaining data bits to the latched
//     register
// Three square-wave tone channels and one noise channel, each with 4-bit
// attenuation (0=max, 15=off). The speaker voice is a fourth square wave
// driven directly by StartTone/StopTone.

package main

import (
	"math"
	"sync"
)

const (
	// Default chip clock when the file header carries none (NTSC
	// colorburst, the usual Tandy/PCjr arrangement).
	defaultSNClock = 3579545

	// Default AY clock for speaker-placeholder files without one.
	defaultAYClock = 1789773
)

// attenTable maps 4-bit attenuation to amplitude; each step is -2 dB and
// 15 is full off.
var attenTable [16]float32

func init() {
	for i := 0; i < 15; i++ {
		attenTable[i] = float32(math.Pow(10, -0.1*float64(i)))
	}
	attenTable[15] = 0
}

// TandySynth implements SoundSink by synthesizing the modeled chip and
// the speaker voice at the output sample rate. Register writes arrive on
// the interpreter goroutine while Render is called from the audio
// backend, so all state lives under one mutex.
type TandySynth struct {
	mu      sync.Mutex
	clockHz uint32

	latchedCh   uint8
	latchedType uint8     // 0=tone, 1=attenuation
	tonePeriods [3]uint16 // 10-bit dividers
	atten       [4]uint8
	noiseCtl    uint8

	tonePhase [3]float32
	noiseSR   uint16 // 15-bit LFSR
	noiseAcc  float32
	noiseOut  float32

	speakerOn     bool
	speakerFreq   uint32
	speakerPhase  float32
	outSampleRate float32
}

func NewTandySynth(clockHz uint32, outSampleRate int) *TandySynth {
	if clockHz == 0 {
		clockHz = defaultSNClock
	}
	s := &TandySynth{
		clockHz:       clockHz,
		noiseSR:       0x4000,
		outSampleRate: float32(outSampleRate),
	}
	s.atten = [4]uint8{15, 15, 15, 15}
	return s
}

// WriteRegister decodes one byte written to the chip's single port.
func (s *TandySynth) WriteRegister(value uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if value&0x80 != 0 {
		// Latch byte: bits 6-5 channel, bit 4 type, bits 3-0 data.
		s.latchedCh = (value >> 5) & 0x03
		s.latchedType = (value >> 4) & 0x01
		low := value & 0x0F

		if s.latchedType == 1 {
			s.atten[s.latchedCh] = low
			return
		}
		if s.latchedCh == 3 {
			s.noiseCtl = low & 0x07
			s.noiseSR = 0x4000
			return
		}
		s.tonePeriods[s.latchedCh] = s.tonePeriods[s.latchedCh]&0x3F0 | uint16(low)
		return
	}

	// Data byte: bits 5-0.
	data := value & 0x3F
	if s.latchedType == 1 {
		s.atten[s.latchedCh] = data & 0x0F
		return
	}
	if s.latchedCh == 3 {
		// Real hardware ignores data bytes for the noise register.
		return
	}
	s.tonePeriods[s.latchedCh] = s.tonePeriods[s.latchedCh]&0x00F | uint16(data)<<4
}

// StartTone starts or retunes the speaker square wave.
func (s *TandySynth) StartTone(freqHz uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakerFreq = freqHz
	s.speakerOn = freqHz != 0
}

// StopTone silences only the speaker voice.
func (s *TandySynth) StopTone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakerOn = false
}

// SilenceAll writes full attenuation to every chip channel, the same
// sequence playback cleanup sends to real hardware.
func (s *TandySynth) SilenceAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atten = [4]uint8{15, 15, 15, 15}
}

// toneFreq converts a 10-bit divider to Hz: clock / (32 * N).
func (s *TandySynth) toneFreq(ch int) float32 {
	n := s.tonePeriods[ch]
	if n == 0 {
		n = 1
	}
	return float32(s.clockHz) / (32 * float32(n))
}

// noiseFreq returns the LFSR shift rate in Hz for the current noise
// control value. Rate 3 reuses channel 2's tone divider.
func (s *TandySynth) noiseFreq() float32 {
	switch s.noiseCtl & 0x03 {
	case 0:
		return float32(s.clockHz) / 512
	case 1:
		return float32(s.clockHz) / 1024
	case 2:
		return float32(s.clockHz) / 2048
	}
	return s.toneFreq(2)
}

func (s *TandySynth) stepLFSR() {
	var bit uint16
	if s.noiseCtl&0x04 != 0 {
		// White noise: taps 0 and 1.
		bit = (s.noiseSR ^ s.noiseSR>>1) & 1
	} else {
		// Periodic noise: recirculate bit 0.
		bit = s.noiseSR & 1
	}
	s.noiseSR = s.noiseSR>>1 | bit<<14
	if s.noiseSR&1 != 0 {
		s.noiseOut = 1
	} else {
		s.noiseOut = -1
	}
}

// Render fills buf with mixed mono samples in [-1, 1].
func (s *TandySynth) Render(buf []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range buf {
		var sum float32
		for ch := 0; ch < 3; ch++ {
			a := attenTable[s.atten[ch]]
			if a == 0 {
				continue
			}
			s.tonePhase[ch] += s.toneFreq(ch) / s.outSampleRate
			s.tonePhase[ch] -= float32(int(s.tonePhase[ch]))
			if s.tonePhase[ch] < 0.5 {
				sum += a
			} else {
				sum -= a
			}
		}

		if a := attenTable[s.atten[3]]; a != 0 {
			s.noiseAcc += s.noiseFreq() / s.outSampleRate
			for s.noiseAcc >= 1 {
				s.stepLFSR()
				s.noiseAcc--
			}
			sum += a * s.noiseOut
		}

		if s.speakerOn {
			s.speakerPhase += float32(s.speakerFreq) / s.outSampleRate
			s.speakerPhase -= float32(int(s.speakerPhase))
			if s.speakerPhase < 0.5 {
				sum += 1
			} else {
				sum -= 1
			}
		}

		buf[i] = sum * 0.2
	}
}
