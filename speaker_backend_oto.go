//go:build !headless && !portaudio

// speaker_backend_oto.go - OTO v3 audio output implementation.

package main

import (
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// SpeakerOutput streams the synth mix to the host audio device. The oto
// player pulls samples on its own goroutine via Read.
type SpeakerOutput struct {
	ctx       *oto.Context
	player    *oto.Player
	synth     *TandySynth
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex
}

func NewSpeakerOutput(synth *TandySynth, sampleRate int) (*SpeakerOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	out := &SpeakerOutput{
		ctx:       ctx,
		synth:     synth,
		sampleBuf: make([]float32, 4096),
	}
	out.player = ctx.NewPlayer(out)
	return out, nil
}

func (so *SpeakerOutput) Read(p []byte) (n int, err error) {
	numSamples := len(p) / 4
	if len(so.sampleBuf) < numSamples {
		so.sampleBuf = make([]float32, numSamples)
	}
	samples := so.sampleBuf[:numSamples]
	so.synth.Render(samples)

	for i, s := range samples {
		bits := math.Float32bits(s)
		p[i*4] = byte(bits)
		p[i*4+1] = byte(bits >> 8)
		p[i*4+2] = byte(bits >> 16)
		p[i*4+3] = byte(bits >> 24)
	}
	return numSamples * 4, nil
}

func (so *SpeakerOutput) Start() {
	so.mutex.Lock()
	defer so.mutex.Unlock()

	if !so.started && so.player != nil {
		so.player.Play()
		so.started = true
	}
}

func (so *SpeakerOutput) Close() {
	so.mutex.Lock()
	defer so.mutex.Unlock()

	if so.started && so.player != nil {
		so.player.Close()
		so.started = false
	}
}
