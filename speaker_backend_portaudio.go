//go:build portaudio

// speaker_backend_portaudio.go - PortAudio audio output implementation.

package main

import (
	"sync"

	pa "github.com/gordonklaus/portaudio"
)

const paBufferLen = 1024

// SpeakerOutput streams the synth mix through a blocking PortAudio
// stream fed by a writer goroutine.
type SpeakerOutput struct {
	stream  *pa.Stream
	synth   *TandySynth
	buf     []float32
	stop    chan struct{}
	done    chan struct{}
	started bool
	mutex   sync.Mutex
}

func NewSpeakerOutput(synth *TandySynth, sampleRate int) (*SpeakerOutput, error) {
	if err := pa.Initialize(); err != nil {
		return nil, err
	}

	so := &SpeakerOutput{
		synth: synth,
		buf:   make([]float32, paBufferLen),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	stream, err := pa.OpenDefaultStream(0, 1, float64(sampleRate), paBufferLen, &so.buf)
	if err != nil {
		_ = pa.Terminate()
		return nil, err
	}
	so.stream = stream
	return so, nil
}

func (so *SpeakerOutput) Start() {
	so.mutex.Lock()
	defer so.mutex.Unlock()

	if so.started {
		return
	}
	if err := so.stream.Start(); err != nil {
		close(so.done)
		return
	}
	so.started = true

	go func() {
		defer close(so.done)
		for {
			select {
			case <-so.stop:
				return
			default:
			}
			so.synth.Render(so.buf)
			if err := so.stream.Write(); err != nil {
				return
			}
		}
	}()
}

func (so *SpeakerOutput) Close() {
	so.mutex.Lock()
	defer so.mutex.Unlock()

	if so.started {
		close(so.stop)
		<-so.done
		_ = so.stream.Stop()
		so.started = false
	}
	_ = so.stream.Close()
	_ = pa.Terminate()
}
