//go:build headless

// speaker_backend_headless.go - silent output for tests and CI.

package main

type SpeakerOutput struct{}

func NewSpeakerOutput(synth *TandySynth, sampleRate int) (*SpeakerOutput, error) {
	return &SpeakerOutput{}, nil
}

func (so *SpeakerOutput) Start() {}

func (so *SpeakerOutput) Close() {}
