package repositories

import "context"

// SpeechToText abstracts speech recognition services
type SpeechToText interface {
	// TranscribeAudio converts canonical audio to text
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
	// Name identifies the provider in logs and errors
	Name() string
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
	// Filename is the name the audio is uploaded under, its extension tells
	// file based APIs the container.
	Filename string `json:"filename"`
}
