package repositories

import "context"

// TextToSpeech renders text into an audio file at outputPath.
type TextToSpeech interface {
	SynthesizeToFile(ctx context.Context, text string, voice string, outputPath string) error
	// OutputExtension is the file extension of the produced audio, e.g. ".wav".
	OutputExtension() string
	Name() string
}
