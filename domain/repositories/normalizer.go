package repositories

import "context"

// AudioNormalizer converts the audio file at inputPath into the canonical
// transcription format at outputPath.
type AudioNormalizer interface {
	Normalize(ctx context.Context, inputPath, outputPath string) (AudioConfig, error)
}
