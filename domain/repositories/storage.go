package repositories

import (
	"context"
	"errors"
)

// ErrAudioNotFound is returned when an archived artifact is unknown or expired.
var ErrAudioNotFound = errors.New("audio artifact not found")

// AudioArchive keeps synthesized audio around after its scratch file is gone
// so clients can fetch it by name.
type AudioArchive interface {
	Save(ctx context.Context, filename string, data []byte) error
	Load(ctx context.Context, filename string) ([]byte, error)
}
