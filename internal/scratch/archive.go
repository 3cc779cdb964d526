package scratch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

// DirArchive keeps synthesized audio in a directory. Pair it with a Sweeper
// to expire old artifacts.
type DirArchive struct {
	dir    string
	logger *zap.Logger
}

var _ repositories.AudioArchive = (*DirArchive)(nil)

// NewDirArchive creates the archive directory if needed.
func NewDirArchive(dir string, logger *zap.Logger) (*DirArchive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audio archive directory: %w", err)
	}
	return &DirArchive{dir: dir, logger: logger}, nil
}

// Dir returns the archive directory.
func (a *DirArchive) Dir() string {
	return a.dir
}

func (a *DirArchive) path(filename string) (string, error) {
	if filename == "" || filename != filepath.Base(filename) || filename[0] == '.' {
		return "", ErrInvalidName
	}
	return filepath.Join(a.dir, filename), nil
}

// Save writes data under filename.
func (a *DirArchive) Save(_ context.Context, filename string, data []byte) error {
	path, err := a.path(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to archive audio: %w", err)
	}
	a.logger.Debug("Archived audio", zap.String("filename", filename), zap.Int("size", len(data)))
	return nil
}

// Load returns the bytes stored under filename.
func (a *DirArchive) Load(_ context.Context, filename string) ([]byte, error) {
	path, err := a.path(filename)
	if err != nil {
		return nil, repositories.ErrAudioNotFound
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, repositories.ErrAudioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read archived audio: %w", err)
	}
	return data, nil
}
