// Package scratch owns the per-request temporary files of the coaching pipeline.
package scratch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidName is returned for names that would escape the scratch directory.
var ErrInvalidName = errors.New("invalid scratch file name")

// Store is the root directory every Scope allocates files in.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates the scratch directory if needed.
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("scratch directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scratch directory: %w", err)
	}
	return &Store{dir: abs, logger: logger}, nil
}

// Dir returns the absolute scratch directory.
func (s *Store) Dir() string {
	return s.dir
}

// Resolve maps a bare file name to its path inside the store.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

// NewScope starts tracking files for one request.
func (s *Store) NewScope() *Scope {
	return &Scope{store: s, id: uuid.NewString()}
}

// Scope tracks the files acquired by one request. Close deletes all of them.
type Scope struct {
	store *Store
	id    string

	mu     sync.Mutex
	paths  []string
	closed bool
}

// ID identifies the request the scope belongs to.
func (sc *Scope) ID() string {
	return sc.id
}

// Acquire reserves a unique path named prefix_<token><ext>. The file is not
// created; whoever writes it relies on Close for removal.
func (sc *Scope) Acquire(prefix, ext string) (string, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return "", fmt.Errorf("scratch scope %s already closed", sc.id)
	}
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString(), ext)
	path := filepath.Join(sc.store.dir, name)
	sc.paths = append(sc.paths, path)
	return path, nil
}

// Paths returns the paths acquired so far.
func (sc *Scope) Paths() []string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	out := make([]string, len(sc.paths))
	copy(out, sc.paths)
	return out
}

// Close removes every acquired file. Failures are logged, never returned.
// Calling Close more than once is a no-op.
func (sc *Scope) Close() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.closed {
		return
	}
	sc.closed = true

	for _, path := range sc.paths {
		err := os.Remove(path)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		sc.store.logger.Warn("Failed to delete temporary file",
			zap.String("scope", sc.id),
			zap.String("path", path),
			zap.Error(err))
	}
}
