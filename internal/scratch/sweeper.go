package scratch

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Sweeper removes files a crashed request left behind in a directory.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
}

// NewSweeper creates a sweeper for dir. Files older than maxAge are removed
// every interval.
func NewSweeper(dir string, maxAge, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (s *Sweeper) Start() {
	go s.loop()
	s.logger.Info("Scratch sweeper started",
		zap.String("dir", s.dir),
		zap.Duration("maxAge", s.maxAge))
}

// Stop ends the sweep loop
func (s *Sweeper) Stop() {
	close(s.stopChan)
	s.logger.Info("Scratch sweeper stopped", zap.String("dir", s.dir))
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sweep(time.Now())
	for {
		select {
		case <-s.stopChan:
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}

// Sweep deletes regular files in the directory last modified before now-maxAge
// and returns how many were removed.
func (s *Sweeper) Sweep(now time.Time) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Error("Failed to list scratch directory", zap.String("dir", s.dir), zap.Error(err))
		return 0
	}

	cutoff := now.Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.logger.Warn("Failed to delete stale scratch file", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("Removed stale scratch files", zap.String("dir", s.dir), zap.Int("count", removed))
	}
	return removed
}
