package main

import (
	"testing"
	"time"
)

func TestBodyLimit(t *testing.T) {
	if got := bodyLimit(16 * 1024 * 1024); got != "33792K" {
		t.Errorf("bodyLimit() = %q", got)
	}
}

func TestSweepInterval(t *testing.T) {
	tests := []struct {
		maxAge time.Duration
		want   time.Duration
	}{
		{15 * time.Minute, 5 * time.Minute},
		{3 * time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := sweepInterval(tt.maxAge); got != tt.want {
			t.Errorf("sweepInterval(%v) = %v, want %v", tt.maxAge, got, tt.want)
		}
	}
}
