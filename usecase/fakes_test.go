package usecase

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

var errProviderDown = errors.New("provider down")

type fakeSTT struct {
	mu     sync.Mutex
	text   string
	err    error
	calls  int
	config repositories.AudioConfig
}

func (f *fakeSTT) TranscribeAudio(ctx context.Context, audio []byte, config repositories.AudioConfig) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.config = config
	return f.text, f.err
}

func (f *fakeSTT) Name() string { return "fake-stt" }

func (f *fakeSTT) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeLLM answers each call with the next scripted reply.
type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	errs    []error
	prompts []string
	opts    []repositories.GenerateOptions
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts repositories.GenerateOptions) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.prompts)
	f.prompts = append(f.prompts, prompt)
	f.opts = append(f.opts, opts)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return "", err
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", nil
}

func (f *fakeLLM) Name() string { return "fake-llm" }

func (f *fakeLLM) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeTTS struct {
	mu     sync.Mutex
	data   []byte
	err    error
	calls  int
	voices []string
	paths  []string
}

func (f *fakeTTS) SynthesizeToFile(ctx context.Context, text, voice, outputPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.voices = append(f.voices, voice)
	f.paths = append(f.paths, outputPath)
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outputPath, f.data, 0o644)
}

func (f *fakeTTS) OutputExtension() string { return ".wav" }
func (f *fakeTTS) Name() string            { return "fake-tts" }

// fakeNormalizer copies the input to the output unchanged. A non-zero delay
// blocks until it elapses or ctx ends.
type fakeNormalizer struct {
	err   error
	delay time.Duration
	calls int
}

func (f *fakeNormalizer) Normalize(ctx context.Context, inputPath, outputPath string) (repositories.AudioConfig, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return repositories.AudioConfig{}, ctx.Err()
		}
	}
	if f.err != nil {
		return repositories.AudioConfig{}, f.err
	}
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return repositories.AudioConfig{}, err
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return repositories.AudioConfig{}, err
	}
	return repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "en"}, nil
}

type memoryArchive struct {
	mu    sync.Mutex
	items map[string][]byte
	err   error
}

func (m *memoryArchive) Save(ctx context.Context, filename string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.items == nil {
		m.items = map[string][]byte{}
	}
	m.items[filename] = data
	return nil
}

func (m *memoryArchive) Load(ctx context.Context, filename string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[filename]
	if !ok {
		return nil, repositories.ErrAudioNotFound
	}
	return data, nil
}
