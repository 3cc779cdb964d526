package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/gymbuddy/domain"
	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/internal/scratch"
)

type coachingFixture struct {
	service    *CoachingService
	stt        *fakeSTT
	llm        *fakeLLM
	tts        *fakeTTS
	normalizer *fakeNormalizer
	archive    *memoryArchive
	dir        string
}

func newCoachingFixture(t *testing.T) *coachingFixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	dir := t.TempDir()
	store, err := scratch.NewStore(dir, logger)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	f := &coachingFixture{
		stt:        &fakeSTT{},
		llm:        &fakeLLM{},
		tts:        &fakeTTS{data: []byte("RIFF-fake-wave")},
		normalizer: &fakeNormalizer{},
		archive:    &memoryArchive{},
		dir:        dir,
	}
	f.service = NewCoachingService(
		NewValidator(0, 0),
		store,
		f.normalizer,
		time.Second,
		NewTranscriber(f.stt, 0, logger),
		NewResponseGenerator(NewIntentAgent(f.llm, 0), NewPersonaAgent(f.llm, "Max", 0), logger),
		NewSynthesizer(f.tts, f.archive, 0, logger),
		logger,
	)
	return f
}

func (f *coachingFixture) assertScratchEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("scratch files left behind: %v", names)
	}
}

func validAudio() *entities.AudioSubmission {
	return &entities.AudioSubmission{Data: make([]byte, 4096), Filename: "recording.webm"}
}

func TestCoachingService_HappyPath(t *testing.T) {
	f := newCoachingFixture(t)
	f.stt.text = "[breathing] um how many reps do I have left"
	f.llm.replies = []string{"How many reps do I have left?", "\"Three more, stay tight!\""}

	confidence := 0.9
	env, err := f.service.Process(context.Background(), CoachingRequest{
		Audio:   validAudio(),
		Metrics: &entities.ExerciseMetrics{ExerciseName: "squat", RepCount: 7, Form: "good", Confidence: &confidence},
		Voice:   "en-uk",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !env.Success {
		t.Error("expected success")
	}
	if env.Transcription != "how many reps do I have left" {
		t.Errorf("transcription = %q", env.Transcription)
	}
	if env.LLMResponse != "Three more, stay tight!" {
		t.Errorf("llm_response = %q", env.LLMResponse)
	}
	if env.AudioResponse == nil {
		t.Fatal("expected audio")
	}
	decoded, err := base64.StdEncoding.DecodeString(*env.AudioResponse)
	if err != nil || string(decoded) != "RIFF-fake-wave" {
		t.Errorf("audio_response does not decode to synthesized file: %q, %v", decoded, err)
	}
	if !strings.HasPrefix(env.AudioURL, "/audio/tts_output_") {
		t.Errorf("audio_url = %q", env.AudioURL)
	}
	if f.tts.voices[0] != "en-uk" {
		t.Errorf("voice = %q", f.tts.voices[0])
	}
	if f.stt.config.SampleRate != 16000 || !strings.HasPrefix(f.stt.config.Filename, "converted_") {
		t.Errorf("unexpected audio config %+v", f.stt.config)
	}
	if !strings.Contains(f.llm.prompts[0], "- Exercise: squat") {
		t.Errorf("intent prompt missing exercise context:\n%s", f.llm.prompts[0])
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_ValidationSkipsExternalCalls(t *testing.T) {
	f := newCoachingFixture(t)

	_, err := f.service.Process(context.Background(), CoachingRequest{
		Audio: &entities.AudioSubmission{Data: make([]byte, 100)},
	})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if f.normalizer.calls != 0 || f.stt.Calls() != 0 || f.llm.Calls() != 0 || f.tts.calls != 0 {
		t.Error("no collaborator should be called for an invalid submission")
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_NoSpeech(t *testing.T) {
	f := newCoachingFixture(t)
	f.stt.text = "[music]"

	env, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !env.Success || env.Transcription != "" || env.LLMResponse != "" || env.AudioResponse != nil {
		t.Errorf("expected empty envelope, got %+v", env)
	}
	if f.llm.Calls() != 0 || f.tts.calls != 0 {
		t.Error("generation and synthesis must be skipped without speech")
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_IntentSuppressed(t *testing.T) {
	f := newCoachingFixture(t)
	f.stt.text = "thanks for watching"
	f.llm.replies = []string{"none"}

	env, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Transcription != "thanks for watching" || env.LLMResponse != "" || env.AudioResponse != nil {
		t.Errorf("unexpected envelope %+v", env)
	}
	if f.tts.calls != 0 {
		t.Error("synthesis must be skipped for an empty reply")
	}
}

func TestCoachingService_ConversionFailure(t *testing.T) {
	f := newCoachingFixture(t)
	f.normalizer.err = errors.New("unsupported container")

	_, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()})
	var cerr *domain.ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if f.stt.Calls() != 0 {
		t.Error("transcription must not run after conversion failure")
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_ConversionTimeout(t *testing.T) {
	f := newCoachingFixture(t)
	f.service.convTimeout = 50 * time.Millisecond
	f.normalizer.delay = 5 * time.Second

	start := time.Now()
	_, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()})
	took := time.Since(start)

	var cerr *domain.ConversionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if took > 2*time.Second {
		t.Errorf("conversion was not bounded, took %v", took)
	}
	if f.stt.Calls() != 0 {
		t.Error("transcription must not run after conversion timeout")
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_TranscriptionFailure(t *testing.T) {
	f := newCoachingFixture(t)
	f.stt.err = errProviderDown

	_, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()})
	var terr *domain.TranscriptionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if terr.Provider != "fake-stt" {
		t.Errorf("provider = %q", terr.Provider)
	}
	if f.llm.Calls() != 0 {
		t.Error("generation must not run after transcription failure")
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_PersonaFailure(t *testing.T) {
	f := newCoachingFixture(t)
	f.stt.text = "how is my form"
	f.llm.replies = []string{"How is my form?"}
	f.llm.errs = []error{nil, errProviderDown}

	_, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()})
	var perr *domain.PersonaGenerationError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersonaGenerationError, got %v", err)
	}
	if f.tts.calls != 0 {
		t.Error("synthesis must not run after persona failure")
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_SynthesisFailureKeepsReply(t *testing.T) {
	f := newCoachingFixture(t)
	f.stt.text = "how is my form"
	f.llm.replies = []string{"How is my form?", "Looking solid!"}
	f.tts.err = errors.New("engine missing")

	env, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.LLMResponse != "Looking solid!" || env.AudioResponse != nil || env.AudioURL != "" {
		t.Errorf("unexpected envelope %+v", env)
	}
	f.assertScratchEmpty(t)
}

func TestCoachingService_DefaultVoice(t *testing.T) {
	f := newCoachingFixture(t)
	f.stt.text = "how is my form"
	f.llm.replies = []string{"How is my form?", "Looking solid!"}

	if _, err := f.service.Process(context.Background(), CoachingRequest{Audio: validAudio()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.tts.voices[0] != entities.DefaultVoice {
		t.Errorf("voice = %q, want %q", f.tts.voices[0], entities.DefaultVoice)
	}
}

func TestSynthesizer_EmptyFileIsFailure(t *testing.T) {
	store, err := scratch.NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	scope := store.NewScope()
	defer scope.Close()

	s := NewSynthesizer(&fakeTTS{data: nil}, nil, 0, zap.NewNop())
	if audio := s.Synthesize(context.Background(), scope, "hello", "en-us"); audio != nil {
		t.Errorf("expected nil audio for empty output, got %+v", audio)
	}
}

func TestSynthesizer_ArchiveFailureKeepsAudio(t *testing.T) {
	store, err := scratch.NewStore(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	scope := store.NewScope()
	defer scope.Close()

	s := NewSynthesizer(&fakeTTS{data: []byte("wave")}, &memoryArchive{err: errProviderDown}, 0, zap.NewNop())
	audio := s.Synthesize(context.Background(), scope, "hello", "en-us")
	if audio == nil {
		t.Fatal("expected audio")
	}
	if audio.URL != "" {
		t.Errorf("url should be empty when archiving fails, got %q", audio.URL)
	}
}

func TestUploadExtension(t *testing.T) {
	tests := map[string]string{
		"clip.WEBM":      ".webm",
		"voice.wav":      ".wav",
		"noext":          ".bin",
		"../../etc.p@ss": ".bin",
		"":               ".bin",
	}
	for in, want := range tests {
		if got := uploadExtension(in); got != want {
			t.Errorf("uploadExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
