package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"PORT", "SCRATCH_DIR", "SCRATCH_MAX_AGE", "MIN_AUDIO_BYTES", "MAX_AUDIO_BYTES",
	"STT_PROVIDER", "LLM_PROVIDER", "TTS_PROVIDER", "GROQ_API_KEY", "GROQ_BASE_URL",
	"STT_MODEL", "LLM_MODEL", "OPENAI_API_KEY", "OPENAI_BASE_URL", "GOOGLE_STT_LANGUAGE",
	"ESPEAK_PATH", "ESPEAK_RATE", "ESPEAK_AMPLITUDE", "FFMPEG_PATH", "AUDIO_ARCHIVE",
	"AUDIO_DIR", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "AUDIO_TTL", "POSE_SERVICE_URL",
	"JWT_SECRET", "JWT_TTL", "OUTBOUND_PROXY", "EXTERNAL_CALL_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"COACH_PERSONA",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "5000" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.ScratchDir != "backend_temp" || cfg.ScratchMaxAge != 15*time.Minute {
		t.Errorf("scratch = %q %v", cfg.ScratchDir, cfg.ScratchMaxAge)
	}
	if cfg.MinAudioBytes != 1024 || cfg.MaxAudioBytes != 16*1024*1024 {
		t.Errorf("audio bounds = %d..%d", cfg.MinAudioBytes, cfg.MaxAudioBytes)
	}
	if cfg.STTProvider != ProviderGroq || cfg.LLMProvider != ProviderGroq || cfg.TTSProvider != ProviderEspeak {
		t.Errorf("providers = %s/%s/%s", cfg.STTProvider, cfg.LLMProvider, cfg.TTSProvider)
	}
	if cfg.LLMModel != DefaultLLMModel || cfg.STTModel != DefaultSTTModel {
		t.Errorf("models = %s/%s", cfg.STTModel, cfg.LLMModel)
	}
	if cfg.AudioArchive != ArchiveNone {
		t.Errorf("AudioArchive = %q", cfg.AudioArchive)
	}
	if cfg.ExternalCallTimeout != 60*time.Second {
		t.Errorf("ExternalCallTimeout = %v", cfg.ExternalCallTimeout)
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled without JWT_SECRET")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8088")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("MAX_AUDIO_BYTES", "2048")
	t.Setenv("AUDIO_TTL", "90s")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != "8088" || cfg.MaxAudioBytes != 2048 || cfg.AudioTTL != 90*time.Second {
		t.Errorf("unexpected %+v", cfg)
	}
	if cfg.LLMProvider != ProviderOpenAI || cfg.LLMModel != DefaultOpenAIModel {
		t.Errorf("llm = %s %s", cfg.LLMProvider, cfg.LLMModel)
	}
	if cfg.AudioArchive != ArchiveRedis {
		t.Errorf("AudioArchive = %q, want redis when REDIS_ADDR is set", cfg.AudioArchive)
	}
	if !cfg.AuthEnabled() {
		t.Error("auth should be enabled")
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("ESPEAK_RATE", "fast")
	t.Setenv("AUDIO_TTL", "ten minutes")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want parse errors")
	}
	for _, key := range []string{"ESPEAK_RATE", "AUDIO_TTL"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("error %q does not mention %s", err, key)
		}
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			STTProvider:         ProviderMock,
			LLMProvider:         ProviderMock,
			TTSProvider:         ProviderMock,
			AudioArchive:        ArchiveNone,
			MinAudioBytes:       1024,
			MaxAudioBytes:       4096,
			ExternalCallTimeout: time.Second,
			ScratchDir:          "tmp",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"mock stack", func(*Config) {}, ""},
		{"unknown stt", func(c *Config) { c.STTProvider = "deepgram" }, "STT_PROVIDER"},
		{"groq without key", func(c *Config) { c.LLMProvider = ProviderGroq }, "GROQ_API_KEY"},
		{"groq with key", func(c *Config) { c.LLMProvider = ProviderGroq; c.GroqAPIKey = "k" }, ""},
		{"openai without key", func(c *Config) { c.STTProvider = ProviderOpenAI }, "OPENAI_API_KEY"},
		{"redis without addr", func(c *Config) { c.AudioArchive = ArchiveRedis }, "REDIS_ADDR"},
		{"inverted bounds", func(c *Config) { c.MaxAudioBytes = 10 }, "MAX_AUDIO_BYTES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing file: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("COACH_PERSONA=Coach Kim\nPORT=7000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9000")
	// godotenv never overrides a present key, even an empty one.
	os.Unsetenv("COACH_PERSONA")

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Persona != "Coach Kim" {
		t.Errorf("Persona = %q", cfg.Persona)
	}
	if cfg.Port != "9000" {
		t.Errorf("Port = %q, environment must win over the file", cfg.Port)
	}
}
