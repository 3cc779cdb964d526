package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted by the *_PROVIDER settings.
const (
	ProviderGroq       = "groq"
	ProviderOpenAI     = "openai"
	ProviderGoogle     = "google"
	ProviderGemini     = "gemini"
	ProviderEspeak     = "espeak"
	ProviderElevenLabs = "elevenlabs"
	ProviderMock       = "mock"

	ArchiveNone  = "none"
	ArchiveDir   = "dir"
	ArchiveRedis = "redis"
)

const (
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
	DefaultSTTModel    = "whisper-large-v3-turbo"
	DefaultLLMModel    = "llama-3.3-70b-versatile"
	DefaultOpenAIModel = "gpt-4o-mini"
)

// Config is the server configuration, read from the environment.
type Config struct {
	Port string

	ScratchDir    string
	ScratchMaxAge time.Duration

	MinAudioBytes int64
	MaxAudioBytes int64

	STTProvider string
	LLMProvider string
	TTSProvider string

	GroqAPIKey  string
	GroqBaseURL string
	STTModel    string
	LLMModel    string

	OpenAIAPIKey  string
	OpenAIBaseURL string

	GoogleSTTLanguage string

	EspeakPath      string
	EspeakRate      int
	EspeakAmplitude int

	FFmpegPath string

	AudioArchive  string
	AudioDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	AudioTTL      time.Duration

	PoseServiceURL string

	JWTSecret string
	JWTTTL    time.Duration

	OutboundProxy       string
	ExternalCallTimeout time.Duration
	ShutdownTimeout     time.Duration

	Persona string
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads the configuration from the environment, applying defaults.
func Load() (*Config, error) {
	r := &reader{}
	cfg := &Config{
		Port: r.str("PORT", "5000"),

		ScratchDir:    r.str("SCRATCH_DIR", "backend_temp"),
		ScratchMaxAge: r.duration("SCRATCH_MAX_AGE", 15*time.Minute),

		MinAudioBytes: r.integer64("MIN_AUDIO_BYTES", 1024),
		MaxAudioBytes: r.integer64("MAX_AUDIO_BYTES", 16*1024*1024),

		STTProvider: strings.ToLower(r.str("STT_PROVIDER", ProviderGroq)),
		LLMProvider: strings.ToLower(r.str("LLM_PROVIDER", ProviderGroq)),
		TTSProvider: strings.ToLower(r.str("TTS_PROVIDER", ProviderEspeak)),

		GroqAPIKey:  r.str("GROQ_API_KEY", ""),
		GroqBaseURL: r.str("GROQ_BASE_URL", DefaultGroqBaseURL),
		STTModel:    r.str("STT_MODEL", DefaultSTTModel),
		LLMModel:    r.str("LLM_MODEL", ""),

		OpenAIAPIKey:  r.str("OPENAI_API_KEY", ""),
		OpenAIBaseURL: r.str("OPENAI_BASE_URL", ""),

		GoogleSTTLanguage: r.str("GOOGLE_STT_LANGUAGE", "en-US"),

		EspeakPath:      r.str("ESPEAK_PATH", "espeak-ng"),
		EspeakRate:      r.integer("ESPEAK_RATE", 150),
		EspeakAmplitude: r.integer("ESPEAK_AMPLITUDE", 90),

		FFmpegPath: r.str("FFMPEG_PATH", "ffmpeg"),

		RedisAddr:     r.str("REDIS_ADDR", ""),
		RedisPassword: r.str("REDIS_PASSWORD", ""),
		RedisDB:       r.integer("REDIS_DB", 0),
		AudioDir:      r.str("AUDIO_DIR", ""),
		AudioTTL:      r.duration("AUDIO_TTL", 10*time.Minute),

		PoseServiceURL: r.str("POSE_SERVICE_URL", ""),

		JWTSecret: r.str("JWT_SECRET", ""),
		JWTTTL:    r.duration("JWT_TTL", 7*24*time.Hour),

		OutboundProxy:       r.str("OUTBOUND_PROXY", ""),
		ExternalCallTimeout: r.duration("EXTERNAL_CALL_TIMEOUT", 60*time.Second),
		ShutdownTimeout:     r.duration("SHUTDOWN_TIMEOUT", 30*time.Second),

		Persona: r.str("COACH_PERSONA", "Max"),
	}

	// The archive follows REDIS_ADDR unless chosen explicitly.
	defaultArchive := ArchiveNone
	if cfg.RedisAddr != "" {
		defaultArchive = ArchiveRedis
	}
	cfg.AudioArchive = strings.ToLower(r.str("AUDIO_ARCHIVE", defaultArchive))

	if cfg.LLMModel == "" {
		cfg.LLMModel = DefaultLLMModel
		if cfg.LLMProvider == ProviderOpenAI {
			cfg.LLMModel = DefaultOpenAIModel
		}
	}

	if len(r.errs) > 0 {
		return nil, errors.Join(r.errs...)
	}
	return cfg, nil
}

// Validate checks provider names and the credentials each one needs.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(oneOf(c.STTProvider, ProviderGroq, ProviderOpenAI, ProviderGoogle, ProviderMock),
		"STT_PROVIDER %q must be one of groq, openai, google, mock", c.STTProvider)
	check(oneOf(c.LLMProvider, ProviderGroq, ProviderOpenAI, ProviderGemini, ProviderMock),
		"LLM_PROVIDER %q must be one of groq, openai, gemini, mock", c.LLMProvider)
	check(oneOf(c.TTSProvider, ProviderEspeak, ProviderElevenLabs, ProviderMock),
		"TTS_PROVIDER %q must be one of espeak, elevenlabs, mock", c.TTSProvider)
	check(oneOf(c.AudioArchive, ArchiveNone, ArchiveDir, ArchiveRedis),
		"AUDIO_ARCHIVE %q must be one of none, dir, redis", c.AudioArchive)

	needsGroq := c.STTProvider == ProviderGroq || c.LLMProvider == ProviderGroq
	check(!needsGroq || c.GroqAPIKey != "", "GROQ_API_KEY is required for the groq provider")
	needsOpenAI := c.STTProvider == ProviderOpenAI || c.LLMProvider == ProviderOpenAI
	check(!needsOpenAI || c.OpenAIAPIKey != "", "OPENAI_API_KEY is required for the openai provider")
	check(c.AudioArchive != ArchiveRedis || c.RedisAddr != "", "REDIS_ADDR is required for the redis archive")

	check(c.MinAudioBytes > 0, "MIN_AUDIO_BYTES must be positive")
	check(c.MaxAudioBytes >= c.MinAudioBytes, "MAX_AUDIO_BYTES must not be below MIN_AUDIO_BYTES")
	check(c.ExternalCallTimeout > 0, "EXTERNAL_CALL_TIMEOUT must be positive")
	check(c.ScratchDir != "", "SCRATCH_DIR must not be empty")

	return errors.Join(errs...)
}

// AuthEnabled reports whether API clients must present a token.
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func oneOf(v string, options ...string) bool {
	for _, o := range options {
		if v == o {
			return true
		}
	}
	return false
}

// reader collects parse errors so Load can report all of them at once.
type reader struct {
	errs []error
}

func (r *reader) str(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) integer64(key string, def int64) int64 {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
