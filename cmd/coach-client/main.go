// Command coach-client sends one recorded utterance to a gymbuddy server,
// over HTTP or a WebSocket session, and prints the coaching reply.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	cli "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/entities"
)

type options struct {
	server    string
	file      string
	metrics   string
	voice     string
	token     string
	useWS     bool
	chunkSize int
	outDir    string
	timeout   time.Duration
}

func main() {
	var opts options
	cli.StringVarP(&opts.server, "server", "s", "http://localhost:5000", "Server base URL")
	cli.StringVarP(&opts.file, "file", "f", "", "Audio file to send (required)")
	cli.StringVarP(&opts.metrics, "metrics", "m", "", "Exercise metrics JSON")
	cli.StringVarP(&opts.voice, "voice", "v", entities.DefaultVoice, "Voice for the spoken reply")
	cli.StringVarP(&opts.token, "token", "t", os.Getenv("GYMBUDDY_TOKEN"), "Client JWT when the server requires auth")
	cli.BoolVar(&opts.useWS, "ws", false, "Stream over the WebSocket session instead of HTTP")
	cli.IntVar(&opts.chunkSize, "chunk", 16*1024, "WebSocket audio frame size in bytes")
	cli.StringVarP(&opts.outDir, "out", "o", "audio_responses", "Directory for spoken replies")
	cli.DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall request timeout")
	cli.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if opts.file == "" {
		cli.Usage()
		os.Exit(2)
	}
	audio, err := os.ReadFile(opts.file)
	if err != nil {
		logger.Fatal("Failed to read audio file", zap.String("file", opts.file), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	var env *entities.ResponseEnvelope
	start := time.Now()
	if opts.useWS {
		env, err = sendWebSocket(ctx, opts, filepath.Base(opts.file), audio, logger)
	} else {
		env, err = sendHTTP(ctx, opts, filepath.Base(opts.file), audio)
	}
	if err != nil {
		logger.Fatal("Request failed", zap.Error(err))
	}

	logger.Info("Coach replied",
		zap.Duration("took", time.Since(start)),
		zap.String("transcription", env.Transcription),
		zap.String("reply", env.LLMResponse),
		zap.String("audio_url", env.AudioURL))

	if path, err := saveAudio(opts.outDir, env); err != nil {
		logger.Error("Failed to save spoken reply", zap.Error(err))
	} else if path != "" {
		logger.Info("Saved spoken reply", zap.String("path", path))
	}

	out, _ := json.MarshalIndent(env, "", "  ")
	fmt.Println(string(out))
}

// saveAudio writes the base64 reply audio under dir. It returns "" when the
// envelope carries no audio.
func saveAudio(dir string, env *entities.ResponseEnvelope) (string, error) {
	if env.AudioResponse == nil || *env.AudioResponse == "" {
		return "", nil
	}
	data, err := base64.StdEncoding.DecodeString(*env.AudioResponse)
	if err != nil {
		return "", fmt.Errorf("decode audio_response: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := filepath.Base(env.AudioURL)
	if env.AudioURL == "" || name == "." || name == "/" {
		name = fmt.Sprintf("%d%s", time.Now().Unix(), sniffExtension(data))
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func sniffExtension(data []byte) string {
	switch {
	case len(data) >= 4 && string(data[:4]) == "RIFF":
		return ".wav"
	case len(data) >= 3 && string(data[:3]) == "ID3", len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ".mp3"
	default:
		return ".bin"
	}
}
