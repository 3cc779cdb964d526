package stt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/gymbuddy/domain/repositories"
)

func TestNewWhisperSpeechToText_RequiresKey(t *testing.T) {
	if _, err := NewWhisperSpeechToText(WhisperConfig{}, zaptest.NewLogger(t)); err == nil {
		t.Error("expected error without API key")
	}
}

func TestWhisperSpeechToText_TranscribeAudio(t *testing.T) {
	var gotModel, gotFilename, gotLanguage string
	var gotBytes []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			return
		}
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			return
		}
		gotFilename = header.Filename
		gotBytes, _ = io.ReadAll(file)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "  how many reps left  "})
	}))
	defer server.Close()

	w, err := NewWhisperSpeechToText(WhisperConfig{APIKey: "test-key", BaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewWhisperSpeechToText: %v", err)
	}

	text, err := w.TranscribeAudio(context.Background(), []byte("RIFFdata"), repositories.AudioConfig{
		SampleRate: 16000,
		Encoding:   "LINEAR16",
		Language:   "en-US",
		Filename:   "converted_abc.wav",
	})
	if err != nil {
		t.Fatalf("TranscribeAudio: %v", err)
	}

	if text != "how many reps left" {
		t.Errorf("text = %q", text)
	}
	if gotModel != defaultWhisperModel {
		t.Errorf("model = %q", gotModel)
	}
	if gotFilename != "converted_abc.wav" {
		t.Errorf("filename = %q", gotFilename)
	}
	if gotLanguage != "en" {
		t.Errorf("language = %q", gotLanguage)
	}
	if string(gotBytes) != "RIFFdata" {
		t.Errorf("uploaded bytes = %q", gotBytes)
	}
}

func TestWhisperSpeechToText_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	w, err := NewWhisperSpeechToText(WhisperConfig{APIKey: "test-key", BaseURL: server.URL}, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewWhisperSpeechToText: %v", err)
	}
	if _, err := w.TranscribeAudio(context.Background(), []byte("x"), repositories.AudioConfig{}); err == nil {
		t.Error("expected error from failing provider")
	}
}
