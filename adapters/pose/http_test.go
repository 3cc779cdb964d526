package pose

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/satriahrh/gymbuddy/domain/entities"
	"github.com/satriahrh/gymbuddy/domain/repositories"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n0000")

func TestSidecarEstimator_EstimatePose(t *testing.T) {
	var got sidecarRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/estimate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(sidecarResponse{Landmarks: []entities.PoseLandmark{
			{X: 0.5, Y: 0.25, Z: -0.1, Visibility: 0.99},
		}})
	}))
	defer server.Close()

	estimator, err := NewSidecarEstimator(SidecarConfig{BaseURL: server.URL + "/"}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSidecarEstimator: %v", err)
	}

	landmarks, err := estimator.EstimatePose(context.Background(), pngHeader)
	if err != nil {
		t.Fatalf("EstimatePose: %v", err)
	}
	if len(landmarks) != 1 || landmarks[0].X != 0.5 || landmarks[0].Visibility != 0.99 {
		t.Errorf("unexpected landmarks %+v", landmarks)
	}
	if !strings.HasPrefix(got.Image, "data:image/png;base64,") {
		t.Errorf("image not sent as data URL: %.40s", got.Image)
	}
}

func TestSidecarEstimator_NoPose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	estimator, _ := NewSidecarEstimator(SidecarConfig{BaseURL: server.URL}, zap.NewNop())
	if _, err := estimator.EstimatePose(context.Background(), pngHeader); !errors.Is(err, repositories.ErrNoPoseDetected) {
		t.Errorf("expected ErrNoPoseDetected, got %v", err)
	}
}

func TestSidecarEstimator_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer server.Close()

	estimator, _ := NewSidecarEstimator(SidecarConfig{BaseURL: server.URL}, zap.NewNop())
	_, err := estimator.EstimatePose(context.Background(), pngHeader)
	if err == nil || errors.Is(err, repositories.ErrNoPoseDetected) {
		t.Errorf("expected generic error, got %v", err)
	}
}

func TestDecodeDataURL(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"data url", "data:image/jpeg;base64,aGVsbG8=", "hello", false},
		{"bare base64", "aGVsbG8=", "hello", false},
		{"empty", "", "", true},
		{"no comma", "data:image/png;base64", "", true},
		{"bad base64", "data:image/png;base64,!!!", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeDataURL(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
