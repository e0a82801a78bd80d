package tts

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func testConfig(baseURL string) Config {
	return Config{APIKey: "test-key", BaseURL: baseURL, VoiceID: "voice-1"}
}

func TestSynthesizeWritesAudio(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "test-key" {
			t.Fatal("missing api key header")
		}
		var payload struct {
			Text    string `json:"text"`
			ModelID string `json:"model_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Text != "Breathe easy again." {
			t.Fatalf("text = %q", payload.Text)
		}
		if payload.ModelID != defaultModel {
			t.Fatalf("model = %q", payload.ModelID)
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3 fake audio bytes"))
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	outputPath := filepath.Join(t.TempDir(), "audio", "narration.mp3")
	if err := client.Synthesize(context.Background(), "Breathe easy again.", outputPath); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read audio: %v", err)
	}
	if string(data) != "ID3 fake audio bytes" {
		t.Fatalf("audio content = %q", data)
	}
}

func TestSynthesizeSurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"text too long"}`))
	}))
	defer server.Close()

	client, err := New(testConfig(server.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = client.Synthesize(context.Background(), "text", filepath.Join(t.TempDir(), "out.mp3"))
	if err == nil {
		t.Fatal("expected synthesis error")
	}
}

func TestSynthesizeRejectsEmptyText(t *testing.T) {
	client, err := New(testConfig("https://api.example"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Synthesize(context.Background(), "  ", "/tmp/out.mp3"); err == nil {
		t.Fatal("expected empty text error")
	}
}

func TestNewRequiresVoice(t *testing.T) {
	if _, err := New(Config{APIKey: "k", BaseURL: "https://api.example"}); err == nil {
		t.Fatal("expected missing voice error")
	}
}
