package ai

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestPlaceholderTranscribe(t *testing.T) {
	result, err := Placeholder{}.Transcribe(context.Background(), "voice-123", nil, "audio/mpeg")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.Contains(result.Text, "voice-123") {
		t.Fatalf("placeholder text should reference the file id, got %q", result.Text)
	}
}

func TestPlaceholderSynthesizeDuration(t *testing.T) {
	result, err := Placeholder{}.Synthesize(context.Background(), "你好，世界", "zh-CN", 1.0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.DurationSeconds <= 0 {
		t.Fatalf("duration must be positive, got %v", result.DurationSeconds)
	}
	if result.AudioURL == "" {
		t.Fatal("expected an audio url")
	}

	again, _ := Placeholder{}.Synthesize(context.Background(), "你好，世界", "zh-CN", 1.0)
	if again.AudioURL != result.AudioURL {
		t.Fatal("synthesis must be deterministic for identical input")
	}
}

type failingDescriber struct{}

func (failingDescriber) Describe(context.Context, string, io.Reader, string, string) (Description, error) {
	return Description{}, errors.New("backend down")
}

func TestDegradingFallsBack(t *testing.T) {
	assist := NewDegrading(nil, nil, failingDescriber{}, nil)
	result, err := assist.Describe(context.Background(), "img-1", nil, "image/jpeg", "en")
	if err != nil {
		t.Fatalf("degraded Describe should not fail: %v", err)
	}
	if !strings.Contains(result.Description, "img-1") {
		t.Fatalf("expected placeholder description, got %q", result.Description)
	}
}
