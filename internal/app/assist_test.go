package app

import (
	"context"
	"strings"
	"testing"

	"seeforme/pkg/apperr"
)

func TestTranscribePlaceholder(t *testing.T) {
	a := newTestApp(t)

	result, err := a.Transcribe(context.Background(), "vf-123")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if !strings.Contains(result.Text, "vf-123") {
		t.Fatalf("placeholder should reference the file id, got %q", result.Text)
	}

	if _, err := a.Transcribe(context.Background(), "  "); apperr.KindOf(err) != apperr.KindInvalidPayload {
		t.Fatalf("blank file id should be invalid, got %v", err)
	}
}

func TestSynthesizeValidatesText(t *testing.T) {
	a := newTestApp(t)

	if _, err := a.Synthesize(context.Background(), "", "zh-CN", 1.0); apperr.KindOf(err) != apperr.KindInvalidPayload {
		t.Fatalf("empty text should be invalid, got %v", err)
	}
	result, err := a.Synthesize(context.Background(), "前面有台阶吗", "", 1.0)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if result.DurationSeconds <= 0 {
		t.Fatalf("duration = %v", result.DurationSeconds)
	}
}

func TestDescribeImagePlaceholder(t *testing.T) {
	a := newTestApp(t)

	result, err := a.DescribeImage(context.Background(), "img-9", "zh-CN")
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if !strings.Contains(result.Description, "img-9") {
		t.Fatalf("placeholder should reference the file id, got %q", result.Description)
	}
}
