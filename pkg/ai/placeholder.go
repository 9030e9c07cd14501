package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"
)

// Placeholder is a deterministic offline backend. It never touches the
// network and always succeeds, so it doubles as the degradation target
// when a real backend is unreachable.
type Placeholder struct{}

func NewPlaceholder() Placeholder { return Placeholder{} }

func (Placeholder) Transcribe(_ context.Context, voiceFileID string, _ io.Reader, _ string) (Transcription, error) {
	return Transcription{
		Text:       fmt.Sprintf("[Transcription placeholder for file: %s]", voiceFileID),
		Confidence: 0,
	}, nil
}

func (Placeholder) Synthesize(_ context.Context, text, language string, speed float64) (Synthesis, error) {
	if speed <= 0 {
		speed = 1.0
	}
	// Rough speaking-rate estimate: four characters per second.
	duration := float64(utf8.RuneCountInString(text)) / 4.0 / speed
	if duration < 1 {
		duration = 1
	}
	sum := sha256.Sum256([]byte(language + "\x00" + text))
	return Synthesis{
		AudioURL:        "/static/tts/" + hex.EncodeToString(sum[:8]) + ".mp3",
		DurationSeconds: duration,
	}, nil
}

func (Placeholder) Describe(_ context.Context, imageFileID string, _ io.Reader, _ string, _ string) (Description, error) {
	return Description{
		Description: fmt.Sprintf("[Image description placeholder for file: %s]", imageFileID),
		IsClear:     true,
		Confidence:  0,
	}, nil
}
