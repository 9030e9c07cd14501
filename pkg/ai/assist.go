package ai

import (
	"context"
	"io"
)

// Transcription is the result of voice-to-text conversion.
type Transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Synthesis is the result of text-to-speech conversion.
type Synthesis struct {
	AudioURL        string  `json:"audio_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Description is an AI-generated account of an image for a user who
// cannot see it.
type Description struct {
	Description string  `json:"description"`
	IsClear     bool    `json:"is_clear"`
	ClarityNote string  `json:"clarity_note,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// Transcriber converts recorded speech to text. The audio stream may
// be nil when only the file id is known; backends that need the bytes
// must report an error in that case.
type Transcriber interface {
	Transcribe(ctx context.Context, voiceFileID string, audio io.Reader, mimeType string) (Transcription, error)
}

// Synthesizer converts text to speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string, speed float64) (Synthesis, error)
}

// Describer narrates image content.
type Describer interface {
	Describe(ctx context.Context, imageFileID string, image io.Reader, mimeType, language string) (Description, error)
}

// Assist bundles the three capabilities a backend provides.
type Assist interface {
	Transcriber
	Synthesizer
	Describer
}
