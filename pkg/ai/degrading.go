package ai

import (
	"context"
	"io"
	"log/slog"
)

// Degrading routes calls to an optional real backend and falls back to
// the placeholder when the backend is absent or fails, so assist
// endpoints stay available while a provider is down.
type Degrading struct {
	transcriber Transcriber
	synthesizer Synthesizer
	describer   Describer
	fallback    Placeholder
	logger      *slog.Logger
}

// NewDegrading wraps the given components. Any nil component is served
// by the placeholder directly.
func NewDegrading(transcriber Transcriber, synthesizer Synthesizer, describer Describer, logger *slog.Logger) *Degrading {
	if logger == nil {
		logger = slog.Default()
	}
	return &Degrading{
		transcriber: transcriber,
		synthesizer: synthesizer,
		describer:   describer,
		logger:      logger,
	}
}

func (d *Degrading) Transcribe(ctx context.Context, voiceFileID string, audio io.Reader, mimeType string) (Transcription, error) {
	if d.transcriber != nil {
		result, err := d.transcriber.Transcribe(ctx, voiceFileID, audio, mimeType)
		if err == nil {
			return result, nil
		}
		d.logger.Warn("transcription backend failed, serving placeholder", "file_id", voiceFileID, "error", err)
	}
	return d.fallback.Transcribe(ctx, voiceFileID, nil, mimeType)
}

func (d *Degrading) Synthesize(ctx context.Context, text, language string, speed float64) (Synthesis, error) {
	if d.synthesizer != nil {
		result, err := d.synthesizer.Synthesize(ctx, text, language, speed)
		if err == nil {
			return result, nil
		}
		d.logger.Warn("synthesis backend failed, serving placeholder", "error", err)
	}
	return d.fallback.Synthesize(ctx, text, language, speed)
}

func (d *Degrading) Describe(ctx context.Context, imageFileID string, image io.Reader, mimeType, language string) (Description, error) {
	if d.describer != nil {
		result, err := d.describer.Describe(ctx, imageFileID, image, mimeType, language)
		if err == nil {
			return result, nil
		}
		d.logger.Warn("description backend failed, serving placeholder", "file_id", imageFileID, "error", err)
	}
	return d.fallback.Describe(ctx, imageFileID, nil, mimeType, language)
}
