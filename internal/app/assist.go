package app

import (
	"context"
	"io"
	"strings"

	"seeforme/pkg/ai"
	"seeforme/pkg/apperr"
)

// Transcribe converts a voice upload to text. Missing content is not
// an error here: the backend falls back to a placeholder so the
// request flow never depends on AI availability.
func (a *App) Transcribe(ctx context.Context, voiceFileID string) (ai.Transcription, error) {
	if strings.TrimSpace(voiceFileID) == "" {
		return ai.Transcription{}, apperr.New(apperr.KindInvalidPayload, "file_required", "voiceFileId is required")
	}
	audio, mimeType := a.openContent(ctx, voiceFileID)
	if audio != nil {
		defer audio.Close()
	}
	result, err := a.assist.Transcribe(ctx, voiceFileID, audio, mimeType)
	if err != nil {
		return ai.Transcription{}, apperr.Wrap(apperr.KindInternal, "transcribe_failed", "could not transcribe voice", err)
	}
	return result, nil
}

// Synthesize converts text to speech audio.
func (a *App) Synthesize(ctx context.Context, text, language string, speed float64) (ai.Synthesis, error) {
	if strings.TrimSpace(text) == "" {
		return ai.Synthesis{}, apperr.New(apperr.KindInvalidPayload, "text_required", "text is required")
	}
	if language == "" {
		language = "zh-CN"
	}
	result, err := a.assist.Synthesize(ctx, text, language, speed)
	if err != nil {
		return ai.Synthesis{}, apperr.Wrap(apperr.KindInternal, "synthesize_failed", "could not synthesize speech", err)
	}
	return result, nil
}

// DescribeImage narrates an uploaded image for the seeker.
func (a *App) DescribeImage(ctx context.Context, imageFileID, language string) (ai.Description, error) {
	if strings.TrimSpace(imageFileID) == "" {
		return ai.Description{}, apperr.New(apperr.KindInvalidPayload, "file_required", "imageFileId is required")
	}
	if language == "" {
		language = "zh-CN"
	}
	image, mimeType := a.openContent(ctx, imageFileID)
	if image != nil {
		defer image.Close()
	}
	result, err := a.assist.Describe(ctx, imageFileID, image, mimeType, language)
	if err != nil {
		return ai.Description{}, apperr.Wrap(apperr.KindInternal, "describe_failed", "could not describe image", err)
	}
	return result, nil
}

// openContent best-effort opens an upload's bytes for the assist
// backends. Absent content yields a nil reader, which real backends
// reject and the placeholder ignores.
func (a *App) openContent(ctx context.Context, fileID string) (io.ReadCloser, string) {
	rc, file, err := a.media.ReadContent(ctx, fileID)
	if err != nil {
		return nil, ""
	}
	return rc, file.MimeType
}
