package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// OpenAICompat calls any OpenAI-compatible API for transcription
// (/audio/transcriptions) and image description (/chat/completions
// with vision content). Works with vLLM, LiteLLM, LocalAI, OpenRouter,
// and self-hosted models.
type OpenAICompat struct {
	baseURL         string
	apiKey          string
	transcribeModel string
	visionModel     string
	httpClient      *http.Client
}

// NewOpenAICompat builds an OpenAI-compatible assist backend.
// baseURL should include the /v1 prefix, e.g. "http://localhost:8000/v1".
// apiKey can be empty for local models that do not require authentication.
func NewOpenAICompat(baseURL, apiKey, transcribeModel, visionModel string, timeout time.Duration) *OpenAICompat {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAICompat{
		baseURL:         strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:          strings.TrimSpace(apiKey),
		transcribeModel: strings.TrimSpace(transcribeModel),
		visionModel:     strings.TrimSpace(visionModel),
		httpClient:      &http.Client{Timeout: timeout},
	}
}

// Transcribe implements Transcriber using the audio transcriptions API.
func (c *OpenAICompat) Transcribe(ctx context.Context, voiceFileID string, audio io.Reader, mimeType string) (Transcription, error) {
	if c.transcribeModel == "" {
		return Transcription{}, fmt.Errorf("openai-compat transcription model required")
	}
	if audio == nil {
		return Transcription{}, fmt.Errorf("openai-compat transcription requires audio content")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", voiceFileID+extForAudio(mimeType))
	if err != nil {
		return Transcription{}, err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return Transcription{}, fmt.Errorf("openai-compat read audio: %w", err)
	}
	if err := mw.WriteField("model", c.transcribeModel); err != nil {
		return Transcription{}, err
	}
	if err := mw.Close(); err != nil {
		return Transcription{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return Transcription{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Transcription{}, fmt.Errorf("openai-compat request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return Transcription{}, err
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Transcription{}, fmt.Errorf("openai-compat decode: %w", err)
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		return Transcription{}, fmt.Errorf("empty transcription from openai-compat api")
	}
	return Transcription{Text: text, Confidence: 1}, nil
}

// Describe implements Describer using the chat completions API with an
// inline base64 image.
func (c *OpenAICompat) Describe(ctx context.Context, imageFileID string, image io.Reader, mimeType, language string) (Description, error) {
	if c.visionModel == "" {
		return Description{}, fmt.Errorf("openai-compat vision model required")
	}
	if image == nil {
		return Description{}, fmt.Errorf("openai-compat description requires image content")
	}
	raw, err := io.ReadAll(image)
	if err != nil {
		return Description{}, fmt.Errorf("openai-compat read image: %w", err)
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	prompt := fmt.Sprintf(
		"Describe this image for a visually impaired person in %s. "+
			"Be concrete about objects, text, and spatial layout. "+
			"If the image is blurry or unclear, say so and describe what you can.", language)
	reqBody := map[string]any{
		"model": c.visionModel,
		"messages": []map[string]any{{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": prompt},
				{"type": "image_url", "image_url": map[string]string{
					"url": "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(raw),
				}},
			},
		}},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Description{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Description{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Description{}, fmt.Errorf("openai-compat request: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return Description{}, err
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Description{}, fmt.Errorf("openai-compat decode: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return Description{}, fmt.Errorf("empty response from openai-compat api")
	}
	return Description{
		Description: strings.TrimSpace(out.Choices[0].Message.Content),
		IsClear:     true,
		Confidence:  1,
	}, nil
}

func (c *OpenAICompat) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&errResp)
	if errResp.Error.Message != "" {
		return fmt.Errorf("openai-compat api error: %s", errResp.Error.Message)
	}
	return fmt.Errorf("openai-compat api error: %s", resp.Status)
}

func extForAudio(mimeType string) string {
	switch mimeType {
	case "audio/mpeg":
		return ".mp3"
	case "audio/wav":
		return ".wav"
	case "audio/x-m4a":
		return ".m4a"
	case "audio/aac":
		return ".aac"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	}
	return ".bin"
}
