package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"seeforme/internal/app"
	"seeforme/internal/media"
	"seeforme/internal/storage"
	"seeforme/internal/store"
	"seeforme/pkg/auth"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	tokens, err := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}
	blobs, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	st := store.NewMemoryStore()
	cfg.App = app.New(app.Config{
		Store:  st,
		Media:  media.NewService(media.DefaultConfig(), st, blobs, nil),
		Tokens: tokens,
	})
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func getJSON(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func registerAndToken(t *testing.T, baseURL, email, role string) string {
	t.Helper()
	resp := postJSON(t, baseURL+"/api/v1/auth/register", "", map[string]string{
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register expected 201, got %d", resp.StatusCode)
	}
	var out struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	decodeBody(t, resp, &out)
	if out.Tokens.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	return out.Tokens.AccessToken
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp := getJSON(t, ts.URL+"/api/v1/users/me", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	seekerToken := registerAndToken(t, ts.URL, "seeker@test.com", "seeker")
	volunteerToken := registerAndToken(t, ts.URL, "volunteer@test.com", "volunteer")

	// seeker opens a request
	resp := postJSON(t, ts.URL+"/api/v1/help-requests", seekerToken, map[string]any{
		"text": "which bus is this",
		"mode": "hall",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, resp, &created)
	if created.Status != "open" {
		t.Fatalf("status = %q, want open", created.Status)
	}

	// volunteer role is enforced on create
	resp = postJSON(t, ts.URL+"/api/v1/help-requests", volunteerToken, map[string]any{"text": "x"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("volunteer create expected 403, got %d", resp.StatusCode)
	}

	// volunteer sees it in the hall and claims it
	resp = getJSON(t, ts.URL+"/api/v1/help-requests/hall", volunteerToken)
	var hall struct {
		Total int `json:"total"`
	}
	decodeBody(t, resp, &hall)
	if hall.Total != 1 {
		t.Fatalf("hall total = %d", hall.Total)
	}

	resp = postJSON(t, ts.URL+fmt.Sprintf("/api/v1/help-requests/%s/claim", created.ID), volunteerToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("claim expected 201, got %d", resp.StatusCode)
	}
	resp = postJSON(t, ts.URL+fmt.Sprintf("/api/v1/help-requests/%s/claim", created.ID), volunteerToken, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second claim expected 409, got %d", resp.StatusCode)
	}

	// volunteer replies, seeker closes the loop
	resp = postJSON(t, ts.URL+fmt.Sprintf("/api/v1/help-requests/%s/replies", created.ID), volunteerToken, map[string]string{
		"replyType": "text",
		"text":      "it is the number 12",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("reply expected 201, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+fmt.Sprintf("/api/v1/help-requests/%s/feedback", created.ID), seekerToken, map[string]any{
		"resolved": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("feedback expected 201, got %d", resp.StatusCode)
	}
	var closed struct {
		Request struct {
			Status string `json:"status"`
		} `json:"request"`
	}
	decodeBody(t, resp, &closed)
	if closed.Request.Status != "resolved" {
		t.Fatalf("final status = %q, want resolved", closed.Request.Status)
	}

	// seeker notification feed carries the reply
	resp = getJSON(t, ts.URL+"/api/v1/notifications", seekerToken)
	var feed struct {
		Items []struct {
			Preview string `json:"preview"`
		} `json:"items"`
	}
	decodeBody(t, resp, &feed)
	if len(feed.Items) != 1 || feed.Items[0].Preview != "it is the number 12" {
		t.Fatalf("feed = %+v", feed)
	}
}

func TestUploadOverHTTP(t *testing.T) {
	ts := newTestServer(t, Config{})
	token := registerAndToken(t, ts.URL, "seeker@test.com", "seeker")

	resp := postJSON(t, ts.URL+"/api/v1/uploads/presign", token, map[string]any{
		"filename": "photo.jpg",
		"mimeType": "image/jpg",
		"size":     1024,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("presign expected 201, got %d", resp.StatusCode)
	}
	var presigned struct {
		FileID    string `json:"fileId"`
		UploadURL string `json:"uploadUrl"`
		Category  string `json:"category"`
	}
	decodeBody(t, resp, &presigned)
	if presigned.Category != "image" {
		t.Fatalf("category = %q", presigned.Category)
	}

	payload := []byte("fake image bytes")
	req, err := http.NewRequest(http.MethodPut, ts.URL+presigned.UploadURL, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "image/jpeg")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload expected 200, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = getJSON(t, ts.URL+presigned.UploadURL, token)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download expected 200, got %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(raw, payload) {
		t.Fatal("content changed between upload and download")
	}
}

func TestPresignRejectsOversizedDeclaration(t *testing.T) {
	ts := newTestServer(t, Config{})
	token := registerAndToken(t, ts.URL, "seeker@test.com", "seeker")

	resp := postJSON(t, ts.URL+"/api/v1/uploads/presign", token, map[string]any{
		"filename": "big.jpg",
		"mimeType": "image/jpeg",
		"size":     5<<20 + 1,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 one byte over the ceiling, got %d", resp.StatusCode)
	}
}

func TestRegisterRateLimit(t *testing.T) {
	redis := miniredis.RunT(t)
	ts := newTestServer(t, Config{
		RedisAddr:         redis.Addr(),
		RegisterPerMinute: 1,
		LoginPerMinute:    10,
	})

	resp := postJSON(t, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email": "a@test.com", "password": "password123", "role": "seeker",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register expected 201, got %d", resp.StatusCode)
	}

	resp = postJSON(t, ts.URL+"/api/v1/auth/register", "", map[string]string{
		"email": "b@test.com", "password": "password123", "role": "seeker",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second register expected 429, got %d", resp.StatusCode)
	}
}

func TestAIAssistPlaceholders(t *testing.T) {
	ts := newTestServer(t, Config{})
	token := registerAndToken(t, ts.URL, "seeker@test.com", "seeker")

	resp := postJSON(t, ts.URL+"/api/v1/ai-assist/transcribe", token, map[string]string{
		"voiceFileId": "vf-1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("transcribe expected 200, got %d", resp.StatusCode)
	}
	var transcription struct {
		Text string `json:"text"`
	}
	decodeBody(t, resp, &transcription)
	if transcription.Text == "" {
		t.Fatal("expected placeholder transcription text")
	}

	resp = postJSON(t, ts.URL+"/api/v1/ai-assist/synthesize", token, map[string]any{
		"text": "你好", "language": "zh-CN", "speed": 1.0,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("synthesize expected 200, got %d", resp.StatusCode)
	}
	var synthesis struct {
		DurationSeconds float64 `json:"duration_seconds"`
	}
	decodeBody(t, resp, &synthesis)
	if synthesis.DurationSeconds <= 0 {
		t.Fatalf("duration = %v", synthesis.DurationSeconds)
	}
}
