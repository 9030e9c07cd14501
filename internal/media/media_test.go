package media

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"seeforme/internal/storage"
	"seeforme/internal/store"
	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

// pngHeader is a minimal valid PNG signature plus IHDR chunk start, enough
// for content sniffing to identify the payload as image/png.
var pngHeader = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00,
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	blobs, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return NewService(DefaultConfig(), store.NewMemoryStore(), blobs, nil)
}

func TestNormalizeMIME(t *testing.T) {
	cases := map[string]string{
		"image/jpg":                "image/jpeg",
		"IMAGE/JPEG; charset=utf8": "image/jpeg",
		"audio/m4a":                "audio/x-m4a",
		" video/mp4 ":              "video/mp4",
		"application/pdf":          "application/pdf",
	}
	for in, want := range cases {
		if got := NormalizeMIME(in); got != want {
			t.Errorf("NormalizeMIME(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReserveRejectsUnsupportedType(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Reserve("u1", "doc.pdf", "application/pdf", 1024)
	if apperr.KindOf(err) != apperr.KindUnsupportedMedia {
		t.Fatalf("expected unsupported media error, got %v", err)
	}
}

func TestReserveSizeCeilingBoundary(t *testing.T) {
	svc := newTestService(t)
	max := svc.Config().MaxImageBytes

	if _, err := svc.Reserve("u1", "edge.jpg", "image/jpeg", max); err != nil {
		t.Fatalf("size exactly at the ceiling should pass: %v", err)
	}
	_, err := svc.Reserve("u1", "over.jpg", "image/jpeg", max+1)
	if apperr.KindOf(err) != apperr.KindPayloadTooLarge {
		t.Fatalf("one byte over the ceiling should fail, got %v", err)
	}
}

func TestUploadRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reserved, err := svc.Reserve("u1", "photo.jpg", "image/jpg", int64(len(pngHeader)))
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if reserved.MimeType != "image/jpeg" {
		t.Fatalf("expected alias normalization at reserve, got %q", reserved.MimeType)
	}
	if reserved.Category != domain.CategoryImage {
		t.Fatalf("category = %q, want image", reserved.Category)
	}

	stored, err := svc.StoreContent(ctx, reserved.ID, "u1", "", pngHeader, "")
	if err != nil {
		t.Fatalf("StoreContent: %v", err)
	}
	if stored.MimeType != "image/png" {
		t.Fatalf("expected sniffed type to win within the category, got %q", stored.MimeType)
	}
	if !strings.HasSuffix(stored.StoragePath, ".png") {
		t.Fatalf("expected storage key extension to follow the final type, got %q", stored.StoragePath)
	}

	rc, file, err := svc.ReadContent(ctx, reserved.ID)
	if err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(raw, pngHeader) {
		t.Fatal("content changed between store and read")
	}
	if file.Size != int64(len(pngHeader)) {
		t.Fatalf("expected recorded size %d, got %d", len(pngHeader), file.Size)
	}
	if file.Category != reserved.Category {
		t.Fatalf("category changed across phases: %q -> %q", reserved.Category, file.Category)
	}
}

func TestStoreContentSecondWriteWins(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reserved, err := svc.Reserve("u1", "note.mp3", "audio/mpeg", 16)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, err := svc.StoreContent(ctx, reserved.ID, "u1", "", []byte("first payload"), "audio/mpeg"); err != nil {
		t.Fatalf("first StoreContent: %v", err)
	}
	if _, err := svc.StoreContent(ctx, reserved.ID, "u1", "", []byte("second payload"), "audio/mpeg"); err != nil {
		t.Fatalf("second StoreContent: %v", err)
	}

	rc, _, err := svc.ReadContent(ctx, reserved.ID)
	if err != nil {
		t.Fatalf("ReadContent: %v", err)
	}
	defer rc.Close()
	raw, _ := io.ReadAll(rc)
	if string(raw) != "second payload" {
		t.Fatalf("expected the second payload only, got %q", raw)
	}
}

func TestStoreContentRejectsForeignCaller(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reserved, err := svc.Reserve("u1", "photo.jpg", "image/jpeg", 16)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	_, err = svc.StoreContent(ctx, reserved.ID, "u2", "", []byte("data"), "image/jpeg")
	if apperr.KindOf(err) != apperr.KindForbidden {
		t.Fatalf("expected forbidden for a non-owner, got %v", err)
	}
}

func TestStoreContentMimeMismatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	reserved, err := svc.Reserve("u1", "photo.jpg", "image/jpeg", 16)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	_, err = svc.StoreContent(ctx, reserved.ID, "u1", "", []byte("not an image"), "audio/mpeg")
	if apperr.KindOf(err) != apperr.KindMimeMismatch {
		t.Fatalf("expected mime mismatch, got %v", err)
	}
}

func TestStoreContentActualSizeCeiling(t *testing.T) {
	svc := newTestService(t)
	svc.cfg.MaxImageBytes = 8
	ctx := context.Background()

	// Declared size is honest, the actual payload is not.
	reserved, err := svc.Reserve("u1", "photo.jpg", "image/jpeg", 4)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	_, err = svc.StoreContent(ctx, reserved.ID, "u1", "", bytes.Repeat([]byte("x"), 9), "image/jpeg")
	if apperr.KindOf(err) != apperr.KindPayloadTooLarge {
		t.Fatalf("expected payload too large for oversized content, got %v", err)
	}
}

func TestReadContentMissing(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.ReadContent(ctx, "no-such-id"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}

	// Reserved but never uploaded.
	reserved, err := svc.Reserve("u1", "photo.jpg", "image/jpeg", 16)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if _, _, err := svc.ReadContent(ctx, reserved.ID); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found before content upload, got %v", err)
	}
}

func TestContentURL(t *testing.T) {
	if got := ContentURL("abc"); got != "/api/v1/uploads/abc/content" {
		t.Fatalf("unexpected content url %q", got)
	}
}

func TestStoreContentFilenameOverride(t *testing.T) {
	svc := newTestService(t)

	reserved, err := svc.Reserve("u1", "reserved-name.jpg", "image/jpeg", 64)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	stored, err := svc.StoreContent(context.Background(), reserved.ID, "u1", "actual-name.jpg", []byte("jpeg bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("StoreContent: %v", err)
	}
	if stored.Filename != "actual-name.jpg" {
		t.Fatalf("filename = %q, want the uploaded name", stored.Filename)
	}
	if !strings.Contains(stored.StoragePath, "actual-name") {
		t.Fatalf("storage path %q should use the uploaded name", stored.StoragePath)
	}
}

func TestDefaultClassification(t *testing.T) {
	cfg := DefaultConfig()
	accepted := map[string]domain.FileCategory{
		"image/jpeg":      domain.CategoryImage,
		"image/heic":      domain.CategoryImage,
		"image/heif":      domain.CategoryImage,
		"audio/mp4":       domain.CategoryVoice,
		"audio/x-wav":     domain.CategoryVoice,
		"audio/m4a":       domain.CategoryVoice,
		"video/quicktime": domain.CategoryVideo,
	}
	for mimeType, want := range accepted {
		got, ok := cfg.Classify(mimeType)
		if !ok || got != want {
			t.Fatalf("Classify(%q) = %q, %v; want %q", mimeType, got, ok, want)
		}
	}
	for _, mimeType := range []string{"image/gif", "audio/ogg", "application/pdf"} {
		if _, ok := cfg.Classify(mimeType); ok {
			t.Fatalf("Classify(%q) should not match any category", mimeType)
		}
	}
}
