package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"seeforme/internal/storage"
	"seeforme/internal/store"
	"seeforme/internal/util"
	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

// Config carries the ingestion policy: which MIME types each category
// accepts and how large an upload in that category may be. It is set
// once at construction and never mutated afterwards.
type Config struct {
	AllowedImageTypes []string
	AllowedVoiceTypes []string
	AllowedVideoTypes []string

	MaxImageBytes int64
	MaxVoiceBytes int64
	MaxVideoBytes int64
}

// DefaultConfig returns the stock ingestion policy.
func DefaultConfig() Config {
	return Config{
		AllowedImageTypes: []string{"image/jpeg", "image/png", "image/webp", "image/heic", "image/heif"},
		AllowedVoiceTypes: []string{"audio/mp4", "audio/mpeg", "audio/wav", "audio/x-wav", "audio/x-m4a", "audio/aac", "audio/webm"},
		AllowedVideoTypes: []string{"video/mp4", "video/quicktime", "video/webm"},
		MaxImageBytes:     5 << 20,
		MaxVoiceBytes:     10 << 20,
		MaxVideoBytes:     50 << 20,
	}
}

// Service owns the two-phase upload flow: Reserve creates the metadata
// record, StoreContent attaches the bytes, ReadContent streams them
// back.
type Service struct {
	cfg    Config
	store  store.Store
	blobs  storage.BlobStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(cfg Config, st store.Store, blobs storage.BlobStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{cfg: cfg, store: st, blobs: blobs, logger: logger, now: time.Now}
}

// Config returns the active ingestion policy.
func (s *Service) Config() Config { return s.cfg }

// ContentURL builds the public download path for an upload.
func ContentURL(fileID string) string {
	return "/api/v1/uploads/" + fileID + "/content"
}

// Reserve validates the declared type and size and creates a metadata
// record with no content yet.
func (s *Service) Reserve(userID, filename, mimeType string, declaredSize int64) (domain.UploadedFile, error) {
	normalized := NormalizeMIME(mimeType)
	category, ok := s.cfg.Classify(normalized)
	if !ok {
		return domain.UploadedFile{}, apperr.Newf(apperr.KindUnsupportedMedia, "unsupported_media_type",
			"file type %q is not accepted", normalized)
	}
	if declaredSize < 0 {
		return domain.UploadedFile{}, apperr.New(apperr.KindInvalidPayload, "invalid_size", "declared size must not be negative")
	}
	if max := s.cfg.MaxBytes(category); declaredSize > max {
		return domain.UploadedFile{}, apperr.Newf(apperr.KindPayloadTooLarge, "payload_too_large",
			"%s uploads are limited to %d bytes", category, max)
	}

	file := domain.UploadedFile{
		ID:        util.NewID(),
		UserID:    userID,
		Filename:  safeFilename(filename),
		MimeType:  normalized,
		Size:      declaredSize,
		Category:  category,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.CreateUpload(file); err != nil {
		return domain.UploadedFile{}, apperr.Wrap(apperr.KindInternal, "upload_reserve_failed", "could not reserve upload", err)
	}
	s.logger.Info("upload reserved",
		"file_id", file.ID, "user_id", userID, "category", category, "mime", normalized, "declared_size", declaredSize)
	return file, nil
}

// StoreContent attaches raw bytes to a reserved upload. The real size
// is enforced against the category ceiling regardless of what was
// declared, and a content type detected from the bytes overrides the
// declared one unless it lands in a different category. A non-empty
// filename replaces the one captured at reserve time.
func (s *Service) StoreContent(ctx context.Context, fileID, callerID, filename string, raw []byte, declaredType string) (domain.UploadedFile, error) {
	file, found, err := s.store.GetUpload(fileID)
	if err != nil {
		return domain.UploadedFile{}, apperr.Wrap(apperr.KindInternal, "upload_lookup_failed", "could not load upload record", err)
	}
	if !found {
		return domain.UploadedFile{}, apperr.New(apperr.KindNotFound, "upload_not_found", "upload record not found")
	}
	if file.UserID != callerID {
		return domain.UploadedFile{}, apperr.New(apperr.KindForbidden, "upload_forbidden", "upload belongs to another user")
	}
	if max := s.cfg.MaxBytes(file.Category); int64(len(raw)) > max {
		return domain.UploadedFile{}, apperr.Newf(apperr.KindPayloadTooLarge, "payload_too_large",
			"%s uploads are limited to %d bytes", file.Category, max)
	}

	if filename != "" {
		file.Filename = safeFilename(filename)
	}

	detected := NormalizeMIME(declaredType)
	if detected == "" || detected == "application/octet-stream" {
		detected = sniffMIME(raw)
	}
	if detected != "" {
		if category, ok := s.cfg.Classify(detected); ok {
			if category != file.Category {
				return domain.UploadedFile{}, apperr.Newf(apperr.KindMimeMismatch, "mime_mismatch",
					"content type %q does not match reserved category %s", detected, file.Category)
			}
			file.MimeType = detected
		}
	}

	previousPath := file.StoragePath
	file.StoragePath = s.storagePath(file, raw)
	file.Size = int64(len(raw))
	if err := s.blobs.Put(ctx, file.StoragePath, raw, file.MimeType); err != nil {
		return domain.UploadedFile{}, apperr.Wrap(apperr.KindInternal, "upload_write_failed", "could not persist upload content", err)
	}
	if err := s.store.UpdateUpload(file); err != nil {
		return domain.UploadedFile{}, apperr.Wrap(apperr.KindInternal, "upload_update_failed", "could not record upload content", err)
	}
	if previousPath != "" && previousPath != file.StoragePath {
		if err := s.blobs.Delete(ctx, previousPath); err != nil {
			s.logger.Warn("could not remove superseded upload content", "file_id", file.ID, "error", err)
		}
	}
	s.logger.Info("upload stored",
		"file_id", file.ID, "user_id", callerID, "mime", file.MimeType, "size", file.Size)
	return file, nil
}

// ReadContent opens the stored bytes for an upload. When the recorded
// MIME type is ambiguous it is re-derived from the content and written
// back so later reads see the corrected value.
func (s *Service) ReadContent(ctx context.Context, fileID string) (io.ReadCloser, domain.UploadedFile, error) {
	file, found, err := s.store.GetUpload(fileID)
	if err != nil {
		return nil, domain.UploadedFile{}, apperr.Wrap(apperr.KindInternal, "upload_lookup_failed", "could not load upload record", err)
	}
	if !found || file.StoragePath == "" {
		return nil, domain.UploadedFile{}, apperr.New(apperr.KindNotFound, "upload_not_found", "upload content not found")
	}
	rc, err := s.blobs.Open(ctx, file.StoragePath)
	if err != nil {
		return nil, domain.UploadedFile{}, apperr.Wrap(apperr.KindNotFound, "upload_not_found", "upload content is not available", err)
	}

	if file.MimeType == "" || file.MimeType == "application/octet-stream" {
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, domain.UploadedFile{}, apperr.Wrap(apperr.KindInternal, "upload_read_failed", "could not read upload content", err)
		}
		if detected := sniffMIME(raw); detected != "" {
			file.MimeType = detected
			if err := s.store.UpdateUpload(file); err != nil {
				s.logger.Warn("could not persist re-derived mime type", "file_id", file.ID, "error", err)
			}
		}
		return io.NopCloser(bytes.NewReader(raw)), file, nil
	}
	return rc, file, nil
}

// storagePath derives a deterministic key from the owner, upload date,
// record id, and a short digest of the content, so re-uploads of the
// same record land on distinct keys per payload.
func (s *Service) storagePath(file domain.UploadedFile, raw []byte) string {
	sum := sha256.Sum256(raw)
	name := normalizeFilename(file.Filename, file.MimeType)
	return fmt.Sprintf("%s/%s/%s-%s-%s",
		file.UserID, s.now().UTC().Format("20060102"), file.ID, hex.EncodeToString(sum[:4]), name)
}
