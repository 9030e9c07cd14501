package media

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"seeforme/pkg/domain"
)

// mimeAliases maps known client-side MIME spellings onto their
// canonical type. The table is total: anything not listed maps to
// itself and is then judged by classification alone.
var mimeAliases = map[string]string{
	"image/jpg":  "image/jpeg",
	"audio/m4a":  "audio/x-m4a",
	"audio/mp4a": "audio/x-m4a",
}

// NormalizeMIME lowercases, strips parameters, and resolves aliases.
func NormalizeMIME(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(normalized, ";"); i >= 0 {
		normalized = strings.TrimSpace(normalized[:i])
	}
	if canonical, ok := mimeAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// Classify buckets a normalized MIME type into exactly one category.
func (c Config) Classify(mimeType string) (domain.FileCategory, bool) {
	normalized := NormalizeMIME(mimeType)
	switch {
	case contains(c.AllowedImageTypes, normalized):
		return domain.CategoryImage, true
	case contains(c.AllowedVoiceTypes, normalized):
		return domain.CategoryVoice, true
	case contains(c.AllowedVideoTypes, normalized):
		return domain.CategoryVideo, true
	}
	return "", false
}

// MaxBytes returns the upload ceiling for a category.
func (c Config) MaxBytes(category domain.FileCategory) int64 {
	switch category {
	case domain.CategoryImage:
		return c.MaxImageBytes
	case domain.CategoryVoice:
		return c.MaxVoiceBytes
	case domain.CategoryVideo:
		return c.MaxVideoBytes
	}
	return 0
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// sniffMIME detects the MIME type from content. It reports no
// detection when the sniffer cannot do better than a generic binary
// type.
func sniffMIME(raw []byte) string {
	detected := mimetype.Detect(raw)
	normalized := NormalizeMIME(detected.String())
	if normalized == "" || normalized == "application/octet-stream" {
		return ""
	}
	return normalized
}

// extensionFor returns the canonical file extension (with dot) for a
// MIME type, or "" when none is known.
func extensionFor(mimeType string) string {
	if ext := mimetype.Lookup(NormalizeMIME(mimeType)); ext != nil && ext.Extension() != "" {
		return ext.Extension()
	}
	exts, err := mime.ExtensionsByType(NormalizeMIME(mimeType))
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}

// safeFilename strips path components and falls back to a generic name.
func safeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "upload.bin"
	}
	return name
}

// normalizeFilename swaps the extension so it agrees with the final
// MIME type; the display filename keeps whatever the client sent.
func normalizeFilename(name, mimeType string) string {
	name = safeFilename(name)
	want := extensionFor(mimeType)
	if want == "" {
		return name
	}
	ext := filepath.Ext(name)
	if strings.EqualFold(ext, want) {
		return name
	}
	return strings.TrimSuffix(name, ext) + want
}
