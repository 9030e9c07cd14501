package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfgPath
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SEEFORME_JWT_SECRET", "env-secret")
	t.Setenv("SEEFORME_ACCESS_TOKEN_TTL_MINUTES", "30")
	t.Setenv("SEEFORME_AI_BACKEND", "openai")
	t.Setenv("SEEFORME_AI_BASE_URL", "http://localhost:8000/v1")
	t.Setenv("SEEFORME_TRUSTED_PROXIES", "10.0.0.1, 10.0.0.2")

	cfgPath := writeConfig(t, `
port: "8080"
logLevel: "info"
jwtSecret: "file-secret"
uploadDir: "uploads"
`)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.JWTSecret != "env-secret" {
		t.Fatalf("jwtSecret = %q, want env override", cfg.JWTSecret)
	}
	if cfg.AccessTokenTTLMinutes != 30 {
		t.Fatalf("accessTokenTtlMinutes = %d, want 30", cfg.AccessTokenTTLMinutes)
	}
	if cfg.AIBackend != "openai" {
		t.Fatalf("aiBackend = %q, want openai", cfg.AIBackend)
	}
	if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "10.0.0.2" {
		t.Fatalf("trustedProxies = %v", cfg.TrustedProxies)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfgPath := writeConfig(t, `
jwtSecret: "secret"
`)
	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port = %q, want default 8080", cfg.Port)
	}
	if cfg.StorageBackend != "disk" || cfg.UploadDir != "uploads" {
		t.Fatalf("storage defaults wrong: %q %q", cfg.StorageBackend, cfg.UploadDir)
	}
	if cfg.MaxImageMB != 5 || cfg.MaxVoiceMB != 10 || cfg.MaxVideoMB != 50 {
		t.Fatalf("size defaults wrong: %d %d %d", cfg.MaxImageMB, cfg.MaxVoiceMB, cfg.MaxVideoMB)
	}
}

func TestValidateConfig(t *testing.T) {
	base := defaults()
	base.JWTSecret = "secret"

	cfg := base
	cfg.JWTSecret = ""
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("validateConfig() expected error for missing jwtSecret")
	}

	cfg = base
	cfg.StorageBackend = "s3"
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("validateConfig() expected error for unknown storageBackend")
	}

	cfg = base
	cfg.StorageBackend = "minio"
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("validateConfig() expected error for minio without endpoint")
	}

	cfg = base
	cfg.AIBackend = "openai"
	if err := validateConfig(cfg); err == nil {
		t.Fatalf("validateConfig() expected error for openai without aiBaseUrl")
	}
}
