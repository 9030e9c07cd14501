package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	// DatabaseURL selects the Postgres store. Leave empty to run on the
	// in-memory store (development and tests only).
	DatabaseURL string `yaml:"databaseURL"`

	// RedisAddr enables rate limiting on the auth endpoints. Leave
	// empty to run without a limiter.
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	JWTSecret             string `yaml:"jwtSecret"`
	AccessTokenTTLMinutes int    `yaml:"accessTokenTtlMinutes"`
	RefreshTokenTTLDays   int    `yaml:"refreshTokenTtlDays"`

	// StorageBackend is "disk" or "minio".
	StorageBackend string `yaml:"storageBackend"`
	UploadDir      string `yaml:"uploadDir"`
	MinioEndpoint  string `yaml:"minioEndpoint"`
	MinioAccessKey string `yaml:"minioAccessKey"`
	MinioSecretKey string `yaml:"minioSecretKey"`
	MinioBucket    string `yaml:"minioBucket"`
	MinioUseSSL    bool   `yaml:"minioUseSsl"`

	MaxImageMB        int64    `yaml:"maxImageMb"`
	MaxVoiceMB        int64    `yaml:"maxVoiceMb"`
	MaxVideoMB        int64    `yaml:"maxVideoMb"`
	AllowedImageTypes []string `yaml:"allowedImageTypes"`
	AllowedVoiceTypes []string `yaml:"allowedVoiceTypes"`
	AllowedVideoTypes []string `yaml:"allowedVideoTypes"`

	// AIBackend is "placeholder" or "openai".
	AIBackend         string `yaml:"aiBackend"`
	AIBaseURL         string `yaml:"aiBaseUrl"`
	AIAPIKey          string `yaml:"aiApiKey"`
	AITranscribeModel string `yaml:"aiTranscribeModel"`
	AIVisionModel     string `yaml:"aiVisionModel"`
	AITimeoutSeconds  int    `yaml:"aiTimeoutSeconds"`

	RegisterPerMinute int `yaml:"registerPerMinute"`
	LoginPerMinute    int `yaml:"loginPerMinute"`

	TrustedProxies []string `yaml:"trustedProxies"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := defaults()
	if path == "" {
		path = defaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SEEFORME_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}
	if v := os.Getenv("SEEFORME_ACCESS_TOKEN_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AccessTokenTTLMinutes = n
		}
	}
	if v := os.Getenv("SEEFORME_REFRESH_TOKEN_TTL_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RefreshTokenTTLDays = n
		}
	}
	if v := os.Getenv("SEEFORME_STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = v
	}
	if v := os.Getenv("SEEFORME_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = enabled
		}
	}
	if v := os.Getenv("SEEFORME_AI_BACKEND"); v != "" {
		cfg.AIBackend = v
	}
	if v := os.Getenv("SEEFORME_AI_BASE_URL"); v != "" {
		cfg.AIBaseURL = v
	}
	if v := os.Getenv("SEEFORME_AI_API_KEY"); v != "" {
		cfg.AIAPIKey = v
	}
	if v := os.Getenv("SEEFORME_AI_TRANSCRIBE_MODEL"); v != "" {
		cfg.AITranscribeModel = v
	}
	if v := os.Getenv("SEEFORME_AI_VISION_MODEL"); v != "" {
		cfg.AIVisionModel = v
	}
	if v := os.Getenv("SEEFORME_AI_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AITimeoutSeconds = n
		}
	}
	if v := os.Getenv("SEEFORME_REGISTER_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RegisterPerMinute = n
		}
	}
	if v := os.Getenv("SEEFORME_LOGIN_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LoginPerMinute = n
		}
	}
	if v := os.Getenv("SEEFORME_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitList(v)
	}
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() FileConfig {
	return FileConfig{
		Port:                  "8080",
		LogLevel:              "info",
		AccessTokenTTLMinutes: 60,
		RefreshTokenTTLDays:   7,
		StorageBackend:        "disk",
		UploadDir:             "uploads",
		MaxImageMB:            5,
		MaxVoiceMB:            10,
		MaxVideoMB:            50,
		AIBackend:             "placeholder",
		AITimeoutSeconds:      60,
		RegisterPerMinute:     10,
		LoginPerMinute:        20,
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return errors.New("config: jwtSecret is required (set in config.yaml or SEEFORME_JWT_SECRET)")
	}
	if cfg.AccessTokenTTLMinutes <= 0 {
		return errors.New("config: accessTokenTtlMinutes must be > 0")
	}
	if cfg.RefreshTokenTTLDays <= 0 {
		return errors.New("config: refreshTokenTtlDays must be > 0")
	}
	switch cfg.StorageBackend {
	case "disk":
		if cfg.UploadDir == "" {
			return errors.New("config: uploadDir is required when storageBackend=disk")
		}
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return errors.New("config: minioEndpoint and minioBucket are required when storageBackend=minio")
		}
	default:
		return fmt.Errorf("config: unknown storageBackend %q (want disk or minio)", cfg.StorageBackend)
	}
	if cfg.MaxImageMB <= 0 || cfg.MaxVoiceMB <= 0 || cfg.MaxVideoMB <= 0 {
		return errors.New("config: upload size limits must be > 0")
	}
	switch cfg.AIBackend {
	case "placeholder":
	case "openai":
		if cfg.AIBaseURL == "" {
			return errors.New("config: aiBaseUrl is required when aiBackend=openai")
		}
	default:
		return fmt.Errorf("config: unknown aiBackend %q (want placeholder or openai)", cfg.AIBackend)
	}
	if cfg.RegisterPerMinute < 0 || cfg.LoginPerMinute < 0 {
		return errors.New("config: rate limits must be >= 0")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
