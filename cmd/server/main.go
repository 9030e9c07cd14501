package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"seeforme/internal/app"
	"seeforme/internal/config"
	"seeforme/internal/media"
	"seeforme/internal/server"
	"seeforme/internal/storage"
	"seeforme/internal/store"
	"seeforme/internal/util"
	"seeforme/pkg/ai"
	"seeforme/pkg/auth"
)

func main() {
	cfg, err := config.Load(os.Getenv("SEEFORME_CONFIG"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var st store.Store
	if cfg.DatabaseURL != "" {
		gormStore, err := store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		st = gormStore
		logger.Info("using postgres store")
	} else {
		st = store.NewMemoryStore()
		logger.Warn("no databaseURL configured, using in-memory store")
	}

	var blobs storage.BlobStore
	switch cfg.StorageBackend {
	case "minio":
		blobs, err = storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("failed to init minio storage: %v", err)
		}
		logger.Info("using minio storage", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	default:
		blobs, err = storage.NewDiskStore(cfg.UploadDir)
		if err != nil {
			log.Fatalf("failed to init disk storage: %v", err)
		}
		logger.Info("using disk storage", "dir", cfg.UploadDir)
	}

	tokens, err := auth.NewTokenManager(cfg.JWTSecret,
		time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenTTLDays)*24*time.Hour)
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}

	mediaService := media.NewService(mediaConfig(cfg), st, blobs, logger)

	appCore := app.New(app.Config{
		Store:  st,
		Media:  mediaService,
		Tokens: tokens,
		Assist: buildAssist(cfg, logger),
		Logger: logger,
	})

	httpServer, err := server.New(server.Config{
		App:               appCore,
		Logger:            logger,
		RedisAddr:         cfg.RedisAddr,
		RedisPassword:     cfg.RedisPassword,
		RegisterPerMinute: cfg.RegisterPerMinute,
		LoginPerMinute:    cfg.LoginPerMinute,
		TrustedProxies:    cfg.TrustedProxies,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

func mediaConfig(cfg config.FileConfig) media.Config {
	mc := media.DefaultConfig()
	if cfg.MaxImageMB > 0 {
		mc.MaxImageBytes = cfg.MaxImageMB << 20
	}
	if cfg.MaxVoiceMB > 0 {
		mc.MaxVoiceBytes = cfg.MaxVoiceMB << 20
	}
	if cfg.MaxVideoMB > 0 {
		mc.MaxVideoBytes = cfg.MaxVideoMB << 20
	}
	if len(cfg.AllowedImageTypes) > 0 {
		mc.AllowedImageTypes = cfg.AllowedImageTypes
	}
	if len(cfg.AllowedVoiceTypes) > 0 {
		mc.AllowedVoiceTypes = cfg.AllowedVoiceTypes
	}
	if len(cfg.AllowedVideoTypes) > 0 {
		mc.AllowedVideoTypes = cfg.AllowedVideoTypes
	}
	return mc
}

// buildAssist wires the configured AI backend; the placeholder keeps
// the assist endpoints functional when no backend is reachable.
func buildAssist(cfg config.FileConfig, logger *slog.Logger) ai.Assist {
	if cfg.AIBackend == "openai" {
		compat := ai.NewOpenAICompat(cfg.AIBaseURL, cfg.AIAPIKey,
			cfg.AITranscribeModel, cfg.AIVisionModel,
			time.Duration(cfg.AITimeoutSeconds)*time.Second)
		return ai.NewDegrading(compat, nil, compat, logger)
	}
	return ai.NewDegrading(nil, nil, nil, logger)
}
