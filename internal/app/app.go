package app

import (
	"log/slog"
	"time"

	"seeforme/internal/media"
	"seeforme/internal/store"
	"seeforme/pkg/ai"
	"seeforme/pkg/auth"
)

// App wires the business services together: account handling, the help
// request lifecycle, uploads, moderation, and the assist backends.
type App struct {
	store  store.Store
	media  *media.Service
	tokens *auth.TokenManager
	assist ai.Assist
	logger *slog.Logger
	now    func() time.Time
}

type Config struct {
	Store  store.Store
	Media  *media.Service
	Tokens *auth.TokenManager
	Assist ai.Assist
	Logger *slog.Logger
}

func New(cfg Config) *App {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	assist := cfg.Assist
	if assist == nil {
		assist = ai.NewDegrading(nil, nil, nil, logger)
	}
	return &App{
		store:  cfg.Store,
		media:  cfg.Media,
		tokens: cfg.Tokens,
		assist: assist,
		logger: logger,
		now:    time.Now,
	}
}

// Media exposes the upload service for the HTTP layer.
func (a *App) Media() *media.Service { return a.media }

// Tokens exposes the token manager for the HTTP layer's auth middleware.
func (a *App) Tokens() *auth.TokenManager { return a.tokens }
