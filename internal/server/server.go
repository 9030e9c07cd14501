package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"seeforme/internal/app"
	"seeforme/internal/ratelimit"
	"seeforme/internal/util"
	"seeforme/pkg/apperr"
	"seeforme/pkg/domain"
)

const apiPrefix = "/api/v1"

// Config wires required dependencies for the HTTP server.
type Config struct {
	App    *app.App
	Logger *slog.Logger

	// RedisAddr enables the auth endpoint rate limiters; empty leaves
	// them off.
	RedisAddr         string
	RedisPassword     string
	RegisterPerMinute int
	LoginPerMinute    int

	TrustedProxies []string
}

// Server exposes the public HTTP API.
type Server struct {
	app    *app.App
	logger *slog.Logger
	mux    *http.ServeMux

	registerLimiter *ratelimit.FixedWindowLimiter
	loginLimiter    *ratelimit.FixedWindowLimiter
	proxies         *util.TrustedProxies
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	proxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("parse trusted proxies: %w", err)
	}
	s := &Server{
		app:     cfg.App,
		logger:  logger,
		mux:     http.NewServeMux(),
		proxies: proxies,
	}
	if cfg.RedisAddr != "" {
		registerLimit := cfg.RegisterPerMinute
		if registerLimit <= 0 {
			registerLimit = 10
		}
		loginLimit := cfg.LoginPerMinute
		if loginLimit <= 0 {
			loginLimit = 20
		}
		s.registerLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "seeforme:ratelimit:register", registerLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init register limiter: %w", err)
		}
		s.loginLimiter, err = ratelimit.NewRedisFixedWindowLimiter(
			cfg.RedisAddr, cfg.RedisPassword, "seeforme:ratelimit:login", loginLimit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init login limiter: %w", err)
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped in the shared
// middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithSecurityHeaders(util.WithCORS(util.WithRequestID(util.WithRequestLog(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc(apiPrefix+"/auth/register", s.handleRegister)
	s.mux.HandleFunc(apiPrefix+"/auth/login", s.handleLogin)
	s.mux.HandleFunc(apiPrefix+"/auth/refresh", s.handleRefresh)

	// profile & settings
	s.mux.Handle(apiPrefix+"/users/me", s.authenticated(s.handleMe))
	s.mux.Handle(apiPrefix+"/users/me/settings", s.authenticated(s.handleSettings))

	// help requests and the lifecycle subtree
	s.mux.Handle(apiPrefix+"/help-requests", s.authenticated(s.handleRequests))
	s.mux.Handle(apiPrefix+"/help-requests/hall", s.authenticated(s.handleHall))
	s.mux.Handle(apiPrefix+"/help-requests/mine", s.authenticated(s.handleMine))
	s.mux.Handle(apiPrefix+"/help-requests/", s.authenticated(s.handleRequestSubtree))

	// uploads
	s.mux.Handle(apiPrefix+"/uploads/presign", s.authenticated(s.handlePresign))
	s.mux.Handle(apiPrefix+"/uploads/", s.authenticated(s.handleUploadSubtree))

	// notifications & moderation
	s.mux.Handle(apiPrefix+"/notifications", s.authenticated(s.handleNotifications))
	s.mux.Handle(apiPrefix+"/moderation/report", s.authenticated(s.handleReport))
	s.mux.Handle(apiPrefix+"/moderation/block", s.authenticated(s.handleBlock))

	// AI assist
	s.mux.Handle(apiPrefix+"/ai-assist/transcribe", s.authenticated(s.handleTranscribe))
	s.mux.Handle(apiPrefix+"/ai-assist/synthesize", s.authenticated(s.handleSynthesize))
	s.mux.Handle(apiPrefix+"/image-analysis/describe", s.authenticated(s.handleDescribe))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// caller is the authenticated identity extracted from the access token.
type caller struct {
	ID   string
	Role domain.UserRole
}

type authHandler func(http.ResponseWriter, *http.Request, caller)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.audit(r, "authorize", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or malformed bearer token")
			return
		}
		userID, role, err := s.app.Tokens().VerifyAccess(token)
		if err != nil {
			s.audit(r, "authorize", "fail", "reason", "invalid_token")
			writeError(w, http.StatusUnauthorized, "unauthorized", "access token is invalid or expired")
			return
		}
		next(w, r, caller{ID: userID, Role: domain.UserRole(role)})
	})
}

// requireRole gates a handler body on the caller's role; it reports
// whether the request may proceed.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, c caller, role domain.UserRole) bool {
	if c.Role == role {
		return true
	}
	s.audit(r, "authorize", "fail", "reason", "wrong_role", "user_id", c.ID)
	writeError(w, http.StatusForbidden, "forbidden", fmt.Sprintf("%s role required", role))
	return false
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.proxies),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		s.logger.Info("security_event", logAttrs...)
		return
	}
	s.logger.Warn("security_event", logAttrs...)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, s.proxies)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, "rate_limited", msg)
	return false
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20)).Decode(dst)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"error": msg, "code": code})
}

// writeAppError maps a domain error onto the HTTP status taxonomy.
// Internal failures are logged and reduced to a generic message.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	code := apperr.CodeOf(err)
	status := statusForKind(kind)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "method", r.Method, "error", err)
		writeError(w, status, "internal_error", "internal error")
		return
	}
	var appErr *apperr.Error
	msg := "request failed"
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	writeError(w, status, code, msg)
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidPayload, apperr.KindInvalidState,
		apperr.KindUnsupportedMedia, apperr.KindPayloadTooLarge, apperr.KindMimeMismatch:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
