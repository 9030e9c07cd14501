package app

import (
	"errors"
	"strings"

	"seeforme/internal/store"
	"seeforme/internal/util"
	"seeforme/pkg/apperr"
	"seeforme/pkg/auth"
	"seeforme/pkg/domain"
)

// RegisterInput carries a new account. At least one of phone or email
// is required; the role is fixed for the life of the account.
type RegisterInput struct {
	Phone    string          `json:"phone"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

// TokenPair is the issued credential set.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Role         string `json:"role"`
}

// Register creates a user with default accessibility settings and
// issues a token pair.
func (a *App) Register(in RegisterInput) (domain.User, TokenPair, error) {
	phone := strings.TrimSpace(in.Phone)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if phone == "" && email == "" {
		return domain.User{}, TokenPair{}, apperr.New(apperr.KindInvalidPayload, "account_required", "phone or email is required")
	}
	if in.Role != domain.RoleSeeker && in.Role != domain.RoleVolunteer {
		return domain.User{}, TokenPair{}, apperr.Newf(apperr.KindInvalidPayload, "invalid_role", "role must be seeker or volunteer, got %q", in.Role)
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.User{}, TokenPair{}, apperr.Wrap(apperr.KindInvalidPayload, "weak_password", err.Error(), err)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, TokenPair{}, apperr.Wrap(apperr.KindInternal, "hash_failed", "could not process password", err)
	}

	user := domain.User{
		ID:           util.NewID(),
		Role:         in.Role,
		Phone:        phone,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.store.CreateUser(user, domain.DefaultSettings(user.ID)); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return domain.User{}, TokenPair{}, apperr.New(apperr.KindConflict, "account_exists", "phone or email already registered")
		}
		return domain.User{}, TokenPair{}, apperr.Wrap(apperr.KindInternal, "register_failed", "could not create account", err)
	}

	pair, err := a.issueTokens(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	a.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, pair, nil
}

// Login authenticates by phone or email.
func (a *App) Login(account, password string) (domain.User, TokenPair, error) {
	account = strings.TrimSpace(account)
	user, found, err := a.store.GetUserByAccount(account)
	if err != nil {
		return domain.User{}, TokenPair{}, apperr.Wrap(apperr.KindInternal, "login_failed", "could not load account", err)
	}
	if !found || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, TokenPair{}, apperr.New(apperr.KindUnauthorized, "invalid_credentials", "account or password is incorrect")
	}
	if !user.IsActive {
		return domain.User{}, TokenPair{}, apperr.New(apperr.KindForbidden, "account_disabled", "account is disabled")
	}
	pair, err := a.issueTokens(user)
	if err != nil {
		return domain.User{}, TokenPair{}, err
	}
	return user, pair, nil
}

// Refresh exchanges a refresh token for a fresh pair.
func (a *App) Refresh(refreshToken string) (TokenPair, error) {
	userID, _, err := a.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindUnauthorized, "invalid_token", "refresh token is invalid or expired", err)
	}
	user, found, err := a.store.GetUserByID(userID)
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "refresh_failed", "could not load account", err)
	}
	if !found || !user.IsActive {
		return TokenPair{}, apperr.New(apperr.KindUnauthorized, "invalid_token", "account is no longer available")
	}
	return a.issueTokens(user)
}

func (a *App) issueTokens(user domain.User) (TokenPair, error) {
	access, refresh, err := a.tokens.IssuePair(user.ID, string(user.Role))
	if err != nil {
		return TokenPair{}, apperr.Wrap(apperr.KindInternal, "token_issue_failed", "could not issue tokens", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(a.tokens.AccessTTL().Seconds()),
		Role:         string(user.Role),
	}, nil
}
