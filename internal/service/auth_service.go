package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"userauth/api/internal/apperr"
	"userauth/api/internal/models"
	"userauth/api/internal/repository"
	"userauth/api/internal/security"
)

const (
	msgFieldsRequired     = "All fields are required."
	msgEmailTaken         = "User with email already exists."
	msgRegisterReadBack   = "Server error while registering the user."
	msgLoginFieldsMissing = "Email or password is required."
	msgUserNotFound       = "User not found."
	msgBadCredentials     = "Email or password is incorrect."
	msgNotLoggedIn        = "Something went wrong, please ensure that you are logged in."
	msgResetUserNotFound  = "User not found with this email."
	msgInvalidResetKey    = "Invalid unique key."
	msgPasswordRequired   = "Password is required."
	msgPasswordSave       = "Error saving the password."
	msgTokenIssue         = "Something went wrong while generating refresh and access token."
	msgUnauthorized       = "Unauthorized request."
	msgInvalidRefresh     = "Invalid refresh token."
	msgRefreshUsed        = "Refresh token is expired or used."
)

// ErrNotLoggedIn reports a protected call that reached the service without
// an authenticated user.
var ErrNotLoggedIn = apperr.Internal(msgNotLoggedIn)

// UserStore is the credential store the orchestrator runs against.
type UserStore interface {
	Create(ctx context.Context, input models.NewUser) (string, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	SetRefreshToken(ctx context.Context, id string, token string, expiresAt time.Time) error
	ClearRefreshToken(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id string, password string) error
	ClearExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

type TokenIssuer interface {
	IssueAccessToken(user models.User) (string, error)
	IssueRefreshToken(userID string) (string, time.Time, error)
	ParseRefreshToken(token string) (*security.RefreshClaims, error)
}

type AuthService struct {
	users  UserStore
	tokens TokenIssuer
	log    zerolog.Logger
}

func NewAuthService(users UserStore, tokens TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type SessionResult struct {
	User models.PublicUser
	TokenPair
}

type RegisterInput struct {
	Email    string
	FullName string
	Password string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.PublicUser, error) {
	email := normalizeEmail(input.Email)
	fullName := strings.TrimSpace(input.FullName)
	if email == "" || fullName == "" || strings.TrimSpace(input.Password) == "" {
		return models.PublicUser{}, apperr.Validation(http.StatusBadRequest, msgFieldsRequired)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return models.PublicUser{}, apperr.Conflict(msgEmailTaken)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return models.PublicUser{}, fmt.Errorf("lookup email: %w", err)
	}

	id, err := s.users.Create(ctx, models.NewUser{
		Email:    email,
		FullName: fullName,
		Password: input.Password,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return models.PublicUser{}, apperr.Conflict(msgEmailTaken)
		}
		return models.PublicUser{}, fmt.Errorf("create user: %w", err)
	}

	created, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", id).Msg("read back registered user failed")
		return models.PublicUser{}, apperr.Internal(msgRegisterReadBack)
	}

	s.log.Info().Str("user_id", id).Msg("user registered")
	return created.Public(), nil
}

type LoginInput struct {
	Email    string
	Password string
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (SessionResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return SessionResult{}, apperr.Validation(http.StatusNotFound, msgLoginFieldsMissing)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return SessionResult{}, apperr.NotFound(msgUserNotFound)
		}
		return SessionResult{}, fmt.Errorf("lookup email: %w", err)
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return SessionResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return SessionResult{}, apperr.Authentication(http.StatusNotFound, msgBadCredentials)
	}

	return s.startSession(ctx, user.ID)
}

// Refresh rotates the pair for the holder of the user's current refresh token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (SessionResult, error) {
	if refreshToken == "" {
		return SessionResult{}, apperr.Authentication(http.StatusUnauthorized, msgUnauthorized)
	}

	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return SessionResult{}, apperr.Authentication(http.StatusUnauthorized, msgInvalidRefresh)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return SessionResult{}, apperr.Authentication(http.StatusUnauthorized, msgInvalidRefresh)
		}
		return SessionResult{}, fmt.Errorf("load user: %w", err)
	}

	if !user.HasRefreshToken() || subtle.ConstantTimeCompare([]byte(refreshToken), []byte(*user.RefreshToken)) != 1 {
		return SessionResult{}, apperr.Authentication(http.StatusUnauthorized, msgRefreshUsed)
	}

	return s.startSession(ctx, user.ID)
}

// Logout trusts userID to come from the authenticated request context.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	s.log.Info().Str("user_id", userID).Msg("user logged out")
	return nil
}

func (s *AuthService) FetchCurrentUser(current *models.User) (models.PublicUser, error) {
	if current == nil || current.ID == "" {
		return models.PublicUser{}, ErrNotLoggedIn
	}
	return current.Public(), nil
}

type ResetPasswordInput struct {
	Email     string
	UniqueKey string
	Password  string
}

func (s *AuthService) ResetPassword(ctx context.Context, input ResetPasswordInput) (models.MinimalUser, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.MinimalUser{}, apperr.NotFound(msgResetUserNotFound)
		}
		return models.MinimalUser{}, fmt.Errorf("lookup email: %w", err)
	}

	if !security.ResetKeyMatches(input.UniqueKey, user.UniqueKey) {
		return models.MinimalUser{}, apperr.Authorization(http.StatusBadRequest, msgInvalidResetKey)
	}

	if strings.TrimSpace(input.Password) == "" {
		return models.MinimalUser{}, apperr.Validation(http.StatusBadRequest, msgPasswordRequired)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, input.Password); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("save reset password failed")
		return models.MinimalUser{}, apperr.Internal(msgPasswordSave)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password reset")
	return user.Minimal(), nil
}

func (s *AuthService) startSession(ctx context.Context, userID string) (SessionResult, error) {
	pair, err := s.issueSession(ctx, userID)
	if err != nil {
		return SessionResult{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("load user: %w", err)
	}

	return SessionResult{User: user.Public(), TokenPair: pair}, nil
}

// issueSession mints a pair and stores the refresh token, replacing any
// previous one. Failures are logged and reported as a generic internal
// error so store details never reach the caller.
func (s *AuthService) issueSession(ctx context.Context, userID string) (TokenPair, error) {
	fail := func(err error, msg string) (TokenPair, error) {
		s.log.Error().Err(err).Str("user_id", userID).Msg(msg)
		return TokenPair{}, apperr.Internal(msgTokenIssue)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fail(err, "load user for token issue failed")
	}

	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return fail(err, "issue access token failed")
	}

	refreshToken, expiresAt, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return fail(err, "issue refresh token failed")
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return fail(err, "store refresh token failed")
	}

	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
