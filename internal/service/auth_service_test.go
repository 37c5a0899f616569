package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userauth/api/internal/apperr"
	"userauth/api/internal/models"
	"userauth/api/internal/repository"
	"userauth/api/internal/security"
)

type failingTokenStore struct {
	*repository.MemoryUserRepository
}

func (f failingTokenStore) SetRefreshToken(ctx context.Context, id string, token string, expiresAt time.Time) error {
	return errors.New("connection reset by peer")
}

func newTestService(t *testing.T) (*AuthService, *repository.MemoryUserRepository, *security.TokenIssuer) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	tokens := security.NewTokenIssuer("access-secret", "refresh-secret", 15*time.Minute, time.Hour)
	return NewAuthService(users, tokens, zerolog.Nop()), users, tokens
}

func assertAppErr(t *testing.T, err error, status int, message string) {
	t.Helper()
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected *apperr.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, message, appErr.Message)
}

func register(t *testing.T, svc *AuthService, email, password string) models.PublicUser {
	t.Helper()
	user, err := svc.Register(context.Background(), RegisterInput{Email: email, FullName: "Ann", Password: password})
	require.NoError(t, err)
	return user
}

func TestRegister(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()

	user := register(t, svc, " Ann@Example.com ", "s3cret")
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "Ann", user.FullName)
	assert.NotEmpty(t, user.UniqueKey)

	stored, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.False(t, stored.HasRefreshToken())
}

func TestRegister_Validation(t *testing.T) {
	svc, users, _ := newTestService(t)

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{name: "blank email", input: RegisterInput{Email: "  ", FullName: "Ann", Password: "p"}},
		{name: "blank name", input: RegisterInput{Email: "a@x.com", FullName: "", Password: "p"}},
		{name: "blank password", input: RegisterInput{Email: "a@x.com", FullName: "Ann", Password: " "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.input)
			assertAppErr(t, err, http.StatusBadRequest, "All fields are required.")

			_, err = users.FindByEmail(context.Background(), tt.input.Email)
			assert.ErrorIs(t, err, repository.ErrUserNotFound)
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc, "ann@example.com", "p1")

	_, err := svc.Register(context.Background(), RegisterInput{Email: "ANN@example.com", FullName: "Other", Password: "p2"})
	assertAppErr(t, err, http.StatusConflict, "User with email already exists.")
}

func TestLogin(t *testing.T) {
	svc, users, tokens := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "ann@example.com", "s3cret")

	result, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, registered.ID, result.User.ID)
	require.NotEmpty(t, result.AccessToken)
	require.NotEmpty(t, result.RefreshToken)

	access, err := tokens.ParseAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, access.UserID)
	assert.Equal(t, "ann@example.com", access.Email)

	stored, err := users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	require.True(t, stored.HasRefreshToken())
	assert.Equal(t, result.RefreshToken, *stored.RefreshToken)
}

func TestLogin_Failures(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "ann@example.com", "s3cret")

	session, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   LoginInput
		message string
	}{
		{name: "missing email", input: LoginInput{Password: "s3cret"}, message: "Email or password is required."},
		{name: "missing password", input: LoginInput{Email: "ann@example.com"}, message: "Email or password is required."},
		{name: "unknown email", input: LoginInput{Email: "bob@example.com", Password: "s3cret"}, message: "User not found."},
		{name: "wrong password", input: LoginInput{Email: "ann@example.com", Password: "nope"}, message: "Email or password is incorrect."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Login(ctx, tt.input)
			assertAppErr(t, err, http.StatusNotFound, tt.message)
			assert.Empty(t, result.AccessToken)
			assert.Empty(t, result.RefreshToken)

			stored, err := users.GetByID(ctx, registered.ID)
			require.NoError(t, err)
			require.True(t, stored.HasRefreshToken())
			assert.Equal(t, session.RefreshToken, *stored.RefreshToken)
		})
	}
}

func TestLogin_SecondLoginReplacesRefreshToken(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "ann@example.com", "s3cret")

	first, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)
	second, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	stored, err := users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, second.RefreshToken, *stored.RefreshToken)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	assertAppErr(t, err, http.StatusUnauthorized, "Refresh token is expired or used.")
}

func TestLogin_ConcurrentLeavesOneStoredToken(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "ann@example.com", "s3cret")

	const n = 4
	results := make([]SessionResult, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret"})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	wg.Wait()

	stored, err := users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	require.True(t, stored.HasRefreshToken())

	matches := 0
	for _, res := range results {
		if res.RefreshToken == *stored.RefreshToken {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestLogin_StoreFailureIsMasked(t *testing.T) {
	users := repository.NewMemoryUserRepository()
	tokens := security.NewTokenIssuer("access-secret", "refresh-secret", time.Minute, time.Hour)
	svc := NewAuthService(failingTokenStore{users}, tokens, zerolog.Nop())
	register(t, svc, "ann@example.com", "s3cret")

	_, err := svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "s3cret"})
	assertAppErr(t, err, http.StatusInternalServerError, "Something went wrong while generating refresh and access token.")
	assert.NotContains(t, err.Error(), "connection reset")
}

func TestRefresh(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "ann@example.com", "s3cret")

	login, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, rotated.User.ID)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	stored, err := users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.Equal(t, rotated.RefreshToken, *stored.RefreshToken)

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assertAppErr(t, err, http.StatusUnauthorized, "Refresh token is expired or used.")
}

func TestRefresh_Rejects(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "")
	assertAppErr(t, err, http.StatusUnauthorized, "Unauthorized request.")

	_, err = svc.Refresh(ctx, "not-a-jwt")
	assertAppErr(t, err, http.StatusUnauthorized, "Invalid refresh token.")

	orphan, _, err := tokens.IssueRefreshToken("ghost")
	require.NoError(t, err)
	_, err = svc.Refresh(ctx, orphan)
	assertAppErr(t, err, http.StatusUnauthorized, "Invalid refresh token.")
}

func TestLogout(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "ann@example.com", "s3cret")

	login, err := svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, registered.ID))

	stored, err := users.GetByID(ctx, registered.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasRefreshToken())

	_, err = svc.Refresh(ctx, login.RefreshToken)
	assertAppErr(t, err, http.StatusUnauthorized, "Refresh token is expired or used.")

	require.NoError(t, svc.Logout(ctx, registered.ID))
}

func TestFetchCurrentUser(t *testing.T) {
	svc, users, _ := newTestService(t)
	registered := register(t, svc, "ann@example.com", "s3cret")

	stored, err := users.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)

	got, err := svc.FetchCurrentUser(&stored)
	require.NoError(t, err)
	assert.Equal(t, registered, got)

	_, err = svc.FetchCurrentUser(nil)
	assertAppErr(t, err, http.StatusInternalServerError, "Something went wrong, please ensure that you are logged in.")
}

func TestResetPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	registered := register(t, svc, "ann@example.com", "old-pass")

	minimal, err := svc.ResetPassword(ctx, ResetPasswordInput{
		Email:     "ann@example.com",
		UniqueKey: registered.UniqueKey,
		Password:  "new-pass",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MinimalUser{ID: registered.ID, FullName: "Ann", Email: "ann@example.com"}, minimal)

	_, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "old-pass"})
	assertAppErr(t, err, http.StatusNotFound, "Email or password is incorrect.")

	_, err = svc.Login(ctx, LoginInput{Email: "ann@example.com", Password: "new-pass"})
	require.NoError(t, err)
}

func TestResetPassword_Failures(t *testing.T) {
	svc, _, _ := newTestService(t)
	registered := register(t, svc, "ann@example.com", "old-pass")

	tests := []struct {
		name    string
		input   ResetPasswordInput
		status  int
		message string
	}{
		{
			name:    "unknown email",
			input:   ResetPasswordInput{Email: "bob@example.com", UniqueKey: registered.UniqueKey, Password: "x"},
			status:  http.StatusNotFound,
			message: "User not found with this email.",
		},
		{
			name:    "wrong key",
			input:   ResetPasswordInput{Email: "ann@example.com", UniqueKey: "wrong", Password: "x"},
			status:  http.StatusBadRequest,
			message: "Invalid unique key.",
		},
		{
			name:    "empty key",
			input:   ResetPasswordInput{Email: "ann@example.com", Password: "x"},
			status:  http.StatusBadRequest,
			message: "Invalid unique key.",
		},
		{
			name:    "blank password",
			input:   ResetPasswordInput{Email: "ann@example.com", UniqueKey: registered.UniqueKey, Password: ""},
			status:  http.StatusBadRequest,
			message: "Password is required.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ResetPassword(context.Background(), tt.input)
			assertAppErr(t, err, tt.status, tt.message)

			_, err = svc.Login(context.Background(), LoginInput{Email: "ann@example.com", Password: "old-pass"})
			require.NoError(t, err)
		})
	}
}
