package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"userauth/api/internal/apperr"
	"userauth/api/internal/middleware"
	"userauth/api/internal/models"
	"userauth/api/internal/response"
	"userauth/api/internal/service"
)

var (
	errRegisterFields = apperr.Validation(http.StatusBadRequest, "All fields are required.")
	errLoginFields    = apperr.Validation(http.StatusNotFound, "Email or password is required.")
)

type registerRequest struct {
	Email    string `json:"email" binding:"notblank"`
	FullName string `json:"fullname" binding:"notblank"`
	Password string `json:"password" binding:"notblank"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"notblank"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type resetPasswordRequest struct {
	Email     string `json:"email"`
	UniqueKey string `json:"uniqueKey"`
	Password  string `json:"password"`
}

type sessionResponse struct {
	User         models.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type minimalUserResponse struct {
	User models.MinimalUser `json:"user"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := bindJSON(c, &req, errRegisterFields, errInvalidBody); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Email:    req.Email,
		FullName: req.FullName,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.JSONSuccess(c, http.StatusCreated, user, "User registered successfully.")
}

func (h HandlerSet) LoginUser(c *gin.Context) {
	var req loginRequest
	if err := bindJSON(c, &req, errLoginFields, errLoginFields); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendSession(c, result, "User Logged In successfully.")
}

// RefreshToken reads the refresh token from its cookie, falling back to
// the JSON body.
func (h HandlerSet) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshTokenCookie)
	if err != nil || token == "" {
		var req refreshRequest
		if err := bindJSON(c, &req, errInvalidBody, errInvalidBody); err != nil {
			_ = c.Error(err)
			return
		}
		token = req.RefreshToken
	}

	result, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.sendSession(c, result, "Access token refreshed.")
}

func (h HandlerSet) LogoutUser(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		_ = c.Error(service.ErrNotLoggedIn)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), user.ID); err != nil {
		_ = c.Error(err)
		return
	}

	h.clearSessionCookies(c)
	response.JSONSuccess(c, http.StatusOK, gin.H{}, "User logged out successfully.")
}

func (h HandlerSet) CurrentUser(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	public, err := h.authService.FetchCurrentUser(user)
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.JSONSuccess(c, http.StatusOK, public, "User fetched successfully.")
}

func (h HandlerSet) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := bindJSON(c, &req, errInvalidBody, errInvalidBody); err != nil {
		_ = c.Error(err)
		return
	}

	user, err := h.authService.ResetPassword(c.Request.Context(), service.ResetPasswordInput{
		Email:     req.Email,
		UniqueKey: req.UniqueKey,
		Password:  req.Password,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.JSONSuccess(c, http.StatusOK, minimalUserResponse{User: user}, "Password updated successfully.")
}

func (h HandlerSet) sendSession(c *gin.Context, result service.SessionResult, message string) {
	h.setSessionCookies(c, result.AccessToken, result.RefreshToken)
	response.JSONSuccess(c, http.StatusOK, sessionResponse{
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, message)
}
