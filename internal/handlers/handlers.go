package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"userauth/api/internal/config"
	"userauth/api/internal/middleware"
	"userauth/api/internal/security"
	"userauth/api/internal/service"
)

type HandlerSet struct {
	log         zerolog.Logger
	cfg         *config.AppConfig
	authService *service.AuthService
	tokens      *security.TokenIssuer
	users       service.UserStore
	cache       *redis.Client
}

// NewHandlerSet wires the auth service over users. cache may be nil, in
// which case health reports it as disabled.
func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, users service.UserStore, cache *redis.Client) HandlerSet {
	tokens := security.NewTokenIssuer(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.JWTAccessTTL,
		cfg.Security.JWTRefreshTTL,
	)

	return HandlerSet{
		log:         log,
		cfg:         cfg,
		authService: service.NewAuthService(users, tokens, log),
		tokens:      tokens,
		users:       users,
		cache:       cache,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	router.GET("/healthz", h.Health)

	users := router.Group("/v1/users")
	{
		users.POST("/register", h.RegisterUser)
		users.POST("/login", h.LoginUser)
		users.POST("/refresh-token", h.RefreshToken)
		users.POST("/reset-password", h.ResetPassword)

		protected := users.Group("")
		protected.Use(middleware.Auth(h.tokens, h.users))
		protected.POST("/logout", h.LogoutUser)
		protected.GET("/me", h.CurrentUser)
	}
}
