package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digitalguardian/backend/internal/container"
	handlers "github.com/digitalguardian/backend/internal/interface/http"
	"github.com/digitalguardian/backend/internal/interface/middleware"
	"github.com/digitalguardian/backend/pkg/helpers"
)

// AuthModule wires the public auth endpoints.
// POST /api/signup, POST /api/signin, GET /api/verify, GET /api/avatars
type AuthModule struct {
	Handler *handlers.AuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath())
	signinLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath())
	verifyLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP())

	rg.POST("/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/signin", signinLimiter, m.Handler.Signin)
	rg.GET("/verify", verifyLimiter, m.Handler.Verify)
	rg.GET("/avatars", m.Handler.Avatars)
}
