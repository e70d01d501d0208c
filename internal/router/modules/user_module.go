package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/digitalguardian/backend/internal/container"
	handlers "github.com/digitalguardian/backend/internal/interface/http"
	"github.com/digitalguardian/backend/internal/interface/middleware"
	"github.com/digitalguardian/backend/pkg/helpers"
)

// UserModule wires profile, points and leaderboard routes.
// Public: GET /api/leaderboard
// Protected: GET/PUT /api/profile, POST /api/profile/avatar, PUT /api/points,
// GET /api/users/search
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	leaderboardLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP())
	rg.GET("/leaderboard", leaderboardLimiter, m.Handler.Leaderboard)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID()))
	{
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)
		auth.PUT("/points", m.Handler.UpdatePoints)
		auth.GET("/users/search", m.Handler.Search)
	}
}
