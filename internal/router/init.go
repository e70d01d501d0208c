package router

import (
	userapp "github.com/digitalguardian/backend/internal/application"
	"github.com/digitalguardian/backend/internal/container"
	pginfra "github.com/digitalguardian/backend/internal/infrastructure/postgres"
	handlers "github.com/digitalguardian/backend/internal/interface/http"
	"github.com/digitalguardian/backend/internal/router/modules"
)

func buildService() *userapp.Service {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	svc := userapp.NewService(repo, container.GetJWT(), container.GetLogger())
	svc.Redis = container.GetRedis()
	svc.ES = container.GetES()
	svc.ESUsersIndex = cfg.ESUsersIndex
	svc.GCS = container.GetGCS()
	svc.GCSBucket = cfg.GCSBucket
	svc.Pub = container.GetRabbitPub()
	svc.MailEnabled = cfg.MailSendEnabled
	svc.LeaderboardTTL = cfg.LeaderboardTTL
	return svc
}

// InitModules initializes all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	svc := buildService()
	logger := container.GetLogger()

	authHandler := handlers.NewAuthHandler(svc, logger)
	userHandler := handlers.NewUserHandler(svc, logger)

	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
