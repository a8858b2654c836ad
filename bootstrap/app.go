package bootstrap

import (
	"go_lecture_backend/config"
	"go_lecture_backend/pkg/logging"
)

type App struct {
	Cfg            *config.Config
	Infrastructure *Infrastructure
	Repositories   *Repositories
	Services       *Services
	Handlers       *Handlers
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Cfg: cfg}
	infra, err := NewInfrastructure(cfg)
	if err != nil {
		logging.Logger.Error("fail NewInfrastructure", "error", err)
		return nil, err
	}
	app.Infrastructure = infra

	repos := NewRepositories(infra.DB)
	app.Repositories = repos

	services := NewServices(cfg, repos, infra)
	app.Services = services

	app.Handlers = NewHandlers(cfg, services)

	return app, nil
}

func (a *App) Shutdown() error {
	if a == nil {
		return nil
	}
	if a.Infrastructure != nil {
		if err := a.Infrastructure.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
