package service

import (
	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/models"
)

type Services struct {
	SessionService SessionService
	AppInfoService AppInfoService
}

func NewServices(syncer Syncer, state StateStore, cfg config.App, buildInfo models.AppBuildInfo, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg, buildInfo, logger)
	if err != nil {
		return nil, err
	}

	return &Services{
		SessionService: NewSessionService(syncer, state, logger),
		AppInfoService: appInfo,
	}, nil
}
