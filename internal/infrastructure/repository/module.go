package repository

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"logalty-esign/internal/config"
	"logalty-esign/internal/domain/entity"
	domainrepo "logalty-esign/internal/domain/repository"
	"logalty-esign/internal/infrastructure/httpclient"
)

// newProviderRegistry builds the registration table. Providers register
// explicitly here; the active one is selected by config at the usecase level.
func newProviderRegistry(cfg *config.Config, logalty domainrepo.EnvelopePort, logger *zap.Logger) *domainrepo.ProviderRegistry {
	reg := domainrepo.NewProviderRegistry()
	reg.Register(entity.ProviderLogalty, logalty)

	logger.Info("Signature providers registered",
		zap.String("active", cfg.Esign.Provider),
	)

	return reg
}

// provideRequestLogSaver exposes the repository under the interface the HTTP
// client consumes
func provideRequestLogSaver(repo RequestLogRepository) httpclient.RequestLogSaver {
	return repo
}

var Module = fx.Module("repository",
	fx.Provide(NewLogaltyRepository),
	fx.Provide(newProviderRegistry),
	fx.Provide(NewRequestLogRepository),
	fx.Provide(provideRequestLogSaver),
)
