package main

import (
	"go.uber.org/fx"

	"logalty-esign/internal/config"
	deliveryhttp "logalty-esign/internal/delivery/http"
	"logalty-esign/internal/infrastructure/database"
	"logalty-esign/internal/infrastructure/document"
	"logalty-esign/internal/infrastructure/httpclient"
	"logalty-esign/internal/infrastructure/logger"
	"logalty-esign/internal/infrastructure/oauth2"
	"logalty-esign/internal/infrastructure/redis"
	"logalty-esign/internal/infrastructure/registry"
	"logalty-esign/internal/infrastructure/repository"
	"logalty-esign/internal/infrastructure/resilience"
	"logalty-esign/internal/server"
	"logalty-esign/internal/usecase"
)

func main() {
	fx.New(
		// Configuration
		config.Module,

		// Infrastructure
		logger.Module,
		database.Module,
		redis.Module,
		oauth2.Module,
		resilience.Module,
		registry.Module,
		document.Module,
		httpclient.Module,
		repository.Module,

		// Business Logic
		usecase.Module,

		// Delivery
		deliveryhttp.Module,

		// Server
		server.Module,
	).Run()
}
