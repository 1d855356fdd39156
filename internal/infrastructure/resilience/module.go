package resilience

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"logalty-esign/internal/config"
)

func newExecutor(cfg *config.Config, breaker *CircuitBreaker, logger *zap.Logger) *Executor {
	return NewExecutor(breaker, cfg.Logalty.MaxRetries, logger)
}

var Module = fx.Module("resilience",
	fx.Provide(NewCircuitBreaker),
	fx.Provide(newExecutor),
)
