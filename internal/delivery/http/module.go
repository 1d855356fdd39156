package http

import (
	"go.uber.org/fx"

	"logalty-esign/internal/delivery/http/handler"
	"logalty-esign/internal/delivery/http/router"
)

var Module = fx.Module("http",
	fx.Provide(
		handler.NewEnvelopeHandler,
		handler.NewHealthHandler,
		handler.NewLogHandler,
		router.NewRouter,
	),
)
