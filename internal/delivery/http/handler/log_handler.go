package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"logalty-esign/internal/domain/entity"
	"logalty-esign/internal/infrastructure/repository"
)

type LogHandler struct {
	logs   repository.RequestLogRepository
	logger *zap.Logger
}

func NewLogHandler(logs repository.RequestLogRepository, logger *zap.Logger) *LogHandler {
	return &LogHandler{
		logs:   logs,
		logger: logger,
	}
}

// GetLogs returns the most recent outbound request logs
func (h *LogHandler) GetLogs(c *fiber.Ctx) error {
	ctx := c.UserContext()

	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	logs, err := h.logs.Recent(ctx, limit)
	if err != nil {
		h.logger.Error("Failed to query request logs", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(
			entity.NewErrorResponse("INTERNAL_ERROR", err.Error()),
		)
	}

	return c.JSON(entity.NewSuccessResponse(logs, "Request logs retrieved successfully"))
}
