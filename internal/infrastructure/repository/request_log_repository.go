package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"logalty-esign/internal/domain/entity"
	"logalty-esign/internal/infrastructure/database"
)

// RequestLogRepository persists and queries outbound request logs
type RequestLogRepository interface {
	Save(ctx context.Context, log *entity.RequestLog) error
	Recent(ctx context.Context, limit int) ([]*entity.RequestLog, error)
}

type requestLogRepository struct {
	db     *database.Database
	logger *zap.Logger
}

func NewRequestLogRepository(db *database.Database, logger *zap.Logger) RequestLogRepository {
	return &requestLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *requestLogRepository) Save(ctx context.Context, log *entity.RequestLog) error {
	query := `
		INSERT INTO request_logs (endpoint, method, request_body, response_body, status_code, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.DB.ExecContext(ctx, query,
		log.Endpoint,
		log.Method,
		log.RequestBody,
		log.ResponseBody,
		log.StatusCode,
		log.Duration,
		log.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to save request log",
			zap.String("endpoint", log.Endpoint),
			zap.Error(err),
		)
		return fmt.Errorf("failed to save request log: %w", err)
	}

	return nil
}

func (r *requestLogRepository) Recent(ctx context.Context, limit int) ([]*entity.RequestLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `
		SELECT id, endpoint, method, request_body, response_body, status_code, duration_ms, created_at
		FROM request_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query request logs: %w", err)
	}
	defer rows.Close()

	logs := make([]*entity.RequestLog, 0, limit)
	for rows.Next() {
		var log entity.RequestLog
		if err := rows.Scan(
			&log.ID,
			&log.Endpoint,
			&log.Method,
			&log.RequestBody,
			&log.ResponseBody,
			&log.StatusCode,
			&log.Duration,
			&log.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan request log: %w", err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
