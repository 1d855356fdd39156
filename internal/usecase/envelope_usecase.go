package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"logalty-esign/internal/config"
	"logalty-esign/internal/domain/entity"
	domainrepo "logalty-esign/internal/domain/repository"
	"logalty-esign/internal/infrastructure/document"
	"logalty-esign/internal/infrastructure/redis"
)

const (
	// Redis key prefix for envelope document tracking
	envelopeKeyPrefix = "logalty:envelope:"

	// mappingTTL bounds how long a document association is kept; signature
	// requests older than this are long terminal
	mappingTTL = 30 * 24 * time.Hour
)

// DocumentMapping associates an envelope with its attached document names so
// files can be moved through the lifecycle folders on send and completion
type DocumentMapping struct {
	LocalID   string   `json:"local_id"`
	RemoteID  string   `json:"remote_id"`
	Documents []string `json:"documents"`
}

type EnvelopeUsecase interface {
	Create(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error)
	Get(ctx context.Context, localID uuid.UUID) (*entity.SignatureEnvelope, error)
	Update(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error)
	Delete(ctx context.Context, localID uuid.UUID) error
	Send(ctx context.Context, localID uuid.UUID, sentBy uuid.UUID) (*entity.SignatureEnvelope, error)
	Void(ctx context.Context, localID uuid.UUID, reason string, voidedBy uuid.UUID) (*entity.SignatureEnvelope, error)
	ListByStatus(ctx context.Context, status entity.EnvelopeStatus, limit int) ([]*entity.SignatureEnvelope, error)
}

type envelopeUsecase struct {
	config      *config.Config
	providers   *domainrepo.ProviderRegistry
	docPort     document.ContentPort
	redisClient *redis.RedisClient
	logger      *zap.Logger
}

func NewEnvelopeUsecase(
	cfg *config.Config,
	providers *domainrepo.ProviderRegistry,
	docPort document.ContentPort,
	redisClient *redis.RedisClient,
	logger *zap.Logger,
) EnvelopeUsecase {
	return &envelopeUsecase{
		config:      cfg,
		providers:   providers,
		docPort:     docPort,
		redisClient: redisClient,
		logger:      logger,
	}
}

// port resolves the active provider from configuration
func (u *envelopeUsecase) port() (domainrepo.EnvelopePort, error) {
	return u.providers.Port(entity.SignatureProvider(u.config.Esign.Provider))
}

func (u *envelopeUsecase) Create(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error) {
	u.logger.Info("Creating signature envelope",
		zap.String("title", envelope.Title),
		zap.Int("documents", len(envelope.Documents)),
	)

	port, err := u.port()
	if err != nil {
		return nil, err
	}

	created, err := port.Create(ctx, envelope)
	if err != nil {
		u.logger.Error("Failed to create envelope", zap.Error(err))
		return nil, err
	}

	if len(envelope.Documents) > 0 {
		mapping := &DocumentMapping{
			LocalID:   created.LocalID.String(),
			RemoteID:  created.RemoteID,
			Documents: envelope.Documents,
		}
		key := envelopeKeyPrefix + created.LocalID.String()
		if err := u.redisClient.SetJSON(ctx, key, mapping, mappingTTL); err != nil {
			u.logger.Warn("Failed to store document mapping",
				zap.Stringer("local_id", created.LocalID),
				zap.Error(err),
			)
		}
	}

	return created, nil
}

func (u *envelopeUsecase) Get(ctx context.Context, localID uuid.UUID) (*entity.SignatureEnvelope, error) {
	port, err := u.port()
	if err != nil {
		return nil, err
	}

	envelope, err := port.Get(ctx, localID)
	if err != nil {
		return nil, err
	}

	if envelope.Status == entity.StatusCompleted {
		u.finishDocuments(ctx, localID)
	}

	return envelope, nil
}

func (u *envelopeUsecase) Update(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error) {
	port, err := u.port()
	if err != nil {
		return nil, err
	}
	return port.Update(ctx, envelope)
}

func (u *envelopeUsecase) Delete(ctx context.Context, localID uuid.UUID) error {
	port, err := u.port()
	if err != nil {
		return err
	}

	if err := port.Delete(ctx, localID); err != nil {
		return err
	}

	if err := u.redisClient.Del(ctx, envelopeKeyPrefix+localID.String()); err != nil {
		u.logger.Warn("Failed to delete document mapping",
			zap.Stringer("local_id", localID),
			zap.Error(err),
		)
	}
	return nil
}

func (u *envelopeUsecase) Send(ctx context.Context, localID uuid.UUID, sentBy uuid.UUID) (*entity.SignatureEnvelope, error) {
	u.logger.Info("Sending signature envelope",
		zap.Stringer("local_id", localID),
		zap.Stringer("sent_by", sentBy),
	)

	port, err := u.port()
	if err != nil {
		return nil, err
	}

	envelope, err := port.Send(ctx, localID, sentBy)
	if err != nil {
		u.logger.Error("Failed to send envelope", zap.Error(err))
		return nil, err
	}

	// Attached files leave the ready folder once the request is out for
	// signature. Best effort: a failed move never fails the send.
	if mapping := u.documentMapping(ctx, localID); mapping != nil {
		for _, name := range mapping.Documents {
			filename, err := u.docPort.FindReadyFilename(name)
			if err != nil {
				u.logger.Warn("Document missing from ready folder",
					zap.String("name", name), zap.Error(err))
				continue
			}
			if err := u.docPort.MoveToProgress(filename); err != nil {
				u.logger.Warn("Failed to move document to progress",
					zap.String("filename", filename), zap.Error(err))
			}
		}
	}

	return envelope, nil
}

func (u *envelopeUsecase) Void(ctx context.Context, localID uuid.UUID, reason string, voidedBy uuid.UUID) (*entity.SignatureEnvelope, error) {
	port, err := u.port()
	if err != nil {
		return nil, err
	}
	return port.Void(ctx, localID, reason, voidedBy)
}

func (u *envelopeUsecase) ListByStatus(ctx context.Context, status entity.EnvelopeStatus, limit int) ([]*entity.SignatureEnvelope, error) {
	port, err := u.port()
	if err != nil {
		return nil, err
	}
	return port.ListByStatus(ctx, status, limit)
}

func (u *envelopeUsecase) documentMapping(ctx context.Context, localID uuid.UUID) *DocumentMapping {
	var mapping DocumentMapping
	if err := u.redisClient.GetJSON(ctx, envelopeKeyPrefix+localID.String(), &mapping); err != nil {
		return nil
	}
	return &mapping
}

// finishDocuments moves an envelope's files from progress to finish once the
// envelope is observed completed, then drops the mapping
func (u *envelopeUsecase) finishDocuments(ctx context.Context, localID uuid.UUID) {
	mapping := u.documentMapping(ctx, localID)
	if mapping == nil {
		return
	}

	for _, name := range mapping.Documents {
		filename, err := u.docPort.FindProgressFilename(name)
		if err != nil {
			continue
		}
		if err := u.docPort.MoveToFinish(filename); err != nil {
			u.logger.Warn("Failed to move document to finish",
				zap.String("filename", filename), zap.Error(err))
		}
	}

	if err := u.redisClient.Del(ctx, envelopeKeyPrefix+localID.String()); err != nil {
		u.logger.Warn("Failed to delete document mapping",
			zap.Stringer("local_id", localID), zap.Error(err))
	}
}
