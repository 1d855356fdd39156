package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"logalty-esign/internal/config"
	"logalty-esign/internal/domain/entity"
	"logalty-esign/internal/domain/repository"
	"logalty-esign/internal/infrastructure/document"
	"logalty-esign/internal/infrastructure/httpclient"
	"logalty-esign/internal/infrastructure/registry"
)

// logaltyRepository implements repository.EnvelopePort against the Logalty
// signature-request API. Every operation resolves a credential first, goes
// through the fault-tolerance policy inside the HTTP client, and reflects the
// remote status through NormalizeRemoteStatus; Logalty stays authoritative.
type logaltyRepository struct {
	config   *config.Config
	client   httpclient.HTTPClient
	docPort  document.ContentPort
	registry *registry.EnvelopeRegistry
	logger   *zap.Logger
	now      func() time.Time
}

func NewLogaltyRepository(
	cfg *config.Config,
	client httpclient.HTTPClient,
	docPort document.ContentPort,
	reg *registry.EnvelopeRegistry,
	logger *zap.Logger,
) repository.EnvelopePort {
	return &logaltyRepository{
		config:   cfg,
		client:   client,
		docPort:  docPort,
		registry: reg,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *logaltyRepository) basePath() string {
	return "/api/" + r.config.Logalty.APIVersion + "/signature-requests"
}

func (r *logaltyRepository) Create(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error) {
	payload, err := r.buildSignatureRequest(envelope)
	if err != nil {
		return nil, err
	}

	var created entity.SignatureRequestCreated
	if err := r.client.Post(ctx, r.basePath(), payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create signature request: %w", err)
	}
	if created.ID == "" {
		return nil, repository.ErrEnvelopeCreation
	}

	localID := envelope.LocalID
	if localID == uuid.Nil {
		localID = uuid.New()
	}

	// The mapping is registered only now, with the remote id confirmed.
	r.registry.Put(localID, created.ID)

	r.logger.Info("Signature envelope created",
		zap.Stringer("local_id", localID),
		zap.String("remote_id", created.ID),
	)

	snapshot := *envelope
	snapshot.LocalID = localID
	snapshot.Provider = entity.ProviderLogalty
	snapshot.Status = entity.StatusDraft
	snapshot.RemoteID = created.ID
	snapshot.CreatedAt = r.now()

	return &snapshot, nil
}

func (r *logaltyRepository) Get(ctx context.Context, localID uuid.UUID) (*entity.SignatureEnvelope, error) {
	remoteID, ok := r.registry.RemoteID(localID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrEnvelopeNotFound, localID)
	}

	var detail entity.SignatureRequestDetail
	if err := r.client.Get(ctx, r.basePath()+"/"+remoteID, &detail); err != nil {
		return nil, fmt.Errorf("failed to get signature request %s: %w", remoteID, err)
	}

	return r.mapDetail(&detail, localID, remoteID), nil
}

// Update re-fetches the envelope; the Logalty API exposes no update call, so
// local changes are not transmitted upstream.
func (r *logaltyRepository) Update(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error) {
	r.logger.Debug("Update not supported by remote API, returning current state",
		zap.Stringer("local_id", envelope.LocalID),
	)
	return r.Get(ctx, envelope.LocalID)
}

// Delete removes the identifier mapping locally. The remote signature request
// is left untouched; the Logalty API exposes no delete call.
func (r *logaltyRepository) Delete(ctx context.Context, localID uuid.UUID) error {
	r.registry.Remove(localID)
	r.logger.Info("Signature envelope mapping removed", zap.Stringer("local_id", localID))
	return nil
}

func (r *logaltyRepository) Send(ctx context.Context, localID uuid.UUID, sentBy uuid.UUID) (*entity.SignatureEnvelope, error) {
	remoteID, ok := r.registry.RemoteID(localID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrEnvelopeNotFound, localID)
	}

	if err := r.client.Post(ctx, r.basePath()+"/"+remoteID+"/send", nil, nil); err != nil {
		return nil, fmt.Errorf("failed to send signature request %s: %w", remoteID, err)
	}

	r.logger.Info("Signature envelope sent",
		zap.Stringer("local_id", localID),
		zap.String("remote_id", remoteID),
		zap.Stringer("sent_by", sentBy),
	)

	// The send response carries no envelope state; the new status is
	// observed through a re-fetch.
	return r.Get(ctx, localID)
}

// Void re-fetches the envelope. The reason is accepted and logged but not
// transmitted; the Logalty API exposes no void call.
func (r *logaltyRepository) Void(ctx context.Context, localID uuid.UUID, reason string, voidedBy uuid.UUID) (*entity.SignatureEnvelope, error) {
	r.logger.Info("Void not supported by remote API, returning current state",
		zap.Stringer("local_id", localID),
		zap.String("reason", reason),
		zap.Stringer("voided_by", voidedBy),
	)
	return r.Get(ctx, localID)
}

func (r *logaltyRepository) ListByStatus(ctx context.Context, status entity.EnvelopeStatus, limit int) ([]*entity.SignatureEnvelope, error) {
	return []*entity.SignatureEnvelope{}, nil
}

func (r *logaltyRepository) ListByCreator(ctx context.Context, createdBy uuid.UUID, limit int) ([]*entity.SignatureEnvelope, error) {
	return []*entity.SignatureEnvelope{}, nil
}

func (r *logaltyRepository) ListBySender(ctx context.Context, sentBy uuid.UUID, limit int) ([]*entity.SignatureEnvelope, error) {
	return []*entity.SignatureEnvelope{}, nil
}

func (r *logaltyRepository) ListByProvider(ctx context.Context, provider entity.SignatureProvider, limit int) ([]*entity.SignatureEnvelope, error) {
	return []*entity.SignatureEnvelope{}, nil
}

func (r *logaltyRepository) buildSignatureRequest(envelope *entity.SignatureEnvelope) (*entity.SignatureRequestPayload, error) {
	cfg := &r.config.Logalty

	title := envelope.Title
	if title == "" {
		title = "Signature Request"
	}
	message := envelope.Description
	if message == "" {
		message = cfg.DefaultEmailMessage
	}

	payload := &entity.SignatureRequestPayload{
		Title:                      title,
		Message:                    message,
		SignatureType:              cfg.DefaultSignatureType,
		BiometricEnabled:           cfg.EnableBiometricSignature,
		SmsVerificationEnabled:     cfg.EnableSmsVerification,
		VideoIdentificationEnabled: cfg.EnableVideoIdentification,
	}

	for _, name := range envelope.Documents {
		content, filename, err := r.docPort.FetchContent(name)
		if err != nil {
			return nil, fmt.Errorf("failed to attach document %s: %w", name, err)
		}
		payload.Documents = append(payload.Documents, entity.AttachedDocument{
			Filename: filename,
			Content:  content,
		})
	}

	return payload, nil
}

func (r *logaltyRepository) mapDetail(detail *entity.SignatureRequestDetail, localID uuid.UUID, remoteID string) *entity.SignatureEnvelope {
	createdAt, err := time.Parse(time.RFC3339, detail.CreatedAt)
	if err != nil {
		createdAt = r.now()
	}

	return &entity.SignatureEnvelope{
		LocalID:     localID,
		Provider:    entity.ProviderLogalty,
		Title:       detail.Title,
		Description: detail.Message,
		Status:      entity.NormalizeRemoteStatus(detail.Status),
		RemoteID:    remoteID,
		CreatedAt:   createdAt,
	}
}
