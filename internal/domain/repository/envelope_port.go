package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"logalty-esign/internal/domain/entity"
)

// EnvelopePort is the capability set a signature provider integration exposes.
// Implementations own the remote identifier mapping and return canonical
// envelope snapshots; the remote system stays authoritative for status.
type EnvelopePort interface {
	// Create registers the envelope with the provider and returns a snapshot
	// in DRAFT state carrying the assigned identifiers.
	Create(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error)

	// Get fetches the envelope and reflects the provider's current status.
	Get(ctx context.Context, localID uuid.UUID) (*entity.SignatureEnvelope, error)

	// Update re-fetches the envelope. The provider API has no update call, so
	// local changes are not transmitted upstream.
	Update(ctx context.Context, envelope *entity.SignatureEnvelope) (*entity.SignatureEnvelope, error)

	// Delete removes the local identifier mapping. The remote request is not
	// deleted; the provider API has no delete call.
	Delete(ctx context.Context, localID uuid.UUID) error

	// Send asks the provider to dispatch the envelope to its signers and
	// returns the re-fetched snapshot.
	Send(ctx context.Context, localID uuid.UUID, sentBy uuid.UUID) (*entity.SignatureEnvelope, error)

	// Void re-fetches the envelope. The void reason is accepted and logged
	// but not transmitted; the provider API has no void call.
	Void(ctx context.Context, localID uuid.UUID, reason string, voidedBy uuid.UUID) (*entity.SignatureEnvelope, error)

	ListByStatus(ctx context.Context, status entity.EnvelopeStatus, limit int) ([]*entity.SignatureEnvelope, error)
	ListByCreator(ctx context.Context, createdBy uuid.UUID, limit int) ([]*entity.SignatureEnvelope, error)
	ListBySender(ctx context.Context, sentBy uuid.UUID, limit int) ([]*entity.SignatureEnvelope, error)
	ListByProvider(ctx context.Context, provider entity.SignatureProvider, limit int) ([]*entity.SignatureEnvelope, error)
}

// ProviderRegistry is the registration table mapping provider identifiers to
// their ports. Providers register explicitly at startup; there is no implicit
// discovery.
type ProviderRegistry struct {
	mu    sync.RWMutex
	ports map[entity.SignatureProvider]EnvelopePort
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		ports: make(map[entity.SignatureProvider]EnvelopePort),
	}
}

// Register binds a port to a provider identifier, replacing any previous binding
func (r *ProviderRegistry) Register(provider entity.SignatureProvider, port EnvelopePort) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ports[provider] = port
}

// Port returns the port registered for the provider
func (r *ProviderRegistry) Port(provider entity.SignatureProvider) (EnvelopePort, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	port, ok := r.ports[provider]
	if !ok {
		return nil, fmt.Errorf("no signature provider registered for %q", provider)
	}
	return port, nil
}

// Providers returns the registered provider identifiers
func (r *ProviderRegistry) Providers() []entity.SignatureProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]entity.SignatureProvider, 0, len(r.ports))
	for p := range r.ports {
		providers = append(providers, p)
	}
	return providers
}
