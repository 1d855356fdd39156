package entity

import (
	"time"

	"github.com/google/uuid"
)

// SignatureProvider identifies the TSP backing an envelope
type SignatureProvider string

const (
	ProviderLogalty SignatureProvider = "logalty"
)

// SignatureEnvelope is the canonical signature request entity. Instances are
// produced by the provider port; callers receive snapshots and must not expect
// writes to be reflected upstream.
type SignatureEnvelope struct {
	LocalID     uuid.UUID         `json:"local_id"`
	Provider    SignatureProvider `json:"provider"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Status      EnvelopeStatus    `json:"status"`
	RemoteID    string            `json:"remote_id"`

	// Documents lists file names to attach on create (without extension,
	// resolved against the ready folder).
	Documents []string `json:"documents,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
