package registry

import (
	"sync"

	"github.com/google/uuid"
)

// EnvelopeRegistry links local envelope identity to the provider's request
// identity, in both directions. Entries are only added once the provider has
// confirmed creation; the mapping is volatile and starts empty on restart.
type EnvelopeRegistry struct {
	mu       sync.RWMutex
	byLocal  map[uuid.UUID]string
	byRemote map[string]uuid.UUID
}

func NewEnvelopeRegistry() *EnvelopeRegistry {
	return &EnvelopeRegistry{
		byLocal:  make(map[uuid.UUID]string),
		byRemote: make(map[string]uuid.UUID),
	}
}

// Put inserts both directions of the mapping under one lock, so no reader can
// observe an entry in one direction only
func (r *EnvelopeRegistry) Put(localID uuid.UUID, remoteID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Replacing a mapping must not leave the old reverse entry behind.
	if old, ok := r.byLocal[localID]; ok {
		delete(r.byRemote, old)
	}
	r.byLocal[localID] = remoteID
	r.byRemote[remoteID] = localID
}

// RemoteID resolves the provider request id for a local envelope id
func (r *EnvelopeRegistry) RemoteID(localID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	remoteID, ok := r.byLocal[localID]
	return remoteID, ok
}

// LocalID resolves the local envelope id for a provider request id
func (r *EnvelopeRegistry) LocalID(remoteID string) (uuid.UUID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	localID, ok := r.byRemote[remoteID]
	return localID, ok
}

// Remove deletes both directions of the mapping
func (r *EnvelopeRegistry) Remove(localID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if remoteID, ok := r.byLocal[localID]; ok {
		delete(r.byRemote, remoteID)
		delete(r.byLocal, localID)
	}
}

// Len returns the number of mapped envelopes
func (r *EnvelopeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byLocal)
}
