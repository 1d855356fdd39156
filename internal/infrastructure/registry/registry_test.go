package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRegistry_RoundTrip(t *testing.T) {
	reg := NewEnvelopeRegistry()
	localID := uuid.New()

	reg.Put(localID, "req-123")

	remoteID, ok := reg.RemoteID(localID)
	require.True(t, ok)
	assert.Equal(t, "req-123", remoteID)

	gotLocal, ok := reg.LocalID("req-123")
	require.True(t, ok)
	assert.Equal(t, localID, gotLocal)

	assert.Equal(t, 1, reg.Len())
}

func TestEnvelopeRegistry_MissingEntries(t *testing.T) {
	reg := NewEnvelopeRegistry()

	_, ok := reg.RemoteID(uuid.New())
	assert.False(t, ok)

	_, ok = reg.LocalID("req-unknown")
	assert.False(t, ok)
}

func TestEnvelopeRegistry_PutReplacesReverseEntry(t *testing.T) {
	reg := NewEnvelopeRegistry()
	localID := uuid.New()

	reg.Put(localID, "req-old")
	reg.Put(localID, "req-new")

	remoteID, ok := reg.RemoteID(localID)
	require.True(t, ok)
	assert.Equal(t, "req-new", remoteID)

	// The stale reverse entry must be gone.
	_, ok = reg.LocalID("req-old")
	assert.False(t, ok)

	gotLocal, ok := reg.LocalID("req-new")
	require.True(t, ok)
	assert.Equal(t, localID, gotLocal)

	assert.Equal(t, 1, reg.Len())
}

func TestEnvelopeRegistry_RemoveDeletesBothDirections(t *testing.T) {
	reg := NewEnvelopeRegistry()
	localID := uuid.New()

	reg.Put(localID, "req-123")
	reg.Remove(localID)

	_, ok := reg.RemoteID(localID)
	assert.False(t, ok)

	_, ok = reg.LocalID("req-123")
	assert.False(t, ok)

	assert.Equal(t, 0, reg.Len())
}

func TestEnvelopeRegistry_RemoveUnknownIsNoop(t *testing.T) {
	reg := NewEnvelopeRegistry()
	reg.Put(uuid.New(), "req-123")

	reg.Remove(uuid.New())

	assert.Equal(t, 1, reg.Len())
}

func TestEnvelopeRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewEnvelopeRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			localID := uuid.New()
			remoteID := fmt.Sprintf("req-%d", i)

			reg.Put(localID, remoteID)

			got, ok := reg.RemoteID(localID)
			assert.True(t, ok)
			assert.Equal(t, remoteID, got)

			if i%2 == 0 {
				reg.Remove(localID)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, reg.Len())
}
