package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"logalty-esign/internal/config"
	"logalty-esign/internal/domain/entity"
	"logalty-esign/internal/domain/repository"
	"logalty-esign/internal/infrastructure/document"
	"logalty-esign/internal/infrastructure/httpclient"
	"logalty-esign/internal/infrastructure/oauth2"
	"logalty-esign/internal/infrastructure/registry"
	"logalty-esign/internal/infrastructure/resilience"
)

func testRepositoryConfig(baseURL, docBase string) *config.Config {
	cfg := &config.Config{}
	cfg.Logalty.ClientID = "client-id"
	cfg.Logalty.ClientSecret = "client-secret"
	cfg.Logalty.BaseURL = baseURL
	cfg.Logalty.APIVersion = "v1"
	cfg.Logalty.Timeout = 5 * time.Second
	cfg.Logalty.TokenExpiration = 3600
	cfg.Logalty.DefaultSignatureType = "ADVANCED"
	cfg.Logalty.DefaultEmailMessage = "Please review and sign the attached document."

	cfg.Document.BasePath = docBase
	cfg.Document.ReadyFolder = "ready"
	cfg.Document.ProgressFolder = "progress"
	cfg.Document.FinishFolder = "finish"
	cfg.Document.FileExtension = ".pdf"
	return cfg
}

// newTestRepository wires the full chain against a fake Logalty server:
// token service, breaker, retry executor, HTTP client, document port.
func newTestRepository(t *testing.T, handler http.Handler) (repository.EnvelopePort, *registry.EnvelopeRegistry, *config.Config) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := testRepositoryConfig(srv.URL, t.TempDir())
	logger := zap.NewNop()

	tokens := oauth2.NewTokenService(cfg, logger)
	breaker := resilience.NewCircuitBreaker(logger)
	executor := resilience.NewExecutor(breaker, cfg.Logalty.MaxRetries, logger).WithInterval(time.Millisecond)
	client := httpclient.NewHTTPClient(cfg, tokens, executor, nil, logger)

	docPort, err := document.NewContentPort(cfg, logger)
	require.NoError(t, err)

	reg := registry.NewEnvelopeRegistry()
	return NewLogaltyRepository(cfg, client, docPort, reg, logger), reg, cfg
}

// fakeLogalty serves the token endpoint plus the signature-request routes
func fakeLogalty(t *testing.T, mux *http.ServeMux) http.Handler {
	t.Helper()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok","token_type":"Bearer","expires_in":3600}`)
	})
	return mux
}

func TestLogaltyRepository_CreateRegistersMapping(t *testing.T) {
	mux := http.NewServeMux()
	var received entity.SignatureRequestPayload
	mux.HandleFunc("/api/v1/signature-requests", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"id":"req-123"}`)
	})

	repo, reg, _ := newTestRepository(t, fakeLogalty(t, mux))

	localID := uuid.New()
	created, err := repo.Create(context.Background(), &entity.SignatureEnvelope{
		LocalID: localID,
		Title:   "Quarterly contract",
	})
	require.NoError(t, err)

	assert.Equal(t, localID, created.LocalID)
	assert.Equal(t, "req-123", created.RemoteID)
	assert.Equal(t, entity.StatusDraft, created.Status)
	assert.Equal(t, entity.ProviderLogalty, created.Provider)

	remoteID, ok := reg.RemoteID(localID)
	require.True(t, ok)
	assert.Equal(t, "req-123", remoteID)

	assert.Equal(t, "Quarterly contract", received.Title)
	assert.Equal(t, "ADVANCED", received.SignatureType)
	assert.Equal(t, "Please review and sign the attached document.", received.Message)
}

func TestLogaltyRepository_CreateAssignsLocalIDWhenMissing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/signature-requests", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":"req-456"}`)
	})

	repo, reg, _ := newTestRepository(t, fakeLogalty(t, mux))

	created, err := repo.Create(context.Background(), &entity.SignatureEnvelope{Title: "Untracked"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.LocalID)

	_, ok := reg.RemoteID(created.LocalID)
	assert.True(t, ok)
}

func TestLogaltyRepository_CreateAttachesDocuments(t *testing.T) {
	mux := http.NewServeMux()
	var received entity.SignatureRequestPayload
	mux.HandleFunc("/api/v1/signature-requests", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		fmt.Fprint(w, `{"id":"req-123"}`)
	})

	repo, _, cfg := newTestRepository(t, fakeLogalty(t, mux))

	readyDir := filepath.Join(cfg.Document.BasePath, cfg.Document.ReadyFolder)
	content := []byte("%PDF-1.4 fake contract")
	require.NoError(t, os.WriteFile(filepath.Join(readyDir, "contract.pdf"), content, 0644))

	_, err := repo.Create(context.Background(), &entity.SignatureEnvelope{
		Title:     "With attachment",
		Documents: []string{"contract"},
	})
	require.NoError(t, err)

	require.Len(t, received.Documents, 1)
	assert.Equal(t, "contract.pdf", received.Documents[0].Filename)
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), received.Documents[0].Content)
}

func TestLogaltyRepository_CreateMissingDocumentFails(t *testing.T) {
	mux := http.NewServeMux()
	requests := 0
	mux.HandleFunc("/api/v1/signature-requests", func(w http.ResponseWriter, r *http.Request) {
		requests++
		fmt.Fprint(w, `{"id":"req-123"}`)
	})

	repo, _, _ := newTestRepository(t, fakeLogalty(t, mux))

	_, err := repo.Create(context.Background(), &entity.SignatureEnvelope{
		Title:     "Broken",
		Documents: []string{"does-not-exist"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, requests, "a missing attachment fails before any request is sent")
}

func TestLogaltyRepository_CreateWithoutRemoteIDFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/signature-requests", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	repo, reg, _ := newTestRepository(t, fakeLogalty(t, mux))

	_, err := repo.Create(context.Background(), &entity.SignatureEnvelope{Title: "No id"})
	assert.ErrorIs(t, err, repository.ErrEnvelopeCreation)
	assert.Equal(t, 0, reg.Len(), "nothing is registered without a confirmed remote id")
}

func TestLogaltyRepository_GetNormalizesRemoteStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/signature-requests/req-123", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		fmt.Fprint(w, `{"title":"Quarterly contract","message":"Please sign","status":"IN_PROGRESS","createdAt":"2025-06-01T10:00:00Z"}`)
	})

	repo, reg, _ := newTestRepository(t, fakeLogalty(t, mux))

	localID := uuid.New()
	reg.Put(localID, "req-123")

	envelope, err := repo.Get(context.Background(), localID)
	require.NoError(t, err)

	assert.Equal(t, localID, envelope.LocalID)
	assert.Equal(t, "req-123", envelope.RemoteID)
	assert.Equal(t, entity.StatusSent, envelope.Status)
	assert.Equal(t, "Quarterly contract", envelope.Title)
	assert.Equal(t, "Please sign", envelope.Description)
	assert.Equal(t, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), envelope.CreatedAt.UTC())
}

func TestLogaltyRepository_GetUnknownEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	requests := 0
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	repo, _, _ := newTestRepository(t, fakeLogalty(t, mux))

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrEnvelopeNotFound)
	assert.Equal(t, 0, requests, "an unmapped id never reaches the network")
}

func TestLogaltyRepository_SendTriggersRefetch(t *testing.T) {
	mux := http.NewServeMux()
	sent := false
	mux.HandleFunc("/api/v1/signature-requests/req-123/send", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		sent = true
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/api/v1/signature-requests/req-123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"Contract","status":"SENT","createdAt":"2025-06-01T10:00:00Z"}`)
	})

	repo, reg, _ := newTestRepository(t, fakeLogalty(t, mux))

	localID := uuid.New()
	reg.Put(localID, "req-123")

	envelope, err := repo.Send(context.Background(), localID, uuid.New())
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, entity.StatusSent, envelope.Status)
}

func TestLogaltyRepository_SendUnknownEnvelope(t *testing.T) {
	repo, _, _ := newTestRepository(t, fakeLogalty(t, http.NewServeMux()))

	_, err := repo.Send(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrEnvelopeNotFound)
}

func TestLogaltyRepository_UpdateAndVoidReturnCurrentState(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/signature-requests/req-123", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"title":"Contract","status":"SIGNED","createdAt":"2025-06-01T10:00:00Z"}`)
	})

	repo, reg, _ := newTestRepository(t, fakeLogalty(t, mux))

	localID := uuid.New()
	reg.Put(localID, "req-123")

	updated, err := repo.Update(context.Background(), &entity.SignatureEnvelope{
		LocalID: localID,
		Title:   "Renamed locally",
	})
	require.NoError(t, err)
	// The remote stays authoritative; the local rename is not reflected.
	assert.Equal(t, "Contract", updated.Title)
	assert.Equal(t, entity.StatusCompleted, updated.Status)

	voided, err := repo.Void(context.Background(), localID, "no longer needed", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, voided.Status)
}

func TestLogaltyRepository_DeleteRemovesMappingOnly(t *testing.T) {
	mux := http.NewServeMux()
	requests := 0
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	repo, reg, _ := newTestRepository(t, fakeLogalty(t, mux))

	localID := uuid.New()
	reg.Put(localID, "req-123")

	require.NoError(t, repo.Delete(context.Background(), localID))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 0, requests, "delete never calls the remote API")

	_, err := repo.Get(context.Background(), localID)
	assert.ErrorIs(t, err, repository.ErrEnvelopeNotFound)
}

func TestLogaltyRepository_ListOperationsReturnEmpty(t *testing.T) {
	repo, _, _ := newTestRepository(t, fakeLogalty(t, http.NewServeMux()))
	ctx := context.Background()

	envelopes, err := repo.ListByStatus(ctx, entity.StatusSent, 10)
	require.NoError(t, err)
	assert.Empty(t, envelopes)

	envelopes, err = repo.ListByCreator(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, envelopes)

	envelopes, err = repo.ListBySender(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, envelopes)

	envelopes, err = repo.ListByProvider(ctx, entity.ProviderLogalty, 10)
	require.NoError(t, err)
	assert.Empty(t, envelopes)
}
