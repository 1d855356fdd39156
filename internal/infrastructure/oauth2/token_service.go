package oauth2

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"logalty-esign/internal/config"
)

// safetyMargin is subtracted from the expiry when deciding reuse, so a token
// about to lapse is never handed to a request already in flight
const safetyMargin = 60 * time.Second

// ErrCredentialAcquisition is returned when the token endpoint fails or
// answers with a malformed payload
var ErrCredentialAcquisition = errors.New("credential acquisition failed")

// TokenResponse represents the OAuth2 token response from Logalty
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
}

// Credential is one time-bounded access token. Value and expiry always change
// together; the cached credential is replaced atomically on refresh.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Usable reports whether the credential can still back a request at now
func (c Credential) Usable(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt.Add(-safetyMargin))
}

// TokenService owns the client-credentials token lifecycle
type TokenService interface {
	// Acquire returns a usable bearer token, reusing the cached credential
	// when possible. Concurrent callers racing an expired credential share a
	// single exchange.
	Acquire(ctx context.Context) (string, error)

	// Invalidate drops the cached credential so the next Acquire refreshes
	Invalidate()
}

type tokenService struct {
	config *config.Config
	logger *zap.Logger
	client *http.Client

	mu     sync.RWMutex
	cred   Credential
	flight singleflight.Group
	now    func() time.Time
}

func NewTokenService(cfg *config.Config, logger *zap.Logger) TokenService {
	return &tokenService{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: cfg.Logalty.Timeout,
		},
		now: time.Now,
	}
}

func (s *tokenService) Acquire(ctx context.Context) (string, error) {
	s.mu.RLock()
	cred := s.cred
	s.mu.RUnlock()

	if cred.Usable(s.now()) {
		return cred.AccessToken, nil
	}

	// Late arrivals join the in-flight exchange instead of starting their
	// own; the freshness re-check covers callers queued behind a finished
	// refresh.
	token, err, _ := s.flight.Do("token", func() (interface{}, error) {
		s.mu.RLock()
		cred := s.cred
		s.mu.RUnlock()

		if cred.Usable(s.now()) {
			return cred.AccessToken, nil
		}
		return s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

func (s *tokenService) Invalidate() {
	s.mu.Lock()
	s.cred = Credential{}
	s.mu.Unlock()

	s.logger.Info("Cached credential invalidated")
}

func (s *tokenService) refresh(ctx context.Context) (string, error) {
	tokenURL := s.config.Logalty.Endpoint() + "/oauth/token"

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.config.Logalty.ClientID},
		"client_secret": {s.config.Logalty.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialAcquisition, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s.logger.Debug("Refreshing access token", zap.String("url", tokenURL))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialAcquisition, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialAcquisition, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status=%d, body=%s", ErrCredentialAcquisition, resp.StatusCode, string(respBody))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(respBody, &tokenResp); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCredentialAcquisition, err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("%w: response missing access_token", ErrCredentialAcquisition)
	}

	expiresIn := tokenResp.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = s.config.Logalty.TokenExpiration
	}

	cred := Credential{
		AccessToken: tokenResp.AccessToken,
		ExpiresAt:   s.now().Add(time.Duration(expiresIn) * time.Second),
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	s.logger.Info("Access token refreshed",
		zap.Time("expires_at", cred.ExpiresAt),
	)

	return cred.AccessToken, nil
}
