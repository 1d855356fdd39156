package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"go.uber.org/zap"

	"logalty-esign/internal/config"
	"logalty-esign/internal/domain/entity"
	"logalty-esign/internal/infrastructure/oauth2"
	"logalty-esign/internal/infrastructure/resilience"
)

const maxBodyLogLength = 500 // Maximum characters to log for body

// APIError is a non-2xx answer from the Logalty API. It is never retried by
// the policy; 5xx responses still count against the breaker window.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status=%d, body=%s", e.StatusCode, e.Body)
}

// HTTPStatus implements resilience.StatusCoder
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

type HTTPClient interface {
	// Get performs an authenticated GET request through the fault-tolerance policy
	Get(ctx context.Context, path string, result interface{}) error
	// Post performs an authenticated POST request through the fault-tolerance policy
	Post(ctx context.Context, path string, body interface{}, result interface{}) error
}

// RequestLogSaver persists outbound request logs
type RequestLogSaver interface {
	Save(ctx context.Context, log *entity.RequestLog) error
}

type httpClient struct {
	client       *http.Client
	config       *config.Config
	baseURL      string
	tokenService oauth2.TokenService
	executor     *resilience.Executor
	logSaver     RequestLogSaver
	logger       *zap.Logger
}

func NewHTTPClient(
	cfg *config.Config,
	tokenService oauth2.TokenService,
	executor *resilience.Executor,
	logSaver RequestLogSaver,
	logger *zap.Logger,
) HTTPClient {
	return &httpClient{
		client: &http.Client{
			Timeout: cfg.Logalty.Timeout,
		},
		config:       cfg,
		baseURL:      cfg.Logalty.Endpoint(),
		tokenService: tokenService,
		executor:     executor,
		logSaver:     logSaver,
		logger:       logger,
	}
}

// truncateString truncates a string if it exceeds maxLength
func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength] + fmt.Sprintf("... [truncated, total %d chars]", len(s))
}

// base64Pattern matches long base64-like runs, i.e. attached document content
var base64Pattern = regexp.MustCompile(`"([A-Za-z0-9+/=]{100,})"`)

// truncateBase64InJSON shortens base64-like values so document content does
// not flood the logs
func truncateBase64InJSON(jsonStr string, maxLength int) string {
	return base64Pattern.ReplaceAllStringFunc(jsonStr, func(match string) string {
		content := match[1 : len(match)-1]
		if len(content) > maxLength {
			return fmt.Sprintf(`"%s... [base64 truncated, total %d chars]"`, content[:maxLength], len(content))
		}
		return match
	})
}

// saveRequestLog persists the attempt asynchronously so logging never blocks
// the request path
func (c *httpClient) saveRequestLog(method, endpoint string, requestBody, responseBody []byte, statusCode int, duration time.Duration) {
	if c.logSaver == nil {
		return
	}

	reqBodyStr := ""
	if len(requestBody) > 0 {
		reqBodyStr = truncateBase64InJSON(string(requestBody), 100)
		if len(reqBodyStr) > 10000 {
			reqBodyStr = reqBodyStr[:10000] + "... [truncated]"
		}
	}

	respBodyStr := string(responseBody)
	if len(respBodyStr) > 10000 {
		respBodyStr = respBodyStr[:10000] + "... [truncated]"
	}

	requestLog := &entity.RequestLog{
		Endpoint:     endpoint,
		Method:       method,
		RequestBody:  reqBodyStr,
		ResponseBody: respBodyStr,
		StatusCode:   statusCode,
		Duration:     duration.Milliseconds(),
		CreatedAt:    time.Now(),
	}

	go func() {
		if err := c.logSaver.Save(context.Background(), requestLog); err != nil {
			c.logger.Warn("Failed to save request log",
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
		}
	}()
}

func (c *httpClient) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}, isRetry bool) error {
	fullURL := c.baseURL + path

	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	// Token acquisition precedes the policy: a credential failure is fatal
	// for the operation, not something to retry against the breaker.
	accessToken, err := c.tokenService.Acquire(ctx)
	if err != nil {
		return err
	}

	attempt := func(ctx context.Context) error {
		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = bytes.NewReader(jsonBody)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Date", time.Now().UTC().Format(http.TimeFormat))

		c.logger.Info(">>> [LOGALTY-REQ]",
			zap.String("method", method),
			zap.String("url", fullURL),
			zap.String("body", truncateString(truncateBase64InJSON(string(jsonBody), 100), maxBodyLogLength)),
		)

		startTime := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			return resilience.MarkTransient(err)
		}
		defer resp.Body.Close()

		duration := time.Since(startTime)

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return resilience.MarkTransient(err)
		}

		c.logger.Info(">>> [LOGALTY-RESPONSE]",
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", duration),
			zap.String("body", truncateString(string(respBody), maxBodyLogLength)),
		)

		c.saveRequestLog(method, fullURL, jsonBody, respBody, resp.StatusCode, duration)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}

		return nil
	}

	err = c.executor.Execute(ctx, method+" "+path, attempt)

	// Handle 401 Unauthorized once: drop the cached credential and replay
	// the whole request with a fresh token.
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized && !isRetry {
		c.logger.Info("Received 401 Unauthorized, refreshing credential and retrying")
		c.tokenService.Invalidate()
		return c.doRequest(ctx, method, path, body, result, true)
	}

	return err
}

func (c *httpClient) Get(ctx context.Context, path string, result interface{}) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, result, false)
}

func (c *httpClient) Post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.doRequest(ctx, http.MethodPost, path, body, result, false)
}
